package websocket

import (
	"sync"

	jsoniter "github.com/json-iterator/go"

	"tripsentry/internal/aggregator"
	"tripsentry/internal/models"
	"tripsentry/pkg/utils"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Проверка соответствия интерфейсу наблюдателя на этапе компиляции
var _ aggregator.TripObserver = (*Hub)(nil)

// tripMessage - сериализованное сообщение для подписчиков поездки
type tripMessage struct {
	tripID string
	data   []byte
}

// Hub управляет WebSocket подписками на уведомления поездок
//
// Клиент подписывается на одну поездку; сообщения доставляются только
// подписчикам этой поездки. Hub реализует aggregator.TripObserver,
// поэтому подключается к ядру как обычный наблюдатель.
//
// Использование:
// 1. Создать hub: hub := NewHub(logger)
// 2. Запустить в горутине: go hub.Run()
// 3. Подписать на агрегатор: agg.AddObserver(hub)
type Hub struct {
	// Подписчики по поездкам
	byTrip map[string]map[*Client]bool

	broadcast  chan tripMessage
	register   chan *Client
	unregister chan *Client

	mu  sync.RWMutex
	log *utils.Logger
}

// NewHub создает новый Hub
func NewHub(log *utils.Logger) *Hub {
	if log == nil {
		log = utils.L()
	}
	return &Hub{
		byTrip:     make(map[string]map[*Client]bool),
		broadcast:  make(chan tripMessage, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		log:        log.WithComponent("websocket"),
	}
}

// Run запускает главный цикл Hub
//
// Должен запускаться в отдельной горутине: go hub.Run()
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.byTrip[client.tripID] == nil {
				h.byTrip[client.tripID] = make(map[*Client]bool)
			}
			h.byTrip[client.tripID][client] = true
			total := len(h.byTrip[client.tripID])
			h.mu.Unlock()
			h.log.Info("client subscribed",
				utils.Trip(client.tripID), utils.String("client_id", client.id), utils.Count(total))

		case client := <-h.unregister:
			h.removeClient(client)

		case msg := <-h.broadcast:
			// Снимок подписчиков под коротким RLock, отправка без блокировки
			h.mu.RLock()
			clients := make([]*Client, 0, len(h.byTrip[msg.tripID]))
			for client := range h.byTrip[msg.tripID] {
				clients = append(clients, client)
			}
			h.mu.RUnlock()

			var toRemove []*Client
			for _, client := range clients {
				select {
				case client.send <- msg.data:
				default:
					// Клиент не успевает читать - отключаем
					toRemove = append(toRemove, client)
				}
			}

			for _, client := range toRemove {
				h.removeClient(client)
				h.log.Warn("slow client dropped",
					utils.Trip(client.tripID), utils.String("client_id", client.id))
			}
		}
	}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.byTrip[client.tripID]
	if !ok {
		return
	}
	if _, ok := subs[client]; ok {
		delete(subs, client)
		close(client.send)
	}
	if len(subs) == 0 {
		delete(h.byTrip, client.tripID)
	}
}

// BroadcastToTrip отправляет сообщение подписчикам поездки
func (h *Hub) BroadcastToTrip(tripID string, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		h.log.Error("failed to marshal broadcast message", utils.Trip(tripID), utils.Err(err))
		return
	}
	h.broadcast <- tripMessage{tripID: tripID, data: data}
}

// SubscriberCount возвращает количество подписчиков поездки
func (h *Hub) SubscriberCount(tripID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byTrip[tripID])
}

// ============================================================
// aggregator.TripObserver
// ============================================================

// OnNotificationCreated рассылает новое уведомление подписчикам поездки
func (h *Hub) OnNotificationCreated(tripID string, n *models.Notification) {
	h.BroadcastToTrip(tripID, &NotificationMessage{
		Type:   MessageTypeNotification,
		TripID: tripID,
		Data:   n,
	})
}

// OnUnreadCountChanged рассылает изменение счетчика непрочитанных
func (h *Hub) OnUnreadCountChanged(tripID string, unread int) {
	h.BroadcastToTrip(tripID, &UnreadCountMessage{
		Type:   MessageTypeUnreadCount,
		TripID: tripID,
		Unread: unread,
	})
}

// OnTripStateChanged рассылает смену состояния поездки
func (h *Hub) OnTripStateChanged(tripID string, state string) {
	h.BroadcastToTrip(tripID, &TripStateMessage{
		Type:   MessageTypeTripState,
		TripID: tripID,
		State:  state,
	})
}
