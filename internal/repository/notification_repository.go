package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"tripsentry/internal/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Ошибки репозитория уведомлений
var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrNotificationExists   = errors.New("notification already exists")
)

// NotificationRepository - работа с таблицей notifications
//
// Поле Data хранится как JSONB; кодирование/декодирование выполняет
// репозиторий, наружу отдается готовая map.
type NotificationRepository struct {
	db *sql.DB
}

// NewNotificationRepository создает новый экземпляр репозитория
func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create сохраняет новое уведомление
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	query := `
		INSERT INTO notifications (id, trip_id, type, severity, title, message, created_at, is_read, data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	dataJSON, err := encodeData(n.Data)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(
		ctx,
		query,
		n.ID,
		n.TripID,
		n.Type,
		n.Severity,
		n.Title,
		n.Message,
		n.CreatedAt,
		n.IsRead,
		dataJSON,
	)

	if err != nil {
		if isNotificationUniqueViolation(err) {
			return ErrNotificationExists
		}
		return err
	}

	return nil
}

// GetByTrip возвращает все уведомления поездки, новые первыми
func (r *NotificationRepository) GetByTrip(ctx context.Context, tripID string) ([]*models.Notification, error) {
	query := `
		SELECT id, trip_id, type, severity, title, message, created_at, is_read, data
		FROM notifications
		WHERE trip_id = $1
		ORDER BY created_at DESC, id`

	rows, err := r.db.QueryContext(ctx, query, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []*models.Notification
	for rows.Next() {
		n := &models.Notification{}
		var dataJSON []byte
		err := rows.Scan(
			&n.ID,
			&n.TripID,
			&n.Type,
			&n.Severity,
			&n.Title,
			&n.Message,
			&n.CreatedAt,
			&n.IsRead,
			&dataJSON,
		)
		if err != nil {
			return nil, err
		}

		n.Data, err = decodeData(dataJSON)
		if err != nil {
			return nil, err
		}

		notifications = append(notifications, n)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return notifications, nil
}

// GetByID возвращает уведомление по ID в рамках поездки
func (r *NotificationRepository) GetByID(ctx context.Context, tripID, id string) (*models.Notification, error) {
	query := `
		SELECT id, trip_id, type, severity, title, message, created_at, is_read, data
		FROM notifications
		WHERE trip_id = $1 AND id = $2`

	n := &models.Notification{}
	var dataJSON []byte
	err := r.db.QueryRowContext(ctx, query, tripID, id).Scan(
		&n.ID,
		&n.TripID,
		&n.Type,
		&n.Severity,
		&n.Title,
		&n.Message,
		&n.CreatedAt,
		&n.IsRead,
		&dataJSON,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}

	n.Data, err = decodeData(dataJSON)
	if err != nil {
		return nil, err
	}

	return n, nil
}

// MarkAsRead помечает уведомление прочитанным
//
// Операция идемпотентна: повторная пометка и пометка несуществующего
// ID не являются ошибкой.
func (r *NotificationRepository) MarkAsRead(ctx context.Context, tripID, id string) error {
	query := `
		UPDATE notifications
		SET is_read = TRUE
		WHERE trip_id = $1 AND id = $2`

	_, err := r.db.ExecContext(ctx, query, tripID, id)
	return err
}

// MarkAllAsRead помечает все уведомления поездки прочитанными
func (r *NotificationRepository) MarkAllAsRead(ctx context.Context, tripID string) error {
	query := `
		UPDATE notifications
		SET is_read = TRUE
		WHERE trip_id = $1 AND is_read = FALSE`

	_, err := r.db.ExecContext(ctx, query, tripID)
	return err
}

// Delete удаляет уведомление поездки
//
// Идемпотентна: удаление несуществующего ID не является ошибкой.
func (r *NotificationRepository) Delete(ctx context.Context, tripID, id string) error {
	query := `DELETE FROM notifications WHERE trip_id = $1 AND id = $2`

	_, err := r.db.ExecContext(ctx, query, tripID, id)
	return err
}

// DeleteByTrip удаляет все уведомления поездки
func (r *NotificationRepository) DeleteByTrip(ctx context.Context, tripID string) error {
	query := `DELETE FROM notifications WHERE trip_id = $1`

	_, err := r.db.ExecContext(ctx, query, tripID)
	return err
}

// CountUnread возвращает количество непрочитанных уведомлений поездки
func (r *NotificationRepository) CountUnread(ctx context.Context, tripID string) (int, error) {
	query := `SELECT COUNT(*) FROM notifications WHERE trip_id = $1 AND is_read = FALSE`

	var count int
	err := r.db.QueryRowContext(ctx, query, tripID).Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}

// encodeData сериализует Data в JSONB
//
// nil map пишется как SQL NULL, а не как строка "null"
func encodeData(data map[string]interface{}) (interface{}, error) {
	if data == nil {
		return nil, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// decodeData десериализует JSONB обратно в map
func decodeData(raw []byte) (map[string]interface{}, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var data map[string]interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return data, nil
}

// isNotificationUniqueViolation проверяет, является ли ошибка нарушением UNIQUE constraint
func isNotificationUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "duplicate key") || strings.Contains(errStr, "23505")
}
