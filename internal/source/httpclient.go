package source

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// HTTPClientConfig содержит настройки HTTP клиента для источников
type HTTPClientConfig struct {
	// Таймауты соединения
	ConnectTimeout time.Duration // таймаут установки TCP соединения (default: 3s)
	ReadTimeout    time.Duration // таймаут чтения ответа (default: 5s)
	TotalTimeout   time.Duration // общий таймаут операции (default: 10s)

	// Connection pooling
	MaxIdleConns        int           // максимум idle соединений (default: 50)
	MaxIdleConnsPerHost int           // максимум idle соединений на хост (default: 10)
	IdleConnTimeout     time.Duration // таймаут простоя соединения (default: 90s)

	// TLS
	TLSHandshakeTimeout time.Duration // таймаут TLS handshake (default: 5s)
}

// DefaultHTTPClientConfig возвращает конфигурацию по умолчанию
//
// Источники опрашиваются фоново и часто, поэтому connection pool
// обязателен, а таймауты короче, чем у пользовательских запросов.
func DefaultHTTPClientConfig() HTTPClientConfig {
	return HTTPClientConfig{
		ConnectTimeout: 3 * time.Second,
		ReadTimeout:    5 * time.Second,
		TotalTimeout:   10 * time.Second,

		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,

		TLSHandshakeTimeout: 5 * time.Second,
	}
}

// HTTPClient - общий HTTP клиент адаптеров источников с connection pooling
type HTTPClient struct {
	client *http.Client
	config HTTPClientConfig
}

// globalClient - глобальный HTTP клиент для переиспользования соединений
var (
	globalClient     *HTTPClient
	globalClientOnce sync.Once
)

// GetGlobalHTTPClient возвращает глобальный HTTP клиент с настройками по умолчанию
func GetGlobalHTTPClient() *HTTPClient {
	globalClientOnce.Do(func() {
		globalClient = NewHTTPClient(DefaultHTTPClientConfig())
	})
	return globalClient
}

// NewHTTPClient создаёт новый HTTP клиент с заданной конфигурацией
func NewHTTPClient(config HTTPClientConfig) *HTTPClient {
	dialer := &net.Dialer{
		Timeout:   config.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext: dialer.DialContext,

		MaxIdleConns:        config.MaxIdleConns,
		MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
		IdleConnTimeout:     config.IdleConnTimeout,

		TLSHandshakeTimeout: config.TLSHandshakeTimeout,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},

		ForceAttemptHTTP2:     true,
		ResponseHeaderTimeout: config.ReadTimeout,
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   config.TotalTimeout,
	}

	return &HTTPClient{
		client: client,
		config: config,
	}
}

// GetConfig возвращает текущую конфигурацию клиента
func (hc *HTTPClient) GetConfig() HTTPClientConfig {
	return hc.config
}

// Close закрывает все idle соединения
// Должен вызываться при graceful shutdown
func (hc *HTTPClient) Close() {
	if transport, ok := hc.client.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}

// CloseGlobalClient закрывает глобальный HTTP клиент
func CloseGlobalClient() {
	if globalClient != nil {
		globalClient.Close()
	}
}

// getJSON выполняет GET запрос и декодирует JSON ответ в out
//
// Семантика статусов:
//   - 200: декодируем тело
//   - 204 и 404: данных нет, out не трогаем, ошибки нет (found=false)
//   - остальное: ошибка категории service
//
// Сетевые сбои возвращаются категорией network.
func (hc *HTTPClient) getJSON(ctx context.Context, sourceName, url string, out interface{}) (found bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, NewServiceError(sourceName, "invalid request: "+err.Error(), err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := hc.client.Do(req)
	if err != nil {
		return false, NewNetworkError(sourceName, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// продолжаем
	case http.StatusNoContent, http.StatusNotFound:
		io.Copy(io.Discard, resp.Body)
		return false, nil
	default:
		io.Copy(io.Discard, resp.Body)
		return false, NewServiceError(sourceName,
			fmt.Sprintf("unexpected status %d from %s", resp.StatusCode, url), nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, NewNetworkError(sourceName, err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return false, NewServiceError(sourceName, "malformed response: "+err.Error(), err)
	}

	return true, nil
}
