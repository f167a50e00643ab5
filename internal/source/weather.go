package source

import (
	"context"
	"fmt"

	"tripsentry/internal/models"
	"tripsentry/pkg/retry"
)

// Имена источников в логах и метриках
const (
	SourceNameWeather  = "weather"
	SourceNameBudget   = "budget"
	SourceNameActivity = "activity"
)

// retryIfNetwork разрешает ретраи только для сетевых сбоев
// Ответ сервиса (5xx, кривой payload) повторять бессмысленно
func retryIfNetwork(err error) bool {
	return Categorize(err) == ErrorCategoryNetwork
}

// sourceRetryConfig возвращает конфигурацию ретраев для фоновых опросов
func sourceRetryConfig() retry.Config {
	cfg := retry.ConservativeConfig()
	cfg.RetryIf = retryIfNetwork
	return cfg
}

// WeatherClient - HTTP адаптер weather-сервиса
type WeatherClient struct {
	baseURL string
	http    *HTTPClient
}

var _ WeatherSource = (*WeatherClient)(nil)

// NewWeatherClient создает адаптер weather-сервиса
func NewWeatherClient(baseURL string, httpClient *HTTPClient) *WeatherClient {
	if httpClient == nil {
		httpClient = GetGlobalHTTPClient()
	}
	return &WeatherClient{
		baseURL: baseURL,
		http:    httpClient,
	}
}

// weatherAlertsResponse - формат ответа weather-сервиса
type weatherAlertsResponse struct {
	Alerts []models.WeatherAlert `json:"alerts"`
}

// CheckWeatherAlerts возвращает активные погодные предупреждения поездки
func (c *WeatherClient) CheckWeatherAlerts(ctx context.Context, tripID string) ([]models.WeatherAlert, error) {
	url := fmt.Sprintf("%s/api/v1/trips/%s/weather/alerts", c.baseURL, tripID)

	return retry.DoWithResult(ctx, func() ([]models.WeatherAlert, error) {
		var resp weatherAlertsResponse
		found, err := c.http.getJSON(ctx, SourceNameWeather, url, &resp)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, nil
		}
		return resp.Alerts, nil
	}, sourceRetryConfig())
}
