package source

import (
	"context"
	"fmt"

	"tripsentry/internal/models"
	"tripsentry/pkg/retry"
)

// ActivityClient - HTTP адаптер activity-сервиса
type ActivityClient struct {
	baseURL string
	http    *HTTPClient
}

var _ ActivityReminderSource = (*ActivityClient)(nil)

// NewActivityClient создает адаптер activity-сервиса
func NewActivityClient(baseURL string, httpClient *HTTPClient) *ActivityClient {
	if httpClient == nil {
		httpClient = GetGlobalHTTPClient()
	}
	return &ActivityClient{
		baseURL: baseURL,
		http:    httpClient,
	}
}

// activitiesResponse - формат ответа activity-сервиса
type activitiesResponse struct {
	Activities []models.ActivityReminder `json:"activities"`
}

// CheckUpcomingActivities возвращает активности, начинающиеся в ближайшем окне
func (c *ActivityClient) CheckUpcomingActivities(ctx context.Context, tripID string) ([]models.ActivityReminder, error) {
	url := fmt.Sprintf("%s/api/v1/trips/%s/activities/upcoming", c.baseURL, tripID)
	return c.fetchActivities(ctx, url)
}

// GetTodayActivities возвращает активности на сегодня
func (c *ActivityClient) GetTodayActivities(ctx context.Context, tripID string) ([]models.ActivityReminder, error) {
	url := fmt.Sprintf("%s/api/v1/trips/%s/activities/today", c.baseURL, tripID)
	return c.fetchActivities(ctx, url)
}

func (c *ActivityClient) fetchActivities(ctx context.Context, url string) ([]models.ActivityReminder, error) {
	return retry.DoWithResult(ctx, func() ([]models.ActivityReminder, error) {
		var resp activitiesResponse
		found, err := c.http.getJSON(ctx, SourceNameActivity, url, &resp)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, nil
		}
		return resp.Activities, nil
	}, sourceRetryConfig())
}
