package source

import (
	"context"
	"fmt"

	"tripsentry/internal/models"
	"tripsentry/pkg/retry"
)

// BudgetClient - HTTP адаптер budget-сервиса
type BudgetClient struct {
	baseURL string
	http    *HTTPClient
}

var _ BudgetSource = (*BudgetClient)(nil)

// NewBudgetClient создает адаптер budget-сервиса
func NewBudgetClient(baseURL string, httpClient *HTTPClient) *BudgetClient {
	if httpClient == nil {
		httpClient = GetGlobalHTTPClient()
	}
	return &BudgetClient{
		baseURL: baseURL,
		http:    httpClient,
	}
}

// CheckBudgetOverage возвращает превышение стоимости конкретной активности
//
// Фактическая стоимость передается сервису параметром, чтобы он не
// ходил за ней отдельным запросом. 204/404 от сервиса означают
// отсутствие превышения, возвращается nil
func (c *BudgetClient) CheckBudgetOverage(ctx context.Context, tripID, activityID string, actualCost float64) (*models.BudgetWarning, error) {
	url := fmt.Sprintf("%s/api/v1/trips/%s/activities/%s/budget/overage?actual_cost=%.2f",
		c.baseURL, tripID, activityID, actualCost)

	return retry.DoWithResult(ctx, func() (*models.BudgetWarning, error) {
		var warning models.BudgetWarning
		found, err := c.http.getJSON(ctx, SourceNameBudget, url, &warning)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, nil
		}
		return &warning, nil
	}, sourceRetryConfig())
}

// budgetStatusResponse - формат ответа budget-сервиса
type budgetStatusResponse struct {
	Warnings []models.BudgetWarning `json:"warnings"`
}

// CheckTripBudgetStatus возвращает предупреждения общего статуса бюджета
//
// Пустой список означает, что предупреждать не о чем
func (c *BudgetClient) CheckTripBudgetStatus(ctx context.Context, tripID string) ([]models.BudgetWarning, error) {
	url := fmt.Sprintf("%s/api/v1/trips/%s/budget/status", c.baseURL, tripID)

	return retry.DoWithResult(ctx, func() ([]models.BudgetWarning, error) {
		var resp budgetStatusResponse
		found, err := c.http.getJSON(ctx, SourceNameBudget, url, &resp)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, nil
		}

		// Пустые записи без kind и без legacy-полей отбрасываются
		warnings := make([]models.BudgetWarning, 0, len(resp.Warnings))
		for _, w := range resp.Warnings {
			if w.Kind == "" && w.ActivityTitle == "" {
				continue
			}
			warnings = append(warnings, w)
		}
		return warnings, nil
	}, sourceRetryConfig())
}
