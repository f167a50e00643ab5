package source

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Категории ошибок источников
//
// Сетевые сбои (недоступен сервис, таймаут) и сбои самого сервиса
// (HTTP 5xx, кривой payload) логируются отдельно: первые обычно
// лечатся ретраем, вторые требуют внимания владельцев сервиса.
const (
	ErrorCategoryNetwork = "network"
	ErrorCategoryService = "service"
)

// SourceError - ошибка опроса источника с категорией для логирования
type SourceError struct {
	Source   string // имя источника: weather, budget, activity
	Category string // network или service
	Message  string
	Original error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s source: %s", e.Source, e.Message)
}

// Unwrap возвращает оригинальную ошибку для поддержки errors.Is() и errors.As()
func (e *SourceError) Unwrap() error {
	return e.Original
}

// NewNetworkError создает ошибку сетевой категории
func NewNetworkError(sourceName string, err error) *SourceError {
	return &SourceError{
		Source:   sourceName,
		Category: ErrorCategoryNetwork,
		Message:  err.Error(),
		Original: err,
	}
}

// NewServiceError создает ошибку категории сервиса
func NewServiceError(sourceName, message string, err error) *SourceError {
	return &SourceError{
		Source:   sourceName,
		Category: ErrorCategoryService,
		Message:  message,
		Original: err,
	}
}

// Categorize возвращает категорию ошибки для структурированного лога
//
// SourceError несет категорию сам; для прочих ошибок сетевыми
// считаются net.Error и отмены контекста.
func Categorize(err error) string {
	var srcErr *SourceError
	if errors.As(err, &srcErr) {
		return srcErr.Category
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return ErrorCategoryNetwork
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrorCategoryNetwork
	}

	return ErrorCategoryService
}
