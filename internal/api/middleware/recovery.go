package middleware

import (
	"net/http"
	"runtime/debug"

	"tripsentry/pkg/utils"
)

// Recovery - middleware для восстановления после паники в handlers
//
// Перехватывает panic, логирует stack trace и возвращает клиенту 500.
// Сервер продолжает обслуживать последующие запросы.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				utils.L().Error("panic recovered",
					utils.Any("panic", err),
					utils.String("method", r.Method),
					utils.String("path", r.URL.Path),
					utils.String("stack", string(debug.Stack())),
				)

				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()

		next.ServeHTTP(w, r)
	})
}
