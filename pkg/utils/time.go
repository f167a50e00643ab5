package utils

import (
	"time"
)

// time.go - утилиты для работы со временем
//
// Назначение:
// Вспомогательные функции для временных операций агрегатора уведомлений:
// гейт "погода проверяется не чаще раза в календарный день",
// окна дедупликации и фильтрация по временным диапазонам.
//
// Функции:
// - SameCalendarDay: относятся ли два момента к одному календарному дню (UTC)
// - GetDayStart / GetDayStartFrom: начало дня (00:00:00 UTC)
// - GetDayEnd / GetDayEndFrom: конец дня (23:59:59.999999999 UTC)
// - WithinWindow: попадает ли момент в окно от опорного времени

// ============================================================
// Границы календарного дня
// ============================================================

// GetDayStart возвращает начало текущего дня (00:00:00) в UTC
//
// Пример:
//
//	// Сейчас: 2024-01-15 14:30:45 UTC
//	start := GetDayStart()
//	// start: 2024-01-15 00:00:00 UTC
func GetDayStart() time.Time {
	return GetDayStartFrom(time.Now().UTC())
}

// GetDayStartFrom возвращает начало дня для указанного времени в UTC
func GetDayStartFrom(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// GetDayEnd возвращает конец текущего дня (23:59:59.999999999) в UTC
func GetDayEnd() time.Time {
	return GetDayEndFrom(time.Now().UTC())
}

// GetDayEndFrom возвращает конец дня для указанного времени
func GetDayEndFrom(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999999999, time.UTC)
}

// ============================================================
// Календарные сравнения
// ============================================================

// SameCalendarDay возвращает true если оба момента относятся
// к одному календарному дню в UTC
//
// Используется гейтом погодных проверок: проверка выполняется
// не чаще одного раза в календарный день, а не раз в 24 часа.
// 23:59 и 00:01 следующего дня - разные дни.
func SameCalendarDay(a, b time.Time) bool {
	a = a.UTC()
	b = b.UTC()
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// ============================================================
// Временные окна
// ============================================================

// WithinWindow возвращает true если момент t попадает в окно
// [ref-window, ref] относительно опорного времени ref
//
// Используется дедупликацией: уведомление моложе окна подавляет
// новое такого же вида.
func WithinWindow(t, ref time.Time, window time.Duration) bool {
	if t.After(ref) {
		// Будущие метки считаем попадающими в окно (защита от рассинхрона часов)
		return true
	}
	return ref.Sub(t) < window
}
