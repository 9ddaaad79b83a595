// Package days содержит арифметику дней для жизненного цикла пробного периода.
package days

import (
	"math"
	"time"
)

const secondsPerDay = 24 * 60 * 60

// Remaining считает количество оставшихся дней до end с округлением вверх:
// ceil((end - now) / 24h). За сутки до окончания возвращает 1, в момент
// окончания — 0, после окончания значение становится отрицательным.
func Remaining(now, end time.Time) int {
	return int(math.Ceil(end.Sub(now).Seconds() / secondsPerDay))
}

// Expired сообщает, истек ли срок end на момент now. Граница не включается:
// ровно в момент окончания срок еще не считается истекшим.
func Expired(now, end time.Time) bool {
	return now.After(end)
}
