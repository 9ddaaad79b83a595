// Package clock абстрагирует источник текущего времени, чтобы в тестах
// можно было подставить синтетические часы и проверять граничные случаи
// вокруг окончания пробного периода.
package clock

import (
	"sync"
	"time"
)

// Clock возвращает текущий момент времени.
type Clock interface {
	Now() time.Time
}

// Real — системные часы.
type Real struct{}

// Now возвращает time.Now().
func (Real) Now() time.Time { return time.Now() }

// Fake — управляемые часы для тестов.
type Fake struct {
	mu  sync.Mutex
	now time.Time
}

// NewFake создает Fake c заданным начальным моментом.
func NewFake(now time.Time) *Fake {
	return &Fake{now: now}
}

// Now возвращает установленный момент времени.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Set устанавливает текущий момент.
func (f *Fake) Set(now time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = now
}

// Advance сдвигает часы вперед на d.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}
