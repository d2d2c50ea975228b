package ratelimit

import (
	"context"
	"sync"
	"time"
)

type failureRecord struct {
	count int
	first time.Time
}

// FailureLimiter блокирует ключ после max неудач внутри скользящего окна.
// В отличие от Limiter считает не частоту попыток, а число провалов подряд:
// успех или истёкшее окно сбрасывают запись целиком.
type FailureLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	max     int
	records map[string]*failureRecord
	now     func() time.Time
}

func NewFailureLimiter(window time.Duration, max int) *FailureLimiter {
	return &FailureLimiter{
		window:  window,
		max:     max,
		records: make(map[string]*failureRecord),
		now:     time.Now,
	}
}

// Allow сообщает, можно ли делать попытку по ключу.
func (l *FailureLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[key]
	if !ok {
		return true
	}
	if l.now().Sub(rec.first) > l.window {
		delete(l.records, key)
		return true
	}
	return rec.count < l.max
}

// Failure регистрирует неудачную попытку.
func (l *FailureLimiter) Failure(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	rec, ok := l.records[key]
	if !ok || now.Sub(rec.first) > l.window {
		l.records[key] = &failureRecord{count: 1, first: now}
		return
	}
	rec.count++
}

// Reset сбрасывает счётчик после успеха.
func (l *FailureLimiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.records, key)
}

func (l *FailureLimiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for key, rec := range l.records {
		if now.Sub(rec.first) > 2*l.window {
			delete(l.records, key)
			removed++
		}
	}
	return removed
}

func (l *FailureLimiter) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			l.Sweep()
		}
	}
}
