package session

import (
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var now = time.Now

// TokenExpiry reads the exp claim of a JWT without verifying its signature.
func TokenExpiry(token string) (time.Time, error) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, errors.New("token has no exp claim")
	}
	return claims.ExpiresAt.Time, nil
}

// Monitor calls onExpire once when the session token expires. Tokens that
// are already expired or cannot be decoded fire right away.
type Monitor struct {
	once     sync.Once
	mu       sync.Mutex
	timer    *time.Timer
	stopped  bool
	onExpire func()
}

func NewMonitor(token string, onExpire func()) *Monitor {
	m := &Monitor{onExpire: onExpire}

	exp, err := TokenExpiry(token)
	wait := exp.Sub(now())
	if err != nil || wait <= 0 {
		go m.fire()
		return m
	}

	m.mu.Lock()
	m.timer = time.AfterFunc(wait, m.fire)
	m.mu.Unlock()
	return m
}

func (m *Monitor) fire() {
	m.mu.Lock()
	stopped := m.stopped
	m.mu.Unlock()
	if stopped {
		return
	}
	m.once.Do(m.onExpire)
}

// Stop cancels a pending callback. It is safe to call more than once.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
	if m.timer != nil {
		m.timer.Stop()
	}
}
