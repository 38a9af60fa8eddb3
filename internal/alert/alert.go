// Package alert pushes trade notifications to external channels. Delivery is
// fire-and-forget: the trading path never blocks on a webhook.
package alert

import (
	"context"
	"sync"
	"time"

	"hype_trader/internal/core"
)

type Level string

const (
	Info     Level = "INFO"
	Warning  Level = "WARNING"
	Critical Level = "CRITICAL"
)

// Payload is one notification
type Payload struct {
	Level     Level
	Title     string
	Message   string
	Timestamp time.Time
	Fields    map[string]string
}

// Channel delivers a notification to one destination
type Channel interface {
	Send(ctx context.Context, p Payload) error
	Name() string
}

// Manager fans notifications out to every configured channel
type Manager struct {
	mu       sync.RWMutex
	channels []Channel
	logger   core.ILogger
}

// NewManager creates an empty manager; without channels Notify is a no-op
func NewManager(logger core.ILogger) *Manager {
	return &Manager{logger: logger.WithField("component", "alerts")}
}

// AddChannel registers a delivery channel
func (m *Manager) AddChannel(ch Channel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.channels = append(m.channels, ch)
	m.logger.Info("notification channel added", "channel", ch.Name())
}

// Notify sends asynchronously to every channel with a per-channel timeout.
// Failures are logged and dropped; notifications are best effort.
func (m *Manager) Notify(ctx context.Context, level Level, title, message string, fields map[string]string) {
	p := Payload{
		Level:     level,
		Title:     title,
		Message:   message,
		Timestamp: time.Now().UTC(),
		Fields:    fields,
	}

	m.mu.RLock()
	channels := make([]Channel, len(m.channels))
	copy(channels, m.channels)
	m.mu.RUnlock()

	for _, ch := range channels {
		go func(c Channel) {
			sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			defer cancel()
			if err := c.Send(sendCtx, p); err != nil {
				m.logger.Warn("notification delivery failed", "channel", c.Name(), "error", err)
			}
		}(ch)
	}
}
