// Package session tracks the automation client's pairing lifecycle so
// the HTTP surface can answer status and QR queries without touching
// the client itself.
package session

import (
	"encoding/base64"
	"log/slog"
	"sync"
	"time"

	"github.com/skip2/go-qrcode"

	"zapbridge/internal/bus"
	"zapbridge/internal/domain"
)

// Tracker is the single source of truth for session state. It moves
// uninitialized -> pairing -> connected, and between connected and
// disconnected afterwards. The current QR code is held only while
// pairing; it is cleared the moment the session connects.
type Tracker struct {
	mu     sync.RWMutex
	state  domain.SessionState
	qr     string // PNG data URL for the current pairing code
	since  time.Time
	logger *slog.Logger
}

func NewTracker(logger *slog.Logger) *Tracker {
	return &Tracker{
		state:  domain.SessionUninitialized,
		since:  time.Now(),
		logger: logger,
	}
}

// Bind subscribes the tracker to session lifecycle events.
func (t *Tracker) Bind(events *bus.EventBus) {
	events.On(bus.EventSessionQR, func(evt bus.Event) {
		code, _ := evt.Payload["code"].(string)
		t.SetQR(code)
	})
	events.On(bus.EventSessionPairSuccess, func(bus.Event) { t.ClearQR() })
	events.On(bus.EventSessionConnected, func(bus.Event) { t.Connected() })
	events.On(bus.EventSessionDisconnected, func(bus.Event) { t.Disconnected() })
}

// SetQR enters the pairing state with a fresh code. The raw code is
// rendered to a PNG data URL so web clients can drop it straight into
// an img tag.
func (t *Tracker) SetQR(code string) {
	dataURL, err := encodeQR(code)
	if err != nil {
		t.logger.Error("failed to encode pairing code", "err", err)
		return
	}

	t.mu.Lock()
	t.state = domain.SessionPairing
	t.qr = dataURL
	t.since = time.Now()
	t.mu.Unlock()
	t.logger.Info("pairing code available, waiting for scan")
}

// ClearQR drops the pairing code after a successful scan. The state
// stays pairing until the client reports connected.
func (t *Tracker) ClearQR() {
	t.mu.Lock()
	t.qr = ""
	t.mu.Unlock()
}

func (t *Tracker) Connected() {
	t.mu.Lock()
	t.state = domain.SessionConnected
	t.qr = ""
	t.since = time.Now()
	t.mu.Unlock()
	t.logger.Info("session connected")
}

func (t *Tracker) Disconnected() {
	t.mu.Lock()
	t.state = domain.SessionDisconnected
	t.since = time.Now()
	t.mu.Unlock()
	t.logger.Warn("session disconnected")
}

// Snapshot returns a consistent view of the current state.
func (t *Tracker) Snapshot() domain.SessionSnapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return domain.SessionSnapshot{
		State: t.state,
		QR:    t.qr,
		Since: t.since,
	}
}

func encodeQR(code string) (string, error) {
	png, err := qrcode.Encode(code, qrcode.Medium, 256)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
