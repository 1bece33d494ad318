package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"shopfront/internal/catalog"
)

// Webhook posts error reports to an external collector. Delivery is
// fire-and-forget: failures are logged and never propagated to the caller.
type Webhook struct {
	URL    string
	Client *http.Client
	Log    *zap.Logger
}

type report struct {
	EventID    string    `json:"event_id"`
	Message    string    `json:"message"`
	ReportedAt time.Time `json:"reported_at"`
}

func NewWebhook(rawURL string, log *zap.Logger) *Webhook {
	if u, err := url.Parse(rawURL); err == nil && u.Scheme != "" && u.Host != "" {
		rawURL = strings.TrimRight(rawURL, "/")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Webhook{
		URL:    rawURL,
		Client: &http.Client{Timeout: 3 * time.Second},
		Log:    log,
	}
}

func (n *Webhook) ReportError(ctx context.Context, msg string) {
	body, err := json.Marshal(report{
		EventID:    "e_" + uuid.NewString(),
		Message:    msg,
		ReportedAt: time.Now().UTC(),
	})
	if err != nil {
		n.Log.Error("marshal error report", zap.Error(err))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.URL, bytes.NewReader(body))
	if err != nil {
		n.Log.Error("build error report request", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.Client.Do(req)
	if err != nil {
		n.Log.Warn("deliver error report", zap.Error(err))
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		n.Log.Warn("error report rejected", zap.Int("status", resp.StatusCode))
	}
}

// Logger reports errors to the service log only.
type Logger struct {
	Log *zap.Logger
}

func (n *Logger) ReportError(_ context.Context, msg string) {
	n.Log.Error("catalog error reported", zap.String("message", msg))
}

// Multi fans one report out to every notifier.
type Multi []catalog.Notifier

func (m Multi) ReportError(ctx context.Context, msg string) {
	for _, n := range m {
		n.ReportError(ctx, msg)
	}
}
