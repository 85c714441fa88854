package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"scriptedge/logger"

	"golang.org/x/time/rate"
)

type WebhookMessage struct {
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Severity  string    `json:"severity"`
}

// Notifier posts alerts to a webhook. Alerts beyond the token bucket are
// dropped so an upstream outage produces a handful of messages, not one per
// request.
type Notifier struct {
	url     string
	client  *http.Client
	limiter *rate.Limiter
	wg      sync.WaitGroup
}

// New returns a Notifier; an empty url yields one whose Alert is a no-op.
func New(url string, every time.Duration, burst int) *Notifier {
	if every <= 0 {
		every = time.Minute
	}
	if burst <= 0 {
		burst = 3
	}
	return &Notifier{
		url:     url,
		client:  &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Every(every), burst),
	}
}

func (n *Notifier) Enabled() bool { return n != nil && n.url != "" }

func (n *Notifier) Alert(msg string, severity string) {
	if !n.Enabled() {
		return
	}
	if !n.limiter.Allow() {
		logger.Debug("Webhook alert throttled", "severity", severity)
		return
	}

	payload := WebhookMessage{
		Text:      fmt.Sprintf("[scriptedge] %s", msg),
		Timestamp: time.Now(),
		Severity:  severity,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Failed to encode webhook alert", "err", err)
		return
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		resp, err := n.client.Post(n.url, "application/json", bytes.NewReader(data))
		if err != nil {
			logger.Error("Failed to send webhook alert", "err", err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
			logger.Warn("Webhook returned non-OK status", "status", resp.Status)
		}
	}()
}

// Wait blocks until in-flight alerts have been delivered or failed.
func (n *Notifier) Wait() {
	if n != nil {
		n.wg.Wait()
	}
}
