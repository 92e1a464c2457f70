// Package push delivers best-effort device notifications. Delivery is a
// side channel independent from in-app notification documents: it may fail,
// arrive late, or be skipped entirely when no device token is registered.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// Message is a single push payload addressed to one device token.
type Message struct {
	Token string            `json:"token"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// Sender delivers a push message to a device channel.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Registry resolves a user's registered device token. An empty token means
// the user has no push channel and delivery must be skipped silently.
type Registry interface {
	DeviceToken(ctx context.Context, userID string) (string, error)
}

// HTTPSender posts messages to an FCM-style HTTP endpoint. Calls run
// through a circuit breaker so a dead push gateway cannot stall the
// watchers that drive delivery.
type HTTPSender struct {
	endpoint string
	apiKey   string
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker
}

func NewHTTPSender(endpoint, apiKey string) *HTTPSender {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "push-sender",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logrus.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Push breaker state changed")
		},
	})

	return &HTTPSender{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 10 * time.Second},
		breaker:  breaker,
	}
}

// Send posts the message through the breaker. Errors are returned so the
// caller can log them; delivery is never retried here.
func (s *HTTPSender) Send(ctx context.Context, msg Message) error {
	if msg.Token == "" {
		return fmt.Errorf("push message has no token")
	}

	_, err := s.breaker.Execute(func() (interface{}, error) {
		payload, err := json.Marshal(struct {
			MessageID string `json:"message_id"`
			Message
		}{
			MessageID: uuid.NewString(),
			Message:   msg,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal push payload: %v", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("failed to build push request: %v", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if s.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+s.apiKey)
		}

		resp, err := s.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("push request failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("push endpoint returned status %d", resp.StatusCode)
		}
		return nil, nil
	})
	return err
}

// NopSender discards every message. Used when no push endpoint is
// configured; in-app delivery still works.
type NopSender struct{}

func (NopSender) Send(ctx context.Context, msg Message) error {
	logrus.WithField("token", msg.Token).Debug("Push endpoint not configured, dropping message")
	return nil
}
