package push

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPSender_PostsMessage(t *testing.T) {
	var got struct {
		MessageID string            `json:"message_id"`
		Token     string            `json:"token"`
		Title     string            `json:"title"`
		Body      string            `json:"body"`
		Data      map[string]string `json:"data"`
	}
	var auth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sender := NewHTTPSender(server.URL, "secret-key")
	err := sender.Send(context.Background(), Message{
		Token: "device-1",
		Title: "Task approved",
		Body:  "Your recent task was approved and progress updated!",
		Data:  map[string]string{"type": "task_approved"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer secret-key", auth)
	assert.Equal(t, "device-1", got.Token)
	assert.Equal(t, "Task approved", got.Title)
	assert.Equal(t, "task_approved", got.Data["type"])
	assert.NotEmpty(t, got.MessageID)
}

func TestHTTPSender_NonSuccessStatusIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	sender := NewHTTPSender(server.URL, "")
	err := sender.Send(context.Background(), Message{Token: "device-1"})
	assert.Error(t, err)
}

func TestHTTPSender_EmptyTokenRejected(t *testing.T) {
	sender := NewHTTPSender("http://push.invalid", "")
	err := sender.Send(context.Background(), Message{})
	assert.Error(t, err)
}

func TestHTTPSender_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	sender := NewHTTPSender(server.URL, "")
	for i := 0; i < 8; i++ {
		err := sender.Send(context.Background(), Message{Token: "device-1"})
		assert.Error(t, err)
	}

	// The breaker trips after five consecutive failures; later sends fail
	// fast without hitting the endpoint.
	assert.Equal(t, 5, hits)
}

func TestNopSender_DropsSilently(t *testing.T) {
	assert.NoError(t, NopSender{}.Send(context.Background(), Message{Token: "device-1"}))
}
