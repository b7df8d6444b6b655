package mailbridge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xavierca1/raccordement-leads/internal/entity"
)

func newBridge(t *testing.T, handler http.HandlerFunc) *Client {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "bridge-key", time.Second, zaptest.NewLogger(t))
}

func TestListMessages(t *testing.T) {
	c := newBridge(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/mailboxes/agent@raccordement.fr/messages", r.URL.Path)
		assert.Equal(t, "spam", r.URL.Query().Get("folder"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "bridge-key", r.Header.Get("X-API-Key"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"items": []map[string]interface{}{{"id": "m1", "subject": "Offre", "folder": "spam"}},
			"total": 21,
		})
	})

	items, total, err := c.ListMessages(context.Background(), "agent@raccordement.fr", "spam", entity.Page{Page: 2, Size: 20})
	require.NoError(t, err)
	assert.Equal(t, 21, total)
	require.Len(t, items, 1)
	assert.Equal(t, "Offre", items[0].Subject)
}

func TestGetMessageNotFound(t *testing.T) {
	c := newBridge(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.GetMessage(context.Background(), "a@b.fr", "missing")
	assert.ErrorIs(t, err, entity.ErrMessageNotFound)
}

func TestMoveMessageSendsFolder(t *testing.T) {
	c := newBridge(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/mailboxes/a@b.fr/messages/m1/move", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "trash", body["folder"])
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, c.MoveMessage(context.Background(), "a@b.fr", "m1", "trash"))
}

func TestDeleteMessageBridgeError(t *testing.T) {
	c := newBridge(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"error":"imap login failed"}`))
	})

	err := c.DeleteMessage(context.Background(), "a@b.fr", "m1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "imap login failed")
	assert.NotErrorIs(t, err, entity.ErrMessageNotFound)
}

func newCountingBridge(t *testing.T, timeout time.Duration, handler http.HandlerFunc) (*Client, *int32) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL, "", timeout, zaptest.NewLogger(t))
	c.http.SetRetryWaitTime(time.Millisecond).SetRetryMaxWaitTime(5 * time.Millisecond)
	return c, &hits
}

func TestReadsAreRetried(t *testing.T) {
	c, hits := newCountingBridge(t, time.Second, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.GetMessage(context.Background(), "a@b.fr", "m1")
	assert.Error(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(hits), "first attempt plus two retries")
}

func TestWritesAreNotRetried(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		c, hits := newCountingBridge(t, time.Second, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		assert.Error(t, c.MoveMessage(context.Background(), "a@b.fr", "m1", "trash"))
		assert.Error(t, c.DeleteMessage(context.Background(), "a@b.fr", "m1"))
		assert.Equal(t, int32(2), atomic.LoadInt32(hits))
	})

	t.Run("timeout", func(t *testing.T) {
		c, hits := newCountingBridge(t, 50*time.Millisecond, func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(150 * time.Millisecond)
			w.WriteHeader(http.StatusNoContent)
		})

		assert.Error(t, c.DeleteMessage(context.Background(), "a@b.fr", "m1"))
		assert.Equal(t, int32(1), atomic.LoadInt32(hits))
	})
}
