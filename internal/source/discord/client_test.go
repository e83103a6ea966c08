package discord

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

const messagesPayload = `[
  {
    "id": "111",
    "content": "ES long 5000.25 B stop 4990",
    "timestamp": "2024-03-01T14:30:00.000000+00:00",
    "mention_everyone": true,
    "embeds": []
  },
  {
    "id": "110",
    "content": "",
    "timestamp": "2024-03-01T14:29:00.000000+00:00",
    "mention_everyone": false,
    "embeds": [{"description": "Long Triggered! ES (5m) Level: 5000.00 Score: 7/10 Price: 5001.25 Time: 2024-03-01T14:00:00"}]
  }
]`

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL, "token", 0)
	assert.NoError(t, err)
	return c, srv
}

func TestRecentMessages(t *testing.T) {
	var gotPath, gotAuth, gotLimit string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotLimit = r.URL.Query().Get("limit")
		w.Write([]byte(messagesPayload))
	})

	msgs, err := c.RecentMessages(context.Background(), "chan1", 2)
	assert.NoError(t, err)
	assert.Equal(t, "/channels/chan1/messages", gotPath)
	assert.Equal(t, "token", gotAuth)
	assert.Equal(t, "2", gotLimit)

	assert.Len(t, msgs, 2)
	assert.Equal(t, "111", msgs[0].ID)
	assert.True(t, msgs[0].MentionsEveryone)
	assert.Equal(t, "ES long 5000.25 B stop 4990", msgs[0].Text())

	// Embed description wins over empty content.
	assert.Equal(t, "110", msgs[1].ID)
	assert.Contains(t, msgs[1].Text(), "Long Triggered!")
}

func TestLatestMessage(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(messagesPayload))
	})
	msg, err := c.LatestMessage(context.Background(), "chan1")
	assert.NoError(t, err)
	assert.NotNil(t, msg)
	assert.Equal(t, "111", msg.ID)

	t.Run("empty channel yields nil", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[]`))
		})
		msg, err := c.LatestMessage(context.Background(), "chan1")
		assert.NoError(t, err)
		assert.Nil(t, msg)
	})
}

func TestRecentMessagesErrors(t *testing.T) {
	t.Run("non-2xx status", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"message": "rate limited"}`))
		})
		_, err := c.RecentMessages(context.Background(), "chan1", 1)
		assert.ErrorContains(t, err, "status=429")
	})

	t.Run("invalid json", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"truncated`))
		})
		_, err := c.RecentMessages(context.Background(), "chan1", 1)
		assert.ErrorContains(t, err, "invalid json")
	})

	t.Run("empty channel id", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
		_, err := c.RecentMessages(context.Background(), " ", 1)
		assert.Error(t, err)
	})
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient("", "token", 0)
	assert.Error(t, err)
	_, err = NewClient("https://example.com", " ", 0)
	assert.Error(t, err)
}
