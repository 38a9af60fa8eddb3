package alert

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hype_trader/internal/logging"
)

type captureChannel struct {
	mu       sync.Mutex
	payloads []Payload
	done     chan struct{}
}

func (c *captureChannel) Name() string { return "capture" }

func (c *captureChannel) Send(ctx context.Context, p Payload) error {
	c.mu.Lock()
	c.payloads = append(c.payloads, p)
	c.mu.Unlock()
	c.done <- struct{}{}
	return nil
}

func TestManagerFansOutToChannels(t *testing.T) {
	m := NewManager(logging.NewNop())
	ch := &captureChannel{done: make(chan struct{}, 1)}
	m.AddChannel(ch)

	m.Notify(context.Background(), Info, "entry", "bought 10 NVDA", map[string]string{"symbol": "NVDA"})

	select {
	case <-ch.done:
	case <-time.After(time.Second):
		t.Fatal("notification never delivered")
	}

	ch.mu.Lock()
	defer ch.mu.Unlock()
	require.Len(t, ch.payloads, 1)
	assert.Equal(t, "entry", ch.payloads[0].Title)
	assert.Equal(t, "NVDA", ch.payloads[0].Fields["symbol"])
}

func TestManagerWithoutChannelsIsNoop(t *testing.T) {
	m := NewManager(logging.NewNop())
	m.Notify(context.Background(), Critical, "exit", "hard stop", nil)
}

func TestSlackChannelPostsAttachment(t *testing.T) {
	var got map[string]interface{}
	received := make(chan struct{}, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		received <- struct{}{}
	}))
	defer srv.Close()

	ch := NewSlackChannel(srv.URL)
	err := ch.Send(context.Background(), Payload{
		Level:     Warning,
		Title:     "exit",
		Message:   "trailing stop hit",
		Timestamp: time.Now().UTC(),
	})
	require.NoError(t, err)
	<-received

	attachments := got["attachments"].([]interface{})
	require.Len(t, attachments, 1)
	first := attachments[0].(map[string]interface{})
	assert.Contains(t, first["pretext"], "WARNING")
	assert.Equal(t, "trailing stop hit", first["text"])
}

func TestSlackChannelEmptyURLIsNoop(t *testing.T) {
	ch := NewSlackChannel("")
	assert.NoError(t, ch.Send(context.Background(), Payload{Title: "x"}))
}

func TestTelegramChannelMissingCredentialsIsNoop(t *testing.T) {
	ch := NewTelegramChannel("", "")
	assert.NoError(t, ch.Send(context.Background(), Payload{Title: "x"}))
}
