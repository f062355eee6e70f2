package server

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lawnchairsociety/combatsim/internal/results"
	"github.com/lawnchairsociety/combatsim/internal/scheduler"
)

// clientFor dials a test peer that runs serve on its end of the connection
// and wraps the dialing side in a WebSocketClient. The peer stays up until
// the test ends.
func clientFor(t *testing.T, serve func(peer *websocket.Conn)) *WebSocketClient {
	t.Helper()
	upgrader := websocket.Upgrader{}
	stop := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		peer, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("Failed to upgrade: %v", err)
			return
		}
		defer peer.Close()
		if serve != nil {
			serve(peer)
		}
		<-stop
	}))

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)

	client := NewWebSocketClient(conn)
	t.Cleanup(func() {
		client.Close()
		close(stop)
		srv.Close()
	})
	return client
}

func TestWebSocketClient_ReadLine(t *testing.T) {
	tests := []struct {
		name     string
		messages []string
		want     []string
	}{
		{"skips blank messages", []string{"", "   ", "\n\n\n", "cancel"}, []string{"cancel"}},
		{"splits multi-line messages", []string{"ping\ncancel\n ping "}, []string{"ping", "cancel", "ping"}},
		{"keeps order across messages", []string{"a\nb", "c"}, []string{"a", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := clientFor(t, func(peer *websocket.Conn) {
				for _, m := range tt.messages {
					peer.WriteMessage(websocket.TextMessage, []byte(m))
				}
			})
			for _, want := range tt.want {
				line, err := client.ReadLine()
				require.NoError(t, err)
				assert.Equal(t, want, line)
			}
		})
	}
}

func TestWebSocketClient_ReadLineAfterClose(t *testing.T) {
	client := clientFor(t, func(peer *websocket.Conn) {
		peer.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	})
	_, err := client.ReadLine()
	assert.Error(t, err)
}

func TestWebSocketClient_WritePump(t *testing.T) {
	received := make(chan []byte, 1)
	client := clientFor(t, func(peer *websocket.Conn) {
		if _, msg, err := peer.ReadMessage(); err == nil {
			received <- msg
		}
	})

	done := make(chan struct{})
	defer close(done)
	go client.WritePump(done)

	client.Deliver(scheduler.Event{
		Kind:      scheduler.EventProgress,
		Done:      1,
		Total:     4,
		MonsterID: 2,
		Result:    results.Result{SimSuccess: true, KillTime: 3, SignetChance: math.NaN()},
	})

	select {
	case raw := <-received:
		var msg struct {
			Kind      string              `json:"kind"`
			MonsterID int                 `json:"monster_id"`
			Stats     map[string]*float64 `json:"stats"`
		}
		require.NoError(t, json.Unmarshal(raw, &msg), "frame %s", raw)
		assert.Equal(t, "progress", msg.Kind)
		assert.Equal(t, 2, msg.MonsterID)
		require.NotNil(t, msg.Stats["killTime"])
		assert.Equal(t, 3.0, *msg.Stats["killTime"])
		v, ok := msg.Stats["signetChance"]
		assert.True(t, ok, "signetChance present")
		assert.Nil(t, v, "NaN encodes as null")
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for message")
	}
}

func TestWebSocketClient_NonProgressFramesCarryNoStats(t *testing.T) {
	msg := newProgressMessage(scheduler.Event{Kind: scheduler.EventCompleted, Done: 4, Total: 4})
	assert.Nil(t, msg.Stats)

	failed := newProgressMessage(scheduler.Event{Kind: scheduler.EventProgress, Err: "boom"})
	assert.Nil(t, failed.Stats)
}

func TestWebSocketClient_DeliverNeverBlocks(t *testing.T) {
	client := clientFor(t, nil)

	finished := make(chan struct{})
	go func() {
		for i := 0; i < sendBuffer+10; i++ {
			client.Deliver(scheduler.Event{Kind: scheduler.EventProgress, Done: i})
		}
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Deliver blocked on a full queue")
	}
	assert.Len(t, client.send, sendBuffer)
}

func TestWebSocketClient_CloseTwice(t *testing.T) {
	client := clientFor(t, nil)
	assert.NotEmpty(t, client.RemoteAddr())
	assert.NoError(t, client.Close())
	assert.NoError(t, client.Close())
}
