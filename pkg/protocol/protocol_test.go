package protocol

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRequest(t *testing.T) {
	q, err := ParseRequest([]byte(`{"query":"hello"}`))
	require.NoError(t, err)
	assert.Equal(t, "hello", q)

	_, err = ParseRequest([]byte(`hello`))
	assert.ErrorIs(t, err, ErrNotJSON)

	_, err = ParseRequest([]byte(`{"text":"hello"}`))
	assert.ErrorIs(t, err, ErrMissingQuery)

	_, err = ParseRequest([]byte(`{"query":null}`))
	assert.ErrorIs(t, err, ErrMissingQuery)

	_, err = ParseRequest([]byte(`{"query":"   "}`))
	assert.ErrorIs(t, err, ErrEmptyQuery)

	_, err = ParseRequest([]byte(`{"query":42}`))
	assert.ErrorIs(t, err, ErrNotJSON)
}

func echoServer(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := ws.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			q, err := ParseRequest(msg)
			if err != nil {
				conn.WriteJSON(Error{Error: err.Error()})
				continue
			}
			conn.WriteJSON(Reply{Reply: "echo: " + q})
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestWebSocketAsk(t *testing.T) {
	srv := echoServer(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	c, err := NewWebSocket(url, 1, time.Second)
	require.NoError(t, err)
	defer c.Close()

	reply, err := c.Ask("what time is it")
	require.NoError(t, err)
	assert.Equal(t, "echo: what time is it", reply)

	_, err = c.Ask("  ")
	assert.EqualError(t, err, ErrMsgEmptyQuery)
}

func TestWebSocketDialFailure(t *testing.T) {
	_, err := NewWebSocket("ws://127.0.0.1:1/ws", 0, time.Second)
	assert.Error(t, err)
}
