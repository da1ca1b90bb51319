package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	log "log/slog"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"
)

// WebSocket is a request/reply client for the /ws endpoint. Calls are
// serialized; a dropped connection is redialed up to reconn times.
type WebSocket struct {
	mu      sync.Mutex
	conn    *ws.Conn
	url     string
	reconn  uint
	timeout time.Duration
}

func NewWebSocket(url string, reconn uint, timeout time.Duration) (*WebSocket, error) {
	log.Debug("init websocket protocol", "url", url)

	web := &WebSocket{
		url:     url,
		reconn:  reconn,
		timeout: timeout,
	}

	conn, _, err := ws.DefaultDialer.Dial(url, nil)
	if err != nil {
		log.Error("Failed to dial url", "err", err)
		return nil, err
	}
	web.conn = conn

	return web, nil
}

// Ask sends one query and waits for its reply.
func (web *WebSocket) Ask(query string) (string, error) {
	web.mu.Lock()
	defer web.mu.Unlock()

	resp, err := web.roundTrip(query)
	if err != nil && WsIsClosed(err) && web.reconn > 0 {
		log.Warn("Trying to reconnect on", "url", web.url)
		if rerr := web.tryReconn(); rerr != nil {
			return "", fmt.Errorf("%w (reconnect: %v)", err, rerr)
		}
		resp, err = web.roundTrip(query)
	}
	if err != nil {
		return "", err
	}
	if resp.Error != "" {
		return "", errors.New(resp.Error)
	}
	return resp.Reply, nil
}

func (web *WebSocket) roundTrip(query string) (Response, error) {
	payload, err := json.Marshal(NewRequest(query))
	if err != nil {
		return Response{}, err
	}

	if web.timeout > 0 {
		deadline := time.Now().Add(web.timeout)
		_ = web.conn.SetWriteDeadline(deadline)
		_ = web.conn.SetReadDeadline(deadline)
	}

	log.Debug("Write ws", "msg", string(payload))
	if err := web.conn.WriteMessage(ws.TextMessage, payload); err != nil {
		return Response{}, err
	}

	_, msg, err := web.conn.ReadMessage()
	if err != nil {
		return Response{}, err
	}
	log.Debug("Read ws", "msg", string(msg))

	var resp Response
	if err := json.Unmarshal(msg, &resp); err != nil {
		return Response{}, fmt.Errorf("decode reply: %w", err)
	}
	return resp, nil
}

func (web *WebSocket) tryReconn() error {
	var err error
	for i := uint(0); i < web.reconn; i++ {
		var conn *ws.Conn
		conn, _, err = ws.DefaultDialer.Dial(web.url, nil)
		if err == nil {
			web.conn.Close()
			web.conn = conn
			log.Info("Succefully reconnected")
			return nil
		}
		time.Sleep(time.Second)
	}
	return err
}

func (web *WebSocket) Close() error {
	web.mu.Lock()
	defer web.mu.Unlock()
	_ = web.conn.WriteControl(ws.CloseMessage,
		ws.FormatCloseMessage(ws.CloseNormalClosure, ""), time.Now().Add(time.Second))
	return web.conn.Close()
}

func WsIsClosed(err error) bool {
	return ws.IsCloseError(err,
		ws.CloseNormalClosure,
		ws.CloseGoingAway,
		ws.CloseAbnormalClosure)
}
