package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	log "log/slog"
	"net"
	"os"
	"time"

	"voxgate/pkg/protocol"
)

const DefaultSocketPath = "/tmp/voxgate.sock"

type ControlMessage struct {
	Query string `json:"query"`
}

type ControlReply struct {
	Reply string `json:"reply,omitempty"`
	Error string `json:"error,omitempty"`
}

type Handler func(ctx context.Context, query string) string

type Server struct {
	ln   net.Listener
	path string
}

// StartServer listens on a unix socket and answers one ControlMessage per
// connection.
func StartServer(path string, handler Handler) (*Server, error) {
	os.Remove(path)

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}

	go func() {
		for {
			conn, err := ln.Accept()
			if errors.Is(err, net.ErrClosed) {
				return
			}
			if err != nil {
				log.Warn("ipc accept failed", "err", err)
				continue
			}
			go handleConn(conn, handler)
		}
	}()

	return &Server{ln: ln, path: path}, nil
}

func (s *Server) Close() error {
	err := s.ln.Close()
	os.Remove(s.path)
	return err
}

func handleConn(conn net.Conn, handler Handler) {
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(time.Minute))

	enc := json.NewEncoder(conn)

	var msg ControlMessage
	dec := json.NewDecoder(conn)
	if err := dec.Decode(&msg); err != nil {
		enc.Encode(ControlReply{Error: "malformed control message"})
		return
	}
	query, err := protocol.NewRequest(msg.Query).Validate()
	if err != nil {
		enc.Encode(ControlReply{Error: err.Error()})
		return
	}

	enc.Encode(ControlReply{Reply: handler(context.Background(), query)})
}

// SendQuery asks the daemon listening on path and returns its reply.
func SendQuery(path, query string, timeout time.Duration) (string, error) {
	conn, err := net.DialTimeout("unix", path, timeout)
	if err != nil {
		return "", err
	}
	defer conn.Close()
	if timeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(timeout))
	}

	if err := json.NewEncoder(conn).Encode(ControlMessage{Query: query}); err != nil {
		return "", err
	}

	var reply ControlReply
	if err := json.NewDecoder(conn).Decode(&reply); err != nil {
		return "", fmt.Errorf("read reply: %w", err)
	}
	if reply.Error != "" {
		return "", errors.New(reply.Error)
	}
	return reply.Reply, nil
}
