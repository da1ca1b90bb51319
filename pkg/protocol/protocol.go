package protocol

import (
	"encoding/json"
	"errors"
	"strings"
)

// Request is the body of POST /process and of every /ws text frame. Query is
// a pointer so a missing field can be told apart from an empty one.
type Request struct {
	Query *string `json:"query"`
}

type Reply struct {
	Reply string `json:"reply"`
}

type Error struct {
	Error string `json:"error"`
}

// Response is what a client decodes: exactly one of the fields is set.
type Response struct {
	Reply string `json:"reply,omitempty"`
	Error string `json:"error,omitempty"`
}

const (
	ErrMsgNotJSON      = "Invalid request format. Expected JSON."
	ErrMsgMissingQuery = "Missing 'query' field in request JSON."
	ErrMsgEmptyQuery   = "Empty 'query' field in request JSON."
)

var (
	ErrNotJSON      = errors.New(ErrMsgNotJSON)
	ErrMissingQuery = errors.New(ErrMsgMissingQuery)
	ErrEmptyQuery   = errors.New(ErrMsgEmptyQuery)
)

func NewRequest(query string) Request {
	return Request{Query: &query}
}

// ParseRequest decodes and validates a request body, returning the query.
func ParseRequest(data []byte) (string, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return "", ErrNotJSON
	}
	return req.Validate()
}

func (r Request) Validate() (string, error) {
	if r.Query == nil {
		return "", ErrMissingQuery
	}
	if strings.TrimSpace(*r.Query) == "" {
		return "", ErrEmptyQuery
	}
	return *r.Query, nil
}
