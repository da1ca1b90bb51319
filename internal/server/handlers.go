package server

import (
	"errors"
	"io"
	log "log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"voxgate/internal/calendar"
	"voxgate/pkg/protocol"
)

const maxBody = 64 << 10

func (s *Server) handleProcess(c *gin.Context) {
	if c.ContentType() != gin.MIMEJSON {
		log.Warn("Request was not JSON", "content_type", c.ContentType())
		c.JSON(http.StatusBadRequest, protocol.Error{Error: protocol.ErrMsgNotJSON})
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, protocol.Error{Error: protocol.ErrMsgNotJSON})
		return
	}

	query, err := protocol.ParseRequest(body)
	if err != nil {
		log.Warn("Rejected request", "err", err)
		c.JSON(http.StatusBadRequest, protocol.Error{Error: err.Error()})
		return
	}

	log.Info("Received query", "query", query)
	reply := s.dispatcher.Handle(c.Request.Context(), query)
	log.Debug("Sending reply", "reply", reply)

	c.JSON(http.StatusOK, protocol.Reply{Reply: reply})
}

// handleWS answers one query per text frame, in order, until the client
// goes away.
func (s *Server) handleWS(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn("Websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxBody)
	client := c.ClientIP()

	for {
		kind, msg, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("Websocket read ended", "err", err)
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}

		// Each frame is a query and draws from the client's bucket.
		if s.limiter != nil && !s.limiter.allow(client) {
			log.Warn("Rate limit exceeded", "client", client, "route", "/ws")
			if werr := conn.WriteJSON(protocol.Error{Error: errMsgRateLimited}); werr != nil {
				return
			}
			continue
		}

		query, err := protocol.ParseRequest(msg)
		if err != nil {
			if werr := conn.WriteJSON(protocol.Error{Error: err.Error()}); werr != nil {
				return
			}
			continue
		}

		reply := s.dispatcher.Handle(c.Request.Context(), query)
		if err := conn.WriteJSON(protocol.Reply{Reply: reply}); err != nil {
			log.Warn("Websocket write failed", "err", err)
			return
		}
	}
}

func (s *Server) handleOAuthCallback(c *gin.Context) {
	if s.consent == nil {
		c.String(http.StatusNotFound, "Google Calendar is not configured.")
		return
	}
	if reason := c.Query("error"); reason != "" {
		c.String(http.StatusBadRequest, "Calendar access was not granted: %s", reason)
		return
	}

	code := c.Query("code")
	if code == "" {
		c.String(http.StatusBadRequest, "Missing authorization code.")
		return
	}

	err := s.consent.Exchange(c.Request.Context(), c.Query("state"), code)
	switch {
	case err == nil:
		c.String(http.StatusOK, "Calendar access granted. You can close this tab and ask again.")
	case errors.Is(err, calendar.ErrUnknownState):
		c.String(http.StatusBadRequest, "This authorization link has expired. Please ask again to get a new one.")
	default:
		log.Error("Calendar consent exchange failed", "err", err)
		c.String(http.StatusBadGateway, "Could not complete calendar authorization.")
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", indexHTML)
}

func (s *Server) handleAppJS(c *gin.Context) {
	c.Data(http.StatusOK, "text/javascript; charset=utf-8", appJS)
}
