package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/symptom-intake-server/internal/domain"
	"github.com/symptom-intake-server/internal/logging"
	"github.com/symptom-intake-server/internal/middleware"
	"github.com/symptom-intake-server/internal/service"
)

const wsWriteWait = 10 * time.Second

// wsReply is written for every message received on /ws/assess: either the
// assessment fields or error.
type wsReply struct {
	*service.Assessment
	Error *domain.ServiceError `json:"error,omitempty"`
}

func (s *Server) upgrader() *websocket.Upgrader {
	allowed := s.cfg.API.CORSAllowedOrigins
	return &websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, o := range allowed {
				if o == "*" || strings.TrimRight(o, "/") == origin {
					return true
				}
			}
			return false
		},
	}
}

// handleWebSocket runs one assessment per JSON message until the client
// disconnects or stops answering pings.
func (s *Server) handleWebSocket(c *gin.Context) {
	log := logging.FromContext(c.Request.Context(), s.logger)

	conn, err := s.upgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.WithError(err).Warn("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	pongWait := s.cfg.API.WebSocketPongWait
	if pongWait <= 0 {
		pongWait = 60 * time.Second
	}
	if limit := s.cfg.API.WebSocketReadLimit; limit > 0 {
		conn.SetReadLimit(limit)
	}
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(pongWait * 9 / 10)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
					return
				}
			}
		}
	}()

	requestID := c.GetString(middleware.CorrelationKey)

	for {
		var req AssessRequest
		if err := conn.ReadJSON(&req); err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				reply := wsReply{Error: domain.NewServiceError(domain.ErrCodeInvalidInput, "invalid message", err.Error(), requestID)}
				if err := s.writeReply(conn, reply); err != nil {
					return
				}
				continue
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithError(err).Warn("WebSocket read failed")
			}
			return
		}

		if err := s.writeReply(conn, s.assessMessage(c, req, requestID)); err != nil {
			log.WithError(err).Warn("WebSocket write failed")
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	}
}

func (s *Server) assessMessage(c *gin.Context, req AssessRequest, requestID string) wsReply {
	if serr := s.validateText(req.Text); serr != nil {
		serr.RequestID = requestID
		return wsReply{Error: serr}
	}
	if err := req.Context.Validate(); err != nil {
		return wsReply{Error: domain.NewServiceError(domain.ErrCodeValidation, err.Error(), "", requestID)}
	}

	assessment, err := s.svc.Assess(c.Request.Context(), req.Text, req.Context)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyInput) {
			return wsReply{Error: domain.NewServiceError(domain.ErrCodeEmptyInput, err.Error(), "", requestID)}
		}
		return wsReply{Error: domain.NewServiceError(domain.ErrCodeInternalServer, "symptom processing failed", "", requestID)}
	}
	return wsReply{Assessment: assessment}
}

func (s *Server) writeReply(conn *websocket.Conn, reply wsReply) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(reply)
}
