package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/vci-pathogenicity-calculator/internal/domain"
	"github.com/vci-pathogenicity-calculator/internal/middleware"
	"github.com/vci-pathogenicity-calculator/internal/validation"
)

const (
	streamWriteWait = 10 * time.Second
	streamPongWait  = 60 * time.Second
)

// StreamReply answers one frame of the classify stream. Exactly one of
// Classification and Error is set.
type StreamReply struct {
	Sequence       int                    `json:"sequence"`
	Classification *domain.Classification `json:"classification,omitempty"`
	Error          *domain.APIError       `json:"error,omitempty"`
}

// handleClassifyStream upgrades to a websocket and classifies every text
// frame as an evaluation set, replying in order.
func (s *Server) handleClassifyStream(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error
		s.logger.WithError(err).Debug("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	requestID := middleware.CorrelationIDFromContext(c)
	logger := s.logger.WithField("correlation_id", requestID)
	timeout := s.configManager.GetServerConfig().RequestTimeout

	conn.SetReadLimit(maxBodyBytes)
	_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})

	logger.Info("Classify stream opened")
	for seq := 1; ; seq++ {
		msgType, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.WithError(err).Warn("Classify stream closed unexpectedly")
			}
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))

		reply := StreamReply{Sequence: seq}
		if msgType != websocket.TextMessage {
			reply.Error = domain.NewAPIError(domain.ErrInvalidInput, "Only text frames are accepted", nil, requestID)
		} else {
			reply.Classification, reply.Error = s.classifyFrame(c.Request.Context(), timeout, payload, requestID)
		}

		_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
		if err := conn.WriteJSON(reply); err != nil {
			logger.WithError(err).Warn("Failed to write stream reply")
			break
		}
	}
	logger.Info("Classify stream closed")
}

func (s *Server) classifyFrame(ctx context.Context, timeout time.Duration, payload []byte, requestID string) (*domain.Classification, *domain.APIError) {
	req, err := validation.ParseRequest(payload)
	if err != nil {
		return nil, domain.NewAPIError(domain.ErrInvalidInput, "Invalid evaluation set", gin.H{"error": err.Error()}, requestID)
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	classification, err := s.classifier.ClassifyRequest(ctx, req)
	if err == nil {
		return classification, nil
	}

	_, apiErr := s.classifyError(err, requestID)
	return nil, apiErr
}
