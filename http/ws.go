package http

import (
	"bytes"
	"net/http"
	"time"

	"edupredict/logging"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	wsWriteWait      = 10 * time.Second
	wsPongWait       = 60 * time.Second
	wsPingPeriod     = (wsPongWait * 9) / 10
	wsMaxMessageSize = 4096
	wsSendBuffer     = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// wsReply is sent for every record the client submits, in order.
type wsReply struct {
	Type       string           `json:"type"`
	Seq        int              `json:"seq"`
	Prediction *PredictResponse `json:"prediction,omitempty"`
	Error      *errorResponse   `json:"error,omitempty"`
}

// handleWebSocket answers each FeatureRecord message with a prediction. One
// goroutine reads and predicts, another writes and keeps the connection alive
// with pings.
func (h *Handlers) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context(), h.logger)
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	logger.Info("websocket connected", zap.String("remote", r.RemoteAddr))

	send := make(chan wsReply, wsSendBuffer)
	done := make(chan struct{})
	go h.wsWritePump(conn, send, done, logger)
	h.wsReadPump(conn, r, send, logger)
	close(send)
	<-done
	logger.Info("websocket disconnected", zap.String("remote", r.RemoteAddr))
}

// wsReadPump returns on read error or on a panic while predicting, so the
// caller always closes send and the writer shuts the connection.
func (h *Handlers) wsReadPump(conn *websocket.Conn, r *http.Request, send chan<- wsReply, logger *zap.Logger) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("websocket panic recovered", zap.Any("panic", rec), zap.Stack("stack"))
		}
	}()
	conn.SetReadLimit(wsMaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for seq := 1; ; seq++ {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("websocket read error", zap.Error(err))
			}
			return
		}

		reply := wsReply{Type: "prediction", Seq: seq}
		record, err := decodeRecord(bytes.NewReader(message))
		if err != nil {
			reply.Type = "error"
			reply.Error = &errorResponse{Error: "invalid JSON message", Reason: err.Error()}
		} else if resp, err := h.predict(r, record); err != nil {
			_, body := predictionStatus(err)
			reply.Type = "error"
			reply.Error = &body
		} else {
			reply.Prediction = &resp
		}
		send <- reply
	}
}

func (h *Handlers) wsWritePump(conn *websocket.Conn, send <-chan wsReply, done chan<- struct{}, logger *zap.Logger) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
		close(done)
	}()

	for {
		select {
		case reply, ok := <-send:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteJSON(reply); err != nil {
				logger.Warn("websocket write error", zap.Error(err))
				drain(conn, send)
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				drain(conn, send)
				return
			}
		}
	}
}

// drain closes conn so the reader fails fast, then discards replies until the
// reader closes send.
func drain(conn *websocket.Conn, send <-chan wsReply) {
	conn.Close()
	for range send {
	}
}
