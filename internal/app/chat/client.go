package chat

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"hzroom/internal/pkg/errs"
	"hzroom/internal/pkg/logx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a frame sent by the client.
	maxFrameSize = 8192
)

// InboundType tags a frame read from the browser.
type InboundType string

// TypeSend asks the session to send a text message.
const TypeSend InboundType = "SEND"

// TypeError tags error frames written to the browser.
const TypeError = "ERROR"

type inboundFrame struct {
	Type    InboundType `json:"type"`
	Content string      `json:"content"`
}

// ErrorFrame reports a rejected client request.
type ErrorFrame struct {
	Type    string `json:"type"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Client bridges one websocket connection and one session.
// Closing the connection is the user's logout.
type Client struct {
	session *Session

	// underlying WebSocket connection object.
	conn *websocket.Conn

	// detach is called once when the read side ends.
	detach func()

	// errors waiting to be written, besides session updates.
	send chan []byte

	logger zerolog.Logger
}

// NewClient constructs a Client. detach releases the session when the socket goes away.
func NewClient(session *Session, conn *websocket.Conn, detach func()) *Client {
	return &Client{
		session: session,
		conn:    conn,
		detach:  detach,
		send:    make(chan []byte, 16),
		logger: logx.Logger().With().
			Str("session_id", session.ID).
			Str("topic", session.Topic()).
			Logger(),
	}
}

// ReadPump reads frames until the connection fails, then detaches the session.
func (c *Client) ReadPump() {
	defer c.cleanupOnDisconnect()

	c.conn.SetReadLimit(maxFrameSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading frame (client close/going away)")
			}
			return
		}

		c.processInbound(frame)
	}
}

func (c *Client) cleanupOnDisconnect() {
	c.logger.Info().Msg("Client connection cleanup starting.")

	if c.detach != nil {
		c.detach()
	}

	if err := c.conn.Close(); err != nil {
		c.logger.Debug().Err(err).Msg("Client connection close error")
	}
}

func (c *Client) processInbound(frame []byte) {
	var in inboundFrame
	if err := json.Unmarshal(frame, &in); err != nil {
		c.logger.Warn().Err(err).Msg("Client sent invalid JSON")
		c.SendError(errs.NewError(errs.ErrInvalidJSONFormat))
		return
	}

	switch in.Type {
	case TypeSend:
		if len(in.Content) > MaxContentBytes {
			c.SendError(errs.NewError(errs.ErrMessageContentTooLong))
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		defer cancel()

		if _, err := c.session.Send(ctx, in.Content); err != nil {
			c.SendError(err)
		}

	default:
		c.logger.Warn().Str("frame_type", string(in.Type)).Msg("Client sent unsupported frame type")
		c.SendError(errs.NewError(errs.ErrInvalidParams))
	}
}

// WritePump writes session updates, queued errors and pings until the session ends
// or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Client connection close error in WritePump")
		}
	}()

	updates := c.session.Updates()

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				c.writeClose()
				return
			}

			frame, err := json.Marshal(update)
			if err != nil {
				c.logger.Error().Err(err).Msg("Error marshaling update")
				continue
			}
			if !c.write(websocket.TextMessage, frame) {
				return
			}

		case frame := <-c.send:
			if !c.write(websocket.TextMessage, frame) {
				return
			}

		case <-ticker.C:
			if !c.write(websocket.PingMessage, nil) {
				return
			}
		}
	}
}

// write sends one frame and reports whether the pump should continue.
func (c *Client) write(messageType int, data []byte) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if err := c.conn.WriteMessage(messageType, data); err != nil {
		c.logger.Debug().Err(err).Int("message_type", messageType).Msg("Error writing frame")
		return false
	}

	return true
}

func (c *Client) writeClose() {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed")
	if err := c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait)); err != nil {
		c.logger.Debug().Err(err).Msg("Error writing close message")
	}
}

// SendError queues an error frame for the client.
func (c *Client) SendError(err error) {
	frame := ErrorFrame{Type: TypeError}

	var customErr *errs.CustomError
	if errors.As(err, &customErr) {
		frame.Code = customErr.Code
		frame.Message = customErr.Message
	} else {
		unknown := errs.NewError(errs.ErrUnknown, err)
		frame.Code = unknown.Code
		frame.Message = unknown.Message
	}

	data, marshalErr := json.Marshal(frame)
	if marshalErr != nil {
		c.logger.Error().Err(marshalErr).Msg("Failed to build error frame")
		return
	}

	select {
	case c.send <- data:
	default:
		c.logger.Warn().Int("queue_len", len(c.send)).Msg("Client send queue full, dropping error frame")
	}
}
