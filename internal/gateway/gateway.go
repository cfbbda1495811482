package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Handler — куда уходят события шлюза.
type Handler interface {
	HandleVoiceState(ctx context.Context, userID, from, to string) error
	HandleRoleChange(ctx context.Context, userID, roleID string, gained bool) error
}

// Client — websocket-фид платформы: читает кадры и раздаёт их обработчику.
type Client struct {
	url     string
	token   string
	handler Handler

	pingEvery time.Duration
	backoff   time.Duration
}

func NewClient(url, token string, h Handler) *Client {
	return &Client{
		url:       url,
		token:     token,
		handler:   h,
		pingEvery: 15 * time.Second,
		backoff:   3 * time.Second,
	}
}

// Run — держит соединение живым до отмены контекста; обрыв — переподключение.
func (c *Client) Run(ctx context.Context) error {
	for {
		if err := c.runOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Warn("gateway connection lost, reconnecting", "err", err, "in", c.backoff)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.backoff):
		}
	}
}

func (c *Client) runOnce(ctx context.Context) error {
	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, header)
	if err != nil {
		return err
	}
	defer conn.Close()
	slog.Info("gateway connected", "url", c.url)

	// закрыть соединение при отмене, чтобы ReadMessage вернулся
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	go c.pingLoop(ctx, conn, done)

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(2 * c.pingEvery))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(2 * c.pingEvery))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		c.dispatch(ctx, data)
	}
}

func (c *Client) pingLoop(ctx context.Context, conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(c.pingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
		case <-ctx.Done():
			return
		case <-done:
			return
		}
	}
}

// dispatch — разбор кадра и вызов обработчика. Кривые кадры пропускаем:
// фид не должен падать из-за одного сообщения.
func (c *Client) dispatch(ctx context.Context, data []byte) {
	var frame Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		slog.Warn("gateway frame unreadable", "err", err)
		return
	}

	switch frame.Type {
	case TypeVoiceState:
		var p VoiceStatePayload
		if err := json.Unmarshal(frame.Payload, &p); err != nil || p.UserID == "" {
			slog.Warn("bad voice_state payload", "err", err)
			return
		}
		if err := c.handler.HandleVoiceState(ctx, p.UserID, p.From, p.To); err != nil {
			slog.Warn("voice_state handling failed", "user", p.UserID, "err", err)
		}
	case TypeRoleChange:
		var p RoleChangePayload
		if err := json.Unmarshal(frame.Payload, &p); err != nil || p.UserID == "" {
			slog.Warn("bad role_change payload", "err", err)
			return
		}
		if err := c.handler.HandleRoleChange(ctx, p.UserID, p.RoleID, p.Gained); err != nil {
			slog.Warn("role_change handling failed", "user", p.UserID, "err", err)
		}
	default:
		// ignore
	}
}
