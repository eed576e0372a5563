package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"delivery-order-system/shared/pkg/auth"
	"delivery-order-system/shared/pkg/cache"
	"delivery-order-system/shared/pkg/metrics"
	"delivery-order-system/shared/pkg/models"
)

// Store is the persistence the socket layer needs: access checks plus
// route point and chat message writes.
type Store interface {
	OrderParties(ctx context.Context, orderID string) (customerID, transporterID string, status models.OrderStatus, err error)
	SaveRoutePoint(ctx context.Context, p models.RoutePoint) error
	SaveMessage(ctx context.Context, m models.ChatMessage) (models.ChatMessage, error)
}

type Server struct {
	hub    *Hub
	tokens *auth.Tokens
	store  Store
	cache  *cache.Redis
	log    zerolog.Logger

	upgrader websocket.Upgrader
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 45 * time.Second
	maxFrameSize   = 4 << 10
	maxMessageText = 2000
	locationTTL    = 5 * time.Minute
)

func NewServer(hub *Hub, tokens *auth.Tokens, store Store, c *cache.Redis, log zerolog.Logger) *Server {
	return &Server{
		hub:    hub,
		tokens: tokens,
		store:  store,
		cache:  c,
		log:    log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Handle upgrades GET /ws/orders/{id}?token=... to a socket scoped to
// that order's room. Only the order's customer and its assigned
// transporter may join.
func (s *Server) Handle(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	claims, err := s.tokens.Verify(r.URL.Query().Get("token"))
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	customerID, transporterID, _, err := s.store.OrderParties(r.Context(), orderID)
	if err != nil {
		http.Error(w, "order not found", http.StatusNotFound)
		return
	}
	if claims.UserID != customerID && claims.UserID != transporterID {
		http.Error(w, "order not found", http.StatusNotFound)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := NewClient(orderID, claims.UserID, claims.Role)
	s.hub.Join(client)
	s.log.Info().Str("order_id", orderID).Str("user_id", claims.UserID).Msg("client joined")

	go s.writePump(conn, client)
	s.readPump(conn, client)
}

func (s *Server) readPump(conn *websocket.Conn, c *Client) {
	defer func() {
		s.hub.Leave(c)
		conn.Close()
	}()
	conn.SetReadLimit(maxFrameSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn().Err(err).Str("order_id", c.OrderID).Msg("read failed")
			}
			return
		}

		var frame inboundFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			s.sendError(c, "malformed frame")
			continue
		}
		if err := s.dispatch(context.Background(), c, frame); err != nil {
			s.sendError(c, err.Error())
		}
	}
}

func (s *Server) dispatch(ctx context.Context, c *Client, frame inboundFrame) error {
	switch frame.Type {
	case frameLocationUpdate:
		return s.handleLocation(ctx, c, frame)
	case frameSendMessage:
		return s.handleMessage(ctx, c, frame)
	default:
		return errors.New("unknown frame type")
	}
}

func (s *Server) handleLocation(ctx context.Context, c *Client, frame inboundFrame) error {
	if c.Role != models.RoleTransporter {
		return errors.New("only the transporter reports location")
	}
	if frame.Lat < -90 || frame.Lat > 90 || frame.Lng < -180 || frame.Lng > 180 {
		return errors.New("coordinates out of range")
	}
	_, _, status, err := s.store.OrderParties(ctx, c.OrderID)
	if err != nil {
		return errors.New("could not record location")
	}
	if status.Terminal() {
		return errors.New("order is closed")
	}

	point := models.RoutePoint{
		OrderID:       c.OrderID,
		TransporterID: c.UserID,
		Lat:           frame.Lat,
		Lng:           frame.Lng,
		At:            time.Now().UTC(),
	}
	if err := s.store.SaveRoutePoint(ctx, point); err != nil {
		s.log.Error().Err(err).Str("order_id", c.OrderID).Msg("save route point")
		return errors.New("could not record location")
	}

	if b, err := json.Marshal(point); err == nil {
		_ = s.cache.SetBytes(ctx, cache.OrderLocationKey(c.OrderID), b, locationTTL)
		_ = s.cache.SetBytes(ctx, cache.TransporterLocationKey(c.UserID), b, locationTTL)
	}

	metrics.WSMessagesTotal.WithLabelValues(frameLocationUpdate).Inc()
	s.hub.Broadcast(c.OrderID, LocationFrame{
		Type:          frameLocationUpdate,
		OrderID:       point.OrderID,
		TransporterID: point.TransporterID,
		Lat:           point.Lat,
		Lng:           point.Lng,
		At:            point.At,
	})
	return nil
}

func (s *Server) handleMessage(ctx context.Context, c *Client, frame inboundFrame) error {
	if frame.Text == "" || len(frame.Text) > maxMessageText {
		return errors.New("message text must be 1-2000 characters")
	}

	msg, err := s.store.SaveMessage(ctx, models.ChatMessage{
		OrderID:  c.OrderID,
		SenderID: c.UserID,
		Text:     frame.Text,
		At:       time.Now().UTC(),
	})
	if err != nil {
		s.log.Error().Err(err).Str("order_id", c.OrderID).Msg("save message")
		return errors.New("could not save message")
	}

	metrics.WSMessagesTotal.WithLabelValues(frameSendMessage).Inc()
	s.hub.Broadcast(c.OrderID, MessageFrame{Type: frameMessage, Message: msg})
	return nil
}

func (s *Server) sendError(c *Client, text string) {
	b, err := json.Marshal(errorFrame{Type: frameError, Error: text})
	if err != nil {
		return
	}
	c.trySend(b)
}

func (s *Server) writePump(conn *websocket.Conn, c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case b, ok := <-c.Outbound():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
