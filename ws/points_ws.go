package ws

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"cafepos/entity"
	"cafepos/pkg/events"
	"cafepos/pkg/metrics"
	"cafepos/services"
	"cafepos/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Authorizer decides whether the caller may watch a customer's balance.
type Authorizer interface {
	Authorize(ctx context.Context, actor services.Actor, customerID string) (*entity.Customer, error)
}

// PointsHub pushes PointsChanged events to the websockets watching that customer.
type PointsHub struct {
	clients    map[string]map[*websocket.Conn]bool // customerID -> connections
	broadcast  chan events.PointsPayload
	register   chan Subscription
	unregister chan Subscription
	done       chan struct{}
	mu         sync.Mutex
	auth       Authorizer
}

// Subscription is one websocket watching one customer.
type Subscription struct {
	Conn       *websocket.Conn
	CustomerID string
	UserID     string
}

func NewPointsHub(auth Authorizer) *PointsHub {
	return &PointsHub{
		clients:    make(map[string]map[*websocket.Conn]bool),
		broadcast:  make(chan events.PointsPayload, 64),
		register:   make(chan Subscription),
		unregister: make(chan Subscription),
		done:       make(chan struct{}),
		auth:       auth,
	}
}

// Run serves register/unregister/broadcast until ctx is done.
func (h *PointsHub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for id, conns := range h.clients {
				for conn := range conns {
					conn.Close()
				}
				delete(h.clients, id)
			}
			h.mu.Unlock()
			metrics.WSClients.Set(0)
			return

		case sub := <-h.register:
			h.mu.Lock()
			if h.clients[sub.CustomerID] == nil {
				h.clients[sub.CustomerID] = make(map[*websocket.Conn]bool)
			}
			h.clients[sub.CustomerID][sub.Conn] = true
			h.mu.Unlock()
			metrics.WSClients.Inc()

		case sub := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[sub.CustomerID][sub.Conn]; ok {
				delete(h.clients[sub.CustomerID], sub.Conn)
				sub.Conn.Close()
				metrics.WSClients.Dec()
			}
			if len(h.clients[sub.CustomerID]) == 0 {
				delete(h.clients, sub.CustomerID)
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.Lock()
			for conn := range h.clients[msg.CustomerID] {
				if err := conn.WriteJSON(msg); err != nil {
					log.Warn().Err(err).Str("customerId", msg.CustomerID).Msg("ws write error")
					conn.Close()
					delete(h.clients[msg.CustomerID], conn)
					metrics.WSClients.Dec()
				}
			}
			h.mu.Unlock()
		}
	}
}

// Publish implements events.Publisher; only PointsChanged is pushed.
func (h *PointsHub) Publish(ctx context.Context, e events.Event) error {
	if e.Type != events.PointsChanged {
		return nil
	}
	payload, ok := e.Payload.(events.PointsPayload)
	if !ok {
		return errors.New("PointsChanged without PointsPayload")
	}
	select {
	case h.broadcast <- payload:
		return nil
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ClientCount reports open connections for a customer.
func (h *PointsHub) ClientCount(customerID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[customerID])
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WS route: /ws/points?customerId=
func (h *PointsHub) HandleWebSocket(c *gin.Context) {
	customerID := c.Query("customerId")
	if customerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "customerId is required"})
		return
	}

	actor := services.Actor{UserID: utils.CurrentUserID(c), Role: utils.CurrentRole(c)}
	if _, err := h.auth.Authorize(c.Request.Context(), actor, customerID); err != nil {
		switch {
		case errors.Is(err, services.ErrCustomerNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "customer not found"})
		case errors.Is(err, services.ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": "no access"})
		default:
			log.Error().Err(err).Msg("ws authorize failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open stream"})
		}
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("ws upgrade error")
		return
	}

	sub := Subscription{Conn: conn, CustomerID: customerID, UserID: actor.UserID}
	select {
	case h.register <- sub:
	case <-h.done:
		conn.Close()
		return
	}

	go h.listen(sub)
}

// listen only drains the socket so that a client close is noticed.
func (h *PointsHub) listen(sub Subscription) {
	defer func() {
		select {
		case h.unregister <- sub:
		case <-h.done:
		}
	}()

	for {
		if _, _, err := sub.Conn.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug().Err(err).Str("customerId", sub.CustomerID).Msg("ws read error")
			}
			return
		}
	}
}
