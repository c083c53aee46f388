package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"fieldregistry-server/internal/infra/async"
	"fieldregistry-server/internal/infra/httpserver"
	"fieldregistry-server/internal/schemastore/usecases"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin filtering happens in the CORS layer; the socket itself
		// accepts any origin.
		return true
	},
}

// InvalidationMessage is the wire shape pushed to websocket clients whenever
// a registry document changes. Clients react by refetching the named key.
type InvalidationMessage struct {
	Type      string    `json:"type"`
	Module    string    `json:"module"`
	Entity    string    `json:"entity"`
	Revision  int       `json:"revision"`
	Timestamp time.Time `json:"timestamp"`
}

type InvalidationWebSocketController struct {
	broker     async.InternalBroker
	clients    map[*websocket.Conn]bool
	clientsMux sync.RWMutex
	broadcast  chan InvalidationMessage
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	ctx        context.Context
	cancel     context.CancelFunc
}

func NewInvalidationWebSocketController(broker async.InternalBroker) *InvalidationWebSocketController {
	ctx, cancel := context.WithCancel(context.Background())

	wsc := &InvalidationWebSocketController{
		broker:     broker,
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan InvalidationMessage, 256),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		ctx:        ctx,
		cancel:     cancel,
	}

	go wsc.run()

	return wsc
}

var _ httpserver.Controller = (*InvalidationWebSocketController)(nil)

func (wsc *InvalidationWebSocketController) AddRoutes(router *http.ServeMux) {
	router.Handle("GET /ws/registry-invalidations", wsc.handleWebSocket())
}

func (wsc *InvalidationWebSocketController) handleWebSocket() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Error("websocket upgrade failed", slog.String("error", err.Error()))
			return
		}

		slog.Info("invalidation websocket connected", slog.String("remote_addr", r.RemoteAddr))

		wsc.register <- conn

		go wsc.handlePingPong(conn)
		go wsc.handleClient(conn)
	}
}

func (wsc *InvalidationWebSocketController) handleClient(conn *websocket.Conn) {
	defer func() {
		wsc.unregister <- conn
		conn.Close()
	}()

	// Clients never send payloads; the read loop only drains control frames
	// and notices disconnects.
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("websocket read error", slog.String("error", err.Error()))
			} else {
				slog.Debug("websocket connection closed", slog.String("error", err.Error()))
			}
			break
		}
	}
}

func (wsc *InvalidationWebSocketController) handlePingPong(conn *websocket.Conn) {
	ticker := time.NewTicker(54 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-wsc.ctx.Done():
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (wsc *InvalidationWebSocketController) run() {
	subscription, err := wsc.broker.Subscribe(usecases.InvalidationTopic)
	if err != nil {
		slog.Error("failed to subscribe to registry invalidations", slog.String("error", err.Error()))
		return
	}
	defer wsc.broker.Unsubscribe(usecases.InvalidationTopic, subscription)

	for {
		select {
		case <-wsc.ctx.Done():
			return

		case client := <-wsc.register:
			wsc.clientsMux.Lock()
			wsc.clients[client] = true
			wsc.clientsMux.Unlock()
			slog.Info("websocket client registered", slog.Int("total_clients", len(wsc.clients)))

		case client := <-wsc.unregister:
			wsc.clientsMux.Lock()
			if _, ok := wsc.clients[client]; ok {
				delete(wsc.clients, client)
				client.Close()
			}
			wsc.clientsMux.Unlock()
			slog.Info("websocket client unregistered", slog.Int("total_clients", len(wsc.clients)))

		case message := <-wsc.broadcast:
			wsc.clientsMux.RLock()
			for client := range wsc.clients {
				client.SetWriteDeadline(time.Now().Add(10 * time.Second))
				if err := client.WriteJSON(message); err != nil {
					slog.Error("failed to write invalidation to websocket client", slog.String("error", err.Error()))
					client.Close()
					delete(wsc.clients, client)
				}
			}
			wsc.clientsMux.RUnlock()

		case brokerMsg, ok := <-subscription.Receiver:
			if !ok {
				return
			}
			if brokerMsg.Event != usecases.EventConfigUpdated {
				continue
			}
			event, ok := brokerMsg.Value.(usecases.InvalidationEvent)
			if !ok {
				continue
			}

			message := InvalidationMessage{
				Type:      "registry_invalidation",
				Module:    event.Module,
				Entity:    event.Entity,
				Revision:  event.Revision,
				Timestamp: time.Now().UTC(),
			}

			select {
			case wsc.broadcast <- message:
			default:
				slog.Warn("broadcast channel full, dropping invalidation")
			}
		}
	}
}

func (wsc *InvalidationWebSocketController) Shutdown() {
	slog.Info("shutting down invalidation websocket controller")
	wsc.cancel()

	wsc.clientsMux.Lock()
	for client := range wsc.clients {
		client.Close()
	}
	wsc.clientsMux.Unlock()
}
