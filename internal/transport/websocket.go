// SPDX-License-Identifier: MIT
package transport

import (
	"errors"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"moodlight/internal/log"
)

const (
	broadcastBuffer = 256
	writeTimeout    = time.Second
)

// WebSocketObserver broadcasts snapshots as JSON to every client connected
// on /ws. Publishing never blocks: when the broadcast queue is full the
// snapshot is dropped.
type WebSocketObserver struct {
	addr     string
	log      *log.Logger
	upgrader websocket.Upgrader

	clients   map[*websocket.Conn]bool
	clientsMu sync.Mutex
	broadcast chan Snapshot
	done      chan struct{}
	closed    atomic.Bool
	dropped   atomic.Uint64

	listener net.Listener
	server   *http.Server
}

// NewWebSocketObserver creates an observer that will listen on addr.
func NewWebSocketObserver(addr string) *WebSocketObserver {
	return &WebSocketObserver{
		addr: addr,
		log:  log.New("websocket"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Local monitoring pages are served from anywhere.
			},
		},
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan Snapshot, broadcastBuffer),
		done:      make(chan struct{}),
	}
}

// Start binds the listener and begins serving. Bind errors are returned.
func (w *WebSocketObserver) Start() error {
	ln, err := net.Listen("tcp", w.addr)
	if err != nil {
		return err
	}
	w.listener = ln

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", w.handleWebSocket)
	w.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		w.log.Infof("serving snapshots on ws://%s/ws", ln.Addr())
		if err := w.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			w.log.Errorf("server error: %v", err)
		}
	}()
	go w.handleBroadcasts()
	return nil
}

// Addr returns the bound address, or the configured one before Start.
func (w *WebSocketObserver) Addr() string {
	if w.listener != nil {
		return w.listener.Addr().String()
	}
	return w.addr
}

// handleWebSocket upgrades HTTP connections to WebSocket.
func (w *WebSocketObserver) handleWebSocket(rw http.ResponseWriter, r *http.Request) {
	conn, err := w.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		w.log.Warnf("upgrade error: %v", err)
		return
	}

	w.clientsMu.Lock()
	w.clients[conn] = true
	total := len(w.clients)
	w.clientsMu.Unlock()
	w.log.Infof("client connected, total: %d", total)

	// Clients only listen; the first read error means they went away.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		w.clientsMu.Lock()
		delete(w.clients, conn)
		total := len(w.clients)
		w.clientsMu.Unlock()
		conn.Close()
		w.log.Infof("client disconnected, total: %d", total)
	}()
}

// handleBroadcasts sends queued snapshots to all connected clients.
func (w *WebSocketObserver) handleBroadcasts() {
	for {
		select {
		case <-w.done:
			return
		case s := <-w.broadcast:
			w.clientsMu.Lock()
			for client := range w.clients {
				client.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := client.WriteJSON(s); err != nil {
					w.log.Debugf("error sending to client: %v", err)
					client.Close()
					delete(w.clients, client)
				}
			}
			w.clientsMu.Unlock()
		}
	}
}

// Publish queues s for broadcast, dropping it when the queue is full.
func (w *WebSocketObserver) Publish(s Snapshot) error {
	if w.closed.Load() {
		return ErrClosed
	}
	select {
	case w.broadcast <- s:
	default:
		w.dropped.Add(1)
	}
	return nil
}

// Clients returns the number of connected clients.
func (w *WebSocketObserver) Clients() int {
	w.clientsMu.Lock()
	defer w.clientsMu.Unlock()
	return len(w.clients)
}

// Dropped returns the number of snapshots dropped on a full queue.
func (w *WebSocketObserver) Dropped() uint64 { return w.dropped.Load() }

// Close disconnects all clients and shuts down the server.
func (w *WebSocketObserver) Close() error {
	if w.closed.Swap(true) {
		return nil
	}
	close(w.done)

	w.clientsMu.Lock()
	for client := range w.clients {
		client.Close()
	}
	w.clients = make(map[*websocket.Conn]bool)
	w.clientsMu.Unlock()

	if w.server != nil {
		return w.server.Close()
	}
	return nil
}

var _ Observer = (*WebSocketObserver)(nil)
