package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait = 10 * time.Second
	pongWait  = 60 * time.Second
	pingEvery = (pongWait * 9) / 10
)

// clientSet tracks connected websocket clients with a per-connection write
// lock so broadcasts and pings never interleave on the wire.
type clientSet struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]*sync.Mutex
}

func newClientSet() *clientSet {
	return &clientSet{clients: make(map[*websocket.Conn]*sync.Mutex)}
}

func (cs *clientSet) add(conn *websocket.Conn) *sync.Mutex {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	writeMu := &sync.Mutex{}
	cs.clients[conn] = writeMu
	return writeMu
}

func (cs *clientSet) remove(conn *websocket.Conn) {
	cs.mu.Lock()
	if _, ok := cs.clients[conn]; ok {
		delete(cs.clients, conn)
	}
	cs.mu.Unlock()
	_ = conn.Close()
}

func (cs *clientSet) count() int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return len(cs.clients)
}

// snapshot copies the current conn set so callers can write without holding
// the set lock. A stalled write must not block add and remove.
func (cs *clientSet) snapshot() map[*websocket.Conn]*sync.Mutex {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	out := make(map[*websocket.Conn]*sync.Mutex, len(cs.clients))
	for conn, writeMu := range cs.clients {
		out[conn] = writeMu
	}
	return out
}

func writeMessage(conn *websocket.Conn, writeMu *sync.Mutex, messageType int, payload []byte) error {
	writeMu.Lock()
	defer writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(messageType, payload)
}

// handleWS upgrades the connection and streams engine updates to the client.
// The client receives the current snapshot on connect; afterwards it gets
// whatever the host broadcasts (snapshots and appended rows).
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	writeMu := s.clients.add(conn)

	hello, err := json.Marshal(map[string]any{
		"type":   "snapshot",
		"status": s.analyzer.Snapshot(),
	})
	if err == nil {
		_ = writeMessage(conn, writeMu, websocket.TextMessage, hello)
	}

	go func() {
		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(pingEvery)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					if err := writeMessage(conn, writeMu, websocket.PingMessage, nil); err != nil {
						_ = conn.Close()
						return
					}
				}
			}
		}()
		defer close(done)
		defer s.clients.remove(conn)
		for {
			messageType, payload, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if messageType != websocket.TextMessage {
				continue
			}
			var request map[string]any
			if err := json.Unmarshal(payload, &request); err != nil {
				continue
			}
			if request["type"] == "snapshot_request" {
				response, err := json.Marshal(map[string]any{
					"type":   "snapshot",
					"status": s.analyzer.Snapshot(),
				})
				if err == nil {
					_ = writeMessage(conn, writeMu, websocket.TextMessage, response)
				}
			}
		}
	}()
}

// Broadcast pushes a message to every connected websocket client, dropping
// clients whose writes fail.
func (s *Server) Broadcast(message any) {
	payload, err := json.Marshal(message)
	if err != nil {
		return
	}

	for conn, writeMu := range s.clients.snapshot() {
		if err := writeMessage(conn, writeMu, websocket.TextMessage, payload); err != nil {
			s.clients.remove(conn)
		}
	}
}

// ClientCount reports the number of connected websocket clients.
func (s *Server) ClientCount() int {
	return s.clients.count()
}
