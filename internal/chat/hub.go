// Package chat fans published messages out to live websocket subscribers.
package chat

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"sacredmelodies/internal/store"
)

// Hub tracks subscriber connections and broadcasts each published message.
type Hub struct {
	mu         sync.Mutex
	sendChans  map[*websocket.Conn]chan []byte
	broadcast  chan store.Message
	register   chan *subscriber
	unregister chan *websocket.Conn
}

type subscriber struct {
	conn *websocket.Conn
	send chan []byte
}

func NewHub() *Hub {
	return &Hub{
		sendChans:  make(map[*websocket.Conn]chan []byte),
		broadcast:  make(chan store.Message),
		register:   make(chan *subscriber),
		unregister: make(chan *websocket.Conn),
	}
}

// Broadcast queues a message for delivery to all connected subscribers.
func (h *Hub) Broadcast(msg store.Message) {
	h.broadcast <- msg
}

// Run handles registration and fan-out. Call in its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case sub := <-h.register:
			h.mu.Lock()
			h.sendChans[sub.conn] = sub.send
			h.mu.Unlock()

		case conn := <-h.unregister:
			h.mu.Lock()
			if send, ok := h.sendChans[conn]; ok {
				close(send)
				delete(h.sendChans, conn)
				conn.Close()
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			data, err := json.Marshal(msg)
			if err != nil {
				log.Println("Error marshalling message:", err)
				continue
			}

			h.mu.Lock()
			for conn, send := range h.sendChans {
				select {
				case send <- data:
				default:
					// Slow subscriber; drop it rather than block the feed.
					close(send)
					delete(h.sendChans, conn)
					conn.Close()
				}
			}
			h.mu.Unlock()
		}
	}
}
