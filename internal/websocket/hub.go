package websocket

import (
	"encoding/json"
	"log"
	"sync"

	"poultry-monitor/internal/metrics"
)

// Hub реестр подключенных клиентов живой ленты с рассылкой сообщений
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	stopChan   chan struct{}
	wg         sync.WaitGroup
	stopOnce   sync.Once
}

// NewHub создает реестр клиентов
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 100),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stopChan:   make(chan struct{}),
	}
}

// Run запускает цикл рассылки
func (h *Hub) Run() {
	h.wg.Add(1)
	go h.loop()
}

// Stop останавливает рассылку и отключает клиентов
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.stopChan)
		h.wg.Wait()
	})
}

// Broadcast сериализует событие и рассылает всем клиентам
func (h *Hub) Broadcast(event interface{}) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to marshal broadcast event: %v\n", err)
		return
	}
	select {
	case h.broadcast <- data:
	default:
		// Очередь рассылки полна, событие пропускаем
	}
}

func (h *Hub) loop() {
	defer h.wg.Done()

	for {
		select {
		case <-h.stopChan:
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			metrics.WebsocketClients.Set(0)
			return

		case client := <-h.register:
			h.clients[client] = true
			metrics.WebsocketClients.Set(float64(len(h.clients)))
			log.Printf("Websocket client %s connected\n", client.id)

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				metrics.WebsocketClients.Set(float64(len(h.clients)))
				log.Printf("Websocket client %s disconnected\n", client.id)
			}

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Буфер клиента переполнен, отключаем его
					close(client.send)
					delete(h.clients, client)
					metrics.WebsocketClients.Set(float64(len(h.clients)))
				}
			}
		}
	}
}
