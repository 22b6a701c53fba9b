package notifier

import (
	"encoding/json"
	"log"

	cmap "github.com/orcaman/concurrent-map/v2"
)

// Event kinds pushed to subscribers. The names are part of the wire
// contract with the web client.
const (
	EventStart     = "videoProcessingStart"
	EventProgress  = "videoProcessingProgress"
	EventProcessed = "videoProcessed"
	EventError     = "videoProcessingError"
)

// SendFunc returns true if data was successfully sent
type SendFunc func([]byte) bool

type Client struct {
	send SendFunc
}

func NewClient(send SendFunc) *Client {
	return &Client{send: send}
}

// Clients is needed as a video room usually has more than one subscriber
type Clients []*Client

// Hub keeps one room per video ID. Delivery is best-effort and at most
// once: a subscriber joining after an event was published missed it.
type Hub struct {
	rooms cmap.ConcurrentMap[string, Clients]
}

func NewHub() *Hub {
	return &Hub{rooms: cmap.New[Clients]()}
}

func (h *Hub) Subscribe(videoID string, client *Client) {
	h.rooms.Upsert(videoID, Clients{client}, func(exist bool, valueInMap, newValue Clients) Clients {
		if exist {
			return append(valueInMap, client)
		}
		return newValue
	})
}

func (h *Hub) Unsubscribe(videoID string, client *Client) {
	h.rooms.Upsert(videoID, Clients{}, func(exist bool, valueInMap, newValue Clients) Clients {
		if !exist {
			return newValue
		}
		for _, oc := range valueInMap {
			if oc == client {
				continue
			}
			newValue = append(newValue, oc)
		}
		return newValue
	})
}

// Publish broadcasts one event to every subscriber of the video's room.
// Clients whose send fails are dropped from the room.
func (h *Hub) Publish(videoID, event string, payload map[string]interface{}) {
	clients, ok := h.rooms.Get(videoID)
	if !ok || len(clients) == 0 {
		return
	}
	data, err := json.Marshal(map[string]interface{}{
		"event": event,
		"data":  payload,
	})
	if err != nil {
		log.Printf("notifier marshal error: %v", err)
		return
	}
	for _, client := range clients {
		if !client.send(data) {
			h.Unsubscribe(videoID, client)
		}
	}
}

// Subscribers returns the current size of a room (used by tests and stats).
func (h *Hub) Subscribers(videoID string) int {
	clients, ok := h.rooms.Get(videoID)
	if !ok {
		return 0
	}
	return len(clients)
}
