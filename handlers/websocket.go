package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"videoflow/models"
	"videoflow/notifier"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

var hub *notifier.Hub

// Init hands the notifier hub to the websocket handler
func Init(h *notifier.Hub) {
	hub = h
}

type WSMessage struct {
	Type    string `json:"type"`
	VideoID string `json:"video_id"`
}

// WebSocket is the realtime channel: clients join rooms per video ID and
// receive the pipeline's progress events for those videos.
func WebSocket(c *gin.Context, user *models.User) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Print("upgrade:", err)
		return
	}
	defer conn.Close()

	// Setup client
	isConnected := true
	client := notifier.NewClient(func(data []byte) bool {
		if !isConnected {
			return false
		}
		err := conn.WriteMessage(websocket.TextMessage, data)
		if err != nil {
			log.Println("write err:", err)
			isConnected = false
			return false
		}
		return true
	})
	joined := map[string]bool{}
	defer func() {
		for videoID := range joined {
			hub.Unsubscribe(videoID, client)
		}
	}()
	// Main read cycle
	for {
		mt, message, err := conn.ReadMessage()
		if err != nil {
			isConnected = false
			break
		}
		if string(message) == "ping" {
			conn.WriteMessage(mt, []byte("pong"))
			continue
		}
		if string(message) == "pong" {
			continue
		}
		msg := WSMessage{}
		if err = json.Unmarshal(message, &msg); err != nil {
			log.Printf("bad ws message: %s", message)
			continue
		}
		if msg.Type == "join" && msg.VideoID != "" && !joined[msg.VideoID] {
			hub.Subscribe(msg.VideoID, client)
			joined[msg.VideoID] = true
		}
	}
}
