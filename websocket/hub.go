package websocket

import (
	"log"
	"sync"

	"github.com/otienojr/park_space/models"
	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

type Client struct {
	UserID uuid.UUID
	Conn   *websocket.Conn
}

// BookingEvent is pushed to the renter and owner whenever a booking changes
// state, so dashboards update without polling.
type BookingEvent struct {
	Type    string         `json:"type"`
	Booking models.Booking `json:"booking"`
}

var clients = make(map[uuid.UUID]*websocket.Conn)
var clientsMu sync.RWMutex
var Register = make(chan *Client)
var Unregister = make(chan *Client)
var Events = make(chan *BookingEvent, 16)

func RunHub() {
	for {
		select {
		case client := <-Register:
			log.Printf("Client registered: %s", client.UserID)
			clientsMu.Lock()
			clients[client.UserID] = client.Conn
			clientsMu.Unlock()
		case client := <-Unregister:
			log.Printf("Client unregistered: %s", client.UserID)
			clientsMu.Lock()
			if conn, ok := clients[client.UserID]; ok && conn == client.Conn {
				delete(clients, client.UserID)
			}
			clientsMu.Unlock()
		case event := <-Events:
			deliver(event, event.Booking.RenterID, event.Booking.OwnerID)
		}
	}
}

// NotifyBookingEvent enqueues a booking event without blocking the caller.
func NotifyBookingEvent(eventType string, booking models.Booking) {
	select {
	case Events <- &BookingEvent{Type: eventType, Booking: booking}:
	default:
		log.Printf("Booking event queue full, dropping %s for %s", eventType, booking.ID)
	}
}

func deliver(event *BookingEvent, userIDs ...uuid.UUID) {
	clientsMu.RLock()
	defer clientsMu.RUnlock()

	for _, userID := range userIDs {
		conn, ok := clients[userID]
		if !ok {
			continue
		}
		if err := conn.WriteJSON(event); err != nil {
			log.Printf("Error sending booking event to client %s: %v", userID, err)
			conn.Close()
		}
	}
}
