// Package sse provides Server-Sent Events for franchise dashboards.
package sse

import (
	"encoding/json"
	"net/http"
	"sync"

	"dojoflow_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// EventType represents different types of SSE events
type EventType string

const (
	// EventRevalidate tells clients to refetch the view at Path.
	EventRevalidate EventType = "revalidate"
)

// Event represents an SSE event payload
type Event struct {
	Type EventType   `json:"type"`
	Path string      `json:"path,omitempty"`
	Data interface{} `json:"data,omitempty"`
}

const clientBuffer = 32

// client represents a connected SSE client
type client struct {
	userID      uuid.UUID
	franchiseID uuid.UUID
	events      chan Event
}

// Service manages SSE connections and event broadcasting
type Service struct {
	mu      sync.RWMutex
	clients map[uuid.UUID][]*client // franchiseID -> clients
	log     *logger.Logger
}

// New creates a new SSE service
func New(log *logger.Logger) *Service {
	return &Service{
		clients: make(map[uuid.UUID][]*client),
		log:     log,
	}
}

func (s *Service) addClient(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c.franchiseID] = append(s.clients[c.franchiseID], c)
}

func (s *Service) removeClient(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clients := s.clients[c.franchiseID]
	for i, cl := range clients {
		if cl == c {
			s.clients[c.franchiseID] = append(clients[:i], clients[i+1:]...)
			close(c.events)
			break
		}
	}
	if len(s.clients[c.franchiseID]) == 0 {
		delete(s.clients, c.franchiseID)
	}
}

// ClientCount returns the number of open connections for a franchise.
func (s *Service) ClientCount(franchiseID uuid.UUID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients[franchiseID])
}

// PublishToFranchise broadcasts an event to every client of a franchise.
// Slow clients drop events rather than block the publisher.
func (s *Service) PublishToFranchise(franchiseID uuid.UUID, event Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.clients[franchiseID] {
		select {
		case c.events <- event:
		default:
			s.log.Warn("sse buffer full, dropping event", "userId", c.userID, "franchiseId", franchiseID, "type", event.Type)
		}
	}
}

// Revalidate is PublishToFranchise for a revalidation hint.
func (s *Service) Revalidate(franchiseID uuid.UUID, path string) {
	s.PublishToFranchise(franchiseID, Event{Type: EventRevalidate, Path: path})
}

// Handler returns a Gin handler for SSE connections
func (s *Service) Handler(getUserID func(*gin.Context) (uuid.UUID, bool), getFranchiseID func(*gin.Context) (uuid.UUID, bool)) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := getUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		franchiseID, ok := getFranchiseID(c)
		if !ok {
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}

		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")
		c.Writer.Header().Set("X-Accel-Buffering", "no")

		cl := &client{
			userID:      userID,
			franchiseID: franchiseID,
			events:      make(chan Event, clientBuffer),
		}
		s.addClient(cl)
		defer s.removeClient(cl)

		c.SSEvent("connected", gin.H{"userId": userID, "franchiseId": franchiseID})
		c.Writer.Flush()

		clientGone := c.Request.Context().Done()
		for {
			select {
			case <-clientGone:
				return
			case event, ok := <-cl.events:
				if !ok {
					return
				}
				data, _ := json.Marshal(event)
				c.SSEvent(string(event.Type), string(data))
				c.Writer.Flush()
			}
		}
	}
}

// Close disconnects every client.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, clients := range s.clients {
		for _, c := range clients {
			close(c.events)
		}
	}
	s.clients = make(map[uuid.UUID][]*client)
}
