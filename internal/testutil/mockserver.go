// Package testutil provides fixtures and fake dataset servers for ContextMap tests
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ReceivedMessage tracks messages received from WebSocket clients
type ReceivedMessage struct {
	Topic     string
	Message   []byte
	Timestamp time.Time
}

// WebSocketMessage represents a message sent over WebSocket
type WebSocketMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// MockServer serves datasets over plain HTTP at /data/<name> and as
// WebSocket snapshots at /ws/<topic>.
type MockServer struct {
	server   *httptest.Server
	upgrader websocket.Upgrader

	datasets map[string][]byte
	status   map[string]int
	requests map[string]int
	noise    bool

	receivedMessages []ReceivedMessage
	lastProtocol     string

	mu sync.RWMutex
}

// NewMockServer starts a mock dataset server
func NewMockServer() *MockServer {
	s := &MockServer{
		datasets: make(map[string][]byte),
		status:   make(map[string]int),
		requests: make(map[string]int),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/data/", s.handleData)
	mux.HandleFunc("/ws/", s.handleWS)
	s.server = httptest.NewServer(mux)
	return s
}

// Close stops the server
func (s *MockServer) Close() {
	s.server.Close()
}

// BaseURL returns http://host:port
func (s *MockServer) BaseURL() string {
	return s.server.URL
}

// WSURL returns the ws:// URL for a topic
func (s *MockServer) WSURL(topic string) string {
	return "ws" + strings.TrimPrefix(s.server.URL, "http") + "/ws/" + topic
}

// DataURL returns the http:// URL for a dataset
func (s *MockServer) DataURL(name string) string {
	return s.server.URL + "/data/" + name
}

// SetDataset registers a payload under a name; it is served as /data/<name>
// and as the snapshot for topic <name>.
func (s *MockServer) SetDataset(name string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.datasets[name] = data
}

// SetStatus forces an HTTP status for a dataset
func (s *MockServer) SetStatus(name string, code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status[name] = code
}

// SetNoise makes the WebSocket feed send unrelated messages before the snapshot
func (s *MockServer) SetNoise(noise bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.noise = noise
}

// Requests returns how many HTTP requests a dataset has served
func (s *MockServer) Requests(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.requests[name]
}

// ReceivedMessages returns all messages received from clients
func (s *MockServer) ReceivedMessages() []ReceivedMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ReceivedMessage, len(s.receivedMessages))
	copy(out, s.receivedMessages)
	return out
}

// LastProtocol returns the Sec-WebSocket-Protocol of the last WebSocket client
func (s *MockServer) LastProtocol() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastProtocol
}

func (s *MockServer) handleData(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/data/")

	s.mu.Lock()
	s.requests[name]++
	data, ok := s.datasets[name]
	code := s.status[name]
	s.mu.Unlock()

	if code != 0 && code != http.StatusOK {
		http.Error(w, http.StatusText(code), code)
		return
	}
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func (s *MockServer) handleWS(w http.ResponseWriter, r *http.Request) {
	topic := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/ws/"), "/")

	responseHeader := http.Header{}
	protocol := r.Header.Get("Sec-WebSocket-Protocol")
	if strings.HasPrefix(protocol, "Bearer, ") {
		responseHeader.Set("Sec-WebSocket-Protocol", "Bearer")
	}

	conn, err := s.upgrader.Upgrade(w, r, responseHeader)
	if err != nil {
		return
	}
	defer conn.Close()

	s.mu.Lock()
	s.lastProtocol = protocol
	s.mu.Unlock()

	// Wait for the subscribe message before sending anything
	_, message, err := conn.ReadMessage()
	if err != nil {
		return
	}

	s.mu.Lock()
	s.receivedMessages = append(s.receivedMessages, ReceivedMessage{
		Topic:     topic,
		Message:   message,
		Timestamp: time.Now(),
	})
	data, ok := s.datasets[topic]
	noise := s.noise
	s.mu.Unlock()

	if noise {
		conn.WriteMessage(websocket.TextMessage, []byte("not json"))
		conn.WriteJSON(WebSocketMessage{Type: topic + ":update", Data: json.RawMessage(`{}`)})
	}
	if !ok {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "unknown topic"))
		return
	}
	conn.WriteJSON(WebSocketMessage{Type: topic + ":snapshot", Data: json.RawMessage(data)})

	// Keep the connection open until the client goes away
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
