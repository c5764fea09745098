// Package hot streams server-sent events to every connected client
package hot

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
)

// New server-sent event (SSE) server
func New() *Server {
	return &Server{
		clients: map[chan *Event]struct{}{},
	}
}

type Server struct {
	mu      sync.Mutex
	clients map[chan *Event]struct{}
}

// Publish an event to the connected clients. Slow clients miss events
// rather than block the publisher.
func (s *Server) Publish(event *Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for client := range s.clients {
		select {
		case client <- event:
		default:
		}
	}
}

// Clients is the number of connected clients
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) subscribe() chan *Event {
	client := make(chan *Event, 16)
	s.mu.Lock()
	s.clients[client] = struct{}{}
	s.mu.Unlock()
	return client
}

func (s *Server) unsubscribe(client chan *Event) {
	s.mu.Lock()
	delete(s.clients, client)
	s.mu.Unlock()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Take control of flushing
	flusher, ok := w.(http.Flusher)
	if !ok {
		err := fmt.Errorf("hot: response writer is not a flusher")
		http.Error(w, err.Error(), 500)
		return
	}
	headers := w.Header()
	headers.Add(`Content-Type`, `text/event-stream`)
	headers.Add(`Cache-Control`, `no-cache`)
	headers.Add(`Connection`, `keep-alive`)
	headers.Add(`Access-Control-Allow-Origin`, "*")
	client := s.subscribe()
	defer s.unsubscribe(client)
	// Flush the headers
	flusher.Flush()
	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-client:
			w.Write(event.Format().Bytes())
			flusher.Flush()
		}
	}
}

// https://html.spec.whatwg.org/multipage/server-sent-events.html#event-stream-interpretation
type Event struct {
	ID    string // id (optional)
	Type  string // event type (optional)
	Data  []byte // data
	Retry int    // retry (optional)
}

func (e *Event) Format() *bytes.Buffer {
	b := new(bytes.Buffer)
	if e.ID != "" {
		b.WriteString("id: " + e.ID + "\n")
	}
	if e.Type != "" {
		b.WriteString("event: " + e.Type + "\n")
	}
	if len(e.Data) > 0 {
		b.WriteString("data: ")
		b.Write(e.Data)
		b.WriteByte('\n')
	}
	if e.Retry > 0 {
		b.WriteString("retry: " + strconv.Itoa(e.Retry) + "\n")
	}
	b.WriteByte('\n')
	return b
}
