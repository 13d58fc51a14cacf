package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/helixir/researcher-discovery-service/internal/contact"
	"github.com/helixir/researcher-discovery-service/internal/domain"
)

const (
	// sseKeepAliveInterval is how often a comment line keeps idle streams open.
	sseKeepAliveInterval = 15 * time.Second
	// sseGracePeriod is added to the resolver's longest wait before the
	// stream gives up.
	sseGracePeriod = 30 * time.Second
)

// sseEvent represents an event sent via SSE.
type sseEvent struct {
	EventType  string                 `json:"event_type"`
	State      string                 `json:"state"`
	TaskID     string                 `json:"task_id,omitempty"`
	Poll       int                    `json:"poll,omitempty"`
	MaxPolls   int                    `json:"max_polls,omitempty"`
	TaskStatus string                 `json:"task_status,omitempty"`
	Outcome    *domain.ContactOutcome `json:"outcome,omitempty"`
	Message    string                 `json:"message,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
}

// streamContact handles POST /api/v1/researchers/contact/stream (SSE).
// Each state transition is sent as a "state" event; the final event is named
// after the terminal state (completed, failed, timed_out or unavailable).
func (s *Server) streamContact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	if !namesPresent(w, []domain.Researcher{req.Researcher}) {
		return
	}
	if req.Researcher.ProfileLink() == "" {
		writeError(w, http.StatusBadRequest, "researcher has no profile link")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	// Set SSE headers.
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	ctx, cancel := context.WithTimeout(r.Context(), s.services.Contacts.MaxWait()+sseGracePeriod)
	defer cancel()

	events := make(chan contact.Transition, 8)
	done := make(chan error, 1)
	go func() {
		defer close(events)
		_, err := s.services.Contacts.Resolve(ctx, req.Researcher, func(t contact.Transition) {
			select {
			case events <- t:
			case <-ctx.Done():
			}
		})
		done <- err
	}()

	sendSSEEvent(w, flusher, sseEvent{
		EventType: "stream_started",
		State:     "started",
		Message:   "contact lookup started",
		Timestamp: time.Now(),
	})

	keepAlive := time.NewTicker(sseKeepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return

		case <-keepAlive.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()

		case t, open := <-events:
			if !open {
				if err := <-done; err != nil && ctx.Err() != nil {
					sendSSEEvent(w, flusher, sseEvent{
						EventType: "error",
						State:     string(contact.StateFailed),
						Message:   "contact lookup did not finish",
						Timestamp: time.Now(),
					})
				}
				return
			}
			sendSSEEvent(w, flusher, transitionEvent(t))
		}
	}
}

func transitionEvent(t contact.Transition) sseEvent {
	eventType := "state"
	if t.State.Terminal() {
		eventType = string(t.State)
	}
	event := sseEvent{
		EventType:  eventType,
		State:      string(t.State),
		TaskID:     t.TaskID,
		Poll:       t.Poll,
		MaxPolls:   t.MaxPolls,
		TaskStatus: t.TaskStatus,
		Outcome:    t.Outcome,
		Timestamp:  time.Now(),
	}
	if t.Outcome != nil {
		event.Message = t.Outcome.Message
	}
	return event
}

// sendSSEEvent writes a single SSE event to the response writer and flushes.
func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event sseEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.EventType, data)
	flusher.Flush()
}
