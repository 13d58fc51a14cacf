package httpserver

import (
	"bufio"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/researcher-discovery-service/internal/contact"
	"github.com/helixir/researcher-discovery-service/internal/domain"
)

type streamedEvent struct {
	name string
	data sseEvent
}

func readEvents(t *testing.T, body string) []streamedEvent {
	t.Helper()
	var events []streamedEvent
	var current streamedEvent
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			current.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &current.data))
		case line == "" && current.name != "":
			events = append(events, current)
			current = streamedEvent{}
		}
	}
	return events
}

func TestStreamContact_EventSequence(t *testing.T) {
	result := &domain.ContactExtractionResult{Email: "ada@london.ac.uk"}
	contacts := &mockContacts{
		enabled: true,
		transitions: []contact.Transition{
			{State: contact.StateSubmitted, TaskID: "task-1"},
			{State: contact.StatePolling, TaskID: "task-1", Poll: 1, MaxPolls: 24, TaskStatus: "running"},
			{State: contact.StateCompleted, TaskID: "task-1", Poll: 2, MaxPolls: 24, TaskStatus: "finished",
				Outcome: &domain.ContactOutcome{Status: domain.ContactStatusCompleted, Result: result, TaskID: "task-1"}},
		},
		outcome: domain.ContactOutcome{Status: domain.ContactStatusCompleted, Result: result, TaskID: "task-1"},
	}
	srv := newTestServer(Services{Contacts: contacts})

	rr := doJSON(t, srv, http.MethodPost, "/api/v1/researchers/contact/stream", map[string]any{
		"researcher": map[string]string{"name": "Ada Lovelace", "website": "https://ada.example.org"},
	})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/event-stream", rr.Header().Get("Content-Type"))

	events := readEvents(t, rr.Body.String())
	require.Len(t, events, 4)

	assert.Equal(t, "stream_started", events[0].name)
	assert.Equal(t, "state", events[1].name)
	assert.Equal(t, "submitted", events[1].data.State)
	assert.Equal(t, "task-1", events[1].data.TaskID)
	assert.Equal(t, "state", events[2].name)
	assert.Equal(t, 1, events[2].data.Poll)
	assert.Equal(t, "running", events[2].data.TaskStatus)

	final := events[3]
	assert.Equal(t, "completed", final.name)
	require.NotNil(t, final.data.Outcome)
	assert.Equal(t, "ada@london.ac.uk", final.data.Outcome.Result.Email)
}

func TestStreamContact_Unavailable(t *testing.T) {
	contacts := &mockContacts{
		transitions: []contact.Transition{
			{State: contact.StateUnavailable, Outcome: &domain.ContactOutcome{Status: domain.ContactStatusUnavailable, Message: "contact lookup is not configured"}},
		},
		outcome: domain.ContactOutcome{Status: domain.ContactStatusUnavailable},
		err:     contact.ErrFeatureDisabled,
	}
	srv := newTestServer(Services{Contacts: contacts})

	rr := doJSON(t, srv, http.MethodPost, "/api/v1/researchers/contact/stream", map[string]any{
		"researcher": map[string]string{"name": "Ada Lovelace", "linkedin": "https://www.linkedin.com/in/ada"},
	})
	require.Equal(t, http.StatusOK, rr.Code)

	events := readEvents(t, rr.Body.String())
	require.Len(t, events, 2)
	assert.Equal(t, "unavailable", events[1].name)
	assert.Equal(t, "contact lookup is not configured", events[1].data.Message)
}

func TestStreamContact_RejectsBeforeStreaming(t *testing.T) {
	srv := newTestServer(Services{})

	t.Run("no profile link", func(t *testing.T) {
		rr := doJSON(t, srv, http.MethodPost, "/api/v1/researchers/contact/stream", map[string]any{
			"researcher": map[string]string{"name": "Ada Lovelace"},
		})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	})

	t.Run("no name", func(t *testing.T) {
		rr := doJSON(t, srv, http.MethodPost, "/api/v1/researchers/contact/stream", map[string]any{
			"researcher": map[string]string{"website": "https://ada.example.org"},
		})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestTransitionEvent(t *testing.T) {
	e := transitionEvent(contact.Transition{State: contact.StateTimedOut, TaskID: "t", Poll: 24, MaxPolls: 24,
		Outcome: &domain.ContactOutcome{Status: domain.ContactStatusTimedOut, Message: "gave up", Retryable: true}})
	assert.Equal(t, "timed_out", e.EventType)
	assert.Equal(t, "gave up", e.Message)

	e = transitionEvent(contact.Transition{State: contact.StatePolling, Poll: 3})
	assert.Equal(t, "state", e.EventType)
	assert.Empty(t, e.Message)
}
