// Package contact resolves a researcher's contact details by running a remote
// browser automation task against their profile page.
//
// A lookup is a small state machine:
//
//	submitted -> completed                       (output returned on create)
//	submitted -> polling -> completed | failed | timed_out
//
// plus the unavailable state when no browser automation credential is
// configured. Every transition is reported to an optional Observer.
package contact

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/researcher-discovery-service/internal/browseruse"
	"github.com/helixir/researcher-discovery-service/internal/domain"
	"github.com/helixir/researcher-discovery-service/internal/observability"
)

const (
	// DefaultPollInterval is the wait between task status checks.
	DefaultPollInterval = 10 * time.Second

	// DefaultMaxPolls bounds the status checks before the lookup times out.
	DefaultMaxPolls = 24
)

// ErrFeatureDisabled is returned with an unavailable outcome when no browser
// automation credential is configured.
var ErrFeatureDisabled = fmt.Errorf("contact lookup: %w", domain.ErrFeatureDisabled)

// State is a contact lookup state.
type State string

const (
	StateSubmitted   State = "submitted"
	StatePolling     State = "polling"
	StateCompleted   State = "completed"
	StateFailed      State = "failed"
	StateTimedOut    State = "timed_out"
	StateUnavailable State = "unavailable"
)

// Terminal reports whether no further transitions follow s.
func (s State) Terminal() bool {
	switch s {
	case StateCompleted, StateFailed, StateTimedOut, StateUnavailable:
		return true
	default:
		return false
	}
}

// Transition describes a state change of a lookup.
type Transition struct {
	State      State                  `json:"state"`
	TaskID     string                 `json:"task_id,omitempty"`
	Poll       int                    `json:"poll,omitempty"`
	MaxPolls   int                    `json:"max_polls,omitempty"`
	TaskStatus string                 `json:"task_status,omitempty"`
	Outcome    *domain.ContactOutcome `json:"outcome,omitempty"`
}

// Observer receives every transition of a lookup, in order.
type Observer func(Transition)

// TaskService runs browser automation tasks.
type TaskService interface {
	Enabled() bool
	CreateTask(ctx context.Context, req browseruse.TaskRequest) (*browseruse.CreateTaskResponse, error)
	GetTask(ctx context.Context, id string) (*browseruse.Task, error)
}

// Config holds Resolver configuration.
type Config struct {
	// PollInterval is the wait between status checks.
	PollInterval time.Duration

	// MaxPolls is the number of status checks before timing out.
	MaxPolls int

	// LLMModel is the model the remote agent uses.
	LLMModel string

	// UseProxy routes the remote browser through a proxy.
	UseProxy bool

	// UseAdblock enables the remote browser's ad blocker.
	UseAdblock bool
}

func (c *Config) applyDefaults() {
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.MaxPolls <= 0 {
		c.MaxPolls = DefaultMaxPolls
	}
	if c.LLMModel == "" {
		c.LLMModel = browseruse.DefaultLLMModel
	}
}

// Resolver runs contact lookups.
type Resolver struct {
	tasks   TaskService
	config  Config
	logger  zerolog.Logger
	metrics *observability.Metrics
}

// NewResolver creates a Resolver. A nil or disabled task service makes every
// lookup report unavailable.
func NewResolver(tasks TaskService, cfg Config, logger zerolog.Logger, metrics *observability.Metrics) *Resolver {
	cfg.applyDefaults()
	return &Resolver{
		tasks:   tasks,
		config:  cfg,
		logger:  logger.With().Str("component", "contact_resolver").Logger(),
		metrics: metrics,
	}
}

// Enabled reports whether lookups can run.
func (r *Resolver) Enabled() bool {
	return r.tasks != nil && r.tasks.Enabled()
}

// MaxWait is the longest a lookup polls before timing out.
func (r *Resolver) MaxWait() time.Duration {
	return time.Duration(r.config.MaxPolls) * r.config.PollInterval
}

// Resolve looks up contact details for researcher.
//
// A researcher without a profile link is invalid input. Without a credential
// the outcome is unavailable and the error is ErrFeatureDisabled. Upstream
// failures and timeouts are reported through the outcome status, not the
// error. A cancelled context ends the lookup with the context error.
func (r *Resolver) Resolve(ctx context.Context, researcher domain.Researcher, observe Observer) (domain.ContactOutcome, error) {
	link := strings.TrimSpace(researcher.ProfileLink())
	if link == "" {
		return domain.ContactOutcome{}, domain.NewValidationError("researcher", "no profile link to look up contacts from")
	}
	if observe == nil {
		observe = func(Transition) {}
	}

	start := time.Now()
	lookup := &lookup{resolver: r, observe: observe, start: start}
	logger := observability.WithResearcherContext(r.logger, researcher.Name, researcher.Institution)

	if !r.Enabled() {
		return lookup.finish(StateUnavailable, domain.ContactOutcome{
			Status:  domain.ContactStatusUnavailable,
			Message: "browser automation is not configured",
		}), ErrFeatureDisabled
	}

	created, err := r.tasks.CreateTask(ctx, r.taskRequest(researcher, link))
	if err != nil {
		if ctx.Err() != nil {
			return lookup.cancelled(ctx)
		}
		logger.Warn().Err(err).Str("link", link).Msg("failed to create contact task")
		return lookup.finish(StateFailed, domain.ContactOutcome{
			Status:    domain.ContactStatusFailed,
			Message:   "could not start contact lookup",
			Retryable: true,
		}), nil
	}

	lookup.taskID = created.ID
	logger = observability.WithTaskContext(logger, created.ID)
	lookup.emit(Transition{State: StateSubmitted, TaskStatus: created.Status})
	logger.Info().Str("link", link).Msg("contact task submitted")

	if syncComplete(created) {
		return lookup.complete(ParseOutput(created.StructuredOutput, created.Output)), nil
	}

	for poll := 1; poll <= r.config.MaxPolls; poll++ {
		if err := sleep(ctx, r.config.PollInterval); err != nil {
			return lookup.cancelled(ctx)
		}

		r.metrics.RecordContactPoll()
		task, err := r.tasks.GetTask(ctx, created.ID)
		if err != nil {
			if ctx.Err() != nil {
				return lookup.cancelled(ctx)
			}
			logger.Warn().Err(err).Int("poll", poll).Msg("contact task poll failed")
			lookup.emit(Transition{State: StatePolling, Poll: poll, MaxPolls: r.config.MaxPolls})
			continue
		}

		switch nextState(task.Status) {
		case StateCompleted:
			return lookup.complete(ParseOutput(task.StructuredOutput, task.Output)), nil
		case StateFailed:
			logger.Warn().Str("task_status", task.Status).Msg("contact task failed")
			return lookup.finish(StateFailed, domain.ContactOutcome{
				Status:  domain.ContactStatusFailed,
				Message: "contact task ended with status " + task.Status,
			}), nil
		default:
			lookup.emit(Transition{State: StatePolling, Poll: poll, MaxPolls: r.config.MaxPolls, TaskStatus: task.Status})
		}
	}

	logger.Warn().Int("polls", r.config.MaxPolls).Msg("contact task timed out")
	return lookup.finish(StateTimedOut, domain.ContactOutcome{
		Status:    domain.ContactStatusTimedOut,
		Message:   fmt.Sprintf("no result after %s", r.MaxWait()),
		Retryable: true,
	}), nil
}

// nextState maps a remote task status to the lookup state it leads to.
// syncComplete reports whether the create reply already carries the final
// result. Output on a task that is still running is progress text.
func syncComplete(created *browseruse.CreateTaskResponse) bool {
	if !hasOutput(created.Output, created.StructuredOutput) {
		return false
	}
	return strings.TrimSpace(created.Status) == "" || nextState(created.Status) == StateCompleted
}

func nextState(status string) State {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case browseruse.StatusFinished, "completed":
		return StateCompleted
	case browseruse.StatusFailed, browseruse.StatusStopped, "error", "cancelled", "canceled":
		return StateFailed
	default:
		return StatePolling
	}
}

// lookup tracks a single Resolve call for transition reporting.
type lookup struct {
	resolver *Resolver
	observe  Observer
	taskID   string
	start    time.Time
}

func (l *lookup) emit(t Transition) {
	t.TaskID = l.taskID
	l.observe(t)
}

func (l *lookup) complete(result domain.ContactExtractionResult) domain.ContactOutcome {
	return l.finish(StateCompleted, domain.ContactOutcome{
		Status: domain.ContactStatusCompleted,
		Result: &result,
	})
}

func (l *lookup) finish(state State, outcome domain.ContactOutcome) domain.ContactOutcome {
	outcome.TaskID = l.taskID
	l.resolver.metrics.RecordContactOutcome(string(outcome.Status), time.Since(l.start).Seconds())
	l.emit(Transition{State: state, Outcome: &outcome})
	return outcome
}

func (l *lookup) cancelled(ctx context.Context) (domain.ContactOutcome, error) {
	err := ctx.Err()
	outcome := l.finish(StateFailed, domain.ContactOutcome{
		Status:    domain.ContactStatusFailed,
		Message:   "contact lookup cancelled",
		Retryable: true,
	})
	if errors.Is(err, context.DeadlineExceeded) {
		return outcome, fmt.Errorf("contact lookup: %w", domain.ErrTimeout)
	}
	return outcome, fmt.Errorf("contact lookup: %w", domain.ErrCancelled)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// taskRequest describes the extraction goal for the remote agent.
func (r *Resolver) taskRequest(researcher domain.Researcher, link string) browseruse.TaskRequest {
	var b strings.Builder
	fmt.Fprintf(&b, "Open %s and find contact information for the researcher %s", link, researcher.Name)
	if researcher.Institution != "" {
		fmt.Fprintf(&b, " (%s)", researcher.Institution)
	}
	b.WriteString(". Follow links to their personal or institutional homepage if needed. ")
	b.WriteString("Collect: email address, phone number, personal website, LinkedIn URL, Twitter/X URL, ")
	b.WriteString("office address and department. Do not guess; leave fields you cannot find empty.")

	return browseruse.TaskRequest{
		Task:                 b.String(),
		AllowedDomains:       allowedDomains(researcher, link),
		StructuredOutputJSON: outputSchema,
		LLMModel:             r.config.LLMModel,
		UseProxy:             r.config.UseProxy,
		UseAdblock:           r.config.UseAdblock,
	}
}

// allowedDomains lists the hosts of every link known for researcher, starting
// with the profile link, plus academic domains their homepage may live on.
func allowedDomains(researcher domain.Researcher, link string) []string {
	var domains []string
	seen := make(map[string]bool)
	add := func(d string) {
		if d != "" && !seen[d] {
			seen[d] = true
			domains = append(domains, d)
		}
	}
	for _, raw := range []string{link, researcher.GoogleScholar, researcher.Website, researcher.LinkedIn} {
		if raw == "" {
			continue
		}
		if !strings.Contains(raw, "://") {
			raw = "https://" + raw
		}
		if u, err := url.Parse(raw); err == nil {
			add(strings.ToLower(u.Hostname()))
		}
	}
	for _, d := range academicDomains {
		add(d)
	}
	return domains
}

var academicDomains = []string{"*.edu", "*.ac.uk", "*.ac.jp", "*.edu.au", "*.ac.in", "*.ac.cn"}

const outputSchema = `{
  "type": "object",
  "properties": {
    "email": {"type": "string"},
    "phone": {"type": "string"},
    "website": {"type": "string"},
    "linkedin": {"type": "string"},
    "twitter": {"type": "string"},
    "office_address": {"type": "string"},
    "department": {"type": "string"},
    "additional_contacts": {"type": "array", "items": {"type": "string"}}
  }
}`
