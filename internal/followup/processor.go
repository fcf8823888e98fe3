// Package followup moves completed follow-up tasks back to where they came from.
//
// A follow-up task is parked under a reminder parent while it waits. When it is
// completed, the processor moves it to the reminder's own container, removes
// the follow-up label and reopens it. Any event that does not fit that shape is
// dropped without touching the remote service.
package followup

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"followup/internal/config"
	"followup/internal/service"
)

// Outcome is the result class of one processed event.
type Outcome int

const (
	// NotEligible means the event was filtered out before any remote call.
	NotEligible Outcome = iota
	// Aborted means processing stopped after the item lookup.
	Aborted
	// Submitted means the command batch was accepted by the transport.
	Submitted
	// Planned means the batch was built but not sent.
	Planned
)

func (o Outcome) String() string {
	switch o {
	case NotEligible:
		return "not_eligible"
	case Aborted:
		return "aborted"
	case Submitted:
		return "submitted"
	case Planned:
		return "planned"
	default:
		return "unknown"
	}
}

// Reasons attached to non-submitted results.
const (
	ReasonMissingLabel       = "missing_label"
	ReasonNoParent           = "no_parent"
	ReasonFetchFailed        = "fetch_failed"
	ReasonEmptyResponse      = "empty_response"
	ReasonUnsupportedNesting = "unsupported_nesting"
	ReasonSyncFailed         = "sync_failed"
)

// Result describes what happened to an event.
type Result struct {
	Outcome  Outcome
	Reason   string
	Commands []service.Command
}

// Processor handles follow-up completion events.
// It holds no per-event state and is safe for concurrent use.
type Processor struct {
	svc    service.Service
	label  string
	newID  func() string
	logger zerolog.Logger
}

// Option configures a Processor.
type Option func(*Processor)

// WithLabel overrides the follow-up label.
func WithLabel(label string) Option {
	return func(p *Processor) {
		if label != "" {
			p.label = label
		}
	}
}

// WithIDGenerator overrides how command uuids are produced.
func WithIDGenerator(fn func() string) Option {
	return func(p *Processor) { p.newID = fn }
}

// WithLogger sets the logger used for per-step debug output.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Processor) { p.logger = l }
}

// New creates a Processor backed by svc.
func New(svc service.Service, opts ...Option) *Processor {
	p := &Processor{
		svc:    svc,
		label:  config.DefaultLabel,
		newID:  uuid.NewString,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Label returns the label that marks follow-up tasks.
func (p *Processor) Label() string { return p.label }

// Handle runs the full workflow for one event: filter, look up, plan, sync.
// A non-nil error is only returned when a remote call failed; the result then
// carries the matching reason.
func (p *Processor) Handle(ctx context.Context, ev service.Event) (Result, error) {
	res, err := p.Prepare(ctx, ev)
	if err != nil || res.Outcome != Planned {
		return res, err
	}
	res.Outcome = Submitted

	if err := p.svc.Sync(ctx, res.Commands); err != nil {
		return Result{Outcome: Aborted, Reason: ReasonSyncFailed, Commands: res.Commands}, err
	}

	p.logger.Debug().Str("item_id", ev.Data.ID).Int("commands", len(res.Commands)).Msg("follow-up batch submitted")
	return res, nil
}

// Prepare runs every step except the final sync. On success the result has
// Outcome Planned and the batch that Handle would send.
func (p *Processor) Prepare(ctx context.Context, ev service.Event) (Result, error) {
	item := ev.Data

	if !item.HasLabel(p.label) {
		return Result{Outcome: NotEligible, Reason: ReasonMissingLabel}, nil
	}
	if item.ParentID == nil {
		return Result{Outcome: NotEligible, Reason: ReasonNoParent}, nil
	}

	fetched, err := p.svc.GetItem(ctx, item.ID)
	if err != nil {
		return Result{Outcome: Aborted, Reason: ReasonFetchFailed}, err
	}
	if fetched == nil {
		return Result{Outcome: Aborted, Reason: ReasonEmptyResponse}, nil
	}

	commands, ok := Plan(fetched, p.label, p.newID)
	if !ok {
		p.logger.Debug().
			Str("item_id", item.ID).
			Int("ancestors", len(fetched.Ancestors)).
			Msg("only a single ancestor is supported")
		return Result{Outcome: Aborted, Reason: ReasonUnsupportedNesting}, nil
	}

	return Result{Outcome: Planned, Commands: commands}, nil
}

// Plan builds the move, update and uncomplete batch for a fetched item.
// It reports false unless exactly one ancestor is present.
func Plan(res *service.ItemWithAncestors, label string, newID func() string) ([]service.Command, bool) {
	if res == nil || len(res.Ancestors) != 1 {
		return nil, false
	}
	item := res.Item

	return []service.Command{
		service.NewCommand(newID(), service.MoveArgs{
			ID:        item.ID,
			Container: ResolveContainer(res.Ancestors[0], item),
		}),
		service.NewCommand(newID(), service.UpdateArgs{
			ID:     item.ID,
			Labels: item.LabelsWithout(label),
		}),
		service.NewCommand(newID(), service.UncompleteArgs{ID: item.ID}),
	}, true
}

// ResolveContainer picks the item's new home: the ancestor's parent, else the
// item's section, else the item's project. Project id is always set.
func ResolveContainer(ancestor, item service.Item) service.Container {
	switch {
	case ancestor.ParentID != nil:
		return service.Container{Kind: service.ContainerParent, ID: *ancestor.ParentID}
	case item.SectionID != nil:
		return service.Container{Kind: service.ContainerSection, ID: *item.SectionID}
	default:
		return service.Container{Kind: service.ContainerProject, ID: item.ProjectID}
	}
}
