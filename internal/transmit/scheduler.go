// Package transmit decides when tracked entities send autonomous
// messages, generates them through the oracle, and persists them with
// read-state.
//
// Two guards keep the transmission list from growing without bound
// under periodic polling: an elapsed-time guard per entity, and a
// minimum-signal guard on the freshly built context. Force-checks skip
// only the first.
package transmit

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/BrayneSnax/pdaok/internal/models"
	"github.com/BrayneSnax/pdaok/internal/oracle"
	"github.com/BrayneSnax/pdaok/internal/store"
)

// Config holds the scheduling policy. The threshold defaults are a
// product decision, not a derived invariant; they live in the app
// config rather than inline.
type Config struct {
	PollInterval time.Duration // cadence of scheduler ticks
	MinGap       time.Duration // minimum elapsed time per entity
	RecentWindow time.Duration // how far back "fresh signal" reaches
	MinSignal    int           // minimum fresh events to justify a message
}

// Scheduler owns transmission generation. Its side effects are
// confined to the transmission store; it never mutates the state
// document.
type Scheduler struct {
	db     *store.DB
	gen    oracle.Generator
	logger *slog.Logger
	cfg    Config
	onNew  func(models.Transmission)
	now    func() time.Time
}

// New creates a scheduler. onNew, if non-nil, is called after each
// persisted transmission (used to push SSE events).
func New(db *store.DB, gen oracle.Generator, logger *slog.Logger, cfg Config, onNew func(models.Transmission)) *Scheduler {
	return &Scheduler{db: db, gen: gen, logger: logger, cfg: cfg, onNew: onNew, now: time.Now}
}

// Start runs the polling loop until ctx is cancelled. buildContext is
// called on every tick so each decision sees fresh state.
func (s *Scheduler) Start(ctx context.Context, buildContext func() Context) {
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	s.logger.Info("scheduler: started", slog.Duration("poll_interval", s.cfg.PollInterval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler: stopped")
			return
		case <-ticker.C:
			s.check(ctx, buildContext(), false)
		}
	}
}

// ForceCheck evaluates all entities immediately, bypassing the
// elapsed-time guard but not the minimum-signal guard.
func (s *Scheduler) ForceCheck(ctx context.Context, c Context) []models.Transmission {
	return s.check(ctx, c, true)
}

func (s *Scheduler) check(ctx context.Context, c Context, force bool) []models.Transmission {
	now := s.now()
	since := now.Add(-s.cfg.RecentWindow)

	var created []models.Transmission
	for _, e := range c.entities() {
		if c.signal(e, since) < s.cfg.MinSignal {
			continue
		}
		if !force {
			last, err := s.db.LatestTransmissionTime(e.kind, e.name)
			if err != nil {
				s.logger.Warn("scheduler: last-transmission lookup failed",
					slog.String("entity", e.name), slog.String("error", err.Error()))
				continue
			}
			if now.Sub(last) < s.cfg.MinGap {
				continue
			}
		}

		// Generation failure leaves the entity unmarked so a later
		// tick retries; nothing is appended in its place.
		msg, err := s.gen.Generate(ctx, transmissionPrompt(e, c))
		if err != nil {
			s.logger.Warn("scheduler: generation failed",
				slog.String("entity", e.name), slog.String("error", err.Error()))
			continue
		}

		t := models.Transmission{
			ID:         uuid.NewString(),
			EntityType: e.kind,
			EntityName: e.name,
			MythicName: e.mythicName,
			Message:    msg,
			CreatedAt:  now,
		}
		if err := s.db.AppendTransmission(t); err != nil {
			s.logger.Warn("scheduler: append failed",
				slog.String("entity", e.name), slog.String("error", err.Error()))
			continue
		}
		s.logger.Info("scheduler: transmission created",
			slog.String("entity", e.name), slog.String("kind", e.kind))
		created = append(created, t)
		if s.onNew != nil {
			s.onNew(t)
		}
	}
	return created
}

// MarkRead flags one transmission as read. Unknown ids are a no-op.
func (s *Scheduler) MarkRead(id string) error {
	return s.db.MarkTransmissionRead(id)
}

// ClearAll empties the transmission collection. Irreversible.
func (s *Scheduler) ClearAll() error {
	return s.db.ClearTransmissions()
}

// transmissionPrompt frames the entity's voice over the fresh context.
// Prompt content is opaque to the scheduling core.
func transmissionPrompt(e entity, c Context) string {
	var b strings.Builder
	name := e.name
	if e.mythicName != "" {
		name = fmt.Sprintf("%s (%s)", e.name, e.mythicName)
	}
	fmt.Fprintf(&b, "Speak as %s, a %s voice in a personal practice journal.\n", name, e.kind)
	fmt.Fprintf(&b, "It is %s. Offer two or three sentences, addressed directly to the journal keeper.\n\n", c.Daypart)
	for i, p := range c.Patterns {
		if i >= 3 {
			break
		}
		fmt.Fprintf(&b, "Recent pattern: %s\n", p.Text)
	}
	for i, m := range c.Moments {
		if i >= 3 {
			break
		}
		fmt.Fprintf(&b, "Recent moment (%s): %s %s\n", m.Date, m.Tone, m.Text)
	}
	return b.String()
}
