package transmit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/BrayneSnax/pdaok/internal/models"
	"github.com/BrayneSnax/pdaok/internal/store"
)

// View is the snapshot the presentation layer consumes: the full list
// most-recent-first plus the unread count.
type View struct {
	Transmissions []models.Transmission `json:"transmissions"`
	Unread        int                   `json:"unread"`
}

// Reader polls the transmission store on its own fixed cadence,
// independent of the scheduler's generation cadence. Force-checks
// rebuild the generation context lazily at call time, since state may
// have changed since the last poll.
type Reader struct {
	db           *store.DB
	sched        *Scheduler
	buildContext func() Context
	interval     time.Duration
	logger       *slog.Logger

	mu   sync.Mutex
	view View
}

// NewReader creates a polling reader.
func NewReader(db *store.DB, sched *Scheduler, buildContext func() Context, interval time.Duration, logger *slog.Logger) *Reader {
	return &Reader{
		db:           db,
		sched:        sched,
		buildContext: buildContext,
		interval:     interval,
		logger:       logger,
		view:         View{Transmissions: []models.Transmission{}},
	}
}

// Start refreshes the cached view until ctx is cancelled.
func (r *Reader) Start(ctx context.Context) {
	r.refresh()
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.refresh()
		}
	}
}

// Snapshot returns a copy of the last polled view, so callers can
// never alias the reader's slice.
func (r *Reader) Snapshot() View {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Transmission, len(r.view.Transmissions))
	copy(out, r.view.Transmissions)
	return View{Transmissions: out, Unread: r.view.Unread}
}

// MarkRead flags a transmission read and refreshes immediately so the
// next Snapshot reflects it.
func (r *Reader) MarkRead(id string) error {
	if err := r.sched.MarkRead(id); err != nil {
		return err
	}
	r.refresh()
	return nil
}

// ClearAll empties the collection and refreshes.
func (r *Reader) ClearAll() error {
	if err := r.sched.ClearAll(); err != nil {
		return err
	}
	r.refresh()
	return nil
}

// ForceCheck rebuilds the context from current state and runs an
// immediate eligibility pass, then refreshes.
func (r *Reader) ForceCheck(ctx context.Context) []models.Transmission {
	created := r.sched.ForceCheck(ctx, r.buildContext())
	r.refresh()
	return created
}

func (r *Reader) refresh() {
	list, err := r.db.Transmissions()
	if err != nil {
		r.logger.Warn("reader: list failed", slog.String("error", err.Error()))
		return
	}
	unread, err := r.db.UnreadTransmissions()
	if err != nil {
		r.logger.Warn("reader: unread count failed", slog.String("error", err.Error()))
		return
	}
	r.mu.Lock()
	r.view = View{Transmissions: list, Unread: unread}
	r.mu.Unlock()
}
