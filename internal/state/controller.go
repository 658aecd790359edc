// Package state owns the in-memory application state document and its
// debounced persistence.
//
// The Controller is the only writer: consumers receive snapshot copies
// and mutate through methods. Every mutation arms a debounce timer, so
// bursts of edits collapse into one persisted snapshot after a quiet
// interval.
package state

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/BrayneSnax/pdaok/internal/models"
	"github.com/BrayneSnax/pdaok/internal/seed"
	"github.com/BrayneSnax/pdaok/internal/store"
	"github.com/BrayneSnax/pdaok/internal/transmit"
)

// Controller owns the state document exclusively.
type Controller struct {
	db     *store.DB
	logger *slog.Logger
	quiet  time.Duration
	now    func() time.Time

	mu     sync.Mutex
	doc    *models.Document
	dirty  bool
	gen    uint64
	timer  *time.Timer
	closed bool
}

// NewController loads and normalizes the persisted document. A load
// failure degrades to fresh defaults; it is never fatal.
func NewController(db *store.DB, logger *slog.Logger, quiet time.Duration) *Controller {
	c := &Controller{
		db:     db,
		logger: logger,
		quiet:  quiet,
		now:    time.Now,
	}
	doc, err := db.LoadDocument()
	if err != nil {
		logger.Warn("state: load failed, starting from defaults", slog.String("error", err.Error()))
		doc = nil
	}
	c.doc = Normalize(doc, c.now())
	return c
}

// Close stops the debounce timer and flushes any pending write.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
	}
	c.mu.Unlock()
	c.flush()
}

// Snapshot returns a deep copy of the current document.
func (c *Controller) Snapshot() models.Document {
	c.mu.Lock()
	defer c.mu.Unlock()
	return clone(c.doc)
}

// RefreshContainer recomputes the active daypart from the clock.
func (c *Controller) RefreshContainer() models.Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.doc.ActiveContainer = models.ContainerFor(c.now())
	return c.doc.ActiveContainer
}

// AppendJournalEntry prepends a moment to the journal. When the moment
// references an ally, the same moment is prepended to that ally's log
// in the same critical section, so the two views never diverge.
func (c *Controller) AppendJournalEntry(m models.Moment) models.Moment {
	c.mu.Lock()
	defer c.mu.Unlock()
	m = c.fillMoment(m)
	c.doc.JournalEntries = prepend(c.doc.JournalEntries, m)
	c.mirrorToAlly(&m)
	c.markDirtyLocked()
	return m
}

// AppendSubstanceEntry prepends a moment to the substance journal,
// mirroring into the referenced ally's log like AppendJournalEntry.
func (c *Controller) AppendSubstanceEntry(m models.Moment) models.Moment {
	c.mu.Lock()
	defer c.mu.Unlock()
	m = c.fillMoment(m)
	c.doc.SubstanceJournalEntries = prepend(c.doc.SubstanceJournalEntries, m)
	c.mirrorToAlly(&m)
	c.markDirtyLocked()
	return m
}

// AddCompletion records an anchor completion for a date.
func (c *Controller) AddCompletion(itemID, date string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if date == "" {
		date = c.now().Format("2006-01-02")
	}
	c.doc.Completions = append(c.doc.Completions, models.Completion{ItemID: itemID, Date: date})
	c.markDirtyLocked()
}

// AddPattern records a recognized pattern.
func (c *Controller) AddPattern(text string) models.Pattern {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := models.Pattern{ID: uuid.NewString(), Text: text, Timestamp: c.now().UnixMilli()}
	c.doc.Patterns = append(c.doc.Patterns, p)
	c.markDirtyLocked()
	return p
}

// AddFoodEntry records a food log entry.
func (c *Controller) AddFoodEntry(text string) models.FoodEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	f := models.FoodEntry{
		ID:        uuid.NewString(),
		Text:      text,
		Timestamp: now.UnixMilli(),
		Date:      now.Format("2006-01-02"),
	}
	c.doc.FoodEntries = append(c.doc.FoodEntries, f)
	c.markDirtyLocked()
	return f
}

// AddDreamseed records a dream fragment.
func (c *Controller) AddDreamseed(text string) models.Dreamseed {
	c.mu.Lock()
	defer c.mu.Unlock()
	d := models.Dreamseed{ID: uuid.NewString(), Text: text, Timestamp: c.now().UnixMilli()}
	c.doc.Dreamseeds = append(c.doc.Dreamseeds, d)
	c.markDirtyLocked()
	return d
}

// AddConversation records one exchange with an entity.
func (c *Controller) AddConversation(entity, role, text string) models.Conversation {
	c.mu.Lock()
	defer c.mu.Unlock()
	conv := models.Conversation{
		ID:        uuid.NewString(),
		Entity:    entity,
		Role:      role,
		Text:      text,
		Timestamp: c.now().UnixMilli(),
	}
	c.doc.Conversations = append(c.doc.Conversations, conv)
	c.markDirtyLocked()
	return conv
}

// AddFieldWhisper records an ambient prompt.
func (c *Controller) AddFieldWhisper(text string) models.FieldWhisper {
	c.mu.Lock()
	defer c.mu.Unlock()
	w := models.FieldWhisper{ID: uuid.NewString(), Text: text, Timestamp: c.now().UnixMilli()}
	c.doc.FieldWhispers = append(c.doc.FieldWhispers, w)
	c.markDirtyLocked()
	return w
}

// UpsertItem replaces an anchor by id, or appends it. A missing id is
// derived deterministically from container and title.
func (c *Controller) UpsertItem(it models.ContainerItem) models.ContainerItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	if it.ID == "" {
		it.ID = seed.AnchorID(it.Container, it.Title)
	}
	if it.CreatedAt == 0 {
		it.CreatedAt = c.now().UnixMilli()
	}
	for i := range c.doc.Items {
		if c.doc.Items[i].ID == it.ID {
			c.doc.Items[i] = it
			c.markDirtyLocked()
			return it
		}
	}
	c.doc.Items = append(c.doc.Items, it)
	c.markDirtyLocked()
	return it
}

// BuildTransmissionContext assembles a fresh scheduling context from
// the current document: merged journals, patterns, conversations,
// allies, archetypes, and the daypart of this instant.
func (c *Controller) BuildTransmissionContext() transmit.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	merged := make([]models.Moment, 0, len(c.doc.JournalEntries)+len(c.doc.SubstanceJournalEntries))
	merged = append(merged, c.doc.JournalEntries...)
	merged = append(merged, c.doc.SubstanceJournalEntries...)
	return transmit.Context{
		Conversations: append([]models.Conversation(nil), c.doc.Conversations...),
		Patterns:      append([]models.Pattern(nil), c.doc.Patterns...),
		Moments:       merged,
		Allies:        append([]models.Ally(nil), c.doc.Allies...),
		Archetypes:    append([]models.Archetype(nil), c.doc.Archetypes...),
		Daypart:       models.ContainerFor(c.now()),
	}
}

// fillMoment defaults id, timestamps, and the ally display name.
func (c *Controller) fillMoment(m models.Moment) models.Moment {
	now := c.now()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Timestamp == 0 {
		m.Timestamp = now.UnixMilli()
	}
	if m.Date == "" {
		m.Date = now.Format("2006-01-02")
	}
	return m
}

// mirrorToAlly prepends the moment to the referenced ally's log.
func (c *Controller) mirrorToAlly(m *models.Moment) {
	if m.AllyID == "" {
		return
	}
	for i := range c.doc.Allies {
		if c.doc.Allies[i].ID != m.AllyID {
			continue
		}
		if m.AllyName == "" {
			m.AllyName = c.doc.Allies[i].Name
		}
		c.doc.Allies[i].Log = prepend(c.doc.Allies[i].Log, *m)
		return
	}
}

// markDirtyLocked arms (or re-arms) the debounce timer. Must be called
// with c.mu held.
func (c *Controller) markDirtyLocked() {
	c.dirty = true
	c.gen++
	if c.closed {
		return
	}
	if c.timer == nil {
		c.timer = time.AfterFunc(c.quiet, c.flush)
		return
	}
	c.timer.Reset(c.quiet)
}

// flush writes the current snapshot if dirty. A failed save keeps the
// in-memory state authoritative and the dirty flag set, so the next
// mutation re-arms the timer and retries.
func (c *Controller) flush() {
	c.mu.Lock()
	if !c.dirty {
		c.mu.Unlock()
		return
	}
	snap := clone(c.doc)
	gen := c.gen
	c.mu.Unlock()

	if err := c.db.SaveDocument(&snap); err != nil {
		c.logger.Warn("state: save failed, keeping in-memory state", slog.String("error", err.Error()))
		return
	}

	c.mu.Lock()
	if c.gen == gen {
		c.dirty = false
	}
	c.mu.Unlock()
	c.logger.Debug("state: snapshot persisted")
}

func prepend(list []models.Moment, m models.Moment) []models.Moment {
	out := make([]models.Moment, 0, len(list)+1)
	out = append(out, m)
	return append(out, list...)
}

// clone deep-copies the document so callers can never alias the
// controller's slices.
func clone(doc *models.Document) models.Document {
	out := *doc
	out.Items = append([]models.ContainerItem(nil), doc.Items...)
	out.Allies = append([]models.Ally(nil), doc.Allies...)
	for i := range out.Allies {
		out.Allies[i].Log = append([]models.Moment(nil), doc.Allies[i].Log...)
	}
	out.JournalEntries = append([]models.Moment(nil), doc.JournalEntries...)
	out.SubstanceJournalEntries = append([]models.Moment(nil), doc.SubstanceJournalEntries...)
	out.Completions = append([]models.Completion(nil), doc.Completions...)
	out.Patterns = append([]models.Pattern(nil), doc.Patterns...)
	out.FoodEntries = append([]models.FoodEntry(nil), doc.FoodEntries...)
	out.Dreamseeds = append([]models.Dreamseed(nil), doc.Dreamseeds...)
	out.Conversations = append([]models.Conversation(nil), doc.Conversations...)
	out.FieldWhispers = append([]models.FieldWhisper(nil), doc.FieldWhispers...)
	return out
}
