// Package insight produces the daily synthesis: one generated
// reflection per local calendar day, cached so the external generator
// is called at most once per day.
package insight

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/BrayneSnax/pdaok/internal/models"
	"github.com/BrayneSnax/pdaok/internal/oracle"
	"github.com/BrayneSnax/pdaok/internal/store"
)

// DefaultMessage is returned whenever the generator cannot or should
// not run. The presentation layer always receives a string, never an
// error.
const DefaultMessage = "The field is quiet today. Log a few more moments and the patterns will start to speak."

// Cache is the one-slot-per-day synthesis cache.
type Cache struct {
	db         *store.DB
	gen        oracle.Generator
	logger     *slog.Logger
	minEntries int
	now        func() time.Time
}

// New creates a synthesis cache. minEntries is the minimum number of
// journal moments required before the generator is consulted.
func New(db *store.DB, gen oracle.Generator, logger *slog.Logger, minEntries int) *Cache {
	return &Cache{db: db, gen: gen, logger: logger, minEntries: minEntries, now: time.Now}
}

// DateKey returns today's slot key, using the local calendar date.
func (c *Cache) DateKey() string {
	return c.now().Format("2006-01-02")
}

// Cached returns the stored synthesis for a date key, if present.
func (c *Cache) Cached(dateKey string) (string, bool) {
	text, ok, err := c.db.Insight(dateKey)
	if err != nil {
		c.logger.Warn("insight: cache read failed", slog.String("error", err.Error()))
		return "", false
	}
	return text, ok
}

// Put stores the synthesis for a date key, overwriting any earlier
// same-day slot.
func (c *Cache) Put(dateKey, text string) error {
	return c.db.PutInsight(dateKey, text)
}

// Synthesize returns today's synthesis. Order of precedence: cached
// slot; threshold guard (too few moments, generator not called);
// generated text (cached); default message on generation failure
// (never cached, so a later call may retry).
func (c *Cache) Synthesize(ctx context.Context, doc *models.Document) string {
	key := c.DateKey()
	if text, ok := c.Cached(key); ok {
		return text
	}

	moments := len(doc.JournalEntries) + len(doc.SubstanceJournalEntries)
	if moments < c.minEntries {
		return DefaultMessage
	}

	text, err := c.gen.Generate(ctx, buildPrompt(doc))
	if err != nil {
		c.logger.Warn("insight: generation failed, using default", slog.String("error", err.Error()))
		return DefaultMessage
	}
	if err := c.Put(key, text); err != nil {
		c.logger.Warn("insight: cache write failed", slog.String("error", err.Error()))
	}
	return text
}

// buildPrompt summarizes recent activity for the generator. The text
// itself is opaque to the core; only the call/cache decision matters.
func buildPrompt(doc *models.Document) string {
	var b strings.Builder
	b.WriteString("You are a gentle daily-synthesis voice for a personal practice journal.\n")
	b.WriteString("Offer one short paragraph reflecting the themes below. No advice lists.\n\n")
	fmt.Fprintf(&b, "Journal moments: %d, substance moments: %d, patterns: %d.\n",
		len(doc.JournalEntries), len(doc.SubstanceJournalEntries), len(doc.Patterns))
	for i, p := range doc.Patterns {
		if i >= 5 {
			break
		}
		fmt.Fprintf(&b, "Pattern: %s\n", p.Text)
	}
	for i, m := range doc.JournalEntries {
		if i >= 5 {
			break
		}
		fmt.Fprintf(&b, "Moment (%s): %s %s\n", m.Date, m.Tone, m.Text)
	}
	return b.String()
}
