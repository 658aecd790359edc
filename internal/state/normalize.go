package state

import (
	"time"

	"github.com/BrayneSnax/pdaok/internal/models"
	"github.com/BrayneSnax/pdaok/internal/seed"
)

// Normalize guarantees the shape the rest of the app relies on: every
// list is non-nil, seeded collections fall back to their canonical
// defaults when absent or empty, and the active container is always
// recomputed from the clock — it encodes "current daypart", a property
// of now, not of the saved past.
func Normalize(doc *models.Document, now time.Time) *models.Document {
	if doc == nil {
		doc = &models.Document{}
	}

	if len(doc.Items) == 0 {
		doc.Items = seed.Anchors()
	}
	if len(doc.Allies) == 0 {
		doc.Allies = seed.Allies()
	}
	if len(doc.Archetypes) == 0 {
		doc.Archetypes = seed.Archetypes()
	}

	if doc.JournalEntries == nil {
		doc.JournalEntries = []models.Moment{}
	}
	if doc.SubstanceJournalEntries == nil {
		doc.SubstanceJournalEntries = []models.Moment{}
	}
	if doc.Completions == nil {
		doc.Completions = []models.Completion{}
	}
	if doc.Patterns == nil {
		doc.Patterns = []models.Pattern{}
	}
	if doc.FoodEntries == nil {
		doc.FoodEntries = []models.FoodEntry{}
	}
	if doc.Dreamseeds == nil {
		doc.Dreamseeds = []models.Dreamseed{}
	}
	if doc.Conversations == nil {
		doc.Conversations = []models.Conversation{}
	}
	if doc.FieldWhispers == nil {
		doc.FieldWhispers = []models.FieldWhisper{}
	}
	for i := range doc.Allies {
		if doc.Allies[i].Log == nil {
			doc.Allies[i].Log = []models.Moment{}
		}
	}

	doc.ActiveContainer = models.ContainerFor(now)
	return doc
}
