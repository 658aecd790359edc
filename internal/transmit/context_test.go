package transmit

import (
	"testing"
	"time"

	"github.com/BrayneSnax/pdaok/internal/models"
)

func TestEntitiesListsArchetypesAndAllies(t *testing.T) {
	c := Context{
		Archetypes: []models.Archetype{{Name: "The Witness", MythicName: "Stillpoint"}},
		Allies:     []models.Ally{{ID: "ally-caffeine", Name: "Caffeine"}},
	}
	es := c.entities()
	if len(es) != 2 {
		t.Fatalf("entities = %d, want 2", len(es))
	}
	if es[0].kind != models.EntityArchetype || es[1].kind != models.EntitySubstance {
		t.Errorf("kinds = %s, %s", es[0].kind, es[1].kind)
	}
}

func TestSignalCountsRecentActivity(t *testing.T) {
	now := time.Now()
	since := now.Add(-48 * time.Hour)
	fresh := now.Add(-time.Hour).UnixMilli()
	stale := now.Add(-72 * time.Hour).UnixMilli()

	c := Context{
		Patterns: []models.Pattern{
			{ID: "p1", Timestamp: fresh},
			{ID: "p2", Timestamp: stale},
		},
		Moments: []models.Moment{
			{ID: "m1", Timestamp: fresh},
			{ID: "m2", Timestamp: fresh},
			{ID: "m3", Timestamp: stale},
		},
	}

	e := entity{kind: models.EntityArchetype, name: "The Witness"}
	if got := c.signal(e, since); got != 3 {
		t.Errorf("signal = %d, want 3 (1 pattern + 2 moments)", got)
	}
}

func TestSignalSubstanceRequiresAllyMoment(t *testing.T) {
	now := time.Now()
	since := now.Add(-48 * time.Hour)
	fresh := now.Add(-time.Hour).UnixMilli()

	c := Context{
		Allies: []models.Ally{{ID: "ally-caffeine", Name: "Caffeine"}},
		Patterns: []models.Pattern{
			{ID: "p1", Timestamp: fresh},
			{ID: "p2", Timestamp: fresh},
			{ID: "p3", Timestamp: fresh},
		},
		Moments: []models.Moment{{ID: "m1", Timestamp: fresh, Text: "no ally here"}},
	}

	caffeine := entity{kind: models.EntitySubstance, name: "Caffeine"}
	if got := c.signal(caffeine, since); got != 0 {
		t.Errorf("signal = %d, want 0 for ally with no referencing moment", got)
	}

	// One referencing moment unlocks the full count.
	c.Moments = append(c.Moments, models.Moment{ID: "m2", Timestamp: fresh, AllyID: "ally-caffeine"})
	if got := c.signal(caffeine, since); got != 5 {
		t.Errorf("signal = %d, want 5 (3 patterns + 2 moments)", got)
	}
}

func TestSignalMatchesAllyByName(t *testing.T) {
	now := time.Now()
	since := now.Add(-48 * time.Hour)
	fresh := now.Add(-time.Hour).UnixMilli()

	c := Context{
		Allies:  []models.Ally{{ID: "ally-cannabis", Name: "Cannabis"}},
		Moments: []models.Moment{{ID: "m1", Timestamp: fresh, AllyName: "Cannabis"}},
	}
	e := entity{kind: models.EntitySubstance, name: "Cannabis"}
	if got := c.signal(e, since); got != 1 {
		t.Errorf("signal = %d, want 1", got)
	}
}
