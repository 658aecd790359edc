package transmit

import (
	"time"

	"github.com/BrayneSnax/pdaok/internal/models"
)

// Context is the read-only snapshot a scheduling decision runs against.
// It is rebuilt fresh for every tick and every force-check; the
// scheduler never caches one.
type Context struct {
	Conversations []models.Conversation
	Patterns      []models.Pattern
	Moments       []models.Moment // both journals, merged
	Allies        []models.Ally
	Archetypes    []models.Archetype
	Daypart       models.Container
}

// entity is one transmission candidate.
type entity struct {
	kind       string
	name       string
	mythicName string
}

// entities lists every tracked archetype and substance ally.
func (c Context) entities() []entity {
	out := make([]entity, 0, len(c.Archetypes)+len(c.Allies))
	for _, a := range c.Archetypes {
		out = append(out, entity{kind: models.EntityArchetype, name: a.Name, mythicName: a.MythicName})
	}
	for _, a := range c.Allies {
		out = append(out, entity{kind: models.EntitySubstance, name: a.Name, mythicName: a.MythicName})
	}
	return out
}

// signal counts the fresh activity that could justify a transmission
// for the entity: recent patterns plus recent journal moments. A
// substance ally additionally requires at least one recent moment
// referencing it, so allies with no tracked activity never generate.
func (c Context) signal(e entity, since time.Time) int {
	cutoff := since.UnixMilli()

	n := 0
	for _, p := range c.Patterns {
		if p.Timestamp >= cutoff {
			n++
		}
	}
	allyMoments := 0
	for _, m := range c.Moments {
		if m.Timestamp < cutoff {
			continue
		}
		n++
		if e.kind == models.EntitySubstance && (m.AllyName == e.name || m.AllyID != "" && c.allyID(e.name) == m.AllyID) {
			allyMoments++
		}
	}
	if e.kind == models.EntitySubstance && allyMoments == 0 {
		return 0
	}
	return n
}

func (c Context) allyID(name string) string {
	for _, a := range c.Allies {
		if a.Name == name {
			return a.ID
		}
	}
	return ""
}
