// Package seed holds the canonical ally, archetype, and anchor tables.
//
// The migration engine treats these as the source of truth for
// presentation and guidance fields; user-authored fields are never
// resynced from here.
package seed

import (
	"fmt"
	"strings"

	"github.com/BrayneSnax/pdaok/internal/models"
)

// Allies is the canonical ally table, keyed by stable id.
func Allies() []models.Ally {
	return []models.Ally{
		{
			ID:         "ally-caffeine",
			Name:       "Caffeine",
			MythicName: "The Morning Herald",
			Glyph:      "☕",
			Function:   "Sharpens attention and mobilizes the morning body.",
			Shadow:     "Borrowed energy repaid with interest in the afternoon.",
			Ritual:     "One cup, seated, before any screen.",
			Log:        []models.Moment{},
		},
		{
			ID:         "ally-cannabis",
			Name:       "Cannabis",
			MythicName: "The Soft Veil",
			Glyph:      "🌿",
			Function:   "Loosens the grip of the day and opens associative drift.",
			Shadow:     "Drift without a rudder becomes fog.",
			Ritual:     "Name the intention aloud before lighting anything.",
			Log:        []models.Moment{},
		},
		{
			ID:         "ally-psilocybin",
			Name:       "Psilocybin",
			MythicName: "The Deep Root",
			Glyph:      "🍄",
			Function:   "Dissolves stale framings and returns the long view.",
			Shadow:     "Insight that is never written down evaporates.",
			Ritual:     "Journal within a day of the session, however briefly.",
			Log:        []models.Moment{},
		},
	}
}

// Archetypes is the canonical archetype table.
func Archetypes() []models.Archetype {
	return []models.Archetype{
		{ID: "arch-witness", Name: "The Witness", MythicName: "Stillpoint", Glyph: "👁", Essence: "Sees without flinching and without verdict."},
		{ID: "arch-tender", Name: "The Tender", MythicName: "Hearthkeeper", Glyph: "🕯", Essence: "Keeps the small fires of routine alive."},
		{ID: "arch-cartographer", Name: "The Cartographer", MythicName: "Edgewalker", Glyph: "🧭", Essence: "Maps the territory the journals only hint at."},
	}
}

// Anchors is the canonical container-item table. Ids are deterministic
// (container + slug of title) so repeated migrations never duplicate.
func Anchors() []models.ContainerItem {
	return []models.ContainerItem{
		{
			ID:         AnchorID(models.ContainerMorning, "Sunlight Before Screens"),
			Container:  models.ContainerMorning,
			Category:   "body",
			Title:      "Sunlight Before Screens",
			BodyCue:    "Eyes to the sky within twenty minutes of waking.",
			Micro:      "Stand at the window for three breaths.",
			UltraMicro: "Open the curtains.",
			Desire:     "A nervous system that knows the day has started.",
		},
		{
			ID:         AnchorID(models.ContainerMorning, "Water First"),
			Container:  models.ContainerMorning,
			Category:   "body",
			Title:      "Water First",
			BodyCue:    "A full glass before the first cup of anything else.",
			Micro:      "Fill the glass the night before.",
			UltraMicro: "One sip.",
			Desire:     "Starting hydrated instead of catching up all day.",
		},
		{
			ID:         AnchorID(models.ContainerMorning, "Name The Day"),
			Container:  models.ContainerMorning,
			Category:   "mind",
			Title:      "Name The Day",
			BodyCue:    "One sentence, out loud or written, about what today is for.",
			Micro:      "Pick a single word.",
			UltraMicro: "Pause before the phone.",
			Desire:     "A day with a spine.",
		},
		{
			ID:         AnchorID(models.ContainerAfternoon, "Walk The Block"),
			Container:  models.ContainerAfternoon,
			Category:   "body",
			Title:      "Walk The Block",
			BodyCue:    "Legs moving, eyes on the horizon, no podcast.",
			Micro:      "Stand up and reach the front door.",
			UltraMicro: "Stand up.",
			Desire:     "An afternoon that does not fold into the chair.",
		},
		{
			ID:         AnchorID(models.ContainerEvening, "Close The Loops"),
			Container:  models.ContainerEvening,
			Category:   "mind",
			Title:      "Close The Loops",
			BodyCue:    "Write down anything still circling before it follows you to bed.",
			Micro:      "Three bullet points, no more.",
			UltraMicro: "One word on a sticky note.",
			Desire:     "A mind that trusts the page to hold things overnight.",
		},
		{
			ID:         AnchorID(models.ContainerEvening, "Dreamseed"),
			Container:  models.ContainerEvening,
			Category:   "spirit",
			Title:      "Dreamseed",
			BodyCue:    "Plant one question for the dreaming mind to chew on.",
			Micro:      "Whisper the question at the pillow.",
			UltraMicro: "Think it once.",
			Desire:     "Nights that work on the day's behalf.",
		},
		{
			ID:         AnchorID(models.ContainerLate, "Lights Down"),
			Container:  models.ContainerLate,
			Category:   "body",
			Title:      "Lights Down",
			BodyCue:    "Overheads off, lamps on, screens dimmed past ten.",
			Micro:      "Turn off one light.",
			UltraMicro: "Dim the phone.",
			Desire:     "A body that believes night is real.",
		},
	}
}

// Priority is the static ordering table keyed by item id. Lower sorts
// first within a (container, category) group; ids absent from the
// table sort after every listed id, keeping their relative creation
// order.
func Priority() map[string]int {
	return map[string]int{
		AnchorID(models.ContainerMorning, "Water First"):             0,
		AnchorID(models.ContainerMorning, "Sunlight Before Screens"): 1,
		AnchorID(models.ContainerMorning, "Name The Day"):            0,
		AnchorID(models.ContainerAfternoon, "Walk The Block"):        0,
		AnchorID(models.ContainerEvening, "Close The Loops"):         0,
		AnchorID(models.ContainerEvening, "Dreamseed"):               1,
		AnchorID(models.ContainerLate, "Lights Down"):                0,
	}
}

// Slug lowercases a title and collapses non-alphanumerics to hyphens.
func Slug(title string) string {
	var b strings.Builder
	prevHyphen := true
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			prevHyphen = false
		default:
			if !prevHyphen {
				b.WriteByte('-')
				prevHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// AnchorID derives the deterministic id for a seeded anchor.
func AnchorID(container models.Container, title string) string {
	return fmt.Sprintf("%s-%s", container, Slug(title))
}
