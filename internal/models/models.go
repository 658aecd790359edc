// Package models defines the persisted domain types for PDA.OK.
//
// Field names mirror the on-disk JSON document produced by earlier
// releases, which mixes camelCase list keys with snake_case moment
// fields. They must not be renamed without a migration step.
package models

import "time"

// Container is a discrete daypart bucket computed from the wall clock.
type Container string

// Daypart containers.
const (
	ContainerMorning   Container = "morning"
	ContainerAfternoon Container = "afternoon"
	ContainerEvening   Container = "evening"
	ContainerLate      Container = "late"
)

// ContainerFor returns the daypart container for the given local time.
func ContainerFor(t time.Time) Container {
	switch h := t.Hour(); {
	case h >= 5 && h < 12:
		return ContainerMorning
	case h >= 12 && h < 17:
		return ContainerAfternoon
	case h >= 17 && h < 22:
		return ContainerEvening
	default:
		return ContainerLate
	}
}

// Document is the single persisted application-state root.
//
// All list fields are optional on load; normalization guarantees they
// are non-nil afterwards. ActiveContainer is never trusted from disk —
// it encodes "current daypart", a property of now, and is recomputed
// on every load.
type Document struct {
	Items                   []ContainerItem `json:"items"`
	Allies                  []Ally          `json:"allies"`
	JournalEntries          []Moment        `json:"journalEntries"`
	SubstanceJournalEntries []Moment        `json:"substanceJournalEntries"`
	Completions             []Completion    `json:"completions"`
	Patterns                []Pattern       `json:"patterns"`
	FoodEntries             []FoodEntry     `json:"foodEntries"`
	Dreamseeds              []Dreamseed     `json:"dreamseeds"`
	Conversations           []Conversation  `json:"conversations"`
	FieldWhispers           []FieldWhisper  `json:"fieldWhispers"`
	Archetypes              []Archetype     `json:"archetypes"`
	ActiveContainer         Container       `json:"activeContainer"`
}

// Moment is a single journal or substance-log entry, optionally linked
// to an Ally.
type Moment struct {
	ID                 string `json:"id"`
	Timestamp          int64  `json:"timestamp"` // unix milliseconds
	Date               string `json:"date"`      // ISO calendar date
	Tone               string `json:"tone"`
	Frequency          string `json:"frequency"`
	Presence           string `json:"presence"`
	Context            string `json:"context"`
	ActionReflection   string `json:"action_reflection"`
	ResultShift        string `json:"result_shift"`
	ConclusionOffering string `json:"conclusion_offering"`
	Text               string `json:"text"`
	AllyID             string `json:"allyId,omitempty"`
	AllyName           string `json:"allyName,omitempty"`
}

// Ally is a tracked substance or support entity. Log mirrors every
// Moment referencing this ally by id, most-recent-first; appends to
// the journal and to the log happen in the same operation so the two
// views never diverge.
type Ally struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	MythicName string   `json:"mythicName,omitempty"`
	Glyph      string   `json:"glyph,omitempty"`
	Function   string   `json:"function,omitempty"`
	Shadow     string   `json:"shadow,omitempty"`
	Ritual     string   `json:"ritual,omitempty"`
	Log        []Moment `json:"log"`
}

// ContainerItem is a user-facing guidance tile ("anchor") tagged with a
// daypart container and a category.
type ContainerItem struct {
	ID         string    `json:"id"`
	Container  Container `json:"container"`
	Category   string    `json:"category"`
	Title      string    `json:"title"`
	BodyCue    string    `json:"body_cue"`
	Micro      string    `json:"micro"`
	UltraMicro string    `json:"ultra_micro"`
	Desire     string    `json:"desire"`
	CreatedAt  int64     `json:"createdAt"` // unix milliseconds
}

// Archetype is a tracked inner figure that may author transmissions.
type Archetype struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	MythicName string `json:"mythicName,omitempty"`
	Glyph      string `json:"glyph,omitempty"`
	Essence    string `json:"essence,omitempty"`
}

// Completion records an anchor item marked done on a given date.
type Completion struct {
	ItemID string `json:"itemId"`
	Date   string `json:"date"`
}

// Pattern is a recognized recurring signal across journal activity.
type Pattern struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// FoodEntry is a logged meal or intake note.
type FoodEntry struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
	Date      string `json:"date"`
}

// Dreamseed is a captured dream fragment or intention.
type Dreamseed struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// Conversation is one exchange with an archetype or ally.
type Conversation struct {
	ID        string `json:"id"`
	Entity    string `json:"entity"`
	Role      string `json:"role"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// FieldWhisper is a short ambient prompt shown by the presentation layer.
type FieldWhisper struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// Entity kinds for transmissions.
const (
	EntityArchetype = "archetype"
	EntitySubstance = "substance"
)

// Transmission is an autonomously generated message attributed to an
// archetype or a substance ally. Read is the only mutable field.
type Transmission struct {
	ID         string    `json:"id"`
	EntityType string    `json:"entityType"`
	EntityName string    `json:"entityName"`
	MythicName string    `json:"mythicName,omitempty"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"createdAt"`
	Read       bool      `json:"read"`
}
