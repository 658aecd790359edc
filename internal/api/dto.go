package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/BrayneSnax/pdaok/internal/models"
)

// MomentRequest is the request body for journal and substance-journal
// appends. Every text field is optional; presentation code relies on
// them defaulting to empty strings, never null.
type MomentRequest struct {
	Tone               string `json:"tone"`
	Frequency          string `json:"frequency"`
	Presence           string `json:"presence"`
	Context            string `json:"context"`
	ActionReflection   string `json:"action_reflection"`
	ResultShift        string `json:"result_shift"`
	ConclusionOffering string `json:"conclusion_offering"`
	Text               string `json:"text"`
	AllyID             string `json:"allyId"`
}

// Validate rejects moments with no content at all.
func (r MomentRequest) Validate() error {
	if r.Tone == "" && r.Presence == "" && r.Context == "" && r.Text == "" &&
		r.ActionReflection == "" && r.ResultShift == "" && r.ConclusionOffering == "" {
		return validation.NewError("moment_empty", "at least one field must be set")
	}
	return nil
}

// Moment converts the request into a domain moment.
func (r MomentRequest) Moment() models.Moment {
	return models.Moment{
		Tone:               r.Tone,
		Frequency:          r.Frequency,
		Presence:           r.Presence,
		Context:            r.Context,
		ActionReflection:   r.ActionReflection,
		ResultShift:        r.ResultShift,
		ConclusionOffering: r.ConclusionOffering,
		Text:               r.Text,
		AllyID:             r.AllyID,
	}
}

// TextRequest is the shared body for pattern, dreamseed, food, and
// whisper appends.
type TextRequest struct {
	Text string `json:"text"`
}

// Validate validates the text request.
func (r TextRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Text, validation.Required, validation.Length(1, 4000)),
	)
}

// ConversationRequest records one exchange with an entity.
type ConversationRequest struct {
	Entity string `json:"entity"`
	Role   string `json:"role"`
	Text   string `json:"text"`
}

// Validate validates the conversation request.
func (r ConversationRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Entity, validation.Required),
		validation.Field(&r.Role, validation.Required, validation.In("user", "entity")),
		validation.Field(&r.Text, validation.Required, validation.Length(1, 8000)),
	)
}

// CompletionRequest marks an anchor done for a date.
type CompletionRequest struct {
	ItemID string `json:"itemId"`
	Date   string `json:"date"`
}

// Validate validates the completion request.
func (r CompletionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ItemID, validation.Required),
		validation.Field(&r.Date, validation.Date("2006-01-02")),
	)
}

// ItemRequest creates or replaces an anchor item.
type ItemRequest struct {
	ID         string `json:"id"`
	Container  string `json:"container"`
	Category   string `json:"category"`
	Title      string `json:"title"`
	BodyCue    string `json:"body_cue"`
	Micro      string `json:"micro"`
	UltraMicro string `json:"ultra_micro"`
	Desire     string `json:"desire"`
}

// Validate validates the item request.
func (r ItemRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Container, validation.Required, validation.In(
			string(models.ContainerMorning), string(models.ContainerAfternoon),
			string(models.ContainerEvening), string(models.ContainerLate))),
		validation.Field(&r.Category, validation.Required),
		validation.Field(&r.Title, validation.Required, validation.Length(1, 200)),
	)
}

// Item converts the request into a domain item.
func (r ItemRequest) Item() models.ContainerItem {
	return models.ContainerItem{
		ID:         r.ID,
		Container:  models.Container(r.Container),
		Category:   r.Category,
		Title:      r.Title,
		BodyCue:    r.BodyCue,
		Micro:      r.Micro,
		UltraMicro: r.UltraMicro,
		Desire:     r.Desire,
	}
}

// SynthesisResponse wraps the daily synthesis text.
type SynthesisResponse struct {
	Date string `json:"date"`
	Text string `json:"text"`
}

// ContainerResponse reports the freshly computed daypart.
type ContainerResponse struct {
	ActiveContainer models.Container `json:"activeContainer"`
}
