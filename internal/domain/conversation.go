// Package domain defines the core types of the storefront chat:
// the interview script, the transcript, and the persisted document.
package domain

import "time"

// Origin identifies who authored a transcript message.
type Origin string

const (
	OriginBot  Origin = "bot"
	OriginUser Origin = "user"
)

// Step is one entry of the interview script: the prompt the bot shows
// and the semantic key the answer is stored under.
type Step struct {
	Prompt string `json:"prompt"`
	Key    string `json:"key"`
}

// Script is the fixed, ordered list of interview steps. It is defined at
// startup and never mutated.
type Script []Step

// Len returns the number of steps.
func (s Script) Len() int { return len(s) }

// Message is one exchange unit of a transcript. User messages carry the
// field key of the step they answer, so transcript assembly never depends
// on array positions.
type Message struct {
	Origin   Origin    `json:"origin"`
	Text     string    `json:"text"`
	FieldKey string    `json:"field_key,omitempty"`
	At       time.Time `json:"at"`
}

// ConversationEntry is the {key, value} pair that crosses the process
// boundary to the store, one per answered step.
type ConversationEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// StoredConversation is the persisted document shape. Documents are
// append-only; this subsystem never updates or deletes them.
type StoredConversation struct {
	ID           string              `json:"id,omitempty"`
	Conversation []ConversationEntry `json:"conversation"`
	CreatedAt    time.Time           `json:"createdAt"`
}

// Phase is the engine's position in the interview lifecycle.
type Phase string

const (
	// PhaseIdle: widget never opened, no messages.
	PhaseIdle Phase = "idle"
	// PhaseGreeting: widget opened, first prompt not yet shown.
	PhaseGreeting Phase = "greeting"
	// PhaseAwaiting: waiting for the answer to the current step.
	PhaseAwaiting Phase = "awaiting_answer"
	// PhaseSubmitting: all steps answered, transcript being persisted.
	PhaseSubmitting Phase = "submitting"
	// PhaseDone: persistence acknowledged, input disabled.
	PhaseDone Phase = "done"
	// PhaseFailed: persistence failed, retry allowed.
	PhaseFailed Phase = "failed"
)

// EngineState is a snapshot of a conversation engine, safe to serialize
// for the widget.
type EngineState struct {
	Phase      Phase     `json:"phase"`
	StepIndex  int       `json:"step_index"`
	Transcript []Message `json:"transcript"`
	IsTyping   bool      `json:"is_typing"`
	IsOpen     bool      `json:"is_open"`
	SavedID    string    `json:"saved_id,omitempty"`
	LastError  string    `json:"last_error,omitempty"`
}

// UserMessageCount returns the number of user-origin messages in the
// transcript. At quiescence it equals StepIndex.
func (s *EngineState) UserMessageCount() int {
	n := 0
	for _, m := range s.Transcript {
		if m.Origin == OriginUser {
			n++
		}
	}
	return n
}
