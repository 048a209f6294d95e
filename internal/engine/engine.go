// Package engine implements the guided-conversation state machine behind
// the storefront chat widget.
//
// The engine runs a fixed-length, strictly sequential interview: it shows
// one prompt at a time, accepts one answer per step, and after the last
// answer assembles the transcript and hands it to the Recorder. The two
// delays (bot "typing" before a prompt, a short pause before advancing the
// step) are cosmetic latency implemented as cancellable scheduled
// continuations — at most one is outstanding per engine, and Close/Reset
// cancel it so a stale prompt can never appear after the fact.
//
// Each user message is tagged with the field key of the step it answers.
// Transcript assembly maps by tag, not by array position, so a skipped or
// re-ordered step cannot silently mis-pair answers.
package engine

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/indianbaazaar/storefront-chat-go/internal/domain"
	"github.com/indianbaazaar/storefront-chat-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("engine")

// Config holds the engine's delay parameters.
type Config struct {
	// TypingDelay is how long the bot "thinks" before a prompt appears.
	TypingDelay time.Duration
	// AdvanceDelay is the pause between an accepted answer and the step
	// index advancing.
	AdvanceDelay time.Duration
	// SubmitTimeout bounds the persistence call for a finished transcript.
	SubmitTimeout time.Duration
	// OnMessage, when set, observes every transcript append. Must not
	// block; it is called with the engine lock held.
	OnMessage func(domain.Origin)
}

type pendingKind int

const (
	pendingNone pendingKind = iota
	pendingPrompt
	pendingAdvance
)

// Engine drives one widget session. All mutation goes through its methods
// under a single mutex; timer callbacks re-acquire the lock and check a
// generation counter so continuations cancelled by Close/Reset are no-ops
// even if they already fired.
type Engine struct {
	script   domain.Script
	recorder port.Recorder
	sched    Scheduler
	cfg      Config
	logger   *zap.Logger

	mu          sync.Mutex
	phase       domain.Phase
	stepIndex   int
	transcript  []domain.Message
	isTyping    bool
	isOpen      bool
	promptShown bool
	savedID     string
	lastErr     error

	pending       pendingKind
	cancelPending func()
	// gen invalidates timer continuations (bumped on Close and Reset);
	// submitGen invalidates in-flight submissions (bumped on Reset and
	// Shutdown, never on Close — closing the widget must not abandon a
	// write already in progress).
	gen       uint64
	submitGen uint64
}

// New creates an engine for one conversation session.
func New(script domain.Script, recorder port.Recorder, sched Scheduler, cfg Config, logger *zap.Logger) *Engine {
	return &Engine{
		script:   script,
		recorder: recorder,
		sched:    sched,
		cfg:      cfg,
		logger:   logger,
		phase:    domain.PhaseIdle,
	}
}

// Open makes the widget visible. The first open starts the interview by
// scheduling the greeting prompt; a reopen resumes whatever continuation a
// Close interrupted. Opening never duplicates a prompt.
func (e *Engine) Open() domain.EngineState {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.isOpen {
		return e.snapshotLocked()
	}
	e.isOpen = true

	switch {
	case e.phase == domain.PhaseIdle:
		e.phase = domain.PhaseGreeting
		e.schedulePromptLocked()
	case e.pending == pendingPrompt:
		e.schedulePromptLocked()
	case e.pending == pendingAdvance:
		e.scheduleAdvanceLocked()
	}
	return e.snapshotLocked()
}

// Close hides the widget. State is not tied to visibility: the transcript
// and step index survive, and any pending continuation is cancelled and
// remembered so Open can resume it.
func (e *Engine) Close() domain.EngineState {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.isOpen {
		return e.snapshotLocked()
	}
	e.isOpen = false
	e.invalidateTimerLocked()
	return e.snapshotLocked()
}

// SubmitAnswer accepts the user's answer for the current step. Empty or
// whitespace-only input is rejected silently, as are submissions while a
// delay is pending or the interview is not awaiting an answer.
func (e *Engine) SubmitAnswer(text string) domain.EngineState {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase != domain.PhaseAwaiting || !e.promptShown || e.pending != pendingNone {
		return e.snapshotLocked()
	}
	if strings.TrimSpace(text) == "" {
		return e.snapshotLocked()
	}

	step := e.script[e.stepIndex]
	e.transcript = append(e.transcript, domain.Message{
		Origin:   domain.OriginUser,
		Text:     text,
		FieldKey: step.Key,
		At:       time.Now(),
	})
	if e.cfg.OnMessage != nil {
		e.cfg.OnMessage(domain.OriginUser)
	}
	e.logger.Debug("answer accepted",
		zap.String("field_key", step.Key),
		zap.Int("step_index", e.stepIndex),
	)
	e.scheduleAdvanceLocked()
	return e.snapshotLocked()
}

// Reset discards the transcript and all in-flight timers and re-enters the
// greeting. No partial transcript is ever persisted.
func (e *Engine) Reset() domain.EngineState {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.invalidateTimerLocked()
	e.submitGen++
	e.pending = pendingNone
	e.phase = domain.PhaseGreeting
	e.stepIndex = 0
	e.transcript = nil
	e.isTyping = false
	e.promptShown = false
	e.savedID = ""
	e.lastErr = nil

	if e.isOpen {
		e.schedulePromptLocked()
	} else {
		// Closed widget: no timer runs now, but the next Open must
		// re-trigger the greeting delay and emit step[0]'s prompt.
		e.pending = pendingPrompt
	}
	return e.snapshotLocked()
}

// Retry re-attempts persistence after a failed submission.
func (e *Engine) Retry() domain.EngineState {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase != domain.PhaseFailed {
		return e.snapshotLocked()
	}
	e.phase = domain.PhaseSubmitting
	e.lastErr = nil
	go e.submit(e.submitGen)
	return e.snapshotLocked()
}

// Snapshot returns a copy of the engine state.
func (e *Engine) Snapshot() domain.EngineState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Shutdown cancels any outstanding continuation. Called when the session
// expires; the engine must not fire timers afterwards.
func (e *Engine) Shutdown() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.invalidateTimerLocked()
	e.submitGen++
	e.pending = pendingNone
}

// --- internals (mutex held) ---

// invalidateTimerLocked stops the outstanding timer and bumps the
// generation so an already-fired callback blocked on the mutex becomes a
// no-op. e.pending is left as-is for Open to resume.
func (e *Engine) invalidateTimerLocked() {
	e.gen++
	if e.cancelPending != nil {
		e.cancelPending()
		e.cancelPending = nil
	}
}

func (e *Engine) schedulePromptLocked() {
	gen := e.gen
	e.pending = pendingPrompt
	e.isTyping = true
	e.cancelPending = e.sched.Schedule(e.cfg.TypingDelay, func() { e.onPrompt(gen) })
}

func (e *Engine) scheduleAdvanceLocked() {
	gen := e.gen
	e.pending = pendingAdvance
	e.cancelPending = e.sched.Schedule(e.cfg.AdvanceDelay, func() { e.onAdvance(gen) })
}

func (e *Engine) onPrompt(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if gen != e.gen {
		return
	}
	e.pending = pendingNone
	e.cancelPending = nil
	e.isTyping = false

	step := e.script[e.stepIndex]
	e.transcript = append(e.transcript, domain.Message{
		Origin: domain.OriginBot,
		Text:   step.Prompt,
		At:     time.Now(),
	})
	e.promptShown = true
	if e.cfg.OnMessage != nil {
		e.cfg.OnMessage(domain.OriginBot)
	}
	if e.phase == domain.PhaseGreeting {
		e.phase = domain.PhaseAwaiting
	}
}

func (e *Engine) onAdvance(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if gen != e.gen {
		return
	}
	e.pending = pendingNone
	e.cancelPending = nil
	e.stepIndex++
	e.promptShown = false

	if e.stepIndex < e.script.Len() {
		e.schedulePromptLocked()
		return
	}
	e.phase = domain.PhaseSubmitting
	go e.submit(e.submitGen)
}

// submit assembles the transcript by field-key tag and records it. The
// engine ends in done on success and failed on error; Retry re-enters
// submitting from failed.
func (e *Engine) submit(gen uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.SubmitTimeout)
	defer cancel()
	ctx, span := tracer.Start(ctx, "Engine.submit")
	defer span.End()

	e.mu.Lock()
	if gen != e.submitGen {
		e.mu.Unlock()
		return
	}
	entries := make([]domain.ConversationEntry, 0, e.script.Len())
	for _, m := range e.transcript {
		if m.Origin == domain.OriginUser && m.FieldKey != "" {
			entries = append(entries, domain.ConversationEntry{Key: m.FieldKey, Value: m.Text})
		}
	}
	e.mu.Unlock()

	id, err := e.recorder.Record(ctx, entries)

	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.submitGen {
		// Reset happened while the write was in flight; the result no
		// longer belongs to this interview.
		return
	}
	if err != nil {
		e.logger.Error("transcript submission failed", zap.Error(err))
		e.phase = domain.PhaseFailed
		e.lastErr = err
		return
	}
	e.logger.Info("transcript saved", zap.String("conversation_id", id))
	e.phase = domain.PhaseDone
	e.savedID = id
}

func (e *Engine) snapshotLocked() domain.EngineState {
	transcript := make([]domain.Message, len(e.transcript))
	copy(transcript, e.transcript)

	st := domain.EngineState{
		Phase:      e.phase,
		StepIndex:  e.stepIndex,
		Transcript: transcript,
		IsTyping:   e.isTyping,
		IsOpen:     e.isOpen,
		SavedID:    e.savedID,
	}
	if e.lastErr != nil {
		st.LastError = e.lastErr.Error()
	}
	return st
}
