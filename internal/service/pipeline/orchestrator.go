package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/tanuki-create/voicechat/internal/model/conversation"
	"github.com/tanuki-create/voicechat/internal/service/asr"
	"github.com/tanuki-create/voicechat/internal/service/llm"
	"github.com/tanuki-create/voicechat/internal/service/session"
	"github.com/tanuki-create/voicechat/internal/service/tts"
)

// ErrNoSpeech indicates recognition produced no text for an audio unit.
// The single-shot endpoint maps it to a client error; the streaming
// gateway simply skips the unit.
var ErrNoSpeech = errors.New("no speech recognized")

// TurnLog receives every turn as soon as its content is known, plus one
// consolidated snapshot at session end. Implementations never block the
// pipeline on failure.
type TurnLog interface {
	Append(sessionID, role, content string)
	Finalize(sessionID string, turns []conversation.Turn)
}

// Mirror persists turns to the durable conversation store. A nil
// mirror disables persistence; errors are absorbed.
type Mirror interface {
	AppendMessage(ctx context.Context, sessionID, role, content string) error
}

// Orchestrator drives the recognize → generate → synthesize sequence
// for each inbound audio unit and owns the bookkeeping around it.
type Orchestrator struct {
	recognizer  asr.Recognizer
	generator   llm.Generator
	synthesizer tts.Synthesizer
	sessions    *session.Manager
	turnLog     TurnLog
	mirror      Mirror
}

// New wires the three backends to the session registry and logs.
func New(recognizer asr.Recognizer, generator llm.Generator, synthesizer tts.Synthesizer, sessions *session.Manager, turnLog TurnLog, mirror Mirror) *Orchestrator {
	return &Orchestrator{
		recognizer:  recognizer,
		generator:   generator,
		synthesizer: synthesizer,
		sessions:    sessions,
		turnLog:     turnLog,
		mirror:      mirror,
	}
}

// Sessions exposes the registry for the gateway.
func (o *Orchestrator) Sessions() *session.Manager {
	return o.sessions
}

// RunTurn executes one pipeline run for a live session, emitting each
// deliverable as it becomes ready. A failed or empty recognition means
// no turn occurred: nothing is emitted, logged, or appended. An error
// return signals an unexpected failure the caller should report; the
// session stays usable.
func (o *Orchestrator) RunTurn(ctx context.Context, sessionID string, audio []byte, emit func(Event)) error {
	text, err := o.recognizer.Recognize(ctx, audio)
	if err != nil {
		log.Printf("[pipeline] recognition failed session=%s: %v", sessionID, err)
		return nil
	}
	if text == "" {
		return nil
	}

	emit(Event{Type: EventASRResult, Text: text})

	if err := o.sessions.Append(sessionID, conversation.NewTurn(conversation.RoleUser, text)); err != nil {
		return fmt.Errorf("append user turn: %w", err)
	}
	o.record(ctx, sessionID, conversation.RoleUser, text)

	history, err := o.sessions.History(sessionID)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}

	reply := o.generate(ctx, sessionID, history)
	emit(Event{Type: EventLLMResponse, Text: reply})

	if err := o.sessions.Append(sessionID, conversation.NewTurn(conversation.RoleAssistant, reply)); err != nil {
		return fmt.Errorf("append assistant turn: %w", err)
	}
	o.record(ctx, sessionID, conversation.RoleAssistant, reply)

	emit(Event{Type: EventTTSAudio, AudioURL: o.synthesize(ctx, sessionID, reply)})
	return nil
}

// OnceResult is the synchronous response of a single-shot run.
type OnceResult struct {
	ASRResult   string `json:"asr_result"`
	LLMResponse string `json:"llm_response"`
	TTSAudioURL string `json:"tts_audio_url"`
}

// RunOnce executes the same three stages over a singleton history. It
// never creates a multi-turn session and never finalizes; the two
// resulting turns go to the turn log only.
func (o *Orchestrator) RunOnce(ctx context.Context, audio []byte) (*OnceResult, error) {
	text, err := o.recognizer.Recognize(ctx, audio)
	if err != nil {
		log.Printf("[pipeline] one-shot recognition failed: %v", err)
		return nil, ErrNoSpeech
	}
	if text == "" {
		return nil, ErrNoSpeech
	}

	sessionID := "rest-" + uuid.NewString()
	history := []conversation.Turn{conversation.NewTurn(conversation.RoleUser, text)}

	reply := o.generate(ctx, sessionID, history)
	audioURL := o.synthesize(ctx, sessionID, reply)

	o.turnLog.Append(sessionID, conversation.RoleUser, text)
	o.turnLog.Append(sessionID, conversation.RoleAssistant, reply)

	return &OnceResult{
		ASRResult:   text,
		LLMResponse: reply,
		TTSAudioURL: audioURL,
	}, nil
}

// Finish writes the consolidated snapshot and discards the session.
// Safe to call for sessions that never produced a turn.
func (o *Orchestrator) Finish(sessionID string) {
	turns := o.sessions.Remove(sessionID)
	o.turnLog.Finalize(sessionID, turns)
}

// generate degrades any backend failure to the fixed apology so the
// reply is never empty.
func (o *Orchestrator) generate(ctx context.Context, sessionID string, history []conversation.Turn) string {
	reply, err := o.generator.Generate(ctx, history)
	if err != nil {
		log.Printf("[pipeline] generation failed session=%s: %v", sessionID, err)
		return llm.FallbackReply
	}
	return reply
}

// synthesize degrades any backend failure to an empty reference; the
// text reply has already been delivered by then.
func (o *Orchestrator) synthesize(ctx context.Context, sessionID, reply string) string {
	audioURL, err := o.synthesizer.Synthesize(ctx, reply)
	if err != nil {
		log.Printf("[pipeline] synthesis failed session=%s: %v", sessionID, err)
		return ""
	}
	return audioURL
}

// record mirrors a turn to the append-only log and the durable store.
// Both writes are best-effort.
func (o *Orchestrator) record(ctx context.Context, sessionID, role, content string) {
	o.turnLog.Append(sessionID, role, content)

	if o.mirror == nil {
		return
	}
	if err := o.mirror.AppendMessage(ctx, sessionID, role, content); err != nil {
		log.Printf("[pipeline] mirror write failed session=%s: %v", sessionID, err)
	}
}
