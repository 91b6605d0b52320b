package llm

import (
	"context"
	"errors"

	"github.com/tanuki-create/voicechat/internal/model/conversation"
)

// SystemPrompt is the fixed assistant persona prepended to every
// generation request.
const SystemPrompt = "あなたは親切で丁寧な日本語アシスタントです。簡潔かつ役立つ回答を提供してください。"

// FallbackReply is substituted for the assistant turn whenever the
// backend fails, so synthesis never runs on empty input.
const FallbackReply = "申し訳ありません、応答の生成中にエラーが発生しました。"

// Generator produces a reply for the ordered turn history. The final
// turn of the history is the user utterance being answered.
type Generator interface {
	Generate(ctx context.Context, history []conversation.Turn) (string, error)
}

// Unavailable stands in when no backend is configured. Every call
// fails, which the orchestrator degrades to FallbackReply.
type Unavailable struct{}

func (Unavailable) Generate(context.Context, []conversation.Turn) (string, error) {
	return "", errors.New("llm backend not configured")
}
