package assistant

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Mode selects which degraded-answer string the gateway falls back to.
type Mode string

const (
	ModeAnswer Mode = "answer"
	ModeReport Mode = "report"
)

// Fixed degraded-answer strings. A raw provider error must never reach the
// user of a financial assistant.
const (
	AnswerFallback = "I'm having trouble thinking right now. Please try again in a moment."
	ReportFallback = "I'm having trouble generating your report. Please try again in a moment."
)

const defaultInvokeTimeout = 30 * time.Second

// Generator maps a prompt string to a response string; fallible.
type Generator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Gateway calls the generative service once per request with a bounded
// timeout and absorbs every failure into a fixed, mode-appropriate string.
// No retry is performed; the fallback already covers transient failures.
type Gateway struct {
	gen     Generator
	timeout time.Duration
	log     zerolog.Logger
}

// NewGateway creates a gateway over the given generator. timeout <= 0 uses
// the default.
func NewGateway(gen Generator, timeout time.Duration, log zerolog.Logger) *Gateway {
	if timeout <= 0 {
		timeout = defaultInvokeTimeout
	}
	return &Gateway{gen: gen, timeout: timeout, log: log}
}

// Invoke calls the generative service with the prompt. On any failure the
// root cause is logged internally and the user sees only the fixed fallback
// for the mode. The prompt contains user financial data and is never logged;
// only its length is.
func (g *Gateway) Invoke(ctx context.Context, prompt string, mode Mode) string {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	text, err := g.gen.GenerateText(ctx, prompt)
	if err != nil {
		g.log.Error().
			Err(err).
			Str("mode", string(mode)).
			Int("prompt_len", len(prompt)).
			Msg("Generative service call failed")
		return fallbackFor(mode)
	}

	return text
}

func fallbackFor(mode Mode) string {
	if mode == ModeReport {
		return ReportFallback
	}
	return AnswerFallback
}
