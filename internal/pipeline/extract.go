package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dvloznov/transfer-tracker/internal/logger"
	"github.com/dvloznov/transfer-tracker/internal/metrics"
)

// Engine turns message text into normalized transfers with one model call.
type Engine struct {
	completer Completer
	recorder  OutputRecorder
	timeout   time.Duration
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithOutputRecorder stores every raw model response.
func WithOutputRecorder(r OutputRecorder) EngineOption {
	return func(e *Engine) { e.recorder = r }
}

// WithModelTimeout bounds each completer call.
func WithModelTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// NewEngine creates an extraction engine backed by the given completer.
func NewEngine(c Completer, opts ...EngineOption) *Engine {
	e := &Engine{
		completer: c,
		timeout:   DefaultModelTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract asks the model for transfers in req.SourceText. It never returns an
// error: collaborator failures and unusable output yield an Outcome with no
// transfers and Err set.
func (e *Engine) Extract(ctx context.Context, req ExtractionRequest) Outcome {
	log := logger.FromContext(ctx)
	started := time.Now()

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	raw, err := e.completer.Complete(callCtx, buildExtractionPrompt(req.SourceText))
	cancel()
	metrics.ModelLatency.Observe(time.Since(started).Seconds())

	if err != nil {
		err = fmt.Errorf("Extract: complete: %w: %v", ErrExtractionUnavailable, err)
		log.Error().Err(err).Str("message_id", req.MessageID).Msg("Model call failed")
		e.record(ctx, req, "", 0, 0, err)
		return e.degraded(err)
	}

	log.Debug().Str("message_id", req.MessageID).Str("raw_response", raw).Msg("Model response received")

	candidates, err := decodeCandidates(cleanModelJSON(raw))
	if err != nil {
		log.Warn().Err(err).Str("message_id", req.MessageID).Msg("Model output could not be parsed")
		e.record(ctx, req, raw, 0, 0, err)
		return e.degraded(err)
	}

	transfers := make([]Transfer, 0, len(candidates))
	for i, c := range candidates {
		if !hasIdentifyingField(c) {
			log.Debug().Str("message_id", req.MessageID).Int("candidate", i).Msg("Dropping candidate without identifying fields")
			continue
		}
		transfers = append(transfers, Normalize(c))
	}

	e.record(ctx, req, raw, len(candidates), len(transfers), nil)

	out := Outcome{Transfers: transfers}
	metrics.ExtractionOutcomes.WithLabelValues(out.Kind().String()).Inc()
	return out
}

func (e *Engine) degraded(err error) Outcome {
	reason := "malformed"
	if errors.Is(err, ErrExtractionUnavailable) {
		reason = "unavailable"
	}
	metrics.ExtractionOutcomes.WithLabelValues(reason).Inc()
	return Outcome{Err: err}
}

// record hands the raw response to the optional recorder; failures are logged.
func (e *Engine) record(ctx context.Context, req ExtractionRequest, raw string, candidates, accepted int, extractErr error) {
	if e.recorder == nil {
		return
	}
	out := ModelOutput{
		MessageID:     req.MessageID,
		ModelName:     e.completer.ModelName(),
		PromptVersion: PromptVersion,
		RawResponse:   raw,
		SourceText:    req.SourceText,
		Candidates:    candidates,
		Accepted:      accepted,
		Err:           extractErr,
		CreatedAt:     time.Now(),
	}
	if err := e.recorder.RecordModelOutput(ctx, out); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Str("message_id", req.MessageID).Msg("Failed to record model output")
	}
}
