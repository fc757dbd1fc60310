package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dvloznov/transfer-tracker/internal/logger"
	"github.com/dvloznov/transfer-tracker/internal/metrics"
)

// PipelineStep represents a single step of processing one message.
type PipelineStep interface {
	Execute(ctx context.Context, state *PipelineState) error
}

// PipelineState holds what the steps of one message hand to each other.
// A new state is created per message and discarded afterwards.
type PipelineState struct {
	Message RawMessage
	Text    string
	Outcome Outcome
	Report  RouteReport
}

// AdaptStep resolves the message text.
type AdaptStep struct {
	Adapter *SourceAdapter
}

func (s *AdaptStep) Execute(ctx context.Context, state *PipelineState) error {
	text, err := s.Adapter.Adapt(ctx, state.Message)
	if err != nil {
		return err
	}
	state.Text = text
	return nil
}

// ExtractStep asks the engine for transfers.
type ExtractStep struct {
	Engine *Engine
}

func (s *ExtractStep) Execute(ctx context.Context, state *PipelineState) error {
	state.Outcome = s.Engine.Extract(ctx, ExtractionRequest{
		MessageID:  state.Message.ID,
		SourceText: state.Text,
	})
	return nil
}

// RouteStep writes the outcome to the ledger.
type RouteStep struct {
	Router *Router
}

func (s *RouteStep) Execute(ctx context.Context, state *PipelineState) error {
	report, err := s.Router.Route(ctx, state.Outcome)
	state.Report.Outcome = report.Outcome
	state.Report.Results = report.Results
	return err
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []PipelineStep
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...PipelineStep) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps sequentially and stops at the first error.
func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) error {
	for i, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d failed: %w", i+1, err)
		}
	}
	return nil
}

// Processor runs the adapt, extract and route steps for inbound messages.
// It holds no per-message state and is safe for concurrent use.
type Processor struct {
	pipeline *Pipeline
}

// NewProcessor wires the standard three-step pipeline.
func NewProcessor(adapter *SourceAdapter, engine *Engine, router *Router) *Processor {
	return &Processor{
		pipeline: NewPipeline(
			&AdaptStep{Adapter: adapter},
			&ExtractStep{Engine: engine},
			&RouteStep{Router: router},
		),
	}
}

// ProcessInboundMessage runs one message through the pipeline. It never
// fails: unsupported input is reported as Dropped, extraction problems as
// NoTransferFound, and sink failures per record.
func (p *Processor) ProcessInboundMessage(ctx context.Context, msg RawMessage) (report RouteReport) {
	log := logger.FromContext(ctx).With().Str("message_id", msg.ID).Str("kind", string(msg.Kind)).Logger()
	ctx = logger.WithContext(ctx, log)

	state := &PipelineState{Message: msg}
	state.Report.MessageID = msg.ID
	state.Report.StartedAt = time.Now()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Recovered from panic while processing message")
			report = state.Report
			report.FinishedAt = time.Now()
		}
	}()

	metrics.MessagesProcessed.WithLabelValues(string(msg.Kind)).Inc()

	err := p.pipeline.Execute(ctx, state)
	state.Report.ExtractionErr = state.Outcome.Err
	state.Report.FinishedAt = time.Now()

	switch {
	case errors.Is(err, ErrUnsupportedInput):
		state.Report.Dropped = true
		log.Info().Err(err).Msg("Dropping unsupported message")
	case errors.Is(err, ErrExtractionUnavailable):
		state.Report.Outcome = NoTransferFound
		state.Report.ExtractionErr = err
		log.Error().Err(err).Msg("Could not read message content")
	case err != nil:
		log.Error().Err(err).Int("written", state.Report.Written()).Msg("Message processing failed")
	case state.Report.Outcome == NoTransferFound:
		log.Info().AnErr("cause", state.Report.ExtractionErr).Msg("No transfer data found in message")
	default:
		log.Info().
			Str("outcome", state.Report.Outcome.String()).
			Int("written", state.Report.Written()).
			Int("failed", state.Report.Failed()).
			Msg("Message processed")
	}

	return state.Report
}
