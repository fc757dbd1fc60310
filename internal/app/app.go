// Package app builds the message processor and its collaborators from Config.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dvloznov/transfer-tracker/internal/config"
	"github.com/dvloznov/transfer-tracker/internal/gcsuploader"
	infraBQ "github.com/dvloznov/transfer-tracker/internal/infra/bigquery"
	"github.com/dvloznov/transfer-tracker/internal/notionsync"
	"github.com/dvloznov/transfer-tracker/internal/pdftext"
	"github.com/dvloznov/transfer-tracker/internal/pipeline"
	"github.com/dvloznov/transfer-tracker/internal/sheets"
	"github.com/dvloznov/transfer-tracker/internal/whatsapp"
)

// App holds the processor and the clients that need closing.
type App struct {
	Processor *pipeline.Processor
	Engine    *pipeline.Engine
	Router    *pipeline.Router
	Sink      pipeline.Sink

	closers []func() error
	log     zerolog.Logger
}

// New wires every collaborator selected by cfg.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	a := &App{log: log}

	sink, err := a.newSink(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Sink = sink

	completer, err := pipeline.NewGeminiCompleter(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		a.Close()
		return nil, err
	}

	engineOpts := []pipeline.EngineOption{pipeline.WithModelTimeout(cfg.ModelTimeout)}
	if cfg.RecordModelOutputs {
		recorder, err := a.bigQuery(ctx, cfg)
		if err != nil {
			a.Close()
			return nil, err
		}
		engineOpts = append(engineOpts, pipeline.WithOutputRecorder(recorder))
		log.Info().Str("dataset", cfg.BigQueryDataset).Msg("Recording model outputs")
	}

	// A nil *gcsuploader.Archiver must not reach the interface.
	var archiver pipeline.Archiver
	if cfg.ArchiveBucket != "" {
		gcs, err := gcsuploader.NewArchiver(ctx, cfg.ArchiveBucket)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, gcs.Close)
		archiver = gcs
		log.Info().Str("bucket", cfg.ArchiveBucket).Msg("Archiving attachments")
	}

	media := whatsapp.NewMediaClient(cfg.GraphAPIURL, cfg.WhatsAppToken, &http.Client{Timeout: cfg.MediaTimeout})

	a.Engine = pipeline.NewEngine(completer, engineOpts...)
	a.Router = pipeline.NewRouter(sink, cfg.SinkTimeout)
	a.Processor = pipeline.NewProcessor(
		pipeline.NewSourceAdapter(media, pdftext.NewExtractor(), archiver, cfg.MediaTimeout),
		a.Engine,
		a.Router,
	)

	log.Info().
		Str("ledger", cfg.LedgerSink).
		Str("model", completer.ModelName()).
		Msg("Processor ready")
	return a, nil
}

func (a *App) newSink(ctx context.Context, cfg *config.Config) (pipeline.Sink, error) {
	switch cfg.LedgerSink {
	case config.SinkSheets:
		return sheets.NewSink(ctx, cfg.GoogleServiceAccount, cfg.SheetsID, cfg.SheetsRange)
	case config.SinkBigQuery:
		return a.bigQuery(ctx, cfg)
	case config.SinkNotion:
		return notionsync.NewSinkWithToken(cfg.NotionToken, cfg.NotionDatabaseID), nil
	default:
		return nil, fmt.Errorf("New: unknown ledger sink %q", cfg.LedgerSink)
	}
}

// bigQuery shares one repository between the sink and the recorder.
func (a *App) bigQuery(ctx context.Context, cfg *config.Config) (*infraBQ.Repository, error) {
	if repo, ok := a.Sink.(*infraBQ.Repository); ok {
		return repo, nil
	}
	repo, err := infraBQ.NewRepository(ctx, cfg.BigQueryProject, cfg.BigQueryDataset)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, repo.Close)
	return repo, nil
}

// Close releases every client opened by New.
func (a *App) Close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.log.Warn().Err(err).Msg("Failed to close client")
		}
	}
	a.closers = nil
}
