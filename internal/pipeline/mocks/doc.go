// Package mocks provides mock implementations for testing purposes.
package mocks

//go:generate mockgen -destination=mock_pipeline.go -package=mocks github.com/dvloznov/transfer-tracker/internal/pipeline Archiver,Completer,MediaFetcher,OutputRecorder,Sink,TextExtractor
