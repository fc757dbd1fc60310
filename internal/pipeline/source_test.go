package pipeline_test

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/dvloznov/transfer-tracker/internal/pipeline"
	"github.com/dvloznov/transfer-tracker/internal/pipeline/mocks"
)

type adapterMocks struct {
	media    *mocks.MockMediaFetcher
	text     *mocks.MockTextExtractor
	archiver *mocks.MockArchiver
}

func newAdapter(t *testing.T) (*pipeline.SourceAdapter, adapterMocks) {
	ctrl := gomock.NewController(t)
	m := adapterMocks{
		media:    mocks.NewMockMediaFetcher(ctrl),
		text:     mocks.NewMockTextExtractor(ctrl),
		archiver: mocks.NewMockArchiver(ctrl),
	}
	return pipeline.NewSourceAdapter(m.media, m.text, m.archiver, 0), m
}

func TestSourceAdapter_Text(t *testing.T) {
	adapter, _ := newAdapter(t)

	text, err := adapter.Adapt(context.Background(), pipeline.RawMessage{Kind: pipeline.KindText, Body: "2.5m a Juan"})
	if err != nil || text != "2.5m a Juan" {
		t.Errorf("Adapt() = %q, %v", text, err)
	}
}

func TestSourceAdapter_UnsupportedCallsNothing(t *testing.T) {
	adapter, m := newAdapter(t)
	m.media.EXPECT().FetchMedia(gomock.Any(), gomock.Any()).Times(0)
	m.text.EXPECT().ExtractText(gomock.Any(), gomock.Any()).Times(0)
	m.archiver.EXPECT().Archive(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	msgs := []pipeline.RawMessage{
		{Kind: pipeline.KindUnsupported, RawKind: "image", MediaID: "IMG1"},
		{Kind: pipeline.KindUnsupported, RawKind: "audio"},
		{Kind: pipeline.KindDocument, MimeType: "image/jpeg", MediaID: "DOC1"},
		{Kind: pipeline.KindDocument, MimeType: "application/vnd.ms-excel", MediaID: "DOC2"},
	}
	for _, msg := range msgs {
		_, err := adapter.Adapt(context.Background(), msg)
		if !errors.Is(err, pipeline.ErrUnsupportedInput) {
			t.Errorf("Adapt(%s %s) error = %v, want ErrUnsupportedInput", msg.RawKind, msg.MimeType, err)
		}
	}
}

func TestSourceAdapter_PDF(t *testing.T) {
	adapter, m := newAdapter(t)
	msg := pipeline.RawMessage{ID: "m1", Kind: pipeline.KindDocument, MimeType: "application/pdf; charset=binary", MediaID: "MEDIA1"}
	pdf := []byte("%PDF-1.4")

	gomock.InOrder(
		m.media.EXPECT().FetchMedia(gomock.Any(), "MEDIA1").Return(pdf, nil),
		m.archiver.EXPECT().Archive(gomock.Any(), msg, pdf).Return(errors.New("bucket missing")),
		m.text.EXPECT().ExtractText(gomock.Any(), pdf).Return("Comprobante $ 1.500.-", nil),
	)

	text, err := adapter.Adapt(context.Background(), msg)
	if err != nil {
		t.Fatalf("Adapt() error = %v", err)
	}
	if text != "Comprobante $ 1.500.-" {
		t.Errorf("Adapt() = %q", text)
	}
}

func TestSourceAdapter_PDFFailures(t *testing.T) {
	msg := pipeline.RawMessage{Kind: pipeline.KindDocument, MimeType: "application/pdf", MediaID: "MEDIA1"}

	t.Run("fetch", func(t *testing.T) {
		adapter, m := newAdapter(t)
		m.media.EXPECT().FetchMedia(gomock.Any(), "MEDIA1").Return(nil, errors.New("401"))

		_, err := adapter.Adapt(context.Background(), msg)
		if !errors.Is(err, pipeline.ErrExtractionUnavailable) {
			t.Errorf("Adapt() error = %v, want ErrExtractionUnavailable", err)
		}
	})

	t.Run("extract", func(t *testing.T) {
		adapter, m := newAdapter(t)
		m.media.EXPECT().FetchMedia(gomock.Any(), "MEDIA1").Return([]byte("x"), nil)
		m.archiver.EXPECT().Archive(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		m.text.EXPECT().ExtractText(gomock.Any(), gomock.Any()).Return("", errors.New("encrypted"))

		_, err := adapter.Adapt(context.Background(), msg)
		if !errors.Is(err, pipeline.ErrExtractionUnavailable) {
			t.Errorf("Adapt() error = %v, want ErrExtractionUnavailable", err)
		}
	})

	t.Run("no collaborators", func(t *testing.T) {
		adapter := pipeline.NewSourceAdapter(nil, nil, nil, 0)
		_, err := adapter.Adapt(context.Background(), msg)
		if !errors.Is(err, pipeline.ErrExtractionUnavailable) {
			t.Errorf("Adapt() error = %v, want ErrExtractionUnavailable", err)
		}
	})
}
