package pipeline_test

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/dvloznov/transfer-tracker/internal/pipeline"
	"github.com/dvloznov/transfer-tracker/internal/pipeline/mocks"
)

func amountTransfer(n int64) pipeline.Transfer {
	return pipeline.Transfer{Amount: &n}
}

func TestRouter_ManyContinuesPastFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := mocks.NewMockSink(ctrl)

	out := pipeline.Outcome{Transfers: []pipeline.Transfer{
		amountTransfer(8765000),
		amountTransfer(7623000),
		amountTransfer(7745753),
	}}

	gomock.InOrder(
		sink.EXPECT().Append(gomock.Any(), out.Transfers[0]).Return(nil),
		sink.EXPECT().Append(gomock.Any(), out.Transfers[1]).Return(errors.New("rate limited")),
		sink.EXPECT().Append(gomock.Any(), out.Transfers[2]).Return(nil),
	)

	report, err := pipeline.NewRouter(sink, 0).Route(context.Background(), out)
	if err != nil {
		t.Fatalf("Route() error = %v, want nil for a batch", err)
	}

	if report.Outcome != pipeline.Many {
		t.Errorf("report.Outcome = %v, want many", report.Outcome)
	}
	if report.Written() != 2 || report.Failed() != 1 {
		t.Errorf("written/failed = %d/%d, want 2/1", report.Written(), report.Failed())
	}
	if idx := report.FailedIndexes(); len(idx) != 1 || idx[0] != 1 {
		t.Errorf("FailedIndexes() = %v, want [1]", idx)
	}
	if !errors.Is(report.Results[1].Err, pipeline.ErrPersistenceFailure) {
		t.Errorf("record 2 error = %v, want ErrPersistenceFailure", report.Results[1].Err)
	}
	if !report.Results[0].OK() || !report.Results[2].OK() {
		t.Error("records 1 and 3 should be marked written")
	}
}

func TestRouter_OneFailureIsReturned(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := mocks.NewMockSink(ctrl)
	sink.EXPECT().Append(gomock.Any(), gomock.Any()).Return(errors.New("permission denied"))

	report, err := pipeline.NewRouter(sink, 0).Route(context.Background(), pipeline.Outcome{
		Transfers: []pipeline.Transfer{amountTransfer(1)},
	})

	if !errors.Is(err, pipeline.ErrPersistenceFailure) {
		t.Errorf("Route() error = %v, want ErrPersistenceFailure", err)
	}
	if report.Outcome != pipeline.One || report.Failed() != 1 {
		t.Errorf("report = %+v", report)
	}
}

func TestRouter_OneWritten(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := mocks.NewMockSink(ctrl)
	sink.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	report, err := pipeline.NewRouter(sink, 0).Route(context.Background(), pipeline.Outcome{
		Transfers: []pipeline.Transfer{amountTransfer(1)},
	})
	if err != nil || report.Written() != 1 {
		t.Errorf("Route() = %+v, %v", report, err)
	}
}

func TestRouter_NoTransferDoesNotTouchSink(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := mocks.NewMockSink(ctrl)
	sink.EXPECT().Append(gomock.Any(), gomock.Any()).Times(0)

	report, err := pipeline.NewRouter(sink, 0).Route(context.Background(), pipeline.Outcome{})
	if err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	if report.Outcome != pipeline.NoTransferFound || report.Written() != 0 || len(report.Results) != 0 {
		t.Errorf("report = %+v, want no writes", report)
	}
}

func TestRouter_AppendHasDeadline(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := mocks.NewMockSink(ctrl)
	sink.EXPECT().Append(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, tr pipeline.Transfer) error {
			if _, ok := ctx.Deadline(); !ok {
				t.Error("sink call has no deadline")
			}
			return nil
		})

	pipeline.NewRouter(sink, 0).Route(context.Background(), pipeline.Outcome{
		Transfers: []pipeline.Transfer{amountTransfer(1)},
	})
}
