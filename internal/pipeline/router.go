package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/transfer-tracker/internal/logger"
	"github.com/dvloznov/transfer-tracker/internal/metrics"
)

// Router writes the transfers of an Outcome to a Sink.
type Router struct {
	sink    Sink
	timeout time.Duration
}

// NewRouter creates a router with a per-append timeout.
func NewRouter(sink Sink, timeout time.Duration) *Router {
	if timeout <= 0 {
		timeout = DefaultSinkTimeout
	}
	return &Router{sink: sink, timeout: timeout}
}

// Route appends every transfer of out, in order, one sink call each.
//
// A single transfer that fails to append is returned as an error wrapping
// ErrPersistenceFailure. For batches every record gets its own attempt, the
// failures are only reported in the RouteReport and the error is nil.
func (r *Router) Route(ctx context.Context, out Outcome) (RouteReport, error) {
	report := RouteReport{Outcome: out.Kind()}

	switch out.Kind() {
	case NoTransferFound:
		return report, nil
	case One:
		res := r.append(ctx, 0, out.Transfers[0])
		report.Results = []RecordResult{res}
		if res.Err != nil {
			return report, res.Err
		}
		return report, nil
	}

	report.Results = make([]RecordResult, 0, len(out.Transfers))
	for i, t := range out.Transfers {
		res := r.append(ctx, i, t)
		if res.Err != nil {
			log := logger.FromContext(ctx)
			log.Error().Err(res.Err).Int("record", i).Msg("Failed to append transfer, continuing with batch")
		}
		report.Results = append(report.Results, res)
	}
	return report, nil
}

func (r *Router) append(ctx context.Context, i int, t Transfer) RecordResult {
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res := RecordResult{Index: i, Transfer: t}
	if err := r.sink.Append(callCtx, t); err != nil {
		res.Err = fmt.Errorf("Route: append record %d: %w: %v", i, ErrPersistenceFailure, err)
		metrics.LedgerAppends.WithLabelValues("failed").Inc()
		return res
	}
	metrics.LedgerAppends.WithLabelValues("ok").Inc()
	return res
}
