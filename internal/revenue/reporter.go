package revenue

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/xiaot623/gogo/ecosystem/internal/domain"
)

// ReportSink persists a report. Implementations must be safe to call from the
// reporter goroutine only.
type ReportSink interface {
	SaveReport(ctx context.Context, r domain.RevenueReport) error
}

// ReportSinkFunc adapts a function to ReportSink.
type ReportSinkFunc func(ctx context.Context, r domain.RevenueReport) error

// SaveReport implements ReportSink.
func (f ReportSinkFunc) SaveReport(ctx context.Context, r domain.RevenueReport) error {
	return f(ctx, r)
}

// Reporter periodically turns aggregator state into reports and hands them to
// sinks. A failing sink is logged and does not stop the others.
type Reporter struct {
	agg     *Aggregator
	context func() ReportContext
	sinks   []ReportSink
	log     *slog.Logger
	now     func() time.Time
}

// NewReporter creates a reporter. rc is called once per report.
func NewReporter(agg *Aggregator, rc func() ReportContext, log *slog.Logger, sinks ...ReportSink) *Reporter {
	return &Reporter{
		agg:     agg,
		context: rc,
		sinks:   sinks,
		log:     log.With("component", "reporter"),
		now:     time.Now,
	}
}

// Publish builds one report and writes it to every sink. The returned error
// is the first sink failure, wrapped as domain.ErrPersistenceFailure.
func (r *Reporter) Publish(ctx context.Context) (domain.RevenueReport, error) {
	report := r.agg.Report(r.now(), r.context())

	var first error
	for _, sink := range r.sinks {
		if err := sink.SaveReport(ctx, report); err != nil {
			r.log.Error("report persistence failed", "error", err)
			if first == nil {
				first = errors.Join(domain.ErrPersistenceFailure, err)
			}
		}
	}

	r.log.Info("revenue report",
		"total", report.Revenue.Total,
		"target_progress", report.Performance.TargetProgress,
		"contributing", report.Agents.Contributing)
	return report, first
}
