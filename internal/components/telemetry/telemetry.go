package telemetry

import (
	"context"
	"fmt"

	"ao3scraper/internal/components/assert"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// API is what components report problems and progress through, tests swap in a
// Recorder to assert on what was reported.
type API interface {
	// ReportBroken reports a component that failed and needs attention.
	//
	// The id names the component, not the mechanism that failed: a work page that
	// could not be fetched is `work.load`, the http status goes into the params.
	// Ids are lowercase, with dots between a component and its operation.
	ReportBroken(id string, params ...any)

	// ReportWarning reports something unexpected that the component recovered from,
	// such as a page cache that could not be written. Ids follow ReportBroken.
	ReportWarning(id string, params ...any)

	// ReportDebug reports details only useful when tracing a single run.
	ReportDebug(msg string, params ...any)

	// ReportCount reports the current value of a counter. Values are samples over
	// time and must not be summed. Ids follow ReportBroken.
	ReportCount(id string, count int64)
}

// ScopedAPI prefixes every id with a namespace, `ao3` turns `work.load` into
// `ao3: work.load`.
type ScopedAPI struct {
	namespace string
	inner     API
}

func NewScopedAPI(namespace string, inner API) ScopedAPI {
	assert.NotEmptyStr(namespace)
	assert.NotNil(inner)
	return ScopedAPI{namespace: namespace, inner: inner}
}

func (s ScopedAPI) scope(id string) string {
	return fmt.Sprintf("%s: %s", s.namespace, id)
}

func (s ScopedAPI) ReportBroken(id string, params ...any) {
	s.inner.ReportBroken(s.scope(id), params...)
}

func (s ScopedAPI) ReportWarning(id string, params ...any) {
	s.inner.ReportWarning(s.scope(id), params...)
}

func (s ScopedAPI) ReportDebug(msg string, params ...any) {
	s.inner.ReportDebug(s.scope(msg), params...)
}

func (s ScopedAPI) ReportCount(id string, count int64) {
	s.inner.ReportCount(s.scope(id), count)
}

// MeteredAPI forwards every report to inner and records broken and warning reports
// on the `telemetry.reports` counter, counts go to the `telemetry.count` gauge.
// Both carry the report id as the `id` attribute.
type MeteredAPI struct {
	inner   API
	reports metric.Int64Counter
	counts  metric.Int64Gauge
}

func NewMeteredAPI(meter metric.Meter, inner API) (MeteredAPI, error) {
	reports, err := meter.Int64Counter(
		"telemetry.reports",
		metric.WithDescription("broken and warning reports by component"),
	)
	if err != nil {
		return MeteredAPI{}, err
	}
	counts, err := meter.Int64Gauge("telemetry.count")
	if err != nil {
		return MeteredAPI{}, err
	}
	return MeteredAPI{inner: inner, reports: reports, counts: counts}, nil
}

func (m MeteredAPI) ReportBroken(id string, params ...any) {
	m.reports.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("kind", "broken"),
		attribute.String("id", id),
	))
	m.inner.ReportBroken(id, params...)
}

func (m MeteredAPI) ReportWarning(id string, params ...any) {
	m.reports.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("kind", "warning"),
		attribute.String("id", id),
	))
	m.inner.ReportWarning(id, params...)
}

func (m MeteredAPI) ReportDebug(msg string, params ...any) {
	m.inner.ReportDebug(msg, params...)
}

func (m MeteredAPI) ReportCount(id string, count int64) {
	m.counts.Record(context.Background(), count, metric.WithAttributes(attribute.String("id", id)))
	m.inner.ReportCount(id, count)
}
