package metrics

import (
	"context"

	"go.opentelemetry.io/otel/metric"
)

type Metrics struct {
	logins           metric.Int64Counter
	loginFailures    metric.Int64Counter
	sessionsRevoked  metric.Int64Counter
	accessDenials    metric.Int64Counter
	studentsViewed   metric.Int64Counter
	studentsListSeen metric.Int64Counter

	Database *DatabaseMetrics
}

func New(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.logins, err = meter.Int64Counter(
		"school_health.auth.logins",
		metric.WithDescription("Total number of successful logins"),
		metric.WithUnit("{login}"),
	)
	if err != nil {
		return nil, err
	}

	m.loginFailures, err = meter.Int64Counter(
		"school_health.auth.login_failures",
		metric.WithDescription("Total number of rejected credential checks"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, err
	}

	m.sessionsRevoked, err = meter.Int64Counter(
		"school_health.auth.sessions_revoked",
		metric.WithDescription("Total number of sessions ended by logout"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, err
	}

	m.accessDenials, err = meter.Int64Counter(
		"school_health.authz.denials",
		metric.WithDescription("Total number of policy denials for authenticated principals"),
		metric.WithUnit("{denial}"),
	)
	if err != nil {
		return nil, err
	}

	m.studentsViewed, err = meter.Int64Counter(
		"school_health.students.viewed",
		metric.WithDescription("Total number of student detail views"),
		metric.WithUnit("{view}"),
	)
	if err != nil {
		return nil, err
	}

	m.studentsListSeen, err = meter.Int64Counter(
		"school_health.students.list_viewed",
		metric.WithDescription("Total number of student list views"),
		metric.WithUnit("{view}"),
	)
	if err != nil {
		return nil, err
	}

	m.Database, err = NewDatabaseMetrics(meter)
	if err != nil {
		return nil, err
	}

	return m, nil
}

func (m *Metrics) RecordLogin(ctx context.Context) {
	if m != nil && m.logins != nil {
		m.logins.Add(ctx, 1)
	}
}

func (m *Metrics) RecordLoginFailure(ctx context.Context) {
	if m != nil && m.loginFailures != nil {
		m.loginFailures.Add(ctx, 1)
	}
}

func (m *Metrics) RecordSessionRevoked(ctx context.Context) {
	if m != nil && m.sessionsRevoked != nil {
		m.sessionsRevoked.Add(ctx, 1)
	}
}

func (m *Metrics) RecordAccessDenied(ctx context.Context) {
	if m != nil && m.accessDenials != nil {
		m.accessDenials.Add(ctx, 1)
	}
}

func (m *Metrics) RecordStudentViewed(ctx context.Context) {
	if m != nil && m.studentsViewed != nil {
		m.studentsViewed.Add(ctx, 1)
	}
}

func (m *Metrics) RecordStudentsListViewed(ctx context.Context) {
	if m != nil && m.studentsListSeen != nil {
		m.studentsListSeen.Add(ctx, 1)
	}
}

// NewMock creates a no-op Metrics instance for testing
// The returned Metrics will safely ignore all Record* calls
func NewMock() *Metrics {
	return &Metrics{Database: &DatabaseMetrics{}}
}
