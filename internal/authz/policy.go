// Package authz is the single decision point for student data access.
// Every handler that touches student records asks the Resolver; role checks
// do not live anywhere else.
package authz

import (
	"context"
	"errors"
	"log/slog"

	"time"

	"school-health-service/internal/auth"
	"school-health-service/internal/messaging"
	"school-health-service/internal/metrics"
	"school-health-service/internal/user"
)

// ErrForbidden marks a valid session acting outside its scope. Handlers map
// it to 403 with a generic body.
var ErrForbidden = errors.New("forbidden")

// RelationSource is the slice of the relation store the policy needs.
type RelationSource interface {
	ExistsActiveHomeroom(ctx context.Context, teacherID, studentID, schoolYear int) (bool, error)
	ListActiveHomeroomStudentIDs(ctx context.Context, teacherID, schoolYear int) ([]int, error)
}

// StudentDirectory is the slice of the student store the policy needs.
type StudentDirectory interface {
	ListActiveIDs(ctx context.Context) ([]int, error)
	FilterActiveIDs(ctx context.Context, ids []int) ([]int, error)
}

// Resolver decides which students a principal may see or modify.
type Resolver struct {
	relations  RelationSource
	students   StudentDirectory
	schoolYear func() int
	logger     *slog.Logger
	metrics    *metrics.Metrics
	publisher  messaging.Producer
}

// NewResolver wires the policy. schoolYear is injected so the rules can be
// tested against a fixed year. publisher may be nil; denials are then only
// logged and counted.
func NewResolver(relations RelationSource, students StudentDirectory, schoolYear func() int, logger *slog.Logger, m *metrics.Metrics, publisher messaging.Producer) *Resolver {
	return &Resolver{
		relations:  relations,
		students:   students,
		schoolYear: schoolYear,
		logger:     logger,
		metrics:    m,
		publisher:  publisher,
	}
}

// Authorize reports whether the principal may access the student's records.
// Role order, first match wins:
//
//	admin          -> allow
//	health_teacher -> allow (health staff see all students school-wide)
//	teacher        -> allow iff an active homeroom relation exists for the
//	                  current school year
//	anything else  -> deny
func (r *Resolver) Authorize(ctx context.Context, claims *auth.Claims, studentID int) (bool, error) {
	switch claims.Role {
	case user.RoleAdmin, user.RoleHealthTeacher:
		return true, nil
	case user.RoleTeacher:
		allowed, err := r.relations.ExistsActiveHomeroom(ctx, claims.UserID, studentID, r.schoolYear())
		if err != nil {
			return false, err
		}
		if !allowed {
			r.deny(ctx, claims, studentID)
		}
		return allowed, nil
	default:
		r.deny(ctx, claims, studentID)
		return false, nil
	}
}

// ListAuthorized returns the ids of active students visible to the
// principal. A teacher with no current-year homeroom relations gets an
// empty list, not an error.
func (r *Resolver) ListAuthorized(ctx context.Context, claims *auth.Claims) ([]int, error) {
	switch claims.Role {
	case user.RoleAdmin, user.RoleHealthTeacher:
		return r.students.ListActiveIDs(ctx)
	case user.RoleTeacher:
		ids, err := r.relations.ListActiveHomeroomStudentIDs(ctx, claims.UserID, r.schoolYear())
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return []int{}, nil
		}
		return r.students.FilterActiveIDs(ctx, ids)
	default:
		r.deny(ctx, claims, 0)
		return []int{}, nil
	}
}

// deny records a policy denial. A denial means a legitimate session tried
// an out-of-scope action, which is worth auditing.
func (r *Resolver) deny(ctx context.Context, claims *auth.Claims, studentID int) {
	r.metrics.RecordAccessDenied(ctx)
	r.logger.WarnContext(ctx, "access denied",
		"user_id", claims.UserID,
		"role", claims.Role,
		"student_id", studentID,
	)

	if r.publisher != nil {
		event := messaging.Event{
			Type:      messaging.EventAccessDenied,
			UserID:    claims.UserID,
			StudentID: studentID,
			At:        time.Now(),
		}
		if err := r.publisher.Publish(event); err != nil {
			r.logger.WarnContext(ctx, "failed to publish audit event", "type", event.Type, "error", err)
		}
	}
}
