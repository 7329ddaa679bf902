package student

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"school-health-service/internal/auth"
	"school-health-service/internal/authz"
	"school-health-service/internal/messaging"
	"school-health-service/internal/user"
)

var ErrInvalidInput = errors.New("invalid input")

// Service is the policy-scoped student surface. Every read and write runs
// through the authz resolver before it touches the repository.
type Service interface {
	List(ctx context.Context, claims *auth.Claims) ([]Student, error)
	Get(ctx context.Context, claims *auth.Claims, id int) (*Student, error)
	Create(ctx context.Context, claims *auth.Claims, student *Student) (*Student, error)
	Update(ctx context.Context, claims *auth.Claims, student *Student) error
	Deactivate(ctx context.Context, claims *auth.Claims, id int) error
	HardDelete(ctx context.Context, claims *auth.Claims, id int) error
	Statistics(ctx context.Context, claims *auth.Claims, schoolType user.SchoolType) (*Statistics, error)
}

type service struct {
	repo      Repository
	resolver  *authz.Resolver
	logger    *slog.Logger
	publisher messaging.Producer
}

func NewService(repo Repository, resolver *authz.Resolver, logger *slog.Logger, publisher messaging.Producer) Service {
	return &service{
		repo:      repo,
		resolver:  resolver,
		logger:    logger,
		publisher: publisher,
	}
}

func (s *service) List(ctx context.Context, claims *auth.Claims) ([]Student, error) {
	ids, err := s.resolver.ListAuthorized(ctx, claims)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByIDs(ctx, ids)
}

func (s *service) Get(ctx context.Context, claims *auth.Claims, id int) (*Student, error) {
	if id <= 0 {
		return nil, ErrInvalidInput
	}
	if err := s.authorize(ctx, claims, id); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *service) Create(ctx context.Context, claims *auth.Claims, student *Student) (*Student, error) {
	if !knownRole(claims.Role) {
		return nil, authz.ErrForbidden
	}
	student.IsActive = true

	created, err := s.repo.Create(ctx, student)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, messaging.Event{Type: messaging.EventStudentCreated, UserID: claims.UserID, StudentID: created.ID})
	return created, nil
}

func (s *service) Update(ctx context.Context, claims *auth.Claims, student *Student) error {
	if student.ID <= 0 {
		return ErrInvalidInput
	}
	if err := s.authorize(ctx, claims, student.ID); err != nil {
		return err
	}
	return s.repo.Update(ctx, student)
}

func (s *service) Deactivate(ctx context.Context, claims *auth.Claims, id int) error {
	if id <= 0 {
		return ErrInvalidInput
	}
	if err := s.authorize(ctx, claims, id); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return err
	}

	s.publish(ctx, messaging.Event{Type: messaging.EventStudentDeactivated, UserID: claims.UserID, StudentID: id})
	return nil
}

// HardDelete permanently removes a student record. Admin only; everyone
// else deactivates.
func (s *service) HardDelete(ctx context.Context, claims *auth.Claims, id int) error {
	if id <= 0 {
		return ErrInvalidInput
	}
	if claims.Role != user.RoleAdmin {
		return authz.ErrForbidden
	}
	return s.repo.HardDelete(ctx, id)
}

func (s *service) Statistics(ctx context.Context, claims *auth.Claims, schoolType user.SchoolType) (*Statistics, error) {
	if !knownRole(claims.Role) {
		return nil, authz.ErrForbidden
	}

	var (
		students []Student
		err      error
	)
	if schoolType != "" {
		students, err = s.repo.ListBySchoolType(ctx, schoolType)
	} else {
		students, err = s.repo.ListAll(ctx)
	}
	if err != nil {
		return nil, err
	}

	return computeStatistics(schoolType, students), nil
}

func (s *service) authorize(ctx context.Context, claims *auth.Claims, studentID int) error {
	allowed, err := s.resolver.Authorize(ctx, claims, studentID)
	if err != nil {
		return err
	}
	if !allowed {
		return authz.ErrForbidden
	}
	return nil
}

func (s *service) publish(ctx context.Context, event messaging.Event) {
	if s.publisher == nil {
		return
	}
	event.At = time.Now()
	if err := s.publisher.Publish(event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish audit event", "type", event.Type, "error", err)
	}
}

func knownRole(role user.Role) bool {
	switch role {
	case user.RoleAdmin, user.RoleTeacher, user.RoleHealthTeacher:
		return true
	}
	return false
}

func computeStatistics(schoolType user.SchoolType, students []Student) *Statistics {
	stats := &Statistics{
		SchoolType: "ALL",
	}
	if schoolType != "" {
		stats.SchoolType = string(schoolType)
	}

	// Elementary runs six grades, middle and high three each
	maxGrade := 3
	if schoolType == user.SchoolElementary || schoolType == "" {
		maxGrade = 6
	}
	stats.Grades = make([]GradeStatistics, maxGrade)
	for i := range stats.Grades {
		stats.Grades[i].Grade = i + 1
	}

	for _, st := range students {
		stats.Total.All++
		switch st.Gender {
		case GenderMale:
			stats.Total.Male++
		case GenderFemale:
			stats.Total.Female++
		}

		idx := st.Grade - 1
		if idx < 0 || idx >= len(stats.Grades) {
			continue
		}
		stats.Grades[idx].Total++
		switch st.Gender {
		case GenderMale:
			stats.Grades[idx].Male++
		case GenderFemale:
			stats.Grades[idx].Female++
		}
	}

	return stats
}
