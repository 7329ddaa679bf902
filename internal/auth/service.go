package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"school-health-service/internal/messaging"
	"school-health-service/internal/metrics"
	"school-health-service/internal/user"
)

var (
	// ErrInvalidCredentials is returned for an unknown email and a wrong
	// password alike, so responses cannot be used to enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailExists        = errors.New("email already exists")
	// ErrUnauthorized covers every token rejection: bad signature, expiry,
	// and tokens superseded by a newer login or removed by logout.
	ErrUnauthorized = errors.New("unauthorized")
)

// Service drives the session lifecycle: Anonymous -> Authenticated ->
// Revoked/Expired -> Anonymous.
type Service struct {
	users     user.Repository
	sessions  SessionStore
	codec     *TokenCodec
	ttl       time.Duration
	logger    *slog.Logger
	metrics   *metrics.Metrics
	publisher messaging.Producer
}

func NewService(users user.Repository, sessions SessionStore, codec *TokenCodec, ttl time.Duration, logger *slog.Logger, m *metrics.Metrics, publisher messaging.Producer) *Service {
	return &Service{
		users:     users,
		sessions:  sessions,
		codec:     codec,
		ttl:       ttl,
		logger:    logger,
		metrics:   m,
		publisher: publisher,
	}
}

// Login verifies credentials, issues a token and registers the session.
// Issuing for an already-logged-in user silently supersedes the old session.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			s.metrics.RecordLoginFailure(ctx)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !VerifyPassword(req.Password, u.Password) {
		s.metrics.RecordLoginFailure(ctx)
		return nil, ErrInvalidCredentials
	}

	token, err := s.codec.Issue(u, s.ttl)
	if err != nil {
		return nil, err
	}

	// The session must be registered before the token leaves this function.
	// An unregistered token can never pass Validate.
	if err := s.sessions.Put(ctx, u.ID, token, s.ttl); err != nil {
		return nil, err
	}

	if err := s.users.UpdateLastLogin(ctx, u.ID, time.Now()); err != nil {
		s.logger.WarnContext(ctx, "failed to update last login", "error", err)
	}

	s.metrics.RecordLogin(ctx)
	s.publish(ctx, messaging.Event{Type: messaging.EventLogin, UserID: u.ID, Email: u.Email})

	return &AuthResponse{Token: token, User: u}, nil
}

// Logout revokes the user's session. Revoking an absent session succeeds.
func (s *Service) Logout(ctx context.Context, userID int) error {
	if err := s.sessions.Delete(ctx, userID); err != nil {
		return err
	}
	s.metrics.RecordSessionRevoked(ctx)
	s.publish(ctx, messaging.Event{Type: messaging.EventLogout, UserID: userID})
	return nil
}

// Validate checks a bearer token: signature and expiry first, then the
// session store. The store check is what makes logout and the
// single-session policy effective - a signed token alone is not enough.
func (s *Service) Validate(ctx context.Context, token string) (*Claims, error) {
	claims, err := s.codec.Verify(token)
	if err != nil {
		return nil, ErrUnauthorized
	}

	live, err := s.sessions.Validate(ctx, claims.UserID, token)
	if err != nil {
		return nil, err
	}
	if !live {
		return nil, ErrUnauthorized
	}

	return claims, nil
}

// Register creates a staff account and logs it in.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	existing, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, user.ErrUserNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailExists
	}

	hashed, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	created, err := s.users.Create(ctx, &user.User{
		Name:        req.Name,
		Email:       req.Email,
		Password:    hashed,
		Role:        req.Role,
		SchoolType:  req.SchoolType,
		SchoolName:  req.SchoolName,
		PhoneNumber: req.PhoneNumber,
		IsActive:    true,
	})
	if err != nil {
		return nil, err
	}

	token, err := s.codec.Issue(created, s.ttl)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Put(ctx, created.ID, token, s.ttl); err != nil {
		return nil, err
	}

	return &AuthResponse{Token: token, User: created}, nil
}

// CurrentUser returns the sanitized account for valid claims.
func (s *Service) CurrentUser(ctx context.Context, userID int) (*user.User, error) {
	return s.users.GetByID(ctx, userID)
}

func (s *Service) publish(ctx context.Context, event messaging.Event) {
	if s.publisher == nil {
		return
	}
	event.At = time.Now()
	if err := s.publisher.Publish(event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish audit event", "type", event.Type, "error", err)
	}
}
