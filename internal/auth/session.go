package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Mayank7Bisnewar/Tenant/internal/storage"
)

// storedSession is what survives between runs.
type storedSession struct {
	Token string `json:"token"`
}

// Sessions signs the owner in and keeps the session token in local storage,
// so the next run resumes it.
type Sessions struct {
	authenticator Authenticator
	jwt           *JWTManager
	slot          *storage.Slot[storedSession]
	logger        *slog.Logger
}

// NewSessions creates a session manager.
func NewSessions(authenticator Authenticator, jwt *JWTManager, store storage.Store, logger *slog.Logger) *Sessions {
	return &Sessions{
		authenticator: authenticator,
		jwt:           jwt,
		slot: storage.NewSlot(store, storage.KeySession,
			func() storedSession { return storedSession{} },
			storage.JSONCodec[storedSession](), logger),
		logger: logger,
	}
}

// Register creates an account and signs it in.
func (s *Sessions) Register(ctx context.Context, email, displayName, password string) (*Claims, error) {
	s.logger.Info("Register request", "email", email)

	account, err := s.authenticator.Register(ctx, email, displayName, password)
	if err != nil {
		s.logger.Error("Registration failed", "email", email, "error", err)
		return nil, err
	}

	s.logger.Info("Account registered", "owner_id", account.ID)
	return s.SignIn(ctx, email, password)
}

// SignIn authenticates and stores a fresh session token.
func (s *Sessions) SignIn(ctx context.Context, email, password string) (*Claims, error) {
	account, err := s.authenticator.Authenticate(ctx, email, password)
	if err != nil {
		s.logger.Warn("Sign-in failed", "email", email, "error", err)
		return nil, err
	}

	token, err := s.jwt.Generate(account)
	if err != nil {
		return nil, err
	}
	if err := s.slot.Write(ctx, storedSession{Token: token}); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	claims, err := s.jwt.Validate(token)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Signed in", "owner_id", claims.OwnerID())
	return claims, nil
}

// Current returns the stored session. ErrMissingToken means signed out;
// an expired or tampered token is cleared and reported as ErrInvalidToken.
func (s *Sessions) Current(ctx context.Context) (*Claims, error) {
	stored := s.slot.Read(ctx)
	claims, err := s.jwt.Validate(stored.Token)
	if errors.Is(err, ErrInvalidToken) {
		s.logger.Warn("Discarding invalid session", "error", err)
		if clearErr := s.slot.Clear(ctx); clearErr != nil {
			s.logger.Error("Failed to clear session", "error", clearErr)
		}
	}
	return claims, err
}

// SignOut forgets the stored session.
func (s *Sessions) SignOut(ctx context.Context) error {
	if err := s.slot.Clear(ctx); err != nil {
		return err
	}
	s.logger.Info("Signed out")
	return nil
}
