package service

import (
	"context"
	"crypto/subtle"
	"time"

	"hotspot-fulfillment/internal/core/ports"
	"hotspot-fulfillment/pkg/apperror"

	"github.com/rs/zerolog"
)

// OperatorAuthService implements ports.AuthService against the single
// operator account defined in configuration. There is no user table;
// the surrounding application owns account management.
type OperatorAuthService struct {
	username     string
	passwordHash string
	hashSvc      ports.HashService
	tokenSvc     ports.TokenService
	log          zerolog.Logger
}

// NewOperatorAuthService creates a new OperatorAuthService.
func NewOperatorAuthService(
	username string,
	passwordHash string,
	hashSvc ports.HashService,
	tokenSvc ports.TokenService,
	log zerolog.Logger,
) *OperatorAuthService {
	return &OperatorAuthService{
		username:     username,
		passwordHash: passwordHash,
		hashSvc:      hashSvc,
		tokenSvc:     tokenSvc,
		log:          log,
	}
}

// Login verifies the operator credentials and issues a session token.
func (s *OperatorAuthService) Login(ctx context.Context, username, password string) (string, time.Time, error) {
	if s.username == "" || s.passwordHash == "" {
		s.log.Error().Msg("operator credentials are not configured")
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}

	usernameMatch := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1

	// Verify runs regardless of the username outcome to keep timing
	// uniform between unknown-user and wrong-password failures.
	passwordMatch, err := s.hashSvc.Verify(password, s.passwordHash)
	if err != nil {
		s.log.Error().Err(err).Msg("operator password hash is malformed")
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}
	if !usernameMatch || !passwordMatch {
		s.log.Warn().Str("username", username).Msg("operator login rejected")
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}

	token, expiresAt, err := s.tokenSvc.Generate(s.username)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(err)
	}

	s.log.Info().Str("username", s.username).Msg("operator logged in")
	return token, expiresAt, nil
}
