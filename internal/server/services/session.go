// Package services implements the application-level workflows of the account
// backend: session lifecycle, registration, and channel profiles.
package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/clipstream/clipstream/internal/common"
	"github.com/clipstream/clipstream/internal/dbx"
	"github.com/clipstream/clipstream/internal/logging"
	"github.com/clipstream/clipstream/internal/server/auth"
	"github.com/clipstream/clipstream/internal/server/config"
	"github.com/clipstream/clipstream/internal/server/models"
	"github.com/clipstream/clipstream/internal/server/repositories/repomanager"
)

// Cookie names under which the transport layer carries session tokens.
const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

// TokenPair is an access/refresh token couple issued together.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// SessionCookie describes a cookie the transport layer should set. MaxAge is
// in seconds; a negative value instructs the client to drop the cookie.
type SessionCookie struct {
	Name     string
	Value    string
	MaxAge   int
	HTTPOnly bool
	Secure   bool
}

// Session is the result of a successful login or refresh: the sanitized
// account, the fresh token pair, and the cookies that carry it.
type Session struct {
	Account *models.SanitizedAccount
	Tokens  TokenPair
	Cookies []SessionCookie
}

// SessionService drives the session state machine. A login stores the issued
// refresh token on the account; a refresh rotates it; a logout clears it.
// At most one refresh token is valid per account at any time.
type SessionService struct {
	db         *sql.DB
	repos      repomanager.RepositoryManager
	tokens     *auth.TokenService
	hasher     auth.PasswordHasher
	logger     logging.Logger
	accessTTL  int
	refreshTTL int
}

func NewSessionService(db *sql.DB, repos repomanager.RepositoryManager, tokens *auth.TokenService,
	hasher auth.PasswordHasher, cfg *config.Config, logger logging.Logger) *SessionService {
	return &SessionService{
		db:         db,
		repos:      repos,
		tokens:     tokens,
		hasher:     hasher,
		logger:     logger,
		accessTTL:  int(cfg.AccessTokenValidityDuration.Seconds()),
		refreshTTL: int(cfg.RefreshTokenValidityDuration.Seconds()),
	}
}

// Login verifies the identifier/password pair and opens a session. The
// identifier matches either username or email, case-insensitively.
func (s *SessionService) Login(ctx context.Context, identifier, password string) (*Session, error) {
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	if identifier == "" || password == "" {
		return nil, common.E(common.ErrValidation, "identifier and password are required")
	}

	account, err := s.repos.Accounts(s.db).GetByEmailOrUsername(ctx, identifier)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.E(common.ErrNotFound, "account not found")
		}
		s.logger.Error(ctx, "login lookup failed", "error", err)
		return nil, common.ErrInternal
	}

	if !s.hasher.Verify(password, account.HashedPassword) {
		return nil, common.E(common.ErrInvalidCredentials, "invalid credentials")
	}

	return s.openSession(ctx, account)
}

// Refresh exchanges a valid refresh token for a new token pair, rotating the
// stored token. The presented token must verify cryptographically AND match
// the value stored on the account; a rotated-away or logged-out token fails
// the second check even while its signature is still valid.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, common.E(common.ErrInvalidToken, "refresh token is required")
	}

	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	account, err := s.repos.Accounts(s.db).GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.E(common.ErrNotFound, "account no longer exists")
		}
		s.logger.Error(ctx, "refresh lookup failed", "error", err)
		return nil, common.ErrInternal
	}

	if account.RefreshToken != refreshToken {
		return nil, common.E(common.ErrTokenMismatch, "refresh token has been superseded")
	}

	accessToken, err := s.tokens.IssueAccessToken(account)
	if err != nil {
		s.logger.Error(ctx, "issuing access token failed", "error", err)
		return nil, common.ErrInternal
	}
	nextRefreshToken, err := s.tokens.IssueRefreshToken(account)
	if err != nil {
		s.logger.Error(ctx, "issuing refresh token failed", "error", err)
		return nil, common.ErrInternal
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repos.Accounts(tx).SwapRefreshToken(ctx, account.ID, refreshToken, nextRefreshToken)
	})
	if err != nil {
		if errors.Is(err, common.ErrTokenMismatch) {
			return nil, common.E(common.ErrTokenMismatch, "refresh token has been superseded")
		}
		s.logger.Error(ctx, "rotating refresh token failed", "error", err)
		return nil, common.ErrInternal
	}

	pair := TokenPair{AccessToken: accessToken, RefreshToken: nextRefreshToken}
	return &Session{
		Account: account.Sanitized(),
		Tokens:  pair,
		Cookies: s.sessionCookies(pair),
	}, nil
}

// Logout clears the account's stored refresh token and returns the cookies
// that expire the client's copies. Logging out an already-deleted account is
// not an error; logout is idempotent.
func (s *SessionService) Logout(ctx context.Context, accountID string) ([]SessionCookie, error) {
	err := s.repos.Accounts(s.db).UpdateRefreshToken(ctx, accountID, "")
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		s.logger.Error(ctx, "clearing refresh token failed", "error", err)
		return nil, common.ErrInternal
	}
	return clearedSessionCookies(), nil
}

// Authenticate validates an access token and returns its claims. It is the
// entry point protected endpoints use to resolve the caller's identity.
func (s *SessionService) Authenticate(accessToken string) (*auth.AccessClaims, error) {
	if accessToken == "" {
		return nil, common.E(common.ErrInvalidToken, "access token is required")
	}
	return s.tokens.VerifyAccessToken(accessToken)
}

func (s *SessionService) openSession(ctx context.Context, account *models.Account) (*Session, error) {
	accessToken, err := s.tokens.IssueAccessToken(account)
	if err != nil {
		s.logger.Error(ctx, "issuing access token failed", "error", err)
		return nil, common.ErrInternal
	}
	refreshToken, err := s.tokens.IssueRefreshToken(account)
	if err != nil {
		s.logger.Error(ctx, "issuing refresh token failed", "error", err)
		return nil, common.ErrInternal
	}

	if err := s.repos.Accounts(s.db).UpdateRefreshToken(ctx, account.ID, refreshToken); err != nil {
		s.logger.Error(ctx, "storing refresh token failed", "error", err)
		return nil, common.ErrInternal
	}

	pair := TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}
	return &Session{
		Account: account.Sanitized(),
		Tokens:  pair,
		Cookies: s.sessionCookies(pair),
	}, nil
}

func (s *SessionService) sessionCookies(pair TokenPair) []SessionCookie {
	return []SessionCookie{
		{Name: AccessTokenCookie, Value: pair.AccessToken, MaxAge: s.accessTTL, HTTPOnly: true, Secure: true},
		{Name: RefreshTokenCookie, Value: pair.RefreshToken, MaxAge: s.refreshTTL, HTTPOnly: true, Secure: true},
	}
}

func clearedSessionCookies() []SessionCookie {
	return []SessionCookie{
		{Name: AccessTokenCookie, Value: "", MaxAge: -1, HTTPOnly: true, Secure: true},
		{Name: RefreshTokenCookie, Value: "", MaxAge: -1, HTTPOnly: true, Secure: true},
	}
}
