package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"unicode"

	"github.com/clipstream/clipstream/internal/common"
	"github.com/clipstream/clipstream/internal/filex"
	"github.com/clipstream/clipstream/internal/logging"
	"github.com/clipstream/clipstream/internal/server/models"
	"github.com/clipstream/clipstream/internal/server/repositories/repomanager"
	"github.com/clipstream/clipstream/internal/server/storage"
)

const minPasswordLength = 8

const passwordSymbols = "!@#$%^&*()-_=+[]{};:,.<>?"

// RegisterRequest carries the signup form. AvatarPath and CoverImagePath
// point at staged local files the transport layer already wrote to disk;
// registration owns their cleanup from here on.
type RegisterRequest struct {
	Username       string
	Email          string
	FullName       string
	Password       string
	AvatarPath     string
	CoverImagePath string
}

// RegistrationService validates signups, uploads profile media, and creates
// the account. Staged files never outlive the call: they are uploaded (which
// consumes them) or removed, on every exit path.
type RegistrationService struct {
	db       *sql.DB
	repos    repomanager.RepositoryManager
	uploader storage.Uploader
	logger   logging.Logger
}

func NewRegistrationService(db *sql.DB, repos repomanager.RepositoryManager,
	uploader storage.Uploader, logger logging.Logger) *RegistrationService {
	return &RegistrationService{db: db, repos: repos, uploader: uploader, logger: logger}
}

// Register runs the signup workflow. Checks run in a fixed order so a client
// always sees the earliest applicable failure: required fields, email shape,
// password policy, email uniqueness, username uniqueness, avatar presence.
// Only then is media uploaded and the account created. The avatar is
// mandatory and its upload failure aborts registration; the cover image is
// optional and its upload failure only logs a warning.
func (s *RegistrationService) Register(ctx context.Context, req *RegisterRequest) (*models.SanitizedAccount, error) {
	defer s.releaseStaged(ctx, req)

	if missing := missingFields(req); len(missing) > 0 {
		return nil, common.E(common.ErrValidation, "missing required fields", missing...)
	}
	if !strings.Contains(req.Email, "@") {
		return nil, common.E(common.ErrValidation, "invalid email address")
	}
	if problems := checkPasswordPolicy(req.Password); len(problems) > 0 {
		return nil, common.E(common.ErrValidation, "password does not meet requirements", problems...)
	}

	username := strings.ToLower(strings.TrimSpace(req.Username))
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if err := s.checkAvailable(ctx, email, "an account with this email already exists"); err != nil {
		return nil, err
	}
	if err := s.checkAvailable(ctx, username, "this username is already taken"); err != nil {
		return nil, err
	}

	if req.AvatarPath == "" {
		return nil, common.E(common.ErrValidation, "avatar image is required")
	}

	avatarURL, err := s.uploader.Upload(ctx, req.AvatarPath)
	req.AvatarPath = ""
	if err != nil || avatarURL == "" {
		s.logger.Error(ctx, "avatar upload failed", "error", err)
		return nil, common.E(common.ErrUpload, "avatar upload failed")
	}

	var coverImageURL string
	if req.CoverImagePath != "" {
		coverImageURL, err = s.uploader.Upload(ctx, req.CoverImagePath)
		req.CoverImagePath = ""
		if err != nil {
			s.logger.Warn(ctx, "cover image upload failed, proceeding without it", "error", err)
			coverImageURL = ""
		}
	}

	account := &models.Account{
		Username:      username,
		Email:         email,
		FullName:      strings.TrimSpace(req.FullName),
		Password:      req.Password,
		AvatarURL:     avatarURL,
		CoverImageURL: coverImageURL,
	}

	created, err := s.repos.Accounts(s.db).Create(ctx, account)
	if err != nil {
		if errors.Is(err, common.ErrDuplicate) {
			return nil, common.E(common.ErrDuplicate, "username or email already exists")
		}
		s.logger.Error(ctx, "creating account failed", "error", err)
		return nil, common.ErrInternal
	}

	return created.Sanitized(), nil
}

// checkAvailable returns ErrDuplicate with the given message when identifier
// resolves to an existing account. A concurrent signup slipping past this
// pre-check is caught by the database unique constraint in Create.
func (s *RegistrationService) checkAvailable(ctx context.Context, identifier, message string) error {
	_, err := s.repos.Accounts(s.db).GetByEmailOrUsername(ctx, identifier)
	switch {
	case err == nil:
		return common.E(common.ErrDuplicate, message)
	case errors.Is(err, common.ErrNotFound):
		return nil
	default:
		s.logger.Error(ctx, "uniqueness check failed", "error", err)
		return common.ErrInternal
	}
}

// releaseStaged removes any staged files the workflow has not consumed.
// Upload removes its input itself, so paths are blanked after each upload
// and whatever remains here belongs to an aborted registration.
func (s *RegistrationService) releaseStaged(ctx context.Context, req *RegisterRequest) {
	for _, path := range []string{req.AvatarPath, req.CoverImagePath} {
		if err := filex.RemoveIfExists(path); err != nil {
			s.logger.Warn(ctx, "removing staged file failed", "path", path, "error", err)
		}
	}
}

func missingFields(req *RegisterRequest) []string {
	var missing []string
	if strings.TrimSpace(req.Username) == "" {
		missing = append(missing, "username")
	}
	if strings.TrimSpace(req.Email) == "" {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(req.FullName) == "" {
		missing = append(missing, "fullName")
	}
	if req.Password == "" {
		missing = append(missing, "password")
	}
	return missing
}

func checkPasswordPolicy(password string) []string {
	var problems []string
	if len(password) < minPasswordLength {
		problems = append(problems, "must be at least 8 characters long")
	}

	var hasDigit, hasLower, hasUpper, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case strings.ContainsRune(passwordSymbols, r):
			hasSymbol = true
		}
	}
	if !hasDigit {
		problems = append(problems, "must contain a digit")
	}
	if !hasLower {
		problems = append(problems, "must contain a lowercase letter")
	}
	if !hasUpper {
		problems = append(problems, "must contain an uppercase letter")
	}
	if !hasSymbol {
		problems = append(problems, "must contain a symbol")
	}
	return problems
}
