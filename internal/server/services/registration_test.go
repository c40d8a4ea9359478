package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipstream/clipstream/internal/common"
	"github.com/clipstream/clipstream/internal/server/models"
)

// fakeUploader mimics the uploader contract: the staged file is consumed on
// every call, success or not.
type fakeUploader struct {
	urls     map[string]string
	errs     map[string]error
	uploaded []string
}

func (f *fakeUploader) Upload(ctx context.Context, localPath string) (string, error) {
	f.uploaded = append(f.uploaded, localPath)
	_ = os.Remove(localPath)
	if err := f.errs[localPath]; err != nil {
		return "", err
	}
	return f.urls[localPath], nil
}

func stageTempFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("image-bytes"), 0o600))
	return path
}

func assertRemoved(t *testing.T, path string) {
	t.Helper()
	_, err := os.Stat(path)
	assert.ErrorIs(t, err, os.ErrNotExist, "staged file %s must not outlive the call", path)
}

func newRegistrationService(t *testing.T, repo *fakeAccountsRepo, uploader *fakeUploader) *RegistrationService {
	t.Helper()
	db, _ := newSQLMockDB(t)
	rm := &fakeRepoManager{accounts: repo, subscriptions: &fakeSubscriptionsRepo{}}
	return NewRegistrationService(db, rm, uploader, nopLogger{})
}

func validRequest(t *testing.T, uploader *fakeUploader) *RegisterRequest {
	t.Helper()
	avatar := stageTempFile(t, "avatar.png")
	cover := stageTempFile(t, "cover.jpg")
	uploader.urls[avatar] = "http://127.0.0.1:9000/media/avatar.png"
	uploader.urls[cover] = "http://127.0.0.1:9000/media/cover.jpg"
	return &RegisterRequest{
		Username:       "Bob",
		Email:          "Bob@Example.com",
		FullName:       "Bob Smith",
		Password:       "Sup3r$ecret",
		AvatarPath:     avatar,
		CoverImagePath: cover,
	}
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{urls: map[string]string{}, errs: map[string]error{}}
}

func TestRegister_Success(t *testing.T) {
	repo := &fakeAccountsRepo{}
	uploader := newFakeUploader()
	svc := newRegistrationService(t, repo, uploader)
	req := validRequest(t, uploader)
	avatar, cover := req.AvatarPath, req.CoverImagePath

	account, err := svc.Register(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "bob", account.Username, "username must be lowercased")
	assert.Equal(t, "bob@example.com", account.Email, "email must be lowercased")
	assert.Equal(t, "http://127.0.0.1:9000/media/avatar.png", account.AvatarURL)
	assert.Equal(t, "http://127.0.0.1:9000/media/cover.jpg", account.CoverImageURL)
	assert.Len(t, uploader.uploaded, 2)
	assertRemoved(t, avatar)
	assertRemoved(t, cover)
}

func TestRegister_MissingFields(t *testing.T) {
	uploader := newFakeUploader()
	svc := newRegistrationService(t, &fakeAccountsRepo{}, uploader)
	avatar := stageTempFile(t, "avatar.png")

	_, err := svc.Register(context.Background(), &RegisterRequest{
		Username:   "bob",
		AvatarPath: avatar,
	})
	require.ErrorIs(t, err, common.ErrValidation)

	var e *common.Error
	require.ErrorAs(t, err, &e)
	assert.ElementsMatch(t, []string{"email", "fullName", "password"}, e.Details)

	assert.Empty(t, uploader.uploaded, "nothing may be uploaded on validation failure")
	assertRemoved(t, avatar)
}

func TestRegister_InvalidEmail(t *testing.T) {
	uploader := newFakeUploader()
	svc := newRegistrationService(t, &fakeAccountsRepo{}, uploader)
	req := validRequest(t, uploader)
	req.Email = "not-an-email"

	_, err := svc.Register(context.Background(), req)
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestRegister_PasswordPolicy(t *testing.T) {
	tests := []struct {
		name     string
		password string
		want     string
	}{
		{"too short", "aB1!", "must be at least 8 characters long"},
		{"no digit", "NoDigits$here", "must contain a digit"},
		{"no lowercase", "NOLOWER123$", "must contain a lowercase letter"},
		{"no uppercase", "noupper123$", "must contain an uppercase letter"},
		{"no symbol", "NoSymbol123", "must contain a symbol"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			uploader := newFakeUploader()
			svc := newRegistrationService(t, &fakeAccountsRepo{}, uploader)
			req := validRequest(t, uploader)
			req.Password = tc.password

			_, err := svc.Register(context.Background(), req)
			require.ErrorIs(t, err, common.ErrValidation)

			var e *common.Error
			require.ErrorAs(t, err, &e)
			assert.Contains(t, e.Details, tc.want)
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	existing := testAccount()
	existing.Email = "bob@example.com"
	uploader := newFakeUploader()
	svc := newRegistrationService(t, &fakeAccountsRepo{account: existing}, uploader)
	req := validRequest(t, uploader)
	avatar := req.AvatarPath

	_, err := svc.Register(context.Background(), req)
	assert.ErrorIs(t, err, common.ErrDuplicate)
	assert.Empty(t, uploader.uploaded)
	assertRemoved(t, avatar)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	existing := testAccount()
	existing.Username = "bob"
	uploader := newFakeUploader()
	svc := newRegistrationService(t, &fakeAccountsRepo{account: existing}, uploader)
	req := validRequest(t, uploader)

	_, err := svc.Register(context.Background(), req)
	assert.ErrorIs(t, err, common.ErrDuplicate)
}

func TestRegister_AvatarRequired(t *testing.T) {
	uploader := newFakeUploader()
	svc := newRegistrationService(t, &fakeAccountsRepo{}, uploader)
	req := validRequest(t, uploader)
	cover := req.CoverImagePath
	require.NoError(t, os.Remove(req.AvatarPath))
	req.AvatarPath = ""

	_, err := svc.Register(context.Background(), req)
	assert.ErrorIs(t, err, common.ErrValidation)
	assertRemoved(t, cover)
}

func TestRegister_AvatarUploadFailureAborts(t *testing.T) {
	repo := &fakeAccountsRepo{}
	uploader := newFakeUploader()
	svc := newRegistrationService(t, repo, uploader)
	req := validRequest(t, uploader)
	uploader.errs[req.AvatarPath] = errors.New("bucket unavailable")
	avatar, cover := req.AvatarPath, req.CoverImagePath

	_, err := svc.Register(context.Background(), req)
	assert.ErrorIs(t, err, common.ErrUpload)
	assertRemoved(t, avatar)
	assertRemoved(t, cover)
}

func TestRegister_CoverUploadFailureProceeds(t *testing.T) {
	repo := &fakeAccountsRepo{}
	uploader := newFakeUploader()
	svc := newRegistrationService(t, repo, uploader)
	req := validRequest(t, uploader)
	uploader.errs[req.CoverImagePath] = errors.New("bucket unavailable")

	account, err := svc.Register(context.Background(), req)
	require.NoError(t, err)
	assert.NotEmpty(t, account.AvatarURL)
	assert.Empty(t, account.CoverImageURL)
}

func TestRegister_CoverOptional(t *testing.T) {
	uploader := newFakeUploader()
	svc := newRegistrationService(t, &fakeAccountsRepo{}, uploader)
	req := validRequest(t, uploader)
	require.NoError(t, os.Remove(req.CoverImagePath))
	req.CoverImagePath = ""

	account, err := svc.Register(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, account.CoverImageURL)
	assert.Len(t, uploader.uploaded, 1)
}

func TestRegister_RaceLostOnCreate(t *testing.T) {
	repo := &fakeAccountsRepo{createErr: common.ErrDuplicate}
	uploader := newFakeUploader()
	svc := newRegistrationService(t, repo, uploader)
	req := validRequest(t, uploader)

	_, err := svc.Register(context.Background(), req)
	assert.ErrorIs(t, err, common.ErrDuplicate)
}

func TestRegister_SanitizedResult(t *testing.T) {
	created := &models.Account{
		ID:             "acc-9",
		Username:       "bob",
		Email:          "bob@example.com",
		FullName:       "Bob Smith",
		HashedPassword: "hashed:Sup3r$ecret",
		RefreshToken:   "should-never-surface",
	}
	repo := &fakeAccountsRepo{createOut: created}
	uploader := newFakeUploader()
	svc := newRegistrationService(t, repo, uploader)
	req := validRequest(t, uploader)

	account, err := svc.Register(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "acc-9", account.ID)
	assert.Equal(t, "bob", account.Username)
}
