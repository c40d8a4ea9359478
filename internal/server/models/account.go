package models

import "time"

// Account is the credential record for a platform user.
//
// Password is a transient plaintext field populated only on writes;
// repositories hash it into HashedPassword and never persist or log it.
// RefreshToken holds the single currently-valid refresh token; rotation
// fully replaces it and logout clears it.
type Account struct {
	ID             string
	Username       string
	Email          string
	FullName       string
	Password       string
	HashedPassword string
	AvatarURL      string
	CoverImageURL  string
	RefreshToken   string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SanitizedAccount is the only account projection ever returned to a client:
// no password digest, no refresh token.
type SanitizedAccount struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	FullName      string    `json:"fullName"`
	AvatarURL     string    `json:"avatarUrl"`
	CoverImageURL string    `json:"coverImageUrl,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Sanitized strips credential and session secrets from the account.
func (a *Account) Sanitized() *SanitizedAccount {
	return &SanitizedAccount{
		ID:            a.ID,
		Username:      a.Username,
		Email:         a.Email,
		FullName:      a.FullName,
		AvatarURL:     a.AvatarURL,
		CoverImageURL: a.CoverImageURL,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}
