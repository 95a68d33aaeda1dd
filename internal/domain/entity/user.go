package entity

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"authapi/pkg/helpers"
)

// Gender is a closed enum; extend by adding constants and updating Valid.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale:
		return true
	}
	return false
}

const (
	MinAge = 18
	MaxAge = 150
)

var (
	emailPattern = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,3})+$`)
	phonePattern = regexp.MustCompile(`^[0-9]{9,15}$`)
)

var (
	ErrNameLength      = errors.New("full name must be between 3 and 100 characters")
	ErrInvalidEmail    = errors.New("email is not valid")
	ErrInvalidGender   = errors.New("gender must be one of: male, female")
	ErrInvalidPhone    = errors.New("phone must contain 9 to 15 digits")
	ErrInvalidAge      = errors.New("age must be between 18 and 150 years")
	ErrMissingBirth    = errors.New("birth date is required")
	ErrPasswordTooWeak = errors.New("password must be at least 6 characters")
)

// User is the aggregate root for the credential domain.
// PasswordHash holds a bcrypt hash and is only ever written through
// SetPassword; it never serializes and is absent from Public projections.
type User struct {
	ID           string    `json:"id"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Gender       Gender    `json:"gender"`
	Phone        string    `json:"phone"`
	BirthDate    time.Time `json:"birth_date"`
	AvatarURL    string    `json:"avatar_url"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PublicUser is the public-safe projection sent in response bodies.
type PublicUser struct {
	ID        string    `json:"id"`
	FullName  string    `json:"fullName"`
	Email     string    `json:"email"`
	Gender    Gender    `json:"gender"`
	Phone     string    `json:"phone"`
	BirthDate string    `json:"birthDate"`
	AvatarURL string    `json:"avatarUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Public returns the hash-free projection.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		FullName:  u.FullName,
		Email:     u.Email,
		Gender:    u.Gender,
		Phone:     u.Phone,
		BirthDate: u.BirthDate.Format("2006-01-02"),
		AvatarURL: u.AvatarURL,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// Normalize trims name/phone and lowercases the email. Emails are stored
// lowercased so the store-level uniqueness check is case-insensitive.
func (u *User) Normalize() {
	u.FullName = strings.TrimSpace(u.FullName)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.Phone = strings.TrimSpace(u.Phone)
}

// Validate checks every field invariant. Callers are expected to have run
// Normalize first; it runs on creation and on every mutation.
func (u *User) Validate() error {
	if n := len(u.FullName); n < 3 || n > 100 {
		return ErrNameLength
	}
	if !emailPattern.MatchString(u.Email) {
		return ErrInvalidEmail
	}
	if !u.Gender.Valid() {
		return ErrInvalidGender
	}
	if !phonePattern.MatchString(u.Phone) {
		return ErrInvalidPhone
	}
	if u.BirthDate.IsZero() {
		return ErrMissingBirth
	}
	if age := AgeAt(u.BirthDate, time.Now()); age < MinAge || age > MaxAge {
		return ErrInvalidAge
	}
	return nil
}

// SetPassword hashes plain and stores the result. This is the only write
// path for PasswordHash: profile mutations leave the hash untouched, so an
// already-hashed value can never be hashed again.
func (u *User) SetPassword(plain string) error {
	if len(plain) < 6 {
		return ErrPasswordTooWeak
	}
	hash, err := helpers.HashPassword(plain)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

// CheckPassword reports whether plain matches the stored hash.
// A mismatch is a normal false, never an error.
func (u *User) CheckPassword(plain string) bool {
	return helpers.CompareHashAndPassword(u.PasswordHash, plain)
}

// ProfileChanges carries a partial profile update. Zero values mean
// "keep the stored value"; there is no way to blank a field through it.
type ProfileChanges struct {
	FullName  string
	Email     string
	Gender    Gender
	Phone     string
	BirthDate time.Time
}

// Apply replaces each field for which a value is present and reports
// whether anything changed.
func (u *User) Apply(in ProfileChanges) bool {
	changed := false
	if in.FullName != "" && in.FullName != u.FullName {
		u.FullName = in.FullName
		changed = true
	}
	if in.Email != "" && !strings.EqualFold(in.Email, u.Email) {
		u.Email = in.Email
		changed = true
	}
	if in.Gender != "" && in.Gender != u.Gender {
		u.Gender = in.Gender
		changed = true
	}
	if in.Phone != "" && in.Phone != u.Phone {
		u.Phone = in.Phone
		changed = true
	}
	if !in.BirthDate.IsZero() && !in.BirthDate.Equal(u.BirthDate) {
		u.BirthDate = in.BirthDate
		changed = true
	}
	return changed
}

// AgeAt computes full calendar years between birth and at, adjusting for
// whether the anniversary has occurred yet.
func AgeAt(birth, at time.Time) int {
	years := at.Year() - birth.Year()
	if birth.AddDate(years, 0, 0).After(at) {
		years--
	}
	return years
}
