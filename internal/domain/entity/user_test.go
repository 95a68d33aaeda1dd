package entity

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validUser() *User {
	return &User{
		FullName:  "Jane Example",
		Email:     "jane@example.com",
		Gender:    GenderFemale,
		Phone:     "5551234567",
		BirthDate: time.Now().AddDate(-30, 0, 0),
	}
}

func TestValidateAcceptsValidUser(t *testing.T) {
	u := validUser()
	u.Normalize()
	require.NoError(t, u.Validate())
}

func TestNormalizeLowercasesAndTrimsEmail(t *testing.T) {
	u := validUser()
	u.Email = "  Jane@Example.COM "
	u.FullName = "  Jane Example  "
	u.Normalize()

	assert.Equal(t, "jane@example.com", u.Email)
	assert.Equal(t, "Jane Example", u.FullName)
}

func TestValidateNameLength(t *testing.T) {
	u := validUser()
	u.FullName = "ab"
	u.Normalize()
	assert.ErrorIs(t, u.Validate(), ErrNameLength)

	u.FullName = strings.Repeat("a", 101)
	assert.ErrorIs(t, u.Validate(), ErrNameLength)

	u.FullName = "abc"
	assert.NoError(t, u.Validate())
}

func TestValidateEmailPattern(t *testing.T) {
	for _, bad := range []string{"", "not-an-email", "a@b", "a b@c.com"} {
		u := validUser()
		u.Email = bad
		u.Normalize()
		assert.ErrorIs(t, u.Validate(), ErrInvalidEmail, "email %q", bad)
	}
}

func TestValidateGenderEnum(t *testing.T) {
	u := validUser()
	u.Gender = Gender("other")
	u.Normalize()
	assert.ErrorIs(t, u.Validate(), ErrInvalidGender)
}

func TestValidatePhoneDigits(t *testing.T) {
	cases := map[string]bool{
		"123456789":       true,  // 9 digits
		"123456789012345": true,  // 15 digits
		"12345678":        false, // too short
		"1234567890123456": false,
		"555-123-4567":     false,
		"+5551234567":      false,
	}
	for phone, ok := range cases {
		u := validUser()
		u.Phone = phone
		u.Normalize()
		err := u.Validate()
		if ok {
			assert.NoError(t, err, "phone %q", phone)
		} else {
			assert.ErrorIs(t, err, ErrInvalidPhone, "phone %q", phone)
		}
	}
}

func TestValidateAgeBoundaries(t *testing.T) {
	now := time.Now()

	// Exactly 18 today is accepted.
	u := validUser()
	u.BirthDate = now.AddDate(-18, 0, 0)
	require.NoError(t, u.Validate())

	// 18 tomorrow (still 17) is rejected.
	u.BirthDate = now.AddDate(-18, 0, 1)
	assert.ErrorIs(t, u.Validate(), ErrInvalidAge)

	// 150 is accepted, 151 is rejected.
	u.BirthDate = now.AddDate(-150, 0, 0)
	assert.NoError(t, u.Validate())
	u.BirthDate = now.AddDate(-151, 0, 0)
	assert.ErrorIs(t, u.Validate(), ErrInvalidAge)
}

func TestAgeAt(t *testing.T) {
	birth := time.Date(1990, time.June, 15, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 29, AgeAt(birth, time.Date(2020, time.June, 14, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 30, AgeAt(birth, time.Date(2020, time.June, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 30, AgeAt(birth, time.Date(2020, time.December, 1, 0, 0, 0, 0, time.UTC)))
}

func TestSetPasswordHashesOnce(t *testing.T) {
	u := validUser()
	require.NoError(t, u.SetPassword("secret123"))
	first := u.PasswordHash

	require.NotEqual(t, "secret123", first)
	assert.True(t, u.CheckPassword("secret123"))
	assert.False(t, u.CheckPassword("wrong"))

	// Profile mutations must not touch the stored hash.
	u.Apply(ProfileChanges{Phone: "999888777"})
	assert.Equal(t, first, u.PasswordHash)
}

func TestSetPasswordRejectsShort(t *testing.T) {
	u := validUser()
	assert.ErrorIs(t, u.SetPassword("12345"), ErrPasswordTooWeak)
	assert.Empty(t, u.PasswordHash)
}

func TestApplyPartialUpdate(t *testing.T) {
	u := validUser()
	orig := *u

	changed := u.Apply(ProfileChanges{Phone: "5559876543"})

	assert.True(t, changed)
	assert.Equal(t, "5559876543", u.Phone)
	assert.Equal(t, orig.FullName, u.FullName)
	assert.Equal(t, orig.Email, u.Email)
	assert.Equal(t, orig.Gender, u.Gender)
	assert.True(t, orig.BirthDate.Equal(u.BirthDate))
}

func TestApplyNoChanges(t *testing.T) {
	u := validUser()
	assert.False(t, u.Apply(ProfileChanges{}))
}

func TestPasswordHashNeverSerializes(t *testing.T) {
	u := validUser()
	require.NoError(t, u.SetPassword("secret123"))

	b, err := json.Marshal(u)
	require.NoError(t, err)
	assert.NotContains(t, string(b), u.PasswordHash)
	assert.NotContains(t, string(b), "password")

	pb, err := json.Marshal(u.Public())
	require.NoError(t, err)
	assert.NotContains(t, string(pb), u.PasswordHash)
}
