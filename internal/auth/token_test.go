package auth

import (
	"testing"
	"time"

	"school-health-service/internal/user"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testUser() *user.User {
	return &user.User{
		ID:    7,
		Email: "teacher@school.test",
		Role:  user.RoleTeacher,
	}
}

func TestTokenCodec_RoundTrip(t *testing.T) {
	codec := NewTokenCodec("test-secret")

	token, err := codec.Issue(testUser(), time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := codec.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, 7, claims.UserID)
	assert.Equal(t, "teacher@school.test", claims.Email)
	assert.Equal(t, user.RoleTeacher, claims.Role)
	assert.Equal(t, "7", claims.Subject)
}

func TestTokenCodec_WrongSecret(t *testing.T) {
	token, err := NewTokenCodec("secret-a").Issue(testUser(), time.Hour)
	require.NoError(t, err)

	claims, err := NewTokenCodec("secret-b").Verify(token)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenCodec_Tampered(t *testing.T) {
	codec := NewTokenCodec("test-secret")
	token, err := codec.Issue(testUser(), time.Hour)
	require.NoError(t, err)

	tampered := token[:len(token)-2] + "xx"
	_, err = codec.Verify(tampered)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenCodec_Garbage(t *testing.T) {
	codec := NewTokenCodec("test-secret")

	for _, tok := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := codec.Verify(tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	}
}

func TestTokenCodec_Expired(t *testing.T) {
	codec := NewTokenCodec("test-secret")

	issued := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	codec.now = func() time.Time { return issued }

	token, err := codec.Issue(testUser(), time.Hour)
	require.NoError(t, err)

	// Still valid just before expiry
	codec.now = func() time.Time { return issued.Add(59 * time.Minute) }
	_, err = codec.Verify(token)
	assert.NoError(t, err)

	// Rejected once the expiry claim has passed
	codec.now = func() time.Time { return issued.Add(2 * time.Hour) }
	_, err = codec.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenCodec_RejectsAlgNone(t *testing.T) {
	codec := NewTokenCodec("test-secret")

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 7})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = codec.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
