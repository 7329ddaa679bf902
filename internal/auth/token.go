package auth

import (
	"errors"
	"strconv"
	"time"

	"school-health-service/internal/user"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers malformed encoding, signature mismatch and expiry.
// Callers cannot distinguish the three - that is deliberate.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the decoded payload of a session token. It is self-contained:
// answering "who is this" never requires a user lookup, only the session
// store cross-check for revocation.
type Claims struct {
	jwt.RegisteredClaims
	UserID int       `json:"userId"`
	Email  string    `json:"email"`
	Role   user.Role `json:"role"`
}

// TokenCodec signs and verifies HS256 session tokens.
type TokenCodec struct {
	secret []byte
	now    func() time.Time
}

func NewTokenCodec(secret string) *TokenCodec {
	return &TokenCodec{
		secret: []byte(secret),
		now:    time.Now,
	}
}

// Issue signs a token for u expiring after ttl.
func (c *TokenCodec) Issue(u *user.User, ttl time.Duration) (string, error) {
	now := c.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(u.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: u.ID,
		Email:  u.Email,
		Role:   u.Role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// Verify parses tokenString and returns its claims.
// Any failure collapses to ErrInvalidToken.
func (c *TokenCodec) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(_ *jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return c.now() }),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == 0 {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
