package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTer(now time.Time) *JWTer {
	return &JWTer{
		Secret: []byte("test-secret"),
		Issuer: "taskboard-test",
		TTL:    8 * time.Hour,
		Now:    func() time.Time { return now },
	}
}

func TestIssueAndParse(t *testing.T) {
	now := time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)
	j := newTestJWTer(now)

	tok, exp, err := j.Issue("acc-1", "admin")
	require.NoError(t, err)
	assert.Equal(t, now.Add(8*time.Hour), exp)

	c, err := j.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "acc-1", c.UID)
	assert.Equal(t, "admin", c.Role)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, "taskboard-test", c.Issuer)
}

func TestParseRejectsExpired(t *testing.T) {
	now := time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)
	j := newTestJWTer(now)
	tok, _, err := j.Issue("acc-1", "user")
	require.NoError(t, err)

	later := newTestJWTer(now.Add(8*time.Hour + time.Second))
	_, err = later.Parse(tok)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestParseRejectsForeignTokens(t *testing.T) {
	now := time.Now()
	j := newTestJWTer(now)

	other := newTestJWTer(now)
	other.Secret = []byte("other-secret")
	forged, _, err := other.Issue("acc-1", "admin")
	require.NoError(t, err)

	wrongIssuer := newTestJWTer(now)
	wrongIssuer.Issuer = "someone-else"
	foreign, _, err := wrongIssuer.Issue("acc-1", "user")
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		UID: "acc-1", Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.Issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	hs512 := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		UID: "acc-1", Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.Issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	})
	otherAlg, err := hs512.SignedString(j.Secret)
	require.NoError(t, err)

	noExp := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UID: "acc-1", Role: "user",
		RegisteredClaims: jwt.RegisteredClaims{Issuer: j.Issuer},
	})
	eternal, err := noExp.SignedString(j.Secret)
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"garbage":       "not.a.jwt",
		"empty":         "",
		"wrong secret":  forged,
		"wrong issuer":  foreign,
		"alg none":      unsigned,
		"alg HS512":     otherAlg,
		"no expiration": eternal,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := j.Parse(tok)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
