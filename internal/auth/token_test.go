package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIssuerRequiresSecret(t *testing.T) {
	_, err := NewIssuer("", time.Hour)
	assert.Error(t, err)
}

func TestIssueAndParse(t *testing.T) {
	iss, err := NewIssuer("test-secret", time.Hour)
	require.NoError(t, err)

	clientID, token, err := iss.Issue()
	require.NoError(t, err)
	_, err = uuid.Parse(clientID)
	require.NoError(t, err)

	got, err := iss.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, clientID, got)
}

func TestIssueUniqueClients(t *testing.T) {
	iss, err := NewIssuer("test-secret", 0)
	require.NoError(t, err)

	a, _, err := iss.Issue()
	require.NoError(t, err)
	b, _, err := iss.Issue()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestParseRejectsOtherSecret(t *testing.T) {
	iss, _ := NewIssuer("one", time.Hour)
	other, _ := NewIssuer("two", time.Hour)
	_, token, err := iss.Issue()
	require.NoError(t, err)

	_, err = other.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsExpired(t *testing.T) {
	iss, _ := NewIssuer("test-secret", time.Minute)
	_, token, err := iss.Issue()
	require.NoError(t, err)

	iss.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = iss.Parse(token)

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsGarbage(t *testing.T) {
	iss, _ := NewIssuer("test-secret", time.Hour)

	_, err := iss.Parse("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsMissingSubject(t *testing.T) {
	iss, _ := NewIssuer("test-secret", time.Hour)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"iat": time.Now().Unix()}).
		SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = iss.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsNoneAlgorithm(t *testing.T) {
	iss, _ := NewIssuer("test-secret", time.Hour)
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "x"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = iss.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
