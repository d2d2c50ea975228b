package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(ttl time.Duration) (*SessionManager, *time.Time) {
	m := NewSessionManager("test-secret", ttl)
	now := time.Unix(1_700_000_000, 0)
	m.now = func() time.Time { return now }
	return m, &now
}

func TestIssueVerify_BooleanGate(t *testing.T) {
	m, _ := newTestManager(time.Hour)

	tok, err := m.Issue(Identity{Authenticated: true})
	require.NoError(t, err)

	id, ok := m.Verify(tok)
	require.True(t, ok)
	assert.True(t, id.Authenticated)
	assert.Empty(t, id.UserID)
}

func TestIssueVerify_UserBound(t *testing.T) {
	m, _ := newTestManager(time.Hour)

	tok, err := m.Issue(Identity{Authenticated: true, UserID: "u-42"})
	require.NoError(t, err)

	id, ok := m.Verify(tok)
	require.True(t, ok)
	assert.Equal(t, "u-42", id.UserID)
}

func TestVerify_WrongSecretNeverValidates(t *testing.T) {
	other := NewSessionManager("another-secret", time.Hour)
	tok, err := other.Issue(Identity{Authenticated: true, UserID: "u-1"})
	require.NoError(t, err)

	m, _ := newTestManager(time.Hour)
	_, ok := m.Verify(tok)
	assert.False(t, ok, "токен с чужим секретом не должен проходить")
}

func TestVerify_TamperedToken(t *testing.T) {
	m, _ := newTestManager(time.Hour)
	tok, err := m.Issue(Identity{Authenticated: true, UserID: "u-1"})
	require.NoError(t, err)

	// портим один символ полезной нагрузки
	b := []byte(tok)
	mid := len(b) / 2
	if b[mid] == 'A' {
		b[mid] = 'B'
	} else {
		b[mid] = 'A'
	}
	_, ok := m.Verify(string(b))
	assert.False(t, ok)
}

func TestVerify_GarbageAndEmpty(t *testing.T) {
	m, _ := newTestManager(time.Hour)

	_, ok := m.Verify("")
	assert.False(t, ok)
	_, ok = m.Verify("not-a-token")
	assert.False(t, ok)
}

func TestVerify_Expired(t *testing.T) {
	m, now := newTestManager(time.Hour)

	tok, err := m.Issue(Identity{Authenticated: true})
	require.NoError(t, err)

	*now = now.Add(time.Hour + time.Second)
	_, ok := m.Verify(tok)
	assert.False(t, ok)
}

func TestVerify_NoneAlgorithmRejected(t *testing.T) {
	m, _ := newTestManager(time.Hour)

	claims := jwt.MapClaims{"auth": true, "exp": time.Now().Add(time.Hour).Unix()}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, ok := m.Verify(tok)
	assert.False(t, ok)
}

func TestRenew_ExtendsFromRenewalMoment(t *testing.T) {
	m, now := newTestManager(time.Hour)

	tok, err := m.Issue(Identity{Authenticated: true, UserID: "u-1"})
	require.NoError(t, err)

	// продлеваем за 5 минут до конца срока
	*now = now.Add(55 * time.Minute)
	fresh, ok := m.Renew(tok)
	require.True(t, ok)

	// старого срока уже нет: свежий токен жив спустя исходный expiry
	*now = now.Add(50 * time.Minute)
	_, ok = m.Verify(tok)
	assert.False(t, ok, "исходный токен истёк")
	id, ok := m.Verify(fresh)
	require.True(t, ok, "продлённый токен живёт от момента продления")
	assert.Equal(t, "u-1", id.UserID)
}

func TestRenew_InvalidTokenFails(t *testing.T) {
	m, _ := newTestManager(time.Hour)

	_, ok := m.Renew("garbage")
	assert.False(t, ok)
}
