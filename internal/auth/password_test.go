package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"todo-api/internal/apperror"
)

// Cost 4 is the bcrypt minimum and keeps tests fast.
func newTestHasher() *PasswordHasher {
	return NewPasswordHasher(4)
}

func TestHash_LooksLikeBcrypt(t *testing.T) {
	h := newTestHasher()

	digest, err := h.Hash("password123")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(digest, "$2"), "digest %q", digest)
	assert.NotContains(t, digest, "password123")
}

func TestHash_IsSaltedButVerifiable(t *testing.T) {
	h := newTestHasher()

	d1, err := h.Hash("same-password")
	require.NoError(t, err)
	d2, err := h.Hash("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, d1, d2)
	assert.True(t, h.Verify("same-password", d1))
	assert.True(t, h.Verify("same-password", d2))
}

func TestHash_Accepts72Bytes(t *testing.T) {
	h := newTestHasher()
	pw := strings.Repeat("a", MaxPasswordBytes)

	digest, err := h.Hash(pw)
	require.NoError(t, err)
	assert.True(t, h.Verify(pw, digest))
}

func TestHash_RejectsOver72Bytes(t *testing.T) {
	h := newTestHasher()

	_, err := h.Hash(strings.Repeat("a", MaxPasswordBytes+1))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestVerify_LongInputDoesNotMatchTruncatedPrefix(t *testing.T) {
	h := newTestHasher()
	pw := strings.Repeat("b", MaxPasswordBytes)
	digest, err := h.Hash(pw)
	require.NoError(t, err)

	assert.False(t, h.Verify(pw+"extra", digest))
}

func TestVerify_WrongPassword(t *testing.T) {
	h := newTestHasher()
	digest, err := h.Hash("the-real-password")
	require.NoError(t, err)

	assert.False(t, h.Verify("the-wrong-password", digest))
	assert.False(t, h.Verify("", digest))
}

func TestVerify_MalformedDigest(t *testing.T) {
	h := newTestHasher()

	assert.NotPanics(t, func() {
		assert.False(t, h.Verify("password", "not-a-valid-bcrypt-hash"))
		assert.False(t, h.Verify("password", ""))
	})
}

// countingHasher records the digest of every bcrypt comparison.
func countingHasher() (*PasswordHasher, *[][]byte) {
	h := newTestHasher()
	var digests [][]byte
	inner := h.compare
	h.compare = func(digest, plaintext []byte) error {
		digests = append(digests, digest)
		return inner(digest, plaintext)
	}
	return h, &digests
}

func TestVerifyDummy_RunsOneComparison(t *testing.T) {
	h, digests := countingHasher()

	h.VerifyDummy("anything")
	h.VerifyDummy(strings.Repeat("x", 200))

	require.Len(t, *digests, 2)
	assert.Equal(t, h.dummy, (*digests)[0])
	assert.Equal(t, h.dummy, (*digests)[1])
}

func TestNewPasswordHasher_BuildsDummyDigest(t *testing.T) {
	h := newTestHasher()

	require.NotEmpty(t, h.dummy)
	cost, err := bcrypt.Cost(h.dummy)
	require.NoError(t, err)
	assert.Equal(t, 4, cost)
}

// A registered email with an over-long password must cost the same as an
// unknown email: exactly one comparison at the configured cost.
func TestVerify_OverLongInputSpendsOneComparison(t *testing.T) {
	h, digests := countingHasher()
	digest, err := h.Hash("the-real-password")
	require.NoError(t, err)
	long := strings.Repeat("z", MaxPasswordBytes+1)

	assert.False(t, h.Verify(long, digest))
	require.Len(t, *digests, 1)
	assert.Equal(t, h.dummy, (*digests)[0])

	h.VerifyDummy(long)
	require.Len(t, *digests, 2)
	assert.Equal(t, (*digests)[0], (*digests)[1])

	assert.True(t, h.Verify("the-real-password", digest))
	require.Len(t, *digests, 3)
	assert.Equal(t, []byte(digest), (*digests)[2])
}

func TestHashVerify_RoundTrip(t *testing.T) {
	h := newTestHasher()

	cases := []struct {
		name     string
		password string
	}{
		{"alphanumeric", "hello123"},
		{"special characters", "p@$$w0rd!#%"},
		{"unicode", "пароль-密码"},
		{"whitespace", "  leading and trailing  "},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			digest, err := h.Hash(tc.password)
			require.NoError(t, err)
			assert.True(t, h.Verify(tc.password, digest))
		})
	}
}
