package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSealedService(t *testing.T) *sealedTokenService {
	t.Helper()

	cfg := testConfig()
	cipher, err := NewCipherService(cfg, testLogger())
	require.NoError(t, err)

	svc, err := NewSealedTokenService(cfg, cipher, testLogger())
	require.NoError(t, err)

	return svc.(*sealedTokenService)
}

func TestSealedTokenService_SessionTokenRoundTrip(t *testing.T) {
	svc := newSealedService(t)

	token, err := svc.GenerateSessionToken("user-123", true)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := svc.ValidateSessionToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.True(t, claims.PaymentVerified)
	assert.NotEmpty(t, claims.SessionID)
	assert.NotEmpty(t, claims.Checksum)
}

func TestSealedTokenService_SessionTokensAreUniquePerIssuance(t *testing.T) {
	svc := newSealedService(t)

	first, err := svc.GenerateSessionToken("user-123", true)
	require.NoError(t, err)
	second, err := svc.GenerateSessionToken("user-123", true)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestSealedTokenService_SessionTokenExpiresAfterSevenDays(t *testing.T) {
	svc := newSealedService(t)

	issued := time.Now()
	svc.now = func() time.Time { return issued }

	token, err := svc.GenerateSessionToken("user-123", true)
	require.NoError(t, err)

	// Still valid right at the boundary.
	svc.now = func() time.Time { return issued.Add(7 * 24 * time.Hour) }
	_, err = svc.ValidateSessionToken(token)
	require.NoError(t, err)

	// Invalid one millisecond past it.
	svc.now = func() time.Time { return issued.Add(7*24*time.Hour + time.Millisecond) }
	_, err = svc.ValidateSessionToken(token)
	assert.Error(t, err)
}

func TestSealedTokenService_SessionTokenTamperingDetected(t *testing.T) {
	svc := newSealedService(t)

	token, err := svc.GenerateSessionToken("user-123", true)
	require.NoError(t, err)

	// Flip a single ciphertext nibble.
	tampered := []byte(token)
	i := len(tampered) - 1
	if tampered[i] == '0' {
		tampered[i] = '1'
	} else {
		tampered[i] = '0'
	}

	_, err = svc.ValidateSessionToken(string(tampered))
	assert.Error(t, err)
}

func TestSealedTokenService_PaymentTokenRoundTrip(t *testing.T) {
	svc := newSealedService(t)

	issuedAt := time.Now()
	token, err := svc.GeneratePaymentToken("user-123", "pay_abc", issuedAt)
	require.NoError(t, err)

	claims, err := svc.ValidatePaymentToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, "pay_abc", claims.PaymentID)
	assert.Equal(t, issuedAt.UnixMilli(), claims.Timestamp)
}

func TestSealedTokenService_PaymentTokenExpiresAfter24Hours(t *testing.T) {
	svc := newSealedService(t)

	issued := time.Now()
	token, err := svc.GeneratePaymentToken("user-123", "pay_abc", issued)
	require.NoError(t, err)

	svc.now = func() time.Time { return issued.Add(24 * time.Hour) }
	_, err = svc.ValidatePaymentToken(token)
	require.NoError(t, err)

	svc.now = func() time.Time { return issued.Add(24*time.Hour + time.Millisecond) }
	_, err = svc.ValidatePaymentToken(token)
	assert.Error(t, err)
}

func TestSealedTokenService_PaymentTokenTamperingDetected(t *testing.T) {
	svc := newSealedService(t)

	token, err := svc.GeneratePaymentToken("user-123", "pay_abc", time.Now())
	require.NoError(t, err)

	for i := 0; i < len(token); i += 7 {
		tampered := []byte(token)
		if tampered[i] == 'A' {
			tampered[i] = 'B'
		} else {
			tampered[i] = 'A'
		}

		if string(tampered) == token {
			continue
		}

		_, err := svc.ValidatePaymentToken(string(tampered))
		assert.Error(t, err, "tampering at offset %d must invalidate the token", i)
	}
}

func TestSealedTokenService_PaymentTokenRejectsGarbage(t *testing.T) {
	svc := newSealedService(t)

	for _, token := range []string{"", "not base64 at all!!", "aGVsbG8="} {
		_, err := svc.ValidatePaymentToken(token)
		assert.Error(t, err, "token %q must be invalid", token)
	}
}

func TestSealedTokenService_ChecksumBoundToSalt(t *testing.T) {
	svc := newSealedService(t)

	otherCfg := testConfig()
	otherCfg.SecretKey.Salt = "a_different_salt"
	cipher, err := NewCipherService(otherCfg, testLogger())
	require.NoError(t, err)
	other, err := NewSealedTokenService(otherCfg, cipher, testLogger())
	require.NoError(t, err)

	// Same cipher key, different salt: decryption succeeds but the checksum
	// no longer matches.
	token, err := other.GenerateSessionToken("user-123", true)
	require.NoError(t, err)

	_, err = svc.ValidateSessionToken(token)
	assert.Error(t, err)
}
