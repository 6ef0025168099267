package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignedURLSignerGenerateAndParse(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, expiresAt, err := signer.Generate("pay-1", "2026/10/receipt-pay-1.pdf")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	parsed, err := signer.Parse(token)
	require.NoError(t, err)
	require.Equal(t, "pay-1", parsed.Subject)
	require.Equal(t, "2026/10/receipt-pay-1.pdf", parsed.Path)
	require.WithinDuration(t, expiresAt, parsed.ExpiresAt, time.Second)
}

func TestSignedURLSignerExpired(t *testing.T) {
	now := time.Date(2026, time.October, 15, 12, 0, 0, 0, time.UTC)
	signer := NewSignedURLSigner("secret", time.Hour).WithClock(func() time.Time { return now })
	token, _, err := signer.Generate("pay-1", "receipt.pdf")
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	_, err = signer.Parse(token)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestSignedURLSignerRejectsTampering(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, _, err := signer.Generate("pay-1", "receipt.pdf")
	require.NoError(t, err)

	_, err = NewSignedURLSigner("other", time.Hour).Parse(token)
	require.ErrorIs(t, err, ErrTokenInvalid)

	_, err = signer.Parse("pay-2" + token[len("pay-1"):])
	require.ErrorIs(t, err, ErrTokenInvalid)

	_, err = signer.Parse("garbage")
	require.ErrorIs(t, err, ErrTokenInvalid)
}
