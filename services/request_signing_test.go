package services_test

import (
	"testing"
	"time"

	"github.com/ferreirogomes/tijolo/services"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndVerifyRequest(t *testing.T) {
	w := solana.NewWallet()
	body := []byte(`{"shares":10,"payment":100}`)

	rs, err := services.SignRequest(w.PrivateKey, "POST", "/properties/p1/invest", body)
	require.NoError(t, err)
	assert.NotEmpty(t, rs.Nonce)

	assert.True(t, services.VerifyRequest(w.PublicKey(), rs, "POST", "/properties/p1/invest", body))
	assert.False(t, services.VerifyRequest(w.PublicKey(), rs, "POST", "/properties/p2/invest", body))
	assert.False(t, services.VerifyRequest(w.PublicKey(), rs, "POST", "/properties/p1/invest", []byte(`{"shares":11,"payment":100}`)))
	assert.False(t, services.VerifyRequest(solana.NewWallet().PublicKey(), rs, "POST", "/properties/p1/invest", body))

	// nonce e instante fazem parte da mensagem assinada
	otherNonce := rs
	otherNonce.Nonce = "outro"
	assert.False(t, services.VerifyRequest(w.PublicKey(), otherNonce, "POST", "/properties/p1/invest", body))
	otherTime := rs
	otherTime.Timestamp++
	assert.False(t, services.VerifyRequest(w.PublicKey(), otherTime, "POST", "/properties/p1/invest", body))
}

func TestSignRequestUsesFreshNonce(t *testing.T) {
	key := solana.NewWallet().PrivateKey
	a, err := services.SignRequest(key, "POST", "/x", nil)
	require.NoError(t, err)
	b, err := services.SignRequest(key, "POST", "/x", nil)
	require.NoError(t, err)
	assert.NotEqual(t, a.Nonce, b.Nonce)
}

func TestSigningPayloadLayout(t *testing.T) {
	assert.Equal(t, "GET\n/x\n1700000000\nn1\n", string(services.SigningPayload("GET", "/x", 1700000000, "n1", nil)))

	at := time.Unix(1700000000, 0)
	rs, err := services.SignRequestAt(solana.NewWallet().PrivateKey, "GET", "/x", nil, at, "n1")
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000), rs.Timestamp)
	assert.Equal(t, "n1", rs.Nonce)
}
