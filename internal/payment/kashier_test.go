package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const kashierPayload = `{
	"event": "pay",
	"data": {
		"merchantOrderId": "0b9f4c1e-3a2d-4c6b-9e8f-1a2b3c4d5e6f",
		"orderId": "KSH-991",
		"transactionId": "TX-123",
		"amount": 150.50,
		"currency": "EGP",
		"paymentStatus": "SUCCESS",
		"cardBrand": "Visa (Debit)",
		"signatureKeys": ["paymentStatus", "amount", "merchantOrderId", "currency", "cardBrand"]
	}
}`

func TestSigningStringSortsAndEncodes(t *testing.T) {
	n, err := DecodeKashierNotification([]byte(kashierPayload))
	require.NoError(t, err)

	assert.Equal(t,
		"amount=150.50&cardBrand=Visa%20%28Debit%29&currency=EGP&merchantOrderId=0b9f4c1e-3a2d-4c6b-9e8f-1a2b3c4d5e6f&paymentStatus=SUCCESS",
		signingString(n.Data))
}

func TestSigningStringEdgeValues(t *testing.T) {
	data := map[string]interface{}{
		"signatureKeys": []interface{}{"b", "a", "missing", "c"},
		"a":             nil,
		"b":             true,
		"c":             []interface{}{"x y", "z"},
	}
	assert.Equal(t, "a&b=true&c=x%20y&c=z", signingString(data))

	assert.Empty(t, signingString(map[string]interface{}{"amount": "1"}))
}

func TestKashierSignatureVerification(t *testing.T) {
	n, err := DecodeKashierNotification([]byte(kashierPayload))
	require.NoError(t, err)

	mac := hmac.New(sha256.New, []byte("secret-key"))
	mac.Write([]byte(signingString(n.Data)))
	expected := hex.EncodeToString(mac.Sum(nil))

	assert.Equal(t, expected, KashierSignature(n.Data, "secret-key"))
	assert.True(t, VerifyKashierSignature(n.Data, expected, "secret-key"))
	assert.False(t, VerifyKashierSignature(n.Data, expected, "other-key"))
	assert.False(t, VerifyKashierSignature(n.Data, "deadbeef", "secret-key"))

	// Tampering with a signed field breaks the signature.
	n.Data["amount"] = "1.00"
	assert.False(t, VerifyKashierSignature(n.Data, expected, "secret-key"))
}

func TestMerchantOrderIDFallsBackToOrderID(t *testing.T) {
	n, err := DecodeKashierNotification([]byte(`{"data":{"orderId":"KSH-1","transactionId":42}}`))
	require.NoError(t, err)
	assert.Equal(t, "KSH-1", n.MerchantOrderID())
	assert.Equal(t, "42", n.TransactionID())

	n, err = DecodeKashierNotification([]byte(`{"event":"pay"}`))
	require.NoError(t, err)
	assert.Empty(t, n.MerchantOrderID())
	assert.NotNil(t, n.Data)
}
