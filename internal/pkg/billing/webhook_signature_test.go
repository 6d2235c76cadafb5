package billing

import (
	"encoding/base64"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyWebhookSignature(t *testing.T) {
	payload := []byte(`{"payment_id":"pay_1","status":"Paid"}`)
	secret := "whsec_" + base64.StdEncoding.EncodeToString([]byte("top-secret-key"))
	now := time.Unix(1_700_000_000, 0)
	ts := strconv.FormatInt(now.Unix(), 10)

	sig, ok := SignWebhookPayload(payload, "msg_1", ts, secret)
	require.True(t, ok)

	assert.True(t, VerifyWebhookSignature(payload, "msg_1", ts, sig, secret, now))
	assert.True(t, VerifyWebhookSignature(payload, "msg_1", ts, "v1,bm9wZQ== "+sig, secret, now), "any listed signature may match")

	assert.False(t, VerifyWebhookSignature([]byte(`{}`), "msg_1", ts, sig, secret, now))
	assert.False(t, VerifyWebhookSignature(payload, "msg_2", ts, sig, secret, now))
	assert.False(t, VerifyWebhookSignature(payload, "msg_1", ts, sig, "whsec_"+base64.StdEncoding.EncodeToString([]byte("other")), now))
	assert.False(t, VerifyWebhookSignature(payload, "msg_1", ts, "v2,"+sig[3:], secret, now))
	assert.False(t, VerifyWebhookSignature(payload, "msg_1", ts, sig, "", now))
	assert.False(t, VerifyWebhookSignature(payload, "", ts, sig, secret, now))
}

func TestVerifyWebhookSignature_Tolerance(t *testing.T) {
	payload := []byte(`{}`)
	secret := "plain-secret"
	sent := time.Unix(1_700_000_000, 0)
	ts := strconv.FormatInt(sent.Unix(), 10)
	sig, ok := SignWebhookPayload(payload, "msg_1", ts, secret)
	require.True(t, ok)

	assert.True(t, VerifyWebhookSignature(payload, "msg_1", ts, sig, secret, sent.Add(4*time.Minute)))
	assert.False(t, VerifyWebhookSignature(payload, "msg_1", ts, sig, secret, sent.Add(6*time.Minute)))
	assert.False(t, VerifyWebhookSignature(payload, "msg_1", ts, sig, secret, sent.Add(-6*time.Minute)))
	assert.False(t, VerifyWebhookSignature(payload, "msg_1", "not-a-number", sig, secret, sent))
}
