package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strconv"
	"strings"
	"time"
)

// SignatureTolerance bounds the age of a signed delivery.
const SignatureTolerance = 5 * time.Minute

// VerifyWebhookSignature checks a Standard Webhooks signature as sent by
// PortOne: HMAC-SHA256 over "id.timestamp.body", base64 encoded, one or more
// space separated "v1,<sig>" entries in the signature header.
func VerifyWebhookSignature(payload []byte, webhookID, timestamp, signatureHeader, webhookSecret string, now time.Time) bool {
	id := strings.TrimSpace(webhookID)
	ts := strings.TrimSpace(timestamp)
	sigs := strings.TrimSpace(signatureHeader)
	if id == "" || ts == "" || sigs == "" {
		return false
	}

	key, ok := decodeWebhookSecret(webhookSecret)
	if !ok {
		return false
	}

	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return false
	}
	sent := time.Unix(unix, 0)
	if now.Sub(sent) > SignatureTolerance || sent.Sub(now) > SignatureTolerance {
		return false
	}

	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(id + "." + ts + "."))
	mac.Write(payload)
	expected := mac.Sum(nil)

	for _, entry := range strings.Fields(sigs) {
		version, sig, found := strings.Cut(entry, ",")
		if !found || version != "v1" {
			continue
		}
		decoded, err := base64.StdEncoding.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(decoded, expected) {
			return true
		}
	}
	return false
}

// SignWebhookPayload produces a "v1,<sig>" entry for the given delivery.
func SignWebhookPayload(payload []byte, webhookID, timestamp, webhookSecret string) (string, bool) {
	key, ok := decodeWebhookSecret(webhookSecret)
	if !ok {
		return "", false
	}
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(webhookID + "." + timestamp + "."))
	mac.Write(payload)
	return "v1," + base64.StdEncoding.EncodeToString(mac.Sum(nil)), true
}

func decodeWebhookSecret(secret string) ([]byte, bool) {
	s := strings.TrimSpace(secret)
	if s == "" {
		return nil, false
	}
	if rest, found := strings.CutPrefix(s, "whsec_"); found {
		key, err := base64.StdEncoding.DecodeString(rest)
		if err != nil || len(key) == 0 {
			return nil, false
		}
		return key, true
	}
	return []byte(s), true
}
