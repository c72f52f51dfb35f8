package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingSignature    = errors.New("missing webhook signature header")
	ErrMalformedSignature  = errors.New("malformed webhook signature header")
	ErrInvalidSignature    = errors.New("invalid webhook signature")
	ErrSecretNotConfigured = errors.New("webhook secret not configured")
)

// WebhookSignatureVerifier validates Mercado Pago's x-signature header.
//
// The header has the form "ts=<unix>,v1=<hex hmac>". The HMAC-SHA256 is
// computed with the shared webhook secret over the manifest
// "id:<data.id>;request-id:<x-request-id>;ts:<ts>;", omitting parts whose
// value is absent. No unverified payload is ever processed.
type WebhookSignatureVerifier struct {
	secret string
}

func NewWebhookSignatureVerifier(secret string) *WebhookSignatureVerifier {
	return &WebhookSignatureVerifier{secret: secret}
}

func (v *WebhookSignatureVerifier) Verify(dataID, requestID, signatureHeader string) error {
	if v.secret == "" {
		return ErrSecretNotConfigured
	}
	if strings.TrimSpace(signatureHeader) == "" {
		return ErrMissingSignature
	}

	ts, v1, err := parseSignatureHeader(signatureHeader)
	if err != nil {
		return err
	}

	manifest := buildManifest(strings.ToLower(strings.TrimSpace(dataID)), strings.TrimSpace(requestID), ts)

	mac := hmac.New(sha256.New, []byte(v.secret))
	mac.Write([]byte(manifest))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(v1))) {
		return ErrInvalidSignature
	}
	return nil
}

func parseSignatureHeader(header string) (ts, v1 string, err error) {
	for _, part := range strings.Split(header, ",") {
		k, val, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			return "", "", fmt.Errorf("%w: %q", ErrMalformedSignature, header)
		}
		switch strings.TrimSpace(k) {
		case "ts":
			ts = strings.TrimSpace(val)
		case "v1":
			v1 = strings.TrimSpace(val)
		}
	}
	if ts == "" || v1 == "" {
		return "", "", fmt.Errorf("%w: %q", ErrMalformedSignature, header)
	}
	return ts, v1, nil
}

func buildManifest(dataID, requestID, ts string) string {
	var b strings.Builder
	if dataID != "" {
		b.WriteString("id:" + dataID + ";")
	}
	if requestID != "" {
		b.WriteString("request-id:" + requestID + ";")
	}
	b.WriteString("ts:" + ts + ";")
	return b.String()
}
