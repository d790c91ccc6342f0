package contentwebhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SignatureHeader carries the content store's webhook signature.
const SignatureHeader = "X-Content-Signature"

// DefaultTolerance bounds how stale a signed timestamp may be.
const DefaultTolerance = 5 * time.Minute

// VerifySignature checks a `t=<unix>,v1=<base64url hmac-sha256>` header
// against the raw body. The signed payload is "<timestamp>.<body>".
func VerifySignature(body []byte, header, secret string, tolerance time.Duration) error {
	if secret == "" {
		return fmt.Errorf("signing secret not configured")
	}
	if header == "" {
		return fmt.Errorf("signature header missing")
	}

	timestamp, signature, err := parseHeader(header)
	if err != nil {
		return err
	}

	if tolerance > 0 {
		signedAt := time.Unix(timestamp, 0)
		if d := time.Since(signedAt); d > tolerance || d < -tolerance {
			return fmt.Errorf("signature timestamp outside tolerance")
		}
	}

	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(body)
	expected := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))

	if subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) != 1 {
		return fmt.Errorf("signature mismatch")
	}
	return nil
}

func parseHeader(header string) (int64, string, error) {
	var timestampRaw, signature string
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch key {
		case "t":
			timestampRaw = value
		case "v1":
			signature = value
		}
	}
	if timestampRaw == "" || signature == "" {
		return 0, "", fmt.Errorf("malformed signature header")
	}
	timestamp, err := strconv.ParseInt(timestampRaw, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("malformed signature timestamp")
	}
	return timestamp, signature, nil
}

// Sign produces a header value for the given body, used by tests and by the
// content store's delivery tooling.
func Sign(body []byte, secret string, at time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", at.Unix())
	mac.Write(body)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), base64.RawURLEncoding.EncodeToString(mac.Sum(nil)))
}
