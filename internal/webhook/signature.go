// Package webhook verifies signatures on inbound provider callbacks.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	StripeSignatureHeader   = "Stripe-Signature"
	GelatoSignatureHeader   = "X-Gelato-Signature"
	PrintfulSignatureHeader = "X-PF-Webhook-Signature"
)

var (
	ErrMissingSignature = errors.New("webhook: missing signature")
	ErrInvalidSignature = errors.New("webhook: invalid signature")
	ErrStaleTimestamp   = errors.New("webhook: timestamp outside tolerance")
)

// VerifyStripeSignature checks a "t=<unix>,v1=<hex>[,v1=<hex>...]" header
// against body. A positive tolerance also bounds the age of the timestamp.
func VerifyStripeSignature(body []byte, header, secret string, tolerance time.Duration, now time.Time) error {
	if strings.TrimSpace(header) == "" {
		return ErrMissingSignature
	}

	var timestamp string
	var signatures [][]byte
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch key {
		case "t":
			timestamp = value
		case "v1":
			sig, err := hex.DecodeString(value)
			if err != nil {
				continue
			}
			signatures = append(signatures, sig)
		}
	}
	if timestamp == "" || len(signatures) == 0 {
		return fmt.Errorf("%w: malformed header", ErrInvalidSignature)
	}

	if tolerance > 0 {
		ts, err := strconv.ParseInt(timestamp, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: bad timestamp", ErrInvalidSignature)
		}
		age := now.Sub(time.Unix(ts, 0))
		if age < 0 {
			age = -age
		}
		if age > tolerance {
			return ErrStaleTimestamp
		}
	}

	expected := computeHMAC(secret, []byte(timestamp+"."), body)
	for _, sig := range signatures {
		if hmac.Equal(sig, expected) {
			return nil
		}
	}
	return ErrInvalidSignature
}

// VerifyPODSignature checks a hex HMAC-SHA256 of body. An empty secret
// disables verification; a configured secret with no header is rejected.
func VerifyPODSignature(body []byte, header, secret string) error {
	if secret == "" {
		return nil
	}
	header = strings.TrimSpace(header)
	if header == "" {
		return ErrMissingSignature
	}
	header = strings.TrimPrefix(header, "sha256=")
	sig, err := hex.DecodeString(header)
	if err != nil {
		return ErrInvalidSignature
	}
	if !hmac.Equal(sig, computeHMAC(secret, body)) {
		return ErrInvalidSignature
	}
	return nil
}

// SignStripePayload builds a Stripe-Signature header value for body.
func SignStripePayload(secret string, timestamp time.Time, body []byte) string {
	ts := strconv.FormatInt(timestamp.Unix(), 10)
	return "t=" + ts + ",v1=" + hex.EncodeToString(computeHMAC(secret, []byte(ts+"."), body))
}

// SignPODPayload returns the hex signature a POD provider sends for body.
func SignPODPayload(secret string, body []byte) string {
	return hex.EncodeToString(computeHMAC(secret, body))
}

func computeHMAC(secret string, parts ...[]byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	for _, p := range parts {
		mac.Write(p)
	}
	return mac.Sum(nil)
}
