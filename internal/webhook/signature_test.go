package webhook

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const testSecret = "whsec_test"

var payload = []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)

func TestStripeSignatureValid(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	header := SignStripePayload(testSecret, now, payload)

	assert.NoError(t, VerifyStripeSignature(payload, header, testSecret, 0, now))
	assert.NoError(t, VerifyStripeSignature(payload, header, testSecret, 5*time.Minute, now.Add(time.Minute)))
}

func TestStripeSignatureTampering(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	header := SignStripePayload(testSecret, now, payload)

	tamperedBody := append([]byte(nil), payload...)
	tamperedBody[len(tamperedBody)-2] = 'X'
	assert.ErrorIs(t, VerifyStripeSignature(tamperedBody, header, testSecret, 0, now), ErrInvalidSignature)

	otherTS := "t=" + strconv.FormatInt(now.Unix()+1, 10) + header[len("t=")+len(strconv.FormatInt(now.Unix(), 10)):]
	assert.ErrorIs(t, VerifyStripeSignature(payload, otherTS, testSecret, 0, now), ErrInvalidSignature)

	assert.ErrorIs(t, VerifyStripeSignature(payload, header, "whsec_other", 0, now), ErrInvalidSignature)
}

func TestStripeSignatureMultipleV1(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	good := SignStripePayload(testSecret, now, payload)
	header := good + ",v1=" + "00ff"
	assert.NoError(t, VerifyStripeSignature(payload, header, testSecret, 0, now))

	rotated := "t=" + strconv.FormatInt(now.Unix(), 10) + ",v1=deadbeef," + good[len("t=1700000000,"):]
	assert.NoError(t, VerifyStripeSignature(payload, rotated, testSecret, 0, now))
}

func TestStripeSignatureMalformed(t *testing.T) {
	now := time.Now()
	assert.ErrorIs(t, VerifyStripeSignature(payload, "", testSecret, 0, now), ErrMissingSignature)
	assert.ErrorIs(t, VerifyStripeSignature(payload, "garbage", testSecret, 0, now), ErrInvalidSignature)
	assert.ErrorIs(t, VerifyStripeSignature(payload, "t=1", testSecret, 0, now), ErrInvalidSignature)
	assert.ErrorIs(t, VerifyStripeSignature(payload, "v1=abcd", testSecret, 0, now), ErrInvalidSignature)
}

func TestStripeSignatureTolerance(t *testing.T) {
	signedAt := time.Unix(1_700_000_000, 0)
	header := SignStripePayload(testSecret, signedAt, payload)

	later := signedAt.Add(10 * time.Minute)
	assert.ErrorIs(t, VerifyStripeSignature(payload, header, testSecret, 5*time.Minute, later), ErrStaleTimestamp)
	assert.NoError(t, VerifyStripeSignature(payload, header, testSecret, 0, later), "zero tolerance disables the check")
}

func TestPODSignature(t *testing.T) {
	sig := SignPODPayload(testSecret, payload)

	assert.NoError(t, VerifyPODSignature(payload, sig, testSecret))
	assert.NoError(t, VerifyPODSignature(payload, "sha256="+sig, testSecret))

	tampered := append([]byte(nil), payload...)
	tampered[0] = '['
	assert.ErrorIs(t, VerifyPODSignature(tampered, sig, testSecret), ErrInvalidSignature)
	assert.ErrorIs(t, VerifyPODSignature(payload, sig, "other"), ErrInvalidSignature)
	assert.ErrorIs(t, VerifyPODSignature(payload, "zz", testSecret), ErrInvalidSignature)
	assert.ErrorIs(t, VerifyPODSignature(payload, "", testSecret), ErrMissingSignature)
}

func TestPODSignatureSkippedWithoutSecret(t *testing.T) {
	assert.NoError(t, VerifyPODSignature(payload, "", ""))
	assert.NoError(t, VerifyPODSignature(payload, "anything", ""))
}
