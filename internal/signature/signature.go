// Package signature verifies the HMAC signatures that Twitch attaches to every EventSub
// webhook request, as described in
// https://dev.twitch.tv/docs/eventsub/handling-webhook-events/#verifying-the-event-message
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
)

const (
	HeaderMessageId        = "Twitch-Eventsub-Message-Id"
	HeaderMessageTimestamp = "Twitch-Eventsub-Message-Timestamp"
	HeaderMessageSignature = "Twitch-Eventsub-Message-Signature"
	HeaderMessageType      = "Twitch-Eventsub-Message-Type"
)

const prefix = "sha256="

// Compute returns the signature Twitch would send for a message with the given ID,
// timestamp and raw body, signed with secret
func Compute(secret, messageId, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(messageId))
	mac.Write([]byte(timestamp))
	mac.Write(body)
	return prefix + hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature is the correct signature for the message. The
// comparison does not short-circuit on the first differing byte, and a signature of
// the wrong length is simply a mismatch.
func Verify(messageId, timestamp string, body []byte, signature, secret string) bool {
	if messageId == "" || timestamp == "" || signature == "" || secret == "" {
		return false
	}
	expected := Compute(secret, messageId, timestamp, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// VerifyRequest verifies a webhook request using the Twitch-Eventsub-* headers carried
// in header; header lookups are case-insensitive
func VerifyRequest(header http.Header, body []byte, secret string) bool {
	return Verify(
		header.Get(HeaderMessageId),
		header.Get(HeaderMessageTimestamp),
		body,
		header.Get(HeaderMessageSignature),
		secret,
	)
}
