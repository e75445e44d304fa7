package signature

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Compute(t *testing.T) {
	got := Compute("my-webhook-secret", "befa7b53-d79d-478f-86b9-120f112b044e", "2023-10-14T12:00:00.123456789Z", []byte(`{"challenge":"abc123"}`))
	assert.Equal(t, "sha256=db14b2bbf931be969359a973b202ef12f5fde2ee2294ef6f15debc9a999b7df3", got)
}

func Test_Verify(t *testing.T) {
	const (
		secret    = "my-webhook-secret"
		messageId = "befa7b53-d79d-478f-86b9-120f112b044e"
		timestamp = "2023-10-14T12:00:00.123456789Z"
	)
	body := []byte(`{"subscription":{"type":"channel.raid"},"event":{"viewers":42}}`)
	sig := Compute(secret, messageId, timestamp, body)

	flip := func(s string, i int) string {
		b := []byte(s)
		b[i] ^= 0x01
		return string(b)
	}
	flipBytes := func(b []byte, i int) []byte {
		c := append([]byte(nil), b...)
		c[i] ^= 0x01
		return c
	}

	tests := []struct {
		name      string
		messageId string
		timestamp string
		body      []byte
		signature string
		secret    string
		want      bool
	}{
		{"correct signature verifies", messageId, timestamp, body, sig, secret, true},
		{"flipped message id byte fails", flip(messageId, 0), timestamp, body, sig, secret, false},
		{"flipped timestamp byte fails", messageId, flip(timestamp, len(timestamp)-2), body, sig, secret, false},
		{"flipped body byte fails", messageId, timestamp, flipBytes(body, 10), sig, secret, false},
		{"flipped first signature byte fails", messageId, timestamp, body, flip(sig, 0), secret, false},
		{"flipped last signature byte fails", messageId, timestamp, body, flip(sig, len(sig)-1), secret, false},
		{"wrong secret fails", messageId, timestamp, body, sig, "other-secret", false},
		{"shorter signature fails", messageId, timestamp, body, sig[:len(sig)-1], secret, false},
		{"longer signature fails", messageId, timestamp, body, sig + "0", secret, false},
		{"signature without prefix fails", messageId, timestamp, body, strings.TrimPrefix(sig, "sha256="), secret, false},
		{"missing signature fails", messageId, timestamp, body, "", secret, false},
		{"missing message id fails", "", timestamp, body, sig, secret, false},
		{"missing timestamp fails", messageId, "", body, sig, secret, false},
		{"empty secret fails", messageId, timestamp, body, Compute("", messageId, timestamp, body), "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Verify(tt.messageId, tt.timestamp, tt.body, tt.signature, tt.secret)
			assert.Equal(t, tt.want, got)
		})
	}
}

func Test_VerifyRequest(t *testing.T) {
	body := []byte(`{"challenge":"abc123"}`)
	header := http.Header{}
	header.Set("twitch-eventsub-message-id", "1")
	header.Set("TWITCH-EVENTSUB-MESSAGE-TIMESTAMP", "2")
	header.Set(HeaderMessageSignature, Compute("secret", "1", "2", body))
	assert.True(t, VerifyRequest(header, body, "secret"))

	header.Del(HeaderMessageSignature)
	assert.False(t, VerifyRequest(header, body, "secret"))
}
