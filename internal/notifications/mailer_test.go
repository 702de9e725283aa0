package notifications

import (
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendSkipsWhenUnconfigured(t *testing.T) {
	called := false
	m := NewMailer("", "", "", "", "noreply@example.com", "admin@example.com")
	m.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		called = true
		return nil
	}

	require.NoError(t, m.Send("subject", "body"))
	assert.False(t, called, "no SMTP dial without a configured host")
}

func TestSendBuildsMessage(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	m := NewMailer("mail.example.com", "", "", "", "noreply@example.com", "a@example.com,b@example.com")
	m.sendMail = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	require.NoError(t, m.Send("New content", "hello"))
	assert.Equal(t, "mail.example.com:587", gotAddr, "port defaults to 587")
	assert.Equal(t, "noreply@example.com", gotFrom)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, gotTo)
	assert.Contains(t, string(gotMsg), "Subject: New content\r\n")
	assert.Contains(t, string(gotMsg), "\r\n\r\nhello")
}

func TestUploadMessage(t *testing.T) {
	assert.Equal(t, "New content added to ShadowPlex", UploadSubject(""))
	assert.Equal(t, "New content added to MySite", UploadSubject("MySite"))
	msg := UploadMessage("movie", "Inception", 7)
	assert.Contains(t, msg, "movie")
	assert.Contains(t, msg, "Inception (id 7)")
}
