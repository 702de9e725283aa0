package notifications

import (
	"fmt"
	"net/smtp"
	"strings"
)

// Mailer sends plain-text notification mail over SMTP. When the SMTP
// host or recipient is unconfigured every send is a silent no-op; mail
// is an advisory feature and must never take the server down.
type Mailer struct {
	host string
	port string
	user string
	pass string
	from string
	to   string

	// sendMail is swapped in tests.
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewMailer(host, port, user, pass, from, to string) *Mailer {
	if port == "" {
		port = "587"
	}
	return &Mailer{
		host: host, port: port,
		user: user, pass: pass,
		from: from, to: to,
		sendMail: smtp.SendMail,
	}
}

func (m *Mailer) Enabled() bool {
	return m.host != "" && m.from != "" && m.to != ""
}

// Send delivers one message to the configured recipients. Recipients
// are a comma-separated list.
func (m *Mailer) Send(subject, message string) error {
	if !m.Enabled() {
		return nil
	}

	addr := fmt.Sprintf("%s:%s", m.host, m.port)
	body := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-version: 1.0;\r\nContent-Type: text/plain; charset=\"UTF-8\";\r\n\r\n%s",
		m.from, m.to, subject, message))

	var auth smtp.Auth
	if m.user != "" && m.pass != "" {
		auth = smtp.PlainAuth("", m.user, m.pass, m.host)
	}

	return m.sendMail(addr, auth, m.from, strings.Split(m.to, ","), body)
}

// UploadSubject and UploadMessage build the new-content announcement.
func UploadSubject(siteName string) string {
	if siteName == "" {
		siteName = "ShadowPlex"
	}
	return fmt.Sprintf("New content added to %s", siteName)
}

func UploadMessage(kind, title string, id int64) string {
	return fmt.Sprintf("A new %s was just added to the catalog:\r\n\r\n%s (id %d)\r\n", kind, title, id)
}
