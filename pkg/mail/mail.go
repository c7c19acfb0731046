// Package mail delivers welcome messages to newly created accounts.
package mail

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/despuyt/mmsync/pkg/config"
)

// Sender sends welcome mail over SMTP with STARTTLS.
type Sender struct {
	cfg    config.MailConfig
	logger *log.Logger

	// send is swapped out in tests.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSender returns a Sender for the given mail configuration.
func NewSender(cfg config.MailConfig, logger *log.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger.WithPrefix("mail"),
		send:   smtp.SendMail,
	}
}

// SendWelcome mails the initial credentials to a freshly created account.
func (s *Sender) SendWelcome(email, username, password string) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.User != "" {
		auth = smtp.PlainAuth("", s.cfg.User, s.cfg.Pass, s.cfg.Host)
	}

	msg := s.message(email, username, password)
	if err := s.send(addr, auth, s.cfg.From, []string{email}, msg); err != nil {
		return fmt.Errorf("send welcome mail: %w", err)
	}

	s.logger.Debug("sent welcome mail", "to", email)
	return nil
}

func (s *Sender) message(email, username, password string) []byte {
	site := s.cfg.SiteName
	if site == "" {
		site = "Mattermost"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", email)
	fmt.Fprintf(&b, "Subject: Your %s account\r\n", site)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	fmt.Fprintf(&b, "An account has been created for you on %s.\r\n\r\n", site)
	fmt.Fprintf(&b, "Username: %s\r\n", username)
	fmt.Fprintf(&b, "Password: %s\r\n\r\n", password)
	b.WriteString("Please log in and change your password.\r\n")
	return []byte(b.String())
}
