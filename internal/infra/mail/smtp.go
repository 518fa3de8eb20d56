package mail

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SMTPConfig holds relay settings. User and Password may be empty for an open relay.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// SMTP sends HTML mail through a relay.
type SMTP struct {
	cfg      SMTPConfig
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTP(cfg SMTPConfig) *SMTP {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &SMTP{cfg: cfg, sendMail: smtp.SendMail}
}

func (s *SMTP) Send(ctx context.Context, to, subject, html string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := uuid.NewString()
	msg := buildMessage(s.cfg.From, to, subject, html, id, time.Now())

	var auth smtp.Auth
	if s.cfg.User != "" {
		auth = smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)
	}
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	if err := s.sendMail(addr, auth, s.cfg.From, []string{to}, msg); err != nil {
		return "", fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return id, nil
}

func buildMessage(from, to, subject, html, id string, at time.Time) []byte {
	var b strings.Builder
	domainPart := "devexchange.local"
	if i := strings.LastIndex(from, "@"); i >= 0 && i < len(from)-1 {
		domainPart = strings.Trim(from[i+1:], "> ")
	}
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	fmt.Fprintf(&b, "Date: %s\r\n", at.UTC().Format(time.RFC1123Z))
	fmt.Fprintf(&b, "Message-ID: <%s@%s>\r\n", id, domainPart)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(html)
	return []byte(b.String())
}
