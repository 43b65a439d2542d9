package mail

import (
	"context"
	"fmt"
	"net/smtp"
)

// SMTPSender delivers messages over plain SMTP with optional AUTH.
type SMTPSender struct {
	host     string
	port     string
	username string
	password string
}

// NewSMTPSender creates a new SMTP sender. Host and port are required.
func NewSMTPSender(host, port, username, password string) (*SMTPSender, error) {
	if host == "" || port == "" {
		return nil, fmt.Errorf("SMTP host and port are required")
	}
	return &SMTPSender{host: host, port: port, username: username, password: password}, nil
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	addr := fmt.Sprintf("%s:%s", s.host, s.port)

	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}

	headers := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n", msg.From, msg.To, msg.Subject)
	if err := smtp.SendMail(addr, auth, msg.From, []string{msg.To}, []byte(headers+msg.Body)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}
	return nil
}
