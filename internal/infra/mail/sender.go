package mail

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/xavierca1/raccordement-leads/internal/entity"
)

type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

func NewEmailSender(host string, port int, user, password, from string) *EmailSender {
	return &EmailSender{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		From:     from,
		dial: func(host string, port int, user, password string) Dialer {
			return gomail.NewDialer(host, port, user, password)
		},
	}
}

// Send uses the agent's own SMTP account when configured, the default account otherwise.
func (s *EmailSender) Send(ctx context.Context, account *entity.SMTPSettings, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if msg.To == "" {
		return errors.New("destinatário vazio")
	}

	host, port, user, password, from := s.Host, s.Port, s.User, s.Password, s.From
	if account != nil && account.Configured() {
		host, port, user, password = account.Host, account.Port, account.Username, account.Password
		from = account.FromEmail
		if from == "" {
			from = account.Username
		}
	}
	if msg.From != "" {
		from = msg.From
	}
	if host == "" {
		return errors.New("smtp não configurado")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", msg.To)
	if msg.ReplyTo != "" {
		m.SetHeader("Reply-To", msg.ReplyTo)
	}
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)
	m.AddAlternative("text/html", textToHTML(msg.Body))

	if err := s.dial(host, port, user, password).DialAndSend(m); err != nil {
		return fmt.Errorf("erro ao enviar email SMTP: %w", err)
	}
	return nil
}

func textToHTML(body string) string {
	escaped := html.EscapeString(body)
	return "<p>" + strings.ReplaceAll(escaped, "\n", "<br>") + "</p>"
}
