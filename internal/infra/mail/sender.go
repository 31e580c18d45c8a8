package mail

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"gopkg.in/gomail.v2"
)

//go:embed templates/outreach.html
var templates embed.FS

var outreachTemplate = template.Must(template.ParseFS(templates, "templates/outreach.html"))

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type EmailSender struct {
	From       string
	SenderName string
	Dialer     dialer
}

func NewEmailSender(cfg Config) *EmailSender {
	from := cfg.From
	if from == "" {
		from = cfg.User
	}
	name := cfg.SenderName
	if name == "" {
		name = "ClientPulse"
	}
	return &EmailSender{
		From:       from,
		SenderName: name,
		Dialer:     gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
	}
}

// SendOutreach emails the outreach draft. The body is plain text; blank
// lines split it into paragraphs.
func (s *EmailSender) SendOutreach(to, subject, body string) error {
	var html bytes.Buffer
	data := OutreachEmailData{Paragraphs: paragraphs(body), SenderName: s.SenderName}
	if err := outreachTemplate.Execute(&html, data); err != nil {
		return fmt.Errorf("failed to render outreach template: %w", err)
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.From, s.SenderName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)
	m.AddAlternative("text/html", html.String())

	if err := s.Dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send outreach email: %w", err)
	}
	return nil
}

func paragraphs(body string) []string {
	var out []string
	for _, p := range strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
