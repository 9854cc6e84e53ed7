// Package mail delivers transactional email.
//
// Three drivers share the Mailer interface:
//
//	api   JSON email API (Resend-compatible) over pkg/http
//	smtp  plain SMTP, implicit TLS on port 465
//	log   writes the message to the logger; used in development
//
// Tests use Recorder.
package mail

import (
	"context"
	"fmt"
	"strings"

	"github.com/shashiranjanraj/souq/config"
	souqhttp "github.com/shashiranjanraj/souq/pkg/http"
)

// Message is one outgoing email.
type Message struct {
	To      []string
	Subject string
	HTML    string
	Text    string
}

// Mailer sends a message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Sender is the From identity.
type Sender struct {
	Address string
	Name    string
}

func (s Sender) String() string {
	if s.Name == "" {
		return s.Address
	}
	return fmt.Sprintf("%s <%s>", s.Name, s.Address)
}

// FromConfig builds the driver selected by MAIL_DRIVER.
func FromConfig(client *souqhttp.Client) (Mailer, error) {
	from := Sender{Address: config.MailFrom(), Name: config.MailFromName()}

	switch config.MailDriver() {
	case "api":
		if config.MailAPIKey() == "" {
			return nil, fmt.Errorf("mail: MAIL_API_KEY not configured")
		}
		return NewAPI(client, config.MailAPIURL(), config.MailAPIKey(), from), nil
	case "smtp":
		return NewSMTP(SMTPConfigFromEnv(), from), nil
	case "log", "":
		return Log{From: from}, nil
	default:
		return nil, fmt.Errorf("mail: unknown MAIL_DRIVER %q", config.MailDriver())
	}
}

func validate(msg Message) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("mail: no recipients")
	}
	for _, to := range msg.To {
		if strings.ContainsAny(to, "\r\n") {
			return fmt.Errorf("mail: invalid recipient %q", to)
		}
	}
	if strings.ContainsAny(msg.Subject, "\r\n") {
		return fmt.Errorf("mail: subject must be a single line")
	}
	return nil
}
