package mail

import (
	"context"
	"fmt"
	"time"

	souqhttp "github.com/shashiranjanraj/souq/pkg/http"
)

// API sends through a JSON email API such as Resend.
type API struct {
	client   *souqhttp.Client
	endpoint string
	key      string
	from     Sender
}

// NewAPI returns an API driver posting to endpoint with a bearer key.
func NewAPI(client *souqhttp.Client, endpoint, key string, from Sender) *API {
	if client == nil {
		client = souqhttp.New(nil)
	}
	return &API{client: client, endpoint: endpoint, key: key, from: from}
}

type apiPayload struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
}

func (a *API) Send(ctx context.Context, msg Message) error {
	if err := validate(msg); err != nil {
		return err
	}

	resp, err := a.client.Post(a.endpoint).
		Bearer(a.key).
		Body(apiPayload{From: a.from.String(), To: msg.To, Subject: msg.Subject, HTML: msg.HTML, Text: msg.Text}).
		Timeout(10*time.Second).
		Retry(3, 500*time.Millisecond).
		Send(ctx)
	if err != nil {
		return fmt.Errorf("mail/api: %w", err)
	}
	if err := resp.Throw(); err != nil {
		return fmt.Errorf("mail/api: %w", err)
	}
	return nil
}
