package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type slackText struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Emoji bool   `json:"emoji,omitempty"`
}

type slackBlock struct {
	Type string     `json:"type"`
	Text *slackText `json:"text,omitempty"`
}

type slackPayload struct {
	Text   string       `json:"text"`
	Blocks []slackBlock `json:"blocks,omitempty"`
}

// SlackTransport posts Block Kit messages to an incoming webhook.
type SlackTransport struct {
	webhookURL string
	client     *http.Client
}

// NewSlackTransport creates a transport with the given request timeout.
func NewSlackTransport(webhookURL string, timeout time.Duration) *SlackTransport {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &SlackTransport{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: timeout},
	}
}

func (s *SlackTransport) Name() string { return "slack" }

func (s *SlackTransport) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(slackMessage(msg))
	if err != nil {
		return fmt.Errorf("failed to marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post slack webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("slack webhook error: status=%d body=%s", resp.StatusCode, string(snippet))
	}
	return nil
}

func slackMessage(msg Message) slackPayload {
	p := slackPayload{Text: msg.Fallback}
	if msg.Title == "" && len(msg.Sections) == 0 {
		return p
	}

	if msg.Title != "" {
		p.Blocks = append(p.Blocks,
			slackBlock{Type: "header", Text: &slackText{Type: "plain_text", Text: msg.Title, Emoji: true}},
			slackBlock{Type: "divider"},
		)
	}
	for _, section := range msg.Sections {
		p.Blocks = append(p.Blocks, slackBlock{Type: "section", Text: &slackText{Type: "mrkdwn", Text: section}})
	}
	if msg.Link != "" {
		text := msg.LinkText
		if text == "" {
			text = msg.Link
		}
		p.Blocks = append(p.Blocks,
			slackBlock{Type: "divider"},
			slackBlock{Type: "section", Text: &slackText{Type: "mrkdwn", Text: fmt.Sprintf("<%s|%s>", msg.Link, text)}},
		)
	}
	return p
}
