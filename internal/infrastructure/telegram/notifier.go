package telegram

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"WikiPagesBot/internal/ports"
)

// Notifier announces the selected page URL to every configured chat via the
// Telegram bot API.
type Notifier struct {
	botToken string
	chatIDs  []string
	client   *http.Client
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier registers the bot token and recipient chat identifiers.
func NewNotifier(botToken string, chatIDs []string) *Notifier {
	return &Notifier{
		botToken: botToken,
		chatIDs:  chatIDs,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// Announce posts the same message to each recipient in order. A delivery
// failure aborts the run; the caller must not record the page as sent.
func (n *Notifier) Announce(ctx context.Context, text string) error {
	if n.botToken == "" || len(n.chatIDs) == 0 {
		return fmt.Errorf("telegram notifier misconfigured")
	}

	for _, chatID := range n.chatIDs {
		if err := n.send(ctx, chatID, text); err != nil {
			return fmt.Errorf("chat %s: %w", chatID, err)
		}
	}
	return nil
}

func (n *Notifier) send(ctx context.Context, chatID, text string) error {
	endpoint := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", n.botToken)
	form := url.Values{}
	form.Set("chat_id", chatID)
	form.Set("text", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram error: %s", resp.Status)
	}

	return nil
}
