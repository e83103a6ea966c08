// Package discord polls alert channels over the Discord REST API. The rest of
// the system treats message ids as opaque dedup keys and never talks to
// Discord directly.
package discord

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Message is the transport unit handed to classification. EmbedDescription
// carries the text for embed-style alerts; Content for plain ones.
type Message struct {
	ID               string
	Content          string
	Timestamp        string
	MentionsEveryone bool
	EmbedDescription string
}

// Text returns the classifiable text: the first embed description when
// present, otherwise the raw content.
func (m Message) Text() string {
	if m.EmbedDescription != "" {
		return m.EmbedDescription
	}
	return m.Content
}

type Client struct {
	baseURL    *url.URL
	token      string
	httpClient *http.Client
}

func NewClient(apiBase, token string, timeout time.Duration) (*Client, error) {
	raw := strings.TrimSpace(apiBase)
	if raw == "" {
		return nil, fmt.Errorf("discord api base cannot be empty")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse discord api base: %w", err)
	}
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("discord token cannot be empty")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    parsed,
		token:      strings.TrimSpace(token),
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// SetHTTPClient sets the HTTP client for testing.
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// LatestMessage fetches the newest message in the channel, or nil when the
// channel is empty.
func (c *Client) LatestMessage(ctx context.Context, channelID string) (*Message, error) {
	msgs, err := c.RecentMessages(ctx, channelID, 1)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, nil
	}
	return &msgs[0], nil
}

// RecentMessages fetches up to limit messages, newest first.
func (c *Client) RecentMessages(ctx context.Context, channelID string, limit int) ([]Message, error) {
	if strings.TrimSpace(channelID) == "" {
		return nil, fmt.Errorf("channel id cannot be empty")
	}
	if limit <= 0 {
		limit = 1
	}
	endpoint := *c.baseURL
	endpoint.Path = strings.TrimRight(endpoint.Path, "/") + "/channels/" + channelID + "/messages"
	q := endpoint.Query()
	q.Set("limit", strconv.Itoa(limit))
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch messages: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read messages response: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("discord status=%d: %s", resp.StatusCode, truncate(string(body), 200))
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("discord returned invalid json")
	}

	var out []Message
	gjson.ParseBytes(body).ForEach(func(_, item gjson.Result) bool {
		out = append(out, Message{
			ID:               item.Get("id").String(),
			Content:          item.Get("content").String(),
			Timestamp:        item.Get("timestamp").String(),
			MentionsEveryone: item.Get("mention_everyone").Bool(),
			EmbedDescription: item.Get("embeds.0.description").String(),
		})
		return true
	})
	return out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
