package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	linePushURL = "https://api.line.me/v2/bot/message/push"
	// MaxMessageChars is LINE's limit for one text message.
	MaxMessageChars = 5000
	// MaxMessagesPerPush is LINE's limit for one push request.
	MaxMessagesPerPush = 5
)

// ErrTooLong is returned when a digest does not fit in one push.
var ErrTooLong = errors.New("sink: digest exceeds LINE push limits")

// HTTPClient defines the interface for HTTP operations
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// LINE pushes the digest to a user, group or room through the Messaging API.
type LINE struct {
	token      string
	to         string
	endpoint   string
	httpClient HTTPClient
}

// LINEOption allows configuring the LINE sink
type LINEOption func(*LINE)

// WithLINEHTTPClient sets a custom HTTP client
func WithLINEHTTPClient(c HTTPClient) LINEOption {
	return func(l *LINE) { l.httpClient = c }
}

// WithLINEEndpoint overrides the push endpoint
func WithLINEEndpoint(url string) LINEOption {
	return func(l *LINE) { l.endpoint = url }
}

// NewLINE returns a LINE sink pushing to the recipient to.
func NewLINE(token, to string, opts ...LINEOption) (*LINE, error) {
	if token == "" {
		return nil, fmt.Errorf("sink: LINE channel access token not set")
	}
	if to == "" {
		return nil, fmt.Errorf("sink: LINE recipient not set")
	}
	l := &LINE{
		token:      token,
		to:         to,
		endpoint:   linePushURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

func (l *LINE) Name() string { return NameLINE }

type textMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type pushRequest struct {
	To       string        `json:"to"`
	Messages []textMessage `json:"messages"`
}

func (l *LINE) Deliver(ctx context.Context, text string) error {
	parts := SplitMessages(strings.TrimRight(text, "\n"), MaxMessageChars)
	if len(parts) == 0 {
		return nil
	}
	if len(parts) > MaxMessagesPerPush {
		return fmt.Errorf("%w: %d messages needed", ErrTooLong, len(parts))
	}

	body := pushRequest{To: l.to}
	for _, p := range parts {
		body.Messages = append(body.Messages, textMessage{Type: "text", Text: p})
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal push: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+l.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("push failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}

// SplitMessages breaks text into chunks of at most max characters,
// cutting on line boundaries where possible. A single line longer than max
// is cut mid-line.
func SplitMessages(text string, max int) []string {
	if text == "" {
		return nil
	}
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return []string{text}
	}

	var (
		chunks []string
		cur    strings.Builder
		curLen int
	)
	flush := func() {
		if curLen > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
			curLen = 0
		}
	}

	for _, line := range strings.Split(text, "\n") {
		n := utf8.RuneCountInString(line)
		sep := 0
		if curLen > 0 {
			sep = 1
		}
		if curLen+sep+n <= max {
			if sep == 1 {
				cur.WriteByte('\n')
			}
			cur.WriteString(line)
			curLen += sep + n
			continue
		}

		flush()
		for n > max {
			runes := []rune(line)
			chunks = append(chunks, string(runes[:max]))
			line = string(runes[max:])
			n -= max
		}
		cur.WriteString(line)
		curLen = n
	}
	flush()
	return chunks
}
