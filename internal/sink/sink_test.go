package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"
)

type failingSink struct{ name string }

func (f failingSink) Name() string                           { return f.name }
func (f failingSink) Deliver(context.Context, string) error { return errors.New("boom") }

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
		unknown bool
	}{
		{name: NameStdout},
		{name: NameFile, opts: Options{FilePath: "out.txt"}},
		{name: NameFile, wantErr: true},
		{name: NameClipboard},
		{name: NameLINE, opts: Options{LINEToken: "t", LINETo: "U1"}},
		{name: NameLINE, opts: Options{LINEToken: "t"}, wantErr: true},
		{name: "slack", wantErr: true, unknown: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.name, tt.opts)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if errors.Is(err, ErrUnknown) != tt.unknown {
					t.Errorf("unexpected error kind: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if s.Name() != tt.name {
				t.Errorf("Name() = %q, want %q", s.Name(), tt.name)
			}
		})
	}
}

func TestDeliverJoinsErrors(t *testing.T) {
	var buf bytes.Buffer
	sinks := []Sink{
		failingSink{name: "first"},
		NewWriter(NameStdout, &buf),
		failingSink{name: "second"},
	}

	err := Deliver(context.Background(), sinks, "digest\n")
	if err == nil {
		t.Fatal("expected error")
	}
	if buf.String() != "digest\n" {
		t.Errorf("working sink should still deliver, got %q", buf.String())
	}
	msg := err.Error()
	if !strings.Contains(msg, "first: boom") || !strings.Contains(msg, "second: boom") {
		t.Errorf("expected both failures reported, got %q", msg)
	}
}

func TestFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "digest.txt")
	s := &File{Path: path}

	if err := s.Deliver(context.Background(), "hello\n"); err != nil {
		t.Fatalf("Deliver failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello\n" {
		t.Errorf("unexpected file content %q", data)
	}
}

func TestClipboardSink(t *testing.T) {
	var copied string
	s := &Clipboard{write: func(text string) error {
		copied = text
		return nil
	}}

	if err := s.Deliver(context.Background(), "copy me"); err != nil {
		t.Fatalf("Deliver failed: %v", err)
	}
	if copied != "copy me" {
		t.Errorf("clipboard got %q", copied)
	}
}

func TestLINEDeliver(t *testing.T) {
	var got pushRequest
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	s, err := NewLINE("token", "U123", WithLINEEndpoint(server.URL))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Deliver(context.Background(), "■ 新規 (1)\n- P-001: Hook\n"); err != nil {
		t.Fatalf("Deliver failed: %v", err)
	}

	if auth != "Bearer token" {
		t.Errorf("unexpected auth header %q", auth)
	}
	if got.To != "U123" || len(got.Messages) != 1 {
		t.Fatalf("unexpected push %+v", got)
	}
	if got.Messages[0].Type != "text" || got.Messages[0].Text != "■ 新規 (1)\n- P-001: Hook" {
		t.Errorf("unexpected message %+v", got.Messages[0])
	}
}

func TestLINEDeliverError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"The request body has 1 error(s)"}`))
	}))
	defer server.Close()

	s, _ := NewLINE("token", "U123", WithLINEEndpoint(server.URL))
	err := s.Deliver(context.Background(), "x")
	if err == nil || !strings.Contains(err.Error(), "400") {
		t.Errorf("expected status error, got %v", err)
	}
}

func TestLINEDeliverTooLong(t *testing.T) {
	s, _ := NewLINE("token", "U123", WithLINEHTTPClient(nil))
	text := strings.Repeat(strings.Repeat("あ", 100)+"\n", 300)

	err := s.Deliver(context.Background(), text)
	if !errors.Is(err, ErrTooLong) {
		t.Errorf("expected ErrTooLong, got %v", err)
	}
}

func TestSplitMessages(t *testing.T) {
	tests := []struct {
		name string
		text string
		max  int
		want []string
	}{
		{"fits", "a\nb", 10, []string{"a\nb"}},
		{"empty", "", 10, nil},
		{"line boundary", "aaaa\nbbbb\ncc", 9, []string{"aaaa\nbbbb", "cc"}},
		{"long line cut", "abcdefgh\nxy", 3, []string{"abc", "def", "gh", "xy"}},
		{"runes not bytes", "ああ\nいい", 2, []string{"ああ", "いい"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitMessages(tt.text, tt.max)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") || len(got) != len(tt.want) {
				t.Errorf("SplitMessages() = %q, want %q", got, tt.want)
			}
			for _, chunk := range got {
				if utf8.RuneCountInString(chunk) > tt.max {
					t.Errorf("chunk %q exceeds %d characters", chunk, tt.max)
				}
			}
		})
	}
}
