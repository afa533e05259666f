package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func TestNewClient(t *testing.T) {
	if NewClient("https://example.com", "  ", "m") != nil {
		t.Error("expected nil client for empty key")
	}
	if NewClient("", "key", "m") == nil {
		t.Error("expected client for default base URL")
	}
}

func TestComplete(t *testing.T) {
	var got openai.ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("authorization = %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Pay yourself first."}}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/v1/", "secret", "small-model")
	reply, err := c.Complete(context.Background(), "be kind", "how to save?")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if reply != "Pay yourself first." {
		t.Errorf("reply = %q", reply)
	}
	if got.Model != "small-model" || len(got.Messages) != 2 {
		t.Fatalf("request = %+v", got)
	}
	if got.Messages[0].Role != openai.ChatMessageRoleSystem || got.Messages[1].Content != "how to save?" {
		t.Errorf("messages = %+v", got.Messages)
	}
}

func TestCompleteErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
		wantMsg string
	}{
		{"unauthorized", http.StatusUnauthorized, `{}`, ErrUnauthorized, ""},
		{"rate limited", http.StatusTooManyRequests, `{}`, ErrRateLimited, ""},
		{"rate limited with body", http.StatusTooManyRequests, `{"error":{"message":"slow down","type":"requests"}}`, ErrRateLimited, ""},
		{"forbidden", http.StatusForbidden, `{"error":{"message":"no access"}}`, ErrUnauthorized, ""},
		{"no choices", http.StatusOK, `{"choices":[]}`, ErrEmptyReply, ""},
		{"provider error", http.StatusBadRequest, `{"error":{"message":"model not found"}}`, nil, "model not found"},
		{"garbage", http.StatusBadGateway, `<html>`, nil, "unexpected status 502"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL, "k", "m").Complete(context.Background(), "s", "u")
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("err = %v, want it to mention %q", err, tt.wantMsg)
			}
		})
	}
}
