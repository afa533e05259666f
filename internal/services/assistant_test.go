package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"budget/internal/core"
)

type fakeCompleter struct {
	reply  string
	err    error
	system string
	user   string
}

func (f *fakeCompleter) Complete(_ context.Context, system, user string) (string, error) {
	f.system, f.user = system, user
	return f.reply, f.err
}

func TestAssistantAsk(t *testing.T) {
	premium := core.Session{UserEmail: "ana@example.com", FullName: "Ana", Subscription: "premium"}
	free := core.Session{UserEmail: "bo@example.com", Subscription: "free"}

	tests := []struct {
		name      string
		session   core.Session
		question  string
		completer *fakeCompleter
		wantErr   error
		wantReply string
	}{
		{"premium gets answer with disclaimer", premium, "How do I start saving?", &fakeCompleter{reply: "Start small. "}, nil, "Start small."},
		{"free account", free, "How do I start saving?", &fakeCompleter{reply: "x"}, ErrPremiumRequired, ""},
		{"empty question", premium, "   ", &fakeCompleter{}, core.ErrInvalidArgument, ""},
		{"too long", premium, strings.Repeat("a", maxQuestionLen+1), &fakeCompleter{}, core.ErrInvalidArgument, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAssistantService(tt.completer, nil)
			got, err := a.Ask(context.Background(), tt.session, tt.question)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				if tt.completer.user != "" {
					t.Errorf("model called for a rejected question")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if !strings.HasPrefix(got, tt.wantReply) || !strings.HasSuffix(got, disclaimerFooter) {
				t.Errorf("reply = %q", got)
			}
			if !strings.Contains(tt.completer.system, "NOT a licensed financial advisor") {
				t.Errorf("system prompt missing disclaimer")
			}
			if !strings.Contains(tt.completer.system, "Ana") {
				t.Errorf("system prompt missing user name")
			}
		})
	}
}

func TestAssistantCompleterFailure(t *testing.T) {
	boom := errors.New("rate limited")
	a := NewAssistantService(&fakeCompleter{err: boom}, nil)
	_, err := a.Ask(context.Background(), core.Session{Subscription: "Premium"}, "hi")
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped completer error", err)
	}

	if _, err := NewAssistantService(nil, nil).Ask(context.Background(), core.Session{Subscription: "premium"}, "hi"); !errors.Is(err, ErrAssistantUnavailable) {
		t.Fatalf("err = %v, want ErrAssistantUnavailable without a completer", err)
	}
}
