package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"budget/internal/core"
	"budget/internal/log"
)

var (
	// ErrPremiumRequired is returned when a free account asks the assistant.
	ErrPremiumRequired = errors.New("premium subscription required")
	// ErrAssistantUnavailable is returned when no model is configured.
	// Callers show FallbackReply.
	ErrAssistantUnavailable = errors.New("assistant not configured")
)

const (
	// UpgradeMessage is shown to free accounts instead of an answer.
	UpgradeMessage = "I'd love to help you with that! The Financial Assistant is a premium feature that costs $2.99/month. " +
		"With premium access, you'll get general financial education, budgeting tips, and saving strategies. " +
		"Please remember that I'm not a licensed financial advisor - my suggestions are for educational purposes only."

	// FallbackReply is shown when the model cannot be reached.
	FallbackReply = "I'm sorry, I'm having trouble right now. Please try again in a moment."

	disclaimerFooter = "\n\n*Please remember: This is general educational information only. I'm not a licensed financial advisor. " +
		"For personalized financial advice, please consult with a qualified professional.*"

	maxQuestionLen = 2000
)

const assistantPrompt = `You are a helpful, supportive financial education assistant for people who struggle with budgeting and money management.

IMPORTANT DISCLAIMERS YOU MUST FOLLOW:
- You are NOT a licensed financial advisor
- Your advice is for EDUCATIONAL PURPOSES ONLY
- Always remind users to consult with qualified financial professionals for personalized advice
- Never provide specific investment advice or tax advice
- Focus on general budgeting principles, saving strategies, and financial literacy

Your tone should be:
- Encouraging and non-judgmental
- Simple and easy to understand
- Empathetic to financial stress and anxiety`

// Completer sends a prompt to a language model and returns its reply.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// AssistantService answers budgeting questions for premium accounts.
type AssistantService struct {
	completer Completer
	logger    *log.Logger
}

// NewAssistantService accepts a nil completer; premium questions then fail
// with ErrAssistantUnavailable.
func NewAssistantService(completer Completer, logger *log.Logger) *AssistantService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &AssistantService{completer: completer, logger: logger.WithComponent(log.ComponentAssistant)}
}

// Ask answers question for the account in session. Free accounts get
// ErrPremiumRequired; callers show UpgradeMessage.
func (a *AssistantService) Ask(ctx context.Context, session core.Session, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("question cannot be empty: %w", core.ErrInvalidArgument)
	}
	if len(question) > maxQuestionLen {
		return "", fmt.Errorf("question too long (max %d characters): %w", maxQuestionLen, core.ErrInvalidArgument)
	}
	if !session.Premium() {
		return "", ErrPremiumRequired
	}
	if a.completer == nil {
		return "", ErrAssistantUnavailable
	}

	reply, err := a.completer.Complete(ctx, systemPrompt(session), question)
	if err != nil {
		a.logger.ErrorContext(ctx, "Assistant request failed", log.FieldUser, session.UserEmail, log.FieldError, err)
		return "", fmt.Errorf("assistant: %w", err)
	}
	return strings.TrimSpace(reply) + disclaimerFooter, nil
}

func systemPrompt(s core.Session) string {
	if s.FullName == "" {
		return assistantPrompt
	}
	return assistantPrompt + "\n\nThe user's name is " + s.FullName + "."
}
