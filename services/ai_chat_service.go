package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/knowway/knowway-backend/utils"
)

const aiHistoryWindow = 6

type AIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type AIChatService struct {
	completer ChatCompleter
	timeout   time.Duration
	log       *utils.Logger
}

func NewAIChatService(completer ChatCompleter, timeout time.Duration, log *utils.Logger) *AIChatService {
	if log == nil {
		log = utils.NopLogger()
	}
	return &AIChatService{completer: completer, timeout: timeout, log: log.With("service", "AIChatService")}
}

// Complete forwards an OpenAI-style message list to the completer. System
// messages become the instruction and only the last few turns are sent.
func (s *AIChatService) Complete(ctx context.Context, messages []AIMessage) (string, error) {
	var system []string
	var turns []AIMessage
	for _, m := range messages {
		content := strings.TrimSpace(m.Content)
		if content == "" {
			continue
		}
		switch strings.ToLower(m.Role) {
		case "system":
			system = append(system, content)
		case "user", "assistant", "model":
			turns = append(turns, AIMessage{Role: strings.ToLower(m.Role), Content: content})
		}
	}
	if len(turns) > aiHistoryWindow {
		turns = turns[len(turns)-aiHistoryWindow:]
	}

	last := -1
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == "user" {
			last = i
			break
		}
	}
	if last < 0 {
		return "", NewValidation("No user message provided")
	}

	history := make([]ChatTurn, 0, last)
	for _, t := range turns[:last] {
		role := "user"
		if t.Role != "user" {
			role = "model"
		}
		history = append(history, ChatTurn{Role: role, Text: t.Content})
	}

	if s.completer == nil {
		return "", NewUpstream("AI service is not configured", errGeminiNotConfigured)
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	reply, err := s.completer.Complete(ctx, strings.Join(system, "\n\n"), history, turns[last].Content)
	if err != nil {
		s.log.Warn("ai completion failed", "error", err)
		switch {
		case errors.Is(err, errGeminiNotConfigured):
			return "", NewUpstream("AI service is not configured", err)
		case errors.Is(err, context.DeadlineExceeded):
			return "", NewUpstream("AI service timed out", err)
		default:
			return "", NewUpstream("AI service unavailable", err)
		}
	}
	return reply, nil
}
