package quizClient

import (
	"context"
	"log/slog"
)

// PromptKind identifies a user-visible prompt.
type PromptKind int

const (
	// PromptRelogin asks the user to log in again after the backend rejected the credential.
	PromptRelogin PromptKind = iota + 1
	// PromptRetryLater tells the user something went wrong and to try again later.
	PromptRetryLater
)

func (k PromptKind) String() string {
	switch k {
	case PromptRelogin:
		return "relogin"
	case PromptRetryLater:
		return "retry_later"
	default:
		return "unknown"
	}
}

// Prompt is a message the application should show to the user.
type Prompt struct {
	Kind    PromptKind
	Message string
}

// Prompter shows prompts to the user. It is called synchronously from the goroutine that
// observed the failure, which may be the avatar fetch task.
type Prompter interface {
	Prompt(ctx context.Context, p Prompt)
}

// PrompterFunc adapts a function to [Prompter].
type PrompterFunc func(ctx context.Context, p Prompt)

// Prompt calls f(ctx, p).
func (f PrompterFunc) Prompt(ctx context.Context, p Prompt) {
	f(ctx, p)
}

type logPrompter struct {
	logger *slog.Logger
}

func (l logPrompter) Prompt(ctx context.Context, p Prompt) {
	l.logger.WarnContext(ctx, p.Message, "prompt", p.Kind.String())
}
