// Package assistant holds the conversation logic of blacknox: the
// name-memory intercepts, the fallback to the text generator and the
// interactive loop that ties input, replies and spoken output together.
package assistant

import (
	"context"
	"log/slog"

	"github.com/emmett/blacknox/internal/generate"
	"github.com/emmett/blacknox/internal/log"
)

// Apology is the reply used when the generator fails for a turn
const Apology = "My apologies, I could not come up with an answer."

// RuleGenerated and RuleApology label replies that did not come from an intercept
const (
	RuleGenerated = ""
	RuleApology   = "apology"
)

// Reply is the outcome of one turn
type Reply struct {
	Text string

	// Rule names the intercept that produced Text. It is empty for
	// generated replies and RuleApology when generation failed.
	Rule string

	// Err is the generation error behind an apology
	Err error
}

// Assistant answers utterances
type Assistant struct {
	generator generate.Generator
	user      *UserContext
	persona   string
	logger    *slog.Logger
}

// New creates an assistant. An empty persona uses generate.Persona.
func New(generator generate.Generator, user *UserContext, persona string) *Assistant {
	if persona == "" {
		persona = generate.Persona
	}
	if user == nil {
		user = NewUserContext()
	}
	return &Assistant{
		generator: generator,
		user:      user,
		persona:   persona,
		logger:    log.Component("assistant"),
	}
}

// User returns the shared user context
func (a *Assistant) User() *UserContext {
	return a.user
}

// Respond produces the reply to one utterance. Intercepts are tried first;
// otherwise the generator is asked. A generation failure never escapes the
// turn: it is logged and answered with Apology.
func (a *Assistant) Respond(ctx context.Context, utterance string) Reply {
	if response, rule, ok := Intercept(a.user, utterance); ok {
		a.logger.Debug("intercepted", "rule", rule)
		return Reply{Text: response, Rule: rule}
	}

	completion, err := a.generator.Generate(ctx, generate.BuildPrompt(a.persona, utterance))
	if err == nil {
		if text := generate.ExtractReply(completion); text != "" {
			return Reply{Text: text}
		}
		err = generate.ErrEmptyReply
	}

	a.logger.Error("generation failed", "error", err)
	return Reply{Text: Apology, Rule: RuleApology, Err: err}
}
