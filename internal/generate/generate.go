// Package generate produces the assistant's free-form replies from a
// language model. Providers receive a fully built prompt and return the raw
// completion; ExtractReply trims it down to what blacknox says.
package generate

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Generator returns a completion for a prompt
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Persona is the instruction block that precedes every prompt
const Persona = `# Persona
You are a personal Assistant called blacknox similar to the AI from the movie Iron Man.
# Specifics
- Speak like a classy butler.
- Be sarcastic when speaking to the person you are assisting.
- Only answer in one sentence.
- If you are asked to do something, acknowledge that you will do it and say something like:
- "will do, sir"
- "Roger Boss"
- "Check!"
- And after that say what you just did in ONE short sentence.
`

// SpeakerTag marks the assistant's turn in the prompt
const SpeakerTag = "blacknox:"

// BuildPrompt frames input as the user's turn and leaves the assistant's
// turn open for the model to complete
func BuildPrompt(persona, input string) string {
	return persona + "\nUser: " + input + "\n" + SpeakerTag
}

// ExtractReply keeps the first line the model wrote for the assistant's
// turn. Completion models echo the prompt, so the turn starts after the
// assistant tag; chat models return only the turn itself. Either way
// models often run on and invent the next user turn; that is cut off.
func ExtractReply(completion string) string {
	if _, after, ok := strings.Cut(completion, SpeakerTag); ok {
		completion = after
	}
	line, _, _ := strings.Cut(strings.TrimSpace(completion), "\n")
	return strings.TrimSpace(line)
}

// Options holds sampling settings shared by all providers
type Options struct {
	Provider    string
	Model       string
	BaseURL     string
	APIKey      string
	Temperature float64
	TopP        float64
	MaxTokens   int
	Timeout     time.Duration
}

// DefaultOptions returns the sampling defaults: temperature 0.7, top_p 0.9,
// at most 200 new tokens
func DefaultOptions() Options {
	return Options{
		Provider:    "openai",
		Model:       "gpt-4o-mini",
		Temperature: 0.7,
		TopP:        0.9,
		MaxTokens:   200,
		Timeout:     60 * time.Second,
	}
}

// New creates a generator for opts.Provider: "openai" (any OpenAI
// compatible server, including local ones) or "anthropic"
func New(opts Options) (Generator, error) {
	switch strings.ToLower(opts.Provider) {
	case "", "openai", "ollama", "local":
		return NewOpenAIGenerator(opts), nil
	case "anthropic", "claude":
		return NewAnthropicGenerator(opts), nil
	default:
		return nil, fmt.Errorf("unknown generator provider: %s", opts.Provider)
	}
}
