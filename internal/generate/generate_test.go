package generate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPrompt(t *testing.T) {
	got := BuildPrompt("# Persona", "open the pod bay doors")
	assert.Equal(t, "# Persona\nUser: open the pod bay doors\nblacknox:", got)

	t.Run("persona leaves a blank line before the user turn", func(t *testing.T) {
		assert.Contains(t, BuildPrompt(Persona, "hi"), "ONE short sentence.\n\nUser: hi\nblacknox:")
	})
}

func TestExtractReply(t *testing.T) {
	tests := []struct {
		name       string
		completion string
		want       string
	}{
		{"after tag", "blacknox: Will do, sir.", "Will do, sir."},
		{"echoed prompt", Persona + "\nUser: hi\nblacknox:  Good evening.  \nUser: thanks\nblacknox: Anytime.", "Good evening."},
		{"no tag", "  Check!  ", "Check!"},
		{"multi line without tag", "Roger Boss.\nI have dimmed the lights.\n", "Roger Boss."},
		{"chat reply runs on", "Very good, sir.\nUser: and the lights?\nAssistant: done", "Very good, sir."},
		{"chat reply leading blank lines", "\n\n Check! \nUser: thanks", "Check!"},
		{"blank after tag", "blacknox:\n\nIndeed, sir.\nUser: ok", "Indeed, sir."},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractReply(tt.completion))
		})
	}
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, 0.7, opts.Temperature)
	assert.Equal(t, 0.9, opts.TopP)
	assert.Equal(t, 200, opts.MaxTokens)
}

func TestNew(t *testing.T) {
	g, err := New(Options{Provider: "openai"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIGenerator{}, g)

	g, err = New(Options{Provider: "Anthropic"})
	require.NoError(t, err)
	assert.IsType(t, &AnthropicGenerator{}, g)

	_, err = New(Options{Provider: "markov"})
	assert.Error(t, err)
}

func testOptions(baseURL string) Options {
	opts := DefaultOptions()
	opts.BaseURL = baseURL
	opts.APIKey = "test-key"
	opts.Timeout = 5 * time.Second
	return opts
}

func TestOpenAIGenerator(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   body["model"],
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": " Will do, sir."},
			}},
		})
	}))
	defer server.Close()

	g := NewOpenAIGenerator(testOptions(server.URL))
	got, err := g.Generate(context.Background(), BuildPrompt(Persona, "dim the lights"))
	require.NoError(t, err)
	assert.Equal(t, " Will do, sir.", got)

	assert.Equal(t, "gpt-4o-mini", body["model"])
	assert.InDelta(t, 0.7, body["temperature"], 1e-9)
	assert.InDelta(t, 0.9, body["top_p"], 1e-9)
	assert.EqualValues(t, 200, body["max_completion_tokens"])

	messages := body["messages"].([]any)
	require.Len(t, messages, 1)
	content := messages[0].(map[string]any)["content"].(string)
	assert.True(t, strings.HasSuffix(content, "User: dim the lights\nblacknox:"))
}

func TestOpenAIGenerator_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"model not found","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	_, err := NewOpenAIGenerator(testOptions(server.URL)).Generate(context.Background(), "hi")
	require.Error(t, err)

	var ge *Error
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, "openai", ge.Provider)
	assert.Equal(t, http.StatusBadRequest, ge.StatusCode)
	assert.True(t, IsGenerationError(err))
}

func TestOpenAIGenerator_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","created":1,"model":"m","choices":[]}`))
	}))
	defer server.Close()

	_, err := NewOpenAIGenerator(testOptions(server.URL)).Generate(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrEmptyReply)
}

func TestAnthropicGenerator(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":          "msg_test",
			"type":        "message",
			"role":        "assistant",
			"model":       body["model"],
			"stop_reason": "end_turn",
			"content": []map[string]any{
				{"type": "text", "text": "Roger Boss. "},
				{"type": "text", "text": "The kettle is on."},
			},
			"usage": map[string]any{"input_tokens": 10, "output_tokens": 7},
		})
	}))
	defer server.Close()

	opts := testOptions(server.URL + "/v1")
	opts.Model = "claude-haiku-4-5"
	got, err := NewAnthropicGenerator(opts).Generate(context.Background(), "make tea")
	require.NoError(t, err)
	assert.Equal(t, "Roger Boss. The kettle is on.", got)

	assert.Equal(t, "claude-haiku-4-5", body["model"])
	assert.EqualValues(t, 200, body["max_tokens"])
	assert.InDelta(t, 0.7, body["temperature"], 1e-9)
	assert.NotContains(t, body, "top_p")
}

func TestAnthropicGenerator_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"bad model"}}`))
	}))
	defer server.Close()

	_, err := NewAnthropicGenerator(testOptions(server.URL)).Generate(context.Background(), "hi")

	var ge *Error
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, "anthropic", ge.Provider)
	assert.Equal(t, http.StatusBadRequest, ge.StatusCode)
}

func TestMock(t *testing.T) {
	m := &Mock{}
	got, err := m.Generate(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "Very good, sir.", ExtractReply(got))
	assert.Equal(t, []string{"p1"}, m.Prompts())
}
