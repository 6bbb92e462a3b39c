package generation

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realtywizard/server/internal/models"
)

func chatServer(t *testing.T, arguments string, captured *map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		if captured != nil {
			require.NoError(t, json.Unmarshal(body, captured))
		}

		resp := map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1700000000,
			"model":   "gpt-4o-mini",
			"choices": []any{map[string]any{
				"index":         0,
				"finish_reason": "tool_calls",
				"message": map[string]any{
					"role":    "assistant",
					"content": nil,
					"tool_calls": []any{map[string]any{
						"id":   "call_1",
						"type": "function",
						"function": map[string]any{
							"name":      describeFunction,
							"arguments": arguments,
						},
					}},
				},
			}},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestOpenAIGenerator_ParsesFunctionCall(t *testing.T) {
	var captured map[string]any
	srv := chatServer(t, `{"title":"Casa ampla","description":"Três quartos.","highlights":["quintal","churrasqueira"]}`, &captured)
	defer srv.Close()

	g := NewOpenAIGenerator("test-key", "", option.WithBaseURL(srv.URL+"/"), option.WithMaxRetries(0))
	got, err := g.GenerateDescription(context.Background(), models.GenerationRequest{PropertyType: "house", City: "Campinas", TotalArea: 120})
	require.NoError(t, err)
	assert.Equal(t, "Casa ampla", got.Title)
	assert.Equal(t, []string{"quintal", "churrasqueira"}, got.Highlights)

	assert.Equal(t, "gpt-4o-mini", captured["model"])
	tools, ok := captured["tools"].([]any)
	require.True(t, ok)
	require.Len(t, tools, 1)
}

func TestOpenAIGenerator_RejectsEmptyCopy(t *testing.T) {
	srv := chatServer(t, `{"title":"","description":"","highlights":[]}`, nil)
	defer srv.Close()

	g := NewOpenAIGenerator("test-key", "gpt-4o-mini", option.WithBaseURL(srv.URL+"/"), option.WithMaxRetries(0))
	_, err := g.GenerateDescription(context.Background(), models.GenerationRequest{PropertyType: "house"})
	assert.Error(t, err)
}

func TestOpenAIGenerator_NotConfigured(t *testing.T) {
	g := NewOpenAIGenerator("", "")
	_, err := g.GenerateDescription(context.Background(), models.GenerationRequest{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
