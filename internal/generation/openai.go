package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"realtywizard/server/internal/models"
)

const describeFunction = "describe_property"

var ErrNotConfigured = errors.New("description generation is not configured")

// OpenAIGenerator produces listing copy with a strict function call. If client
// is nil every call fails with ErrNotConfigured.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

// NewOpenAIGenerator creates the generator. Pass an empty apiKey to disable calls.
func NewOpenAIGenerator(apiKey, model string, opts ...option.RequestOption) *OpenAIGenerator {
	if model == "" {
		model = string(shared.ChatModelGPT4oMini)
	}
	if apiKey == "" {
		return &OpenAIGenerator{model: model}
	}
	c := openai.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
	return &OpenAIGenerator{client: &c, model: model}
}

func (g *OpenAIGenerator) GenerateDescription(ctx context.Context, req models.GenerationRequest) (models.DescriptionVariant, error) {
	if g.client == nil {
		return models.DescriptionVariant{}, ErrNotConfigured
	}

	facts, err := json.Marshal(req)
	if err != nil {
		return models.DescriptionVariant{}, fmt.Errorf("marshal generation request: %w", err)
	}

	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title":       map[string]string{"type": "string"},
			"description": map[string]string{"type": "string"},
			"highlights": map[string]any{
				"type":  "array",
				"items": map[string]string{"type": "string"},
			},
		},
		"required":             []string{"title", "description", "highlights"},
		"additionalProperties": false,
	}

	fn := shared.FunctionDefinitionParam{
		Name:        describeFunction,
		Description: openai.String("Return a listing title, a description and short highlights for the property."),
		Strict:      openai.Bool(true),
		Parameters:  schema,
	}

	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(`You write real-estate listings in Brazilian Portuguese.
Rules:
1. title: at most 80 characters, no emojis.
2. description: 2 to 4 short paragraphs, only facts present in the input.
3. highlights: 3 to 6 short bullet phrases.
Never invent prices, areas or amenities.`),
			openai.UserMessage("Property facts (JSON):\n" + string(facts)),
		},
		Tools: []openai.ChatCompletionToolParam{{
			Function: fn,
		}},
		ToolChoice: openai.ChatCompletionToolChoiceOptionUnionParam{
			OfChatCompletionNamedToolChoice: &openai.ChatCompletionNamedToolChoiceParam{
				Function: openai.ChatCompletionNamedToolChoiceFunctionParam{
					Name: describeFunction,
				},
			},
		},
	}

	resp, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return models.DescriptionVariant{}, fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 || len(resp.Choices[0].Message.ToolCalls) == 0 {
		return models.DescriptionVariant{}, fmt.Errorf("openai: no function call returned")
	}

	var out models.DescriptionVariant
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.ToolCalls[0].Function.Arguments), &out); err != nil {
		return models.DescriptionVariant{}, fmt.Errorf("unmarshal description: %w", err)
	}
	if strings.TrimSpace(out.Title) == "" || strings.TrimSpace(out.Description) == "" {
		return models.DescriptionVariant{}, fmt.Errorf("openai: empty title or description")
	}
	return out, nil
}
