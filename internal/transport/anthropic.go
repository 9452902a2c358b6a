package transport

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// MaxTokens bounds every merge-resolution completion.
const MaxTokens = 8192

// anthropicTransport wraps the Anthropic SDK client behind the Call
// signature, following the teacher's own Runner.RunWithSystem shape:
// a single non-streaming Messages.New call with the system prompt in the
// System field and the user prompt as the sole message.
type anthropicTransport struct {
	client *anthropic.Client
	model  anthropic.Model
}

// NewAnthropic builds a Call backed by the Anthropic API. It reads
// CLAUDE_CODE_OAUTH_TOKEN first (the credential name this system's
// environment contract names), falling back to ANTHROPIC_API_KEY for
// local/dev parity with the teacher's own client. If neither is set it
// returns Unavailable and a nil error; every call of Unavailable reports
// ErrUnavailable, so callers can fall back to the heuristic merge path
// instead of failing outright.
func NewAnthropic(model anthropic.Model) (Call, error) {
	apiKey := os.Getenv("CLAUDE_CODE_OAUTH_TOKEN")
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return Unavailable, nil
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	if model == "" {
		model = anthropic.ModelClaudeSonnet4_20250514
	}

	t := &anthropicTransport{client: &client, model: model}
	return t.call, nil
}

func (t *anthropicTransport) call(ctx context.Context, system, user string) (string, error) {
	resp, err := t.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     t.model,
		MaxTokens: MaxTokens,
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("model call failed: %w", err)
	}

	var result strings.Builder
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			result.WriteString(variant.Text)
		}
	}
	return strings.TrimSpace(result.String()), nil
}

// Unavailable is a Call that always reports the model as unavailable,
// used when no credential is configured.
func Unavailable(ctx context.Context, system, user string) (string, error) {
	return "", ErrUnavailable
}
