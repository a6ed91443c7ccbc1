package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	defaultModel   = "gemini-1.5-flash"
	maxIcebreakers = 3
)

var errNoContent = errors.New("no content generated")

// GeminiClient proposes opening lines for freshly created bonds.
type GeminiClient struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewGeminiClient(ctx context.Context, apiKey, modelName string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is empty")
	}
	if modelName == "" {
		modelName = defaultModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.8)
	model.ResponseMIMEType = "application/json"

	return &GeminiClient{
		client: client,
		model:  model,
	}, nil
}

func (c *GeminiClient) Close() error {
	return c.client.Close()
}

func (c *GeminiClient) GenerateIcebreakers(ctx context.Context, interests1, interests2 []string) ([]string, error) {
	prompt := fmt.Sprintf(`
		Two people on a reputation-verified social app just bonded.
		Person 1 interests: %s
		Person 2 interests: %s

		Write %d short, friendly opening lines either of them could send first.
		Prefer shared interests, otherwise an interesting contrast.
		Output: a JSON array of strings only.
	`, listOrNone(interests1), listOrNone(interests2), maxIcebreakers)

	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errNoContent
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return parseIcebreakers(sb.String())
}

// parseIcebreakers accepts a JSON array, optionally fenced as markdown, and
// falls back to one line per icebreaker.
func parseIcebreakers(text string) ([]string, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var lines []string
	if err := json.Unmarshal([]byte(text), &lines); err != nil {
		lines = lines[:0]
		for _, line := range strings.Split(text, "\n") {
			line = strings.Trim(strings.TrimSpace(line), `[]",`)
			line = strings.TrimSpace(strings.TrimLeft(line, "-*0123456789.) "))
			if line != "" {
				lines = append(lines, line)
			}
		}
	}

	out := make([]string, 0, maxIcebreakers)
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
		if len(out) == maxIcebreakers {
			break
		}
	}
	if len(out) == 0 {
		return nil, errNoContent
	}
	return out, nil
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "none listed"
	}
	return strings.Join(items, ", ")
}
