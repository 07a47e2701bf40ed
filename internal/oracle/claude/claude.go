// Package claude is an oracle.Generator backed by the Anthropic Messages
// API.
package claude

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/vbonduro/dishout/internal/oracle"
)

// maxTokens comfortably fits five restaurants or five menu items.
const maxTokens = 1024

type Generator struct {
	client *anthropic.Client
	model  string
}

// New returns a Generator. A non-empty baseURL overrides the API endpoint.
func New(apiKey, model, baseURL string) *Generator {
	var opts []anthropic.ClientOption
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(baseURL))
	}
	return &Generator{
		client: anthropic.NewClient(apiKey, opts...),
		model:  model,
	}
}

func (g *Generator) Generate(ctx context.Context, req oracle.Request) (*oracle.Response, error) {
	blocks := make([]anthropic.MessageContent, 0, 2)
	if len(req.Image) > 0 {
		blocks = append(blocks, anthropic.NewImageMessageContent(anthropic.NewMessageContentSource(
			anthropic.MessagesContentSourceTypeBase64,
			normaliseMIME(req.MimeType),
			base64.StdEncoding.EncodeToString(req.Image),
		)))
	}
	blocks = append(blocks, anthropic.NewTextMessageContent(req.Prompt))

	resp, err := g.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(g.model),
		Messages:  []anthropic.Message{{Role: anthropic.RoleUser, Content: blocks}},
		MaxTokens: maxTokens,
	})
	if err != nil {
		var apiErr *anthropic.APIError
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("claude returned %s: %s", apiErr.Type, apiErr.Message)
		}
		return nil, fmt.Errorf("failed to call claude: %w", err)
	}

	var text strings.Builder
	for _, blk := range resp.Content {
		if blk.Type == anthropic.MessagesContentTypeText {
			text.WriteString(blk.GetText())
		}
	}
	return &oracle.Response{Text: text.String()}, nil
}

// normaliseMIME maps image types to the ones the API accepts. Unknown
// types are sent as jpeg.
func normaliseMIME(mimeType string) string {
	switch mimeType {
	case "image/png", "image/gif", "image/webp":
		return mimeType
	default:
		return "image/jpeg"
	}
}
