// Package ollama is an oracle.Generator for a local Ollama server. Ollama
// has no grounding tools, so restaurant search relies on the model's own
// knowledge.
package ollama

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vbonduro/dishout/internal/oracle"
)

type Generator struct {
	host   string
	model  string
	client *http.Client
}

func New(host, model string) *Generator {
	return &Generator{
		host:   host,
		model:  model,
		client: &http.Client{Timeout: 2 * time.Minute},
	}
}

func (g *Generator) Generate(ctx context.Context, req oracle.Request) (*oracle.Response, error) {
	reqBody := map[string]interface{}{
		"model":  g.model,
		"prompt": req.Prompt,
		"stream": false,
	}
	if len(req.Image) > 0 {
		reqBody["images"] = []string{base64.StdEncoding.EncodeToString(req.Image)}
	}
	if req.JSON {
		reqBody["format"] = "json"
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.host+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, errBody)
	}

	var respBody struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&respBody); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &oracle.Response{Text: respBody.Response}, nil
}
