// Package gemini is an oracle.Generator backed by the Gemini API. Restaurant
// search is grounded with Google Maps and profile sync with Google Search.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/vbonduro/dishout/internal/oracle"
)

type Options struct {
	APIKey string
	Model  string
	// SearchModel serves restaurant search; Maps grounding is only offered
	// on some models. Empty means Model.
	SearchModel string
	// BaseURL overrides the public endpoint.
	BaseURL    string
	HTTPClient *http.Client
}

type Generator struct {
	client      *genai.Client
	model       string
	searchModel string
}

func New(ctx context.Context, opts Options) (*Generator, error) {
	if opts.APIKey == "" {
		return nil, errors.New("missing GEMINI_API_KEY")
	}
	if opts.SearchModel == "" {
		opts.SearchModel = opts.Model
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      opts.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  opts.HTTPClient,
		HTTPOptions: genai.HTTPOptions{BaseURL: opts.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &Generator{client: client, model: opts.Model, searchModel: opts.SearchModel}, nil
}

func (g *Generator) Generate(ctx context.Context, req oracle.Request) (*oracle.Response, error) {
	model := g.model
	config := &genai.GenerateContentConfig{}

	switch req.Task {
	case oracle.TaskSearch:
		model = g.searchModel
		config.Tools = []*genai.Tool{{GoogleMaps: &genai.GoogleMaps{}}}
		if req.Near != nil {
			config.ToolConfig = &genai.ToolConfig{
				RetrievalConfig: &genai.RetrievalConfig{
					LatLng: &genai.LatLng{
						Latitude:  genai.Ptr(req.Near.Lat),
						Longitude: genai.Ptr(req.Near.Lng),
					},
				},
			}
		}
	case oracle.TaskSync:
		config.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}
	// Constrained JSON output cannot be combined with tools.
	if req.JSON && len(config.Tools) == 0 {
		config.ResponseMIMEType = "application/json"
	}

	contents := []*genai.Content{genai.NewContentFromParts(buildParts(req), genai.RoleUser)}
	resp, err := g.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("failed to call gemini: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errors.New("empty gemini response")
	}

	cand := resp.Candidates[0]
	var text strings.Builder
	for _, p := range cand.Content.Parts {
		if p == nil || p.Thought {
			continue
		}
		text.WriteString(p.Text)
	}
	out := &oracle.Response{Text: text.String()}
	if cand.GroundingMetadata == nil {
		return out, nil
	}
	for _, chunk := range cand.GroundingMetadata.GroundingChunks {
		switch {
		case chunk == nil:
		case chunk.Maps != nil:
			out.Sources = append(out.Sources, chunk.Maps.URI)
		case chunk.Web != nil:
			out.Sources = append(out.Sources, chunk.Web.URI)
		}
	}
	return out, nil
}

func buildParts(req oracle.Request) []*genai.Part {
	parts := make([]*genai.Part, 0, 2)
	if len(req.Image) > 0 {
		mime := req.MimeType
		if mime == "" {
			mime = "image/jpeg"
		}
		parts = append(parts, genai.NewPartFromBytes(req.Image, mime))
	}
	return append(parts, genai.NewPartFromText(req.Prompt))
}
