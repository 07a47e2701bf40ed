package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/dishout/internal/oracle"
)

func TestOllamaGenerate(t *testing.T) {
	var req struct {
		Model  string   `json:"model"`
		Prompt string   `json:"prompt"`
		Images []string `json:"images"`
		Format string   `json:"format"`
		Stream bool     `json:"stream"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&req)

		resp := map[string]interface{}{
			"model":    req.Model,
			"response": `{"dishName":"Biryani","description":"Spiced rice"}`,
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	g := New(server.URL, "llava")
	resp, err := g.Generate(context.Background(), oracle.Request{
		Task:     oracle.TaskIdentify,
		Prompt:   "identify",
		Image:    []byte{0xFF, 0xD8, 0xFF, 0xE0},
		MimeType: "image/jpeg",
		JSON:     true,
	})

	require.NoError(t, err)
	assert.Equal(t, `{"dishName":"Biryani","description":"Spiced rice"}`, resp.Text)
	assert.Equal(t, "llava", req.Model)
	assert.Equal(t, "identify", req.Prompt)
	assert.Equal(t, []string{"/9j/4A=="}, req.Images)
	assert.Equal(t, "json", req.Format)
	assert.False(t, req.Stream)
}

func TestOllamaGenerateTextOnly(t *testing.T) {
	var raw map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&raw)
		_ = json.NewEncoder(w).Encode(map[string]string{"response": "false"})
	}))
	defer server.Close()

	resp, err := New(server.URL, "llava").Generate(context.Background(), oracle.Request{Task: oracle.TaskIntent, Prompt: "order?"})

	require.NoError(t, err)
	assert.Equal(t, "false", resp.Text)
	assert.NotContains(t, raw, "images")
	assert.NotContains(t, raw, "format")
}

func TestOllamaGenerateNetworkError(t *testing.T) {
	g := New("http://localhost:99999", "llava")

	_, err := g.Generate(context.Background(), oracle.Request{Prompt: "x"})

	assert.Error(t, err)
}

func TestOllamaGenerateInvalidResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := New(server.URL, "llava").Generate(context.Background(), oracle.Request{Prompt: "x"})

	assert.Error(t, err)
}
