package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kiwellness/coach/internal/coach"
	"github.com/kiwellness/coach/internal/composer"
	"github.com/kiwellness/coach/internal/config"
	"github.com/kiwellness/coach/internal/knowledge"
	"github.com/kiwellness/coach/internal/ollama"
	"github.com/kiwellness/coach/internal/storage"
)

const testAPIKey = "test-key"

var errRefused = errors.New("connection refused")

// fakeBackend scripts model responses per model name.
type fakeBackend struct {
	responses map[string]string
	errs      map[string]error
}

func (b *fakeBackend) Chat(ctx context.Context, model string, messages []ollama.Message, schema *ollama.Schema) (string, error) {
	if err, ok := b.errs[model]; ok {
		return "", err
	}
	return b.responses[model], nil
}

// fakeOllama stubs the health probe surface.
type fakeOllama struct {
	running bool
	models  []string
}

func (f *fakeOllama) IsRunning(ctx context.Context) bool { return f.running }
func (f *fakeOllama) ListModels(ctx context.Context) ([]string, error) {
	if !f.running {
		return nil, errors.New("connection refused")
	}
	return f.models, nil
}

func testDeps(t *testing.T, backend coach.Backend, oll ModelLister) Deps {
	t.Helper()
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	cfg := config.Config{}
	cfg.Ollama.ChatModel = "mistral"
	cfg.Ollama.TunedModel = "ki-wellness-mistral"
	cfg.Auth.APIKeys = []string{testAPIKey}
	cfg.Training.FilesDir = t.TempDir()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return Deps{
		Store:    store,
		Pipeline: coach.NewPipeline(backend, store, composer.New(0), logger, cfg.Ollama.ChatModel, cfg.Ollama.TunedModel),
		Ollama:   oll,
		Ingester: knowledge.NewIngester(store, logger),
		Config:   cfg,
		Logger:   logger,
	}
}

func testServer(t *testing.T, deps Deps) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewHandler(deps))
	t.Cleanup(srv.Close)
	return srv
}

// doJSON sends an authenticated JSON request and decodes the response body.
func doJSON(t *testing.T, method, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("X-API-Key", testAPIKey)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	return resp, decodeBody(t, resp)
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return out
}
