// Package knowledge ingests training files into the knowledge base and
// serves substring search over their extracted text.
package knowledge

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/kiwellness/coach/internal/storage"
)

// Ingester walks a directory of training files and stores their text.
type Ingester struct {
	store  *storage.Store
	logger *slog.Logger
}

func NewIngester(store *storage.Store, logger *slog.Logger) *Ingester {
	return &Ingester{store: store, logger: logger}
}

// FileResult describes the outcome of ingesting one file.
type FileResult struct {
	File          string `json:"file"`
	Status        string `json:"status"` // "processed", "skipped", or "error"
	ContentLength int    `json:"content_length,omitempty"`
	Error         string `json:"error,omitempty"`
}

// TrainingFile is one entry in a training directory listing.
type TrainingFile struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// ListTrainingFiles returns the regular files in dir. A missing directory
// yields an empty list, not an error.
func ListTrainingFiles(dir string) ([]TrainingFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []TrainingFile{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	files := []TrainingFile{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, TrainingFile{
			Name:     e.Name(),
			Size:     info.Size(),
			Modified: info.ModTime().UTC(),
		})
	}
	return files, nil
}

// ProcessDir ingests every supported file in dir. Unsupported file types
// are skipped, per-file errors are recorded without aborting the run.
func (ing *Ingester) ProcessDir(dir string) ([]FileResult, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("training directory %s: %w", dir, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	results := []FileResult{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		path := filepath.Join(dir, name)

		if !Supported(path) {
			results = append(results, FileResult{File: name, Status: "skipped"})
			continue
		}

		content, err := ExtractText(path)
		if err != nil {
			ing.logger.Warn("failed to extract training file", "file", name, "error", err)
			results = append(results, FileResult{File: name, Status: "error", Error: err.Error()})
			continue
		}

		if err := ing.storeDoc(name, content); err != nil {
			ing.logger.Warn("failed to store training file", "file", name, "error", err)
			results = append(results, FileResult{File: name, Status: "error", Error: err.Error()})
			continue
		}

		results = append(results, FileResult{File: name, Status: "processed", ContentLength: len(content)})
	}
	return results, nil
}

func (ing *Ingester) storeDoc(sourceFile, content string) error {
	meta, _ := json.Marshal(map[string]any{
		"ingested_at": time.Now().UTC().Format(time.RFC3339),
		"extension":   filepath.Ext(sourceFile),
	})
	return ing.store.SaveKnowledgeDoc(storage.KnowledgeDoc{
		ID:          uuid.NewString(),
		SourceFile:  sourceFile,
		Content:     content,
		ContentHash: hashContent(content),
		Metadata:    string(meta),
	})
}

// Search returns knowledge docs whose content matches the query.
func (ing *Ingester) Search(query string, limit int) ([]storage.KnowledgeDoc, error) {
	if limit <= 0 {
		limit = 5
	}
	return ing.store.SearchKnowledge(query, limit)
}

func hashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
