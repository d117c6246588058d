package main

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"scm-chat/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// knowledgeUpserter is satisfied by *repository.KnowledgeRepository.
type knowledgeUpserter interface {
	Upsert(ctx context.Context, entries []*models.KnowledgeEntry) error
}

// seedRecord is one row of a seed file, named after the spreadsheet export columns.
type seedRecord struct {
	ScnCode     string   `json:"scn_code"`
	Question    string   `json:"question"`
	Answer      string   `json:"answer"`
	Keywords    []string `json:"keywords"`
	Link        string   `json:"link"`
	DocumentURL string   `json:"document_url"`
	Screenshots []string `json:"screenshots"`
}

// ProcessedFile represents a seeded file in cache
type ProcessedFile struct {
	FilePath    string    `json:"file_path"`
	FileHash    string    `json:"file_hash"`
	Entries     int       `json:"entries"`
	ProcessedAt time.Time `json:"processed_at"`
}

// CacheData stores information about seeded files
type CacheData struct {
	ProcessedFiles map[string]ProcessedFile `json:"processed_files"` // key: file path
}

// loadCache loads the cache of processed files
func loadCache(cacheFile string) (*CacheData, error) {
	cache := &CacheData{
		ProcessedFiles: make(map[string]ProcessedFile),
	}

	if _, err := os.Stat(cacheFile); os.IsNotExist(err) {
		return cache, nil
	}

	data, err := os.ReadFile(cacheFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}

	if len(data) == 0 {
		return cache, nil
	}

	if err := json.Unmarshal(data, cache); err != nil {
		return nil, fmt.Errorf("failed to parse cache file: %w", err)
	}

	return cache, nil
}

// saveCache saves the cache of processed files
func saveCache(cacheFile string, cache *CacheData) error {
	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache: %w", err)
	}

	if err := os.WriteFile(cacheFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	return nil
}

// calculateFileHash calculates MD5 hash of a file
func calculateFileHash(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	hash := md5.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", fmt.Errorf("failed to calculate hash: %w", err)
	}

	return fmt.Sprintf("%x", hash.Sum(nil)), nil
}

// entryID derives a stable id so reseeding a changed file updates rows in place.
func entryID(scnCode, question string) uuid.UUID {
	key := strings.ToUpper(strings.TrimSpace(scnCode)) + "\x00" + strings.TrimSpace(question)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("scm-chat/knowledge/"+key))
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// parseSeedFile converts a JSON array of seed records into knowledge entries.
// Records without a question or answer are skipped.
func parseSeedFile(data []byte, now time.Time) ([]*models.KnowledgeEntry, error) {
	var records []seedRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	entries := make([]*models.KnowledgeEntry, 0, len(records))
	seen := make(map[uuid.UUID]struct{}, len(records))
	for _, rec := range records {
		question := strings.TrimSpace(rec.Question)
		answer := strings.TrimSpace(rec.Answer)
		if question == "" || answer == "" {
			continue
		}

		id := entryID(rec.ScnCode, question)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		keywords := make([]string, 0, len(rec.Keywords))
		for _, kw := range rec.Keywords {
			if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
				keywords = append(keywords, kw)
			}
		}
		screenshots := rec.Screenshots
		if screenshots == nil {
			screenshots = []string{}
		}

		entries = append(entries, &models.KnowledgeEntry{
			ID:          id,
			ScnCode:     optional(rec.ScnCode),
			Question:    question,
			Answer:      answer,
			Keywords:    keywords,
			Link:        optional(rec.Link),
			DocumentURL: optional(rec.DocumentURL),
			Screenshots: screenshots,
			CreatedAt:   now,
		})
	}
	return entries, nil
}

// seedKnowledge upserts every *.json file in seedDir that changed since the last run.
func seedKnowledge(ctx context.Context, seedDir, cacheFile string, repo knowledgeUpserter, logger *zap.Logger) error {
	now := time.Now().UTC()

	cache, err := loadCache(cacheFile)
	if err != nil {
		logger.Warn("Failed to load cache, will process all files", zap.Error(err))
		cache = &CacheData{ProcessedFiles: make(map[string]ProcessedFile)}
	}

	files, err := filepath.Glob(filepath.Join(seedDir, "*.json"))
	if err != nil {
		return fmt.Errorf("failed to list seed files: %w", err)
	}
	if len(files) == 0 {
		logger.Warn("No seed files found", zap.String("dir", seedDir))
		return nil
	}

	for _, path := range files {
		fileHash, err := calculateFileHash(path)
		if err != nil {
			logger.Warn("Failed to calculate file hash, will process anyway", zap.String("path", path), zap.Error(err))
		}

		if cached, exists := cache.ProcessedFiles[path]; exists && fileHash != "" {
			if cached.FileHash == fileHash {
				logger.Info("Seed file already processed, skipping",
					zap.String("path", path),
					zap.Time("processed_at", cached.ProcessedAt),
				)
				continue
			}
			logger.Info("Seed file changed, reprocessing",
				zap.String("path", path),
				zap.String("old_hash", cached.FileHash),
				zap.String("new_hash", fileHash),
			)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			logger.Error("Failed to read seed file", zap.String("path", path), zap.Error(err))
			continue
		}

		entries, err := parseSeedFile(data, now)
		if err != nil {
			logger.Error("Failed to parse seed file", zap.String("path", path), zap.Error(err))
			continue
		}

		if err := repo.Upsert(ctx, entries); err != nil {
			logger.Error("Failed to upsert knowledge entries", zap.String("path", path), zap.Error(err))
			continue
		}

		logger.Info("Seeded knowledge entries", zap.String("path", path), zap.Int("entries", len(entries)))

		cache.ProcessedFiles[path] = ProcessedFile{
			FilePath:    path,
			FileHash:    fileHash,
			Entries:     len(entries),
			ProcessedAt: now,
		}
	}

	if err := saveCache(cacheFile, cache); err != nil {
		logger.Warn("Failed to save cache", zap.Error(err))
	} else {
		logger.Info("Cache saved", zap.Int("processed_files", len(cache.ProcessedFiles)))
	}

	return nil
}
