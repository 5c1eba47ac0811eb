// Package catalog holds the one-way outbound mirrors (Notion checkpoint,
// Shopify product lookups). Mirrored state is display metadata only and never
// participates in the redemption protocol's consistency guarantees.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gramlabs/gramd/internal/models"
)

const notionAPIVersion = "2022-06-28"

// NotionConfig configures the checkpoint mirror.
type NotionConfig struct {
	Token      string
	DatabaseID string
	BaseURL    string // overridable for tests
	Timeout    time.Duration
}

// NotionMirror upserts a page per gram into a Notion database.
type NotionMirror struct {
	client     *http.Client
	token      string
	databaseID string
	baseURL    string
}

// NewNotionMirror builds the mirror; token and database id are required.
func NewNotionMirror(cfg NotionConfig) (*NotionMirror, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("notion mirror: token is required")
	}
	if strings.TrimSpace(cfg.DatabaseID) == "" {
		return nil, errors.New("notion mirror: database id is required")
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.notion.com"
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &NotionMirror{
		client:     &http.Client{Timeout: timeout},
		token:      cfg.Token,
		databaseID: cfg.DatabaseID,
		baseURL:    baseURL,
	}, nil
}

// SyncGram creates a checkpoint page for the gram.
func (m *NotionMirror) SyncGram(ctx context.Context, gram *models.Gram) error {
	if gram == nil {
		return errors.New("notion mirror: gram is required")
	}

	payload := map[string]any{
		"parent": map[string]any{"database_id": m.databaseID},
		"properties": map[string]any{
			"Name": map[string]any{
				"title": []map[string]any{
					{"text": map[string]any{"content": gram.Title}},
				},
			},
			"Slug": map[string]any{
				"rich_text": []map[string]any{
					{"text": map[string]any{"content": gram.Slug}},
				},
			},
			"Gram ID": map[string]any{
				"rich_text": []map[string]any{
					{"text": map[string]any{"content": gram.ID}},
				},
			},
			"Perks": map[string]any{
				"number": len(gram.Perks),
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("notion mirror: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/v1/pages", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notion mirror: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Notion-Version", notionAPIVersion)

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("notion mirror: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("notion mirror: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return nil
}
