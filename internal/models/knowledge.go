package models

import (
	"time"

	"github.com/google/uuid"
)

// KnowledgeEntry is one support fact from the scm_knowledge table.
// Entries are read-only for the chat pipeline.
type KnowledgeEntry struct {
	ID          uuid.UUID `db:"id" json:"id"`
	ScnCode     *string   `db:"scn_code" json:"scn_code,omitempty"`
	Question    string    `db:"question" json:"question"`
	Answer      string    `db:"answer" json:"answer"`
	Keywords    []string  `db:"keywords" json:"keywords,omitempty"`
	Link        *string   `db:"link" json:"link,omitempty"`
	DocumentURL *string   `db:"document_url" json:"document_url,omitempty"`
	Screenshots []string  `db:"screenshots" json:"screenshots,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Code returns the scenario code or an empty string.
func (k *KnowledgeEntry) Code() string {
	if k.ScnCode == nil {
		return ""
	}
	return *k.ScnCode
}

func (k *KnowledgeEntry) LinkURL() string {
	if k.Link == nil {
		return ""
	}
	return *k.Link
}

func (k *KnowledgeEntry) Document() string {
	if k.DocumentURL == nil {
		return ""
	}
	return *k.DocumentURL
}
