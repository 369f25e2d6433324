// Package storage provides persistence for deliberation transcripts.
//
// Each deliberation produces one transcript: the topic, when it ran,
// and the ordered dialogue entries from every round. Transcripts are an
// audit record; nothing reads them back into a live session.
package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TranscriptEntry is one line of deliberation dialogue.
type TranscriptEntry struct {
	// Member is the participant name, or the collective's name for prompts.
	Member string `json:"member"`
	// Role is "user" for round prompts, "model" for replies, "error" for failures.
	Role string `json:"role"`
	// Message is the entry text.
	Message string `json:"message"`
}

// Transcript is the full record of one deliberation.
type Transcript struct {
	// ID is a unique identifier for this transcript.
	ID string `json:"id"`
	// Topic is what the council deliberated on.
	Topic string `json:"topic"`
	// CreatedAt is the Unix timestamp when the deliberation ran.
	CreatedAt int64 `json:"created_at"`
	// Entries is the ordered dialogue.
	Entries []TranscriptEntry `json:"entries"`
}

// NewTranscript creates a transcript with a fresh id and timestamp.
func NewTranscript(topic string, entries []TranscriptEntry) Transcript {
	return Transcript{
		ID:        uuid.New().String(),
		Topic:     topic,
		CreatedAt: time.Now().Unix(),
		Entries:   entries,
	}
}

// TranscriptSummary is a transcript without its entries, for listings.
type TranscriptSummary struct {
	ID         string `json:"id"`
	Topic      string `json:"topic"`
	CreatedAt  int64  `json:"created_at"`
	EntryCount int    `json:"entry_count"`
}

// TranscriptStorage persists deliberation transcripts.
type TranscriptStorage interface {
	// SaveTranscript stores a complete transcript.
	SaveTranscript(ctx context.Context, transcript Transcript) error

	// GetTranscript loads a transcript by id.
	// Returns nil, nil if not found.
	GetTranscript(ctx context.Context, id string) (*Transcript, error)

	// ListTranscripts lists recent transcripts, newest first.
	ListTranscripts(ctx context.Context, limit int) ([]TranscriptSummary, error)

	// DeleteTranscript removes a transcript and its entries.
	DeleteTranscript(ctx context.Context, id string) error
}
