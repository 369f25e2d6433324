// Package storage provides in-memory transcript storage.
//
// Information Hiding:
// - Map storage structure hidden from users
// - Thread-safe access via RWMutex hidden behind interface
// - Suitable for testing and ephemeral runs

package storage

import (
	"context"
	"sort"
	"sync"
)

// InMemoryStorage implements TranscriptStorage using an in-memory map.
// Data is lost when process terminates.
type InMemoryStorage struct {
	mu          sync.RWMutex
	transcripts map[string]Transcript
}

// NewInMemoryStorage creates a new in-memory storage.
func NewInMemoryStorage() *InMemoryStorage {
	return &InMemoryStorage{
		transcripts: make(map[string]Transcript),
	}
}

// SaveTranscript stores a complete transcript.
func (s *InMemoryStorage) SaveTranscript(ctx context.Context, transcript Transcript) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Make a copy to avoid external mutations
	copied := transcript
	copied.Entries = make([]TranscriptEntry, len(transcript.Entries))
	copy(copied.Entries, transcript.Entries)
	s.transcripts[transcript.ID] = copied

	return nil
}

// GetTranscript loads a transcript by id.
// Returns nil, nil if not found.
func (s *InMemoryStorage) GetTranscript(ctx context.Context, id string) (*Transcript, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	transcript, ok := s.transcripts[id]
	if !ok {
		return nil, nil
	}

	// Return a copy to avoid external mutations
	copied := transcript
	copied.Entries = make([]TranscriptEntry, len(transcript.Entries))
	copy(copied.Entries, transcript.Entries)
	return &copied, nil
}

// ListTranscripts lists recent transcripts, newest first.
func (s *InMemoryStorage) ListTranscripts(ctx context.Context, limit int) ([]TranscriptSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := make([]TranscriptSummary, 0, len(s.transcripts))
	for _, transcript := range s.transcripts {
		summaries = append(summaries, TranscriptSummary{
			ID:         transcript.ID,
			Topic:      transcript.Topic,
			CreatedAt:  transcript.CreatedAt,
			EntryCount: len(transcript.Entries),
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt > summaries[j].CreatedAt
	})
	if limit > 0 && len(summaries) > limit {
		summaries = summaries[:limit]
	}
	return summaries, nil
}

// DeleteTranscript removes a transcript.
func (s *InMemoryStorage) DeleteTranscript(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.transcripts, id)
	return nil
}

// Verify InMemoryStorage implements TranscriptStorage
var _ TranscriptStorage = (*InMemoryStorage)(nil)
