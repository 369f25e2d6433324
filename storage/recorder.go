// Bridge from deliberation output to transcript persistence.

package storage

import (
	"context"
	"fmt"

	"github.com/praxisapocalyptica/jamie/hive"
)

// HiveRecorder persists deliberation dialogue as transcripts.
type HiveRecorder struct {
	store TranscriptStorage
}

// NewHiveRecorder wraps a transcript store as a deliberation recorder.
func NewHiveRecorder(store TranscriptStorage) *HiveRecorder {
	return &HiveRecorder{store: store}
}

// Record converts the dialogue entries into a transcript and saves it.
func (r *HiveRecorder) Record(ctx context.Context, topic string, entries []hive.Entry) error {
	converted := make([]TranscriptEntry, len(entries))
	for i, entry := range entries {
		converted[i] = TranscriptEntry{
			Member:  entry.Member,
			Role:    entry.Role,
			Message: entry.Message,
		}
	}
	if err := r.store.SaveTranscript(ctx, NewTranscript(topic, converted)); err != nil {
		return fmt.Errorf("saving transcript: %w", err)
	}
	return nil
}

// Verify HiveRecorder satisfies the deliberation recorder contract
var _ hive.Recorder = (*HiveRecorder)(nil)
