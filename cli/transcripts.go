// Transcript inspection commands. Deliberation transcripts are written
// by the hive recorder; these commands read the same database back for
// auditing, without needing a provider or API key.

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/praxisapocalyptica/jamie/config"
	"github.com/praxisapocalyptica/jamie/storage"
)

// TranscriptsList prints stored deliberation transcripts, newest first.
func TranscriptsList(ctx context.Context, limit int) error {
	store, err := storage.OpenSqlite(config.TranscriptDBPath())
	if err != nil {
		return fmt.Errorf("opening transcript database: %w", err)
	}
	defer store.Close()
	return listTranscripts(ctx, store, limit, os.Stdout)
}

// TranscriptShow prints one transcript with its full dialogue.
func TranscriptShow(ctx context.Context, id string) error {
	store, err := storage.OpenSqlite(config.TranscriptDBPath())
	if err != nil {
		return fmt.Errorf("opening transcript database: %w", err)
	}
	defer store.Close()
	return showTranscript(ctx, store, id, os.Stdout)
}

// TranscriptDelete removes one transcript and its entries.
func TranscriptDelete(ctx context.Context, id string) error {
	store, err := storage.OpenSqlite(config.TranscriptDBPath())
	if err != nil {
		return fmt.Errorf("opening transcript database: %w", err)
	}
	defer store.Close()
	return deleteTranscript(ctx, store, id, os.Stdout)
}

func listTranscripts(ctx context.Context, store storage.TranscriptStorage, limit int, out io.Writer) error {
	summaries, err := store.ListTranscripts(ctx, limit)
	if err != nil {
		return fmt.Errorf("listing transcripts: %w", err)
	}
	if len(summaries) == 0 {
		fmt.Fprintln(out, "No transcripts recorded.")
		return nil
	}
	for _, summary := range summaries {
		fmt.Fprintf(out, "%s  %s  %3d entries  %s\n",
			summary.ID,
			formatTimestamp(summary.CreatedAt),
			summary.EntryCount,
			summary.Topic)
	}
	return nil
}

func showTranscript(ctx context.Context, store storage.TranscriptStorage, id string, out io.Writer) error {
	transcript, err := store.GetTranscript(ctx, id)
	if err != nil {
		return fmt.Errorf("loading transcript: %w", err)
	}
	if transcript == nil {
		fmt.Fprintf(out, "No transcript with id %s.\n", id)
		return nil
	}

	fmt.Fprintf(out, "Topic: %s\nRecorded: %s\n\n", transcript.Topic, formatTimestamp(transcript.CreatedAt))
	for _, entry := range transcript.Entries {
		fmt.Fprintf(out, "[%s / %s]:\n%s\n\n", entry.Member, entry.Role, entry.Message)
	}
	return nil
}

func deleteTranscript(ctx context.Context, store storage.TranscriptStorage, id string, out io.Writer) error {
	if err := store.DeleteTranscript(ctx, id); err != nil {
		return fmt.Errorf("deleting transcript: %w", err)
	}
	fmt.Fprintf(out, "Deleted transcript %s.\n", id)
	return nil
}

func formatTimestamp(unix int64) string {
	return time.Unix(unix, 0).Format("2006-01-02 15:04")
}
