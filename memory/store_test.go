package memory

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/praxisapocalyptica/jamie/model"
	"github.com/praxisapocalyptica/jamie/vault"
)

func testProtector(t *testing.T) *vault.Protector {
	t.Helper()
	params := vault.DefaultParams()
	params.Iterations = 1000
	p, err := vault.New("test passphrase", params, zap.NewNop())
	if err != nil {
		t.Fatalf("failed to create protector: %v", err)
	}
	return p
}

func testStore(t *testing.T, dir string, maxTurns *int) *Store {
	t.Helper()
	store, err := NewStore(Config{
		Dir:            dir,
		Prefix:         "memory",
		Extension:      ".enc",
		MaxTurnsToSave: maxTurns,
		Name:           "Jamie",
		Purpose:        "assistant",
	}, testProtector(t), zap.NewNop())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return store
}

// writeFragment encrypts text and writes it at the given index,
// bypassing the save path.
func writeFragment(t *testing.T, store *Store, index int, text string) {
	t.Helper()
	blob, err := store.protector.Encrypt([]byte(text))
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	if err := os.MkdirAll(store.cfg.Dir, 0700); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if err := os.WriteFile(store.fragmentPath(index), blob, 0600); err != nil {
		t.Fatalf("write failed: %v", err)
	}
}

func countFragments(t *testing.T, store *Store) int {
	t.Helper()
	files, err := store.listFragmentFiles()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	return len(files)
}

func sampleTurns() []model.Turn {
	return []model.Turn{
		model.UserTurn("hello there"),
		model.ModelTurn("hi, how can I help?"),
	}
}

func TestNewStoreValidation(t *testing.T) {
	protector := testProtector(t)

	if _, err := NewStore(Config{Prefix: "m", Extension: ".enc"}, protector, zap.NewNop()); err == nil {
		t.Error("expected error for empty directory")
	}
	if _, err := NewStore(Config{Dir: "d", Extension: ".enc"}, protector, zap.NewNop()); err == nil {
		t.Error("expected error for empty prefix")
	}
	if _, err := NewStore(Config{Dir: "d", Prefix: "m", Extension: "enc"}, protector, zap.NewNop()); err == nil {
		t.Error("expected error for extension without dot")
	}
	neg := -1
	if _, err := NewStore(Config{Dir: "d", Prefix: "m", Extension: ".enc", MaxTurnsToSave: &neg}, protector, zap.NewNop()); err == nil {
		t.Error("expected error for negative max turns")
	}
	if _, err := NewStore(Config{Dir: "d", Prefix: "m", Extension: ".enc"}, nil, zap.NewNop()); err == nil {
		t.Error("expected error for nil protector")
	}
}

func TestLoadMissingDirectory(t *testing.T) {
	store := testStore(t, filepath.Join(t.TempDir(), "does-not-exist"), nil)
	if got := store.Load(); len(got) != 0 {
		t.Errorf("expected no fragments, got %d", len(got))
	}
}

func TestLoadOrdersByIndexNotWriteOrder(t *testing.T) {
	store := testStore(t, t.TempDir(), nil)

	// Written out of order on purpose.
	writeFragment(t, store, 0, "fragment zero")
	writeFragment(t, store, 2, "fragment two")
	writeFragment(t, store, 1, "fragment one")

	got := store.Load()
	want := []string{"fragment zero", "fragment one", "fragment two"}
	if len(got) != len(want) {
		t.Fatalf("expected %d fragments, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("fragment %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestLoadSkipsCorruptFragments(t *testing.T) {
	store := testStore(t, t.TempDir(), nil)

	writeFragment(t, store, 0, "good fragment")
	if err := os.WriteFile(store.fragmentPath(1), []byte("not encrypted at all"), 0600); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	writeFragment(t, store, 2, "another good fragment")

	got := store.Load()
	if len(got) != 2 {
		t.Fatalf("expected 2 fragments, got %d", len(got))
	}
	if got[0] != "good fragment" || got[1] != "another good fragment" {
		t.Errorf("unexpected fragments: %v", got)
	}
}

func TestLoadSkipsNonMatchingFiles(t *testing.T) {
	store := testStore(t, t.TempDir(), nil)

	writeFragment(t, store, 0, "real fragment")
	if err := os.WriteFile(filepath.Join(store.cfg.Dir, "notes.txt"), []byte("unrelated"), 0600); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	if got := store.Load(); len(got) != 1 {
		t.Errorf("expected 1 fragment, got %d", len(got))
	}
}

func TestFormatSession(t *testing.T) {
	store := testStore(t, t.TempDir(), nil)

	formatted := store.FormatSession([]model.Turn{
		model.UserTurn("what time is it?"),
		model.ModelTurn("I do not have a clock."),
		{Role: "system", Parts: []model.Part{{Text: "ignored"}}},
		{Role: model.RoleUser, Parts: nil},
	})

	if !strings.HasPrefix(formatted, sessionFragmentHeader) {
		t.Errorf("expected header prefix, got %q", formatted)
	}
	if !strings.Contains(formatted, "[User]: what time is it?") {
		t.Errorf("missing user turn in %q", formatted)
	}
	if !strings.Contains(formatted, "[Model]: I do not have a clock.") {
		t.Errorf("missing model turn in %q", formatted)
	}
	if strings.Contains(formatted, "ignored") {
		t.Error("non-standard role turn was not skipped")
	}
}

func TestFormatSessionEmpty(t *testing.T) {
	store := testStore(t, t.TempDir(), nil)

	if got := store.FormatSession(nil); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
	if got := store.FormatSession([]model.Turn{{Role: model.RoleUser}}); got != "" {
		t.Errorf("expected empty string for textless turns, got %q", got)
	}
}

func TestFormatSessionWrapsLongLines(t *testing.T) {
	store := testStore(t, t.TempDir(), nil)

	long := strings.Repeat("word ", 40)
	formatted := store.FormatSession([]model.Turn{model.UserTurn(long)})

	for _, line := range strings.Split(formatted, "\n") {
		// Allow a little slack for the role marker on the first line.
		if len(line) > wrapWidth+10 {
			t.Errorf("line exceeds wrap width: %d chars", len(line))
		}
	}
}

func TestSaveSessionCreatesFirstFragment(t *testing.T) {
	store := testStore(t, t.TempDir(), nil)

	store.SaveSession(sampleTurns())

	files, err := store.listFragmentFiles()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected 1 fragment, got %d", len(files))
	}
	if files[0].index != 0 {
		t.Errorf("expected index 0, got %d", files[0].index)
	}

	got := store.Load()
	if len(got) != 1 || !strings.Contains(got[0], "hello there") {
		t.Errorf("saved fragment does not round-trip: %v", got)
	}
}

func TestSaveSessionAppendsBelowThreshold(t *testing.T) {
	store := testStore(t, t.TempDir(), nil)

	store.SaveSession(sampleTurns())
	store.SaveSession([]model.Turn{
		model.UserTurn("second session"),
		model.ModelTurn("noted"),
	})

	if n := countFragments(t, store); n != 1 {
		t.Fatalf("expected fragment count unchanged at 1, got %d", n)
	}

	got := store.Load()
	if len(got) != 1 {
		t.Fatalf("expected 1 fragment, got %d", len(got))
	}
	if !strings.Contains(got[0], "hello there") || !strings.Contains(got[0], "second session") {
		t.Errorf("appended fragment missing content: %q", got[0])
	}
	if !strings.Contains(got[0], strings.TrimSpace(fragmentSeparator)) {
		t.Errorf("appended fragment missing separator: %q", got[0])
	}
}

func TestSaveSessionRollsOverAboveThreshold(t *testing.T) {
	store := testStore(t, t.TempDir(), nil)
	store.cfg.ThresholdBytes = 10 // any real fragment exceeds this

	store.SaveSession(sampleTurns())
	store.SaveSession([]model.Turn{
		model.UserTurn("second session"),
		model.ModelTurn("noted"),
	})

	files, err := store.listFragmentFiles()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 fragments after roll-over, got %d", len(files))
	}
	if files[1].index != files[0].index+1 {
		t.Errorf("expected consecutive indices, got %d then %d", files[0].index, files[1].index)
	}
}

func TestSaveSessionTrimPolicy(t *testing.T) {
	turns := []model.Turn{
		model.UserTurn("turn one"),
		model.ModelTurn("reply one"),
		model.UserTurn("turn two"),
		model.ModelTurn("reply two"),
		model.UserTurn("turn three"),
	}

	t.Run("keep last two pairs", func(t *testing.T) {
		max := 2
		store := testStore(t, t.TempDir(), &max)
		store.SaveSession(turns)

		got := store.Load()
		if len(got) != 1 {
			t.Fatalf("expected 1 fragment, got %d", len(got))
		}
		if strings.Contains(got[0], "turn one") {
			t.Error("oldest turn should have been trimmed")
		}
		for _, want := range []string{"turn two", "reply two", "turn three"} {
			if !strings.Contains(got[0], want) {
				t.Errorf("trimmed fragment missing %q", want)
			}
		}
	})

	t.Run("zero keeps nothing", func(t *testing.T) {
		max := 0
		store := testStore(t, t.TempDir(), &max)
		store.SaveSession(turns)

		if n := countFragments(t, store); n != 0 {
			t.Errorf("expected no fragments written, got %d", n)
		}
	})

	t.Run("orphan single turn kept", func(t *testing.T) {
		max := 1
		store := testStore(t, t.TempDir(), &max)
		store.SaveSession([]model.Turn{model.UserTurn("lonely question")})

		got := store.Load()
		if len(got) != 1 || !strings.Contains(got[0], "lonely question") {
			t.Errorf("orphan turn was not saved: %v", got)
		}
	})
}

func TestSaveSessionEmptyRemovesLatestFragment(t *testing.T) {
	store := testStore(t, t.TempDir(), nil)

	store.SaveSession(sampleTurns())
	if n := countFragments(t, store); n != 1 {
		t.Fatalf("expected 1 fragment, got %d", n)
	}

	// An all-textless session produces no formatted output.
	store.SaveSession([]model.Turn{{Role: model.RoleUser}})

	if n := countFragments(t, store); n != 0 {
		t.Errorf("expected latest fragment removed, got %d", n)
	}
}

func TestClearAll(t *testing.T) {
	store := testStore(t, t.TempDir(), nil)

	writeFragment(t, store, 0, "one")
	writeFragment(t, store, 1, "two")
	store.Load()

	store.ClearAll()

	if n := countFragments(t, store); n != 0 {
		t.Errorf("expected all fragments deleted, got %d", n)
	}
	if len(store.Fragments()) != 0 {
		t.Error("expected in-memory fragment list emptied")
	}
}

func TestInitialContextPrompt(t *testing.T) {
	store := testStore(t, t.TempDir(), nil)

	t.Run("without fragments", func(t *testing.T) {
		prompt := store.InitialContextPrompt()
		if !strings.Contains(prompt, initialInstructionsHeader) {
			t.Errorf("expected instructions header in %q", prompt)
		}
		if !strings.Contains(prompt, "Jamie") {
			t.Errorf("expected name in instructions, got %q", prompt)
		}
		if !strings.Contains(prompt, initialStartMarker) {
			t.Errorf("expected start marker in %q", prompt)
		}
	})

	t.Run("with fragments", func(t *testing.T) {
		writeFragment(t, store, 0, "remembered thing")
		store.Load()

		prompt := store.InitialContextPrompt()
		if !strings.Contains(prompt, initialContextHeader) {
			t.Errorf("expected context header in %q", prompt)
		}
		if !strings.Contains(prompt, "remembered thing") {
			t.Errorf("expected fragment content in %q", prompt)
		}
		if strings.Contains(prompt, initialInstructionsHeader) {
			t.Error("instructions header should not appear when fragments exist")
		}
	})
}
