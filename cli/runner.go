// Command execution for CLI commands.
//
// Information Hiding:
// - Component assembly order (vault, memory, model, hive, cognition)
// - REPL command dispatch
// - Output formatting

package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/praxisapocalyptica/jamie/capability"
	"github.com/praxisapocalyptica/jamie/config"
	"github.com/praxisapocalyptica/jamie/hive"
	"github.com/praxisapocalyptica/jamie/llm"
	"github.com/praxisapocalyptica/jamie/memory"
	"github.com/praxisapocalyptica/jamie/model"
	"github.com/praxisapocalyptica/jamie/session"
	"github.com/praxisapocalyptica/jamie/storage"
	"github.com/praxisapocalyptica/jamie/vault"
)

// REPL commands recognized before input reaches the model.
const (
	commandExit         = "exit"
	commandClearHistory = "clear history"
	commandShowHistory  = "show history"
)

// Options holds CLI execution options.
type Options struct {
	Provider string
	Verbose  bool
}

// DefaultOptions returns default CLI options.
func DefaultOptions() Options {
	return Options{}
}

// stack is the assembled runtime: everything a command needs, plus the
// teardown obligations (transcript database, session persistence).
type stack struct {
	settings    config.Settings
	logger      *zap.Logger
	brain       *Brain
	registry    *capability.Registry
	memories    *memory.Store
	coordinator *hive.Coordinator
	transcripts *storage.SqliteStorage
}

// close releases held resources. Session persistence is separate and
// explicit because not every command runs a session.
func (s *stack) close() {
	if s.transcripts != nil {
		if err := s.transcripts.Close(); err != nil {
			s.logger.Warn("closing transcript database", zap.Error(err))
		}
	}
	_ = s.logger.Sync()
}

// newStack assembles the full brain from configuration. Memory is only
// constructed when enabled; the hive transcript store is only opened
// when a database path is configured.
func newStack(opts Options) (*stack, error) {
	if opts.Provider == "" {
		return nil, fmt.Errorf("--provider is required for this command")
	}

	settings, err := config.New(opts.Provider)
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(opts.Verbose)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	client, err := createClient(settings)
	if err != nil {
		return nil, err
	}

	mainSession, err := session.New(client, session.Config{
		MaxHistoryTurns: settings.LLM.MaxHistoryTurns,
	}, logger.Named("session"))
	if err != nil {
		return nil, err
	}

	var memories *memory.Store
	if settings.Memory.Enabled {
		protector, err := vault.New(settings.Memory.Passphrase, vault.DefaultParams(), logger.Named("vault"))
		if err != nil {
			return nil, err
		}
		memories, err = memory.NewStore(memory.Config{
			Dir:            settings.Memory.Dir,
			Prefix:         settings.Memory.Prefix,
			Extension:      settings.Memory.Extension,
			ThresholdBytes: settings.Memory.ThresholdBytes,
			MaxTurnsToSave: settings.Memory.MaxTurnsToSave,
			Name:           settings.Robot.Name,
			Purpose:        settings.Robot.Purpose,
		}, protector, logger.Named("memory"))
		if err != nil {
			return nil, err
		}
	}

	var transcripts *storage.SqliteStorage
	var recorder hive.Recorder
	if settings.Hive.TranscriptDB != "" {
		transcripts, err = storage.OpenSqlite(settings.Hive.TranscriptDB)
		if err != nil {
			return nil, fmt.Errorf("opening transcript database: %w", err)
		}
		recorder = storage.NewHiveRecorder(transcripts)
	}

	// Hive members get their own client with a tighter output budget;
	// deliberation rounds are meant to be short position statements.
	hiveClient, err := createHiveClient(settings)
	if err != nil {
		return nil, err
	}
	council, err := hive.NewCouncil("Collective Mind", settings.Hive.MemberCount,
		hiveClient, settings.LLM.MaxHistoryTurns, logger.Named("hive"))
	if err != nil {
		return nil, err
	}
	coordinator, err := hive.New("Collective Mind", council, recorder, logger.Named("hive"))
	if err != nil {
		return nil, err
	}

	cognition := capability.NewCognition(capability.CognitionConfig{
		Mover:       &ConsoleMover{Out: os.Stdout},
		Relay:       &ConsoleRelay{Out: os.Stdout},
		Deliberator: coordinator,
	}, logger.Named("cognition"))
	registry := capability.NewCognitionRegistry(cognition)

	return &stack{
		settings:    settings,
		logger:      logger,
		brain:       NewBrain(mainSession, registry, logger.Named("brain")),
		registry:    registry,
		memories:    memories,
		coordinator: coordinator,
		transcripts: transcripts,
	}, nil
}

// prime sends the first message of a fresh session: the capability
// vocabulary, then either recalled memory or the initial instructions.
func (s *stack) prime(ctx context.Context, registryPrompt string) error {
	parts := []string{registryPrompt}
	if s.memories != nil {
		s.memories.Load()
		parts = append(parts, s.memories.InitialContextPrompt())
	}
	return s.brain.Session().Prime(ctx, strings.Join(parts, "\n\n"))
}

// persist saves the session's standard turns as an encrypted memory
// fragment. Best-effort; the store logs and swallows failures.
func (s *stack) persist() {
	if s.memories == nil {
		return
	}
	s.memories.SaveSession(s.brain.Session().Memories())
}

// Chat starts the interactive brain loop. Recalled memory primes the
// session, every input runs the full plan pipeline, and the session is
// persisted on exit.
func Chat(ctx context.Context, opts Options) error {
	s, err := newStack(opts)
	if err != nil {
		return err
	}
	defer s.close()

	if err := s.prime(ctx, s.capabilityPrompt()); err != nil {
		return fmt.Errorf("priming session: %w", err)
	}
	defer s.persist()

	return runREPL(ctx, s, os.Stdin, os.Stdout)
}

// runREPL reads operator input line by line until exit or EOF. The
// in-session commands are handled before anything reaches the model.
func runREPL(ctx context.Context, s *stack, in io.Reader, out io.Writer) error {
	fmt.Fprintf(out, "%s is listening. Type 'exit' to quit.\n\n", s.settings.Robot.Name)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())

		switch strings.ToLower(input) {
		case "":
			continue
		case commandExit:
			fmt.Fprintln(out, "Goodbye.")
			return scanner.Err()
		case commandClearHistory:
			s.clearHistory(ctx)
			fmt.Fprintln(out, "History cleared.")
			continue
		case commandShowHistory:
			printHistory(out, s.brain.Session().History())
			continue
		}

		if reply := s.brain.Respond(ctx, input); reply != "" {
			fmt.Fprintf(out, "%s\n\n", reply)
		}
	}
	return scanner.Err()
}

// clearHistory drops the session and all stored memory, then re-primes
// the session so the model starts over from the initial instructions.
func (s *stack) clearHistory(ctx context.Context) {
	s.brain.Session().Clear()
	if s.memories != nil {
		s.memories.ClearAll()
	}
	if err := s.prime(ctx, s.capabilityPrompt()); err != nil {
		s.logger.Warn("re-priming after history clear failed", zap.Error(err))
	}
}

// Ask runs a single question through the full pipeline and prints the
// reply. Memory is recalled before and persisted after, so one-shot
// questions still build long-term context.
func Ask(ctx context.Context, question string, opts Options) error {
	s, err := newStack(opts)
	if err != nil {
		return err
	}
	defer s.close()

	if err := s.prime(ctx, s.capabilityPrompt()); err != nil {
		return fmt.Errorf("priming session: %w", err)
	}
	defer s.persist()

	reply := s.brain.Respond(ctx, question)
	if reply != "" {
		fmt.Println(reply)
	}
	return nil
}

// Deliberate puts a topic directly to the collective mind, bypassing
// the plan pipeline, and prints the consolidated decision.
func Deliberate(ctx context.Context, topic string, opts Options) error {
	s, err := newStack(opts)
	if err != nil {
		return err
	}
	defer s.close()

	decision, err := s.coordinator.Deliberate(ctx, topic)
	if err != nil {
		return fmt.Errorf("deliberation failed: %w", err)
	}
	fmt.Println(decision)
	return nil
}

// MemoryShow decrypts and prints the stored memory fragments.
func MemoryShow(opts Options) error {
	s, err := newStack(opts)
	if err != nil {
		return err
	}
	defer s.close()

	if s.memories == nil {
		fmt.Println("Memory persistence is disabled.")
		return nil
	}

	fragments := s.memories.Load()
	if len(fragments) == 0 {
		fmt.Println("No memories stored.")
		return nil
	}
	for i, fragment := range fragments {
		fmt.Printf("--- Fragment %d ---\n%s\n\n", i, fragment)
	}
	return nil
}

// MemoryClear deletes every stored memory fragment.
func MemoryClear(opts Options) error {
	s, err := newStack(opts)
	if err != nil {
		return err
	}
	defer s.close()

	if s.memories == nil {
		fmt.Println("Memory persistence is disabled.")
		return nil
	}
	s.memories.ClearAll()
	fmt.Println("Memories cleared.")
	return nil
}

// capabilityPrompt renders the capability block for session priming.
func (s *stack) capabilityPrompt() string {
	return capability.DescribeCapabilities(s.registry, capability.CognitionDescriptors())
}

func printHistory(out io.Writer, turns []model.Turn) {
	if len(turns) == 0 {
		fmt.Fprintln(out, "No conversation history yet.")
		return
	}
	for _, turn := range turns {
		label := "Model"
		if turn.Role == model.RoleUser {
			label = "User"
		}
		fmt.Fprintf(out, "[%s]: %s\n", label, turn.Text())
	}
	fmt.Fprintln(out)
}

// createClient builds the chat client for the configured provider,
// reading the API key from the provider's environment variable.
func createClient(settings config.Settings) (*llm.Client, error) {
	providerType, err := llm.ParseProviderType(settings.LLM.Provider)
	if err != nil {
		return nil, err
	}

	apiKey, err := config.APIKeyFor(settings.LLM.Provider)
	if err != nil {
		return nil, err
	}

	provider, err := providerType.
		Model(settings.LLM.Model).
		MaxTokens(settings.LLM.MaxTokens).
		Temperature(float32(settings.LLM.Temperature)).
		APIKey(apiKey)
	if err != nil {
		return nil, err
	}
	return llm.NewClient(provider), nil
}

// createHiveClient builds the client deliberation members share, with
// the hive's output-token ceiling in place of the main session's.
func createHiveClient(settings config.Settings) (*llm.Client, error) {
	providerType, err := llm.ParseProviderType(settings.LLM.Provider)
	if err != nil {
		return nil, err
	}

	apiKey, err := config.APIKeyFor(settings.LLM.Provider)
	if err != nil {
		return nil, err
	}

	provider, err := providerType.
		Model(settings.LLM.Model).
		MaxTokens(settings.Hive.MaxOutputTokens).
		Temperature(float32(settings.LLM.Temperature)).
		APIKey(apiKey)
	if err != nil {
		return nil, err
	}
	return llm.NewClient(provider), nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}
