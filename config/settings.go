// Package config provides application settings loaded from environment variables.
//
// Settings are created via New() which handles:
// - Environment variable parsing with validation
// - Default value application
// - Provider-specific configuration lookup
//
// The memory passphrase is its own secret (MEMORY_PASSPHRASE) and is
// never derived from a provider API key.

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Settings holds all application configuration.
type Settings struct {
	LLM    LLMConfig
	Robot  RobotConfig
	Memory MemoryConfig
	Hive   HiveConfig
}

// LLMConfig holds LLM provider configuration.
type LLMConfig struct {
	Provider    string
	Model       string
	MaxTokens   uint32
	Temperature float64
	// MaxHistoryTurns caps live session history. Nil means uncapped.
	MaxHistoryTurns *int
}

// RobotConfig holds the assistant's identity.
type RobotConfig struct {
	Name    string
	Purpose string
}

// MemoryConfig holds encrypted fragment persistence configuration.
type MemoryConfig struct {
	Enabled        bool
	Dir            string
	Prefix         string
	Extension      string
	ThresholdBytes int64
	// MaxTurnsToSave controls how many exchanges a saved session keeps.
	// Nil saves everything; zero saves nothing.
	MaxTurnsToSave *int
	// Passphrase is the encryption secret. Required when Enabled.
	Passphrase string
}

// HiveConfig holds collective deliberation configuration.
type HiveConfig struct {
	MemberCount     int
	MaxOutputTokens uint32
	// TranscriptDB is the SQLite path for deliberation transcripts.
	// Empty disables transcript persistence.
	TranscriptDB string
}

// providerInfo holds configuration for a specific LLM provider.
type providerInfo struct {
	modelEnv     string
	defaultModel string
	apiKeyEnv    string
}

// Supported providers and their configuration.
var providers = map[string]providerInfo{
	"openai":    {"OPENAI_MODEL", "gpt-4o", "OPENAI_API_KEY"},
	"anthropic": {"ANTHROPIC_MODEL", "claude-sonnet-4-20250514", "ANTHROPIC_API_KEY"},
	"deepseek":  {"DEEPSEEK_MODEL", "deepseek-chat", "DEEPSEEK_API_KEY"},
	"gemini":    {"GEMINI_MODEL", "gemini-2.0-flash", "GEMINI_API_KEY"},
}

// Provider aliases map to canonical names.
var providerAliases = map[string]string{
	"claude": "anthropic",
	"google": "gemini",
	"gpt":    "openai",
}

// New creates settings for the specified provider, loading values from environment variables.
// Returns an error if the provider is unknown, environment variables contain invalid
// values, or memory persistence is enabled without a passphrase.
func New(provider string) (Settings, error) {
	provider = normalizeProvider(provider)

	info, err := getProviderInfo(provider)
	if err != nil {
		return Settings{}, err
	}

	maxTokens, err := getEnvUint32("LLM_MAX_TOKENS", 4096)
	if err != nil {
		return Settings{}, err
	}

	temperature, err := getEnvFloat64("LLM_TEMPERATURE", 0.7)
	if err != nil {
		return Settings{}, err
	}

	maxHistoryTurns, err := getEnvOptionalInt("LLM_MAX_HISTORY_TURNS")
	if err != nil {
		return Settings{}, err
	}

	memoryEnabled, err := getEnvBool("MEMORY_ENABLED", true)
	if err != nil {
		return Settings{}, err
	}

	thresholdBytes, err := getEnvInt64("MEMORY_THRESHOLD_BYTES", 100*1024*1024)
	if err != nil {
		return Settings{}, err
	}

	// "ALL" is an accepted spelling for keep-everything, same as unset.
	var maxTurnsToSave *int
	if !strings.EqualFold(os.Getenv("MEMORY_MAX_TURNS"), "ALL") {
		maxTurnsToSave, err = getEnvOptionalInt("MEMORY_MAX_TURNS")
		if err != nil {
			return Settings{}, err
		}
	}

	memberCount, err := getEnvInt("HIVE_MEMBER_COUNT", 3)
	if err != nil {
		return Settings{}, err
	}
	if memberCount <= 0 {
		return Settings{}, fmt.Errorf("HIVE_MEMBER_COUNT must be positive, got %d", memberCount)
	}

	hiveMaxTokens, err := getEnvUint32("HIVE_MAX_TOKENS", 250)
	if err != nil {
		return Settings{}, err
	}

	passphrase := os.Getenv("MEMORY_PASSPHRASE")
	if memoryEnabled && passphrase == "" {
		return Settings{}, fmt.Errorf("MEMORY_PASSPHRASE must be set when memory persistence is enabled")
	}

	// Get model from environment or use default
	model := os.Getenv(info.modelEnv)
	if model == "" {
		model = info.defaultModel
	}

	return Settings{
		LLM: LLMConfig{
			Provider:        provider,
			Model:           model,
			MaxTokens:       maxTokens,
			Temperature:     temperature,
			MaxHistoryTurns: maxHistoryTurns,
		},
		Robot: RobotConfig{
			Name:    getEnvString("ROBOT_NAME", "Jamie"),
			Purpose: getEnvString("ROBOT_PURPOSE", "personal assistant"),
		},
		Memory: MemoryConfig{
			Enabled:        memoryEnabled,
			Dir:            getEnvString("MEMORY_DIR", "memories"),
			Prefix:         getEnvString("MEMORY_PREFIX", "memory"),
			Extension:      getEnvString("MEMORY_EXTENSION", ".enc"),
			ThresholdBytes: thresholdBytes,
			MaxTurnsToSave: maxTurnsToSave,
			Passphrase:     passphrase,
		},
		Hive: HiveConfig{
			MemberCount:     memberCount,
			MaxOutputTokens: hiveMaxTokens,
			TranscriptDB:    TranscriptDBPath(),
		},
	}, nil
}

// MustNew creates settings for the specified provider.
// Panics if the provider is unknown or environment variables are invalid.
// Use this only when configuration errors should be fatal.
func MustNew(provider string) Settings {
	settings, err := New(provider)
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return settings
}

// normalizeProvider converts provider aliases to canonical names.
func normalizeProvider(provider string) string {
	provider = strings.ToLower(provider)
	if canonical, ok := providerAliases[provider]; ok {
		return canonical
	}
	return provider
}

// getProviderInfo returns configuration for a provider.
func getProviderInfo(provider string) (providerInfo, error) {
	info, ok := providers[provider]
	if !ok {
		return providerInfo{}, fmt.Errorf("unknown provider: %q", provider)
	}
	return info, nil
}

// APIKeyFor returns the API key for a provider from environment variables.
func APIKeyFor(provider string) (string, error) {
	provider = normalizeProvider(provider)

	info, err := getProviderInfo(provider)
	if err != nil {
		return "", err
	}

	key := os.Getenv(info.apiKeyEnv)
	if key == "" {
		return "", fmt.Errorf("%s environment variable not set", info.apiKeyEnv)
	}
	return key, nil
}

// ModelFor returns the model for a provider, checking environment first.
func ModelFor(provider string) (string, error) {
	provider = normalizeProvider(provider)

	info, err := getProviderInfo(provider)
	if err != nil {
		return "", err
	}

	if val := os.Getenv(info.modelEnv); val != "" {
		return val, nil
	}
	return info.defaultModel, nil
}

// TranscriptDBPath returns the deliberation transcript database
// location. Exposed separately so transcript inspection does not need a
// full provider configuration.
func TranscriptDBPath() string {
	return getEnvString("HIVE_TRANSCRIPT_DB", "transcripts.db")
}

// SupportedProviders returns the list of supported provider names.
func SupportedProviders() []string {
	result := make([]string, 0, len(providers))
	for name := range providers {
		result = append(result, name)
	}
	return result
}

// Environment variable helpers with proper error handling

func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return i, nil
}

// getEnvOptionalInt distinguishes unset (nil) from an explicit value.
func getEnvOptionalInt(key string) (*int, error) {
	val := os.Getenv(key)
	if val == "" {
		return nil, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return nil, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	if i < 0 {
		return nil, fmt.Errorf("invalid value for %s: %q: must be non-negative", key, val)
	}
	return &i, nil
}

func getEnvInt64(key string, defaultVal int64) (int64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return i, nil
}

func getEnvUint32(key string, defaultVal uint32) (uint32, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.ParseUint(val, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return uint32(i), nil
}

func getEnvFloat64(key string, defaultVal float64) (float64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return f, nil
}

func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return b, nil
}
