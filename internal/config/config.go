package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"stylesync/internal/fileutil"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	UploadsDir string `toml:"uploads_dir"`
	DataDir    string `toml:"data_dir"`
	LogDir     string `toml:"log_dir"`
	StagingDir string `toml:"staging_dir"`
	APIBind    string `toml:"api_bind"`
	APIToken   string `toml:"api_token"`
}

// Store selects how record collections are persisted and locked.
type Store struct {
	// Backend is "file" (one JSON document per collection) or "sqlite".
	Backend string `toml:"backend"`
	// Lock is "process" (in-memory RWMutex) or "file" (flock beside the data).
	Lock string `toml:"lock"`
}

// Upload bounds the size of ingestion batches.
type Upload struct {
	MaxFileBytes    int64 `toml:"max_file_bytes"`
	MaxBatchFiles   int   `toml:"max_batch_files"`
	MaxRequestBytes int64 `toml:"max_request_bytes"`
}

// Jobs contains job lifecycle settings.
type Jobs struct {
	CompletionBuffer int `toml:"completion_buffer"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for stylesync.
//
// Configuration sections by subsystem:
//   - Paths: managed upload root, data/log/staging directories, API bind address
//   - Store: record store backend and locking strategy
//   - Upload: per-file, per-batch, and per-request limits
//   - Jobs: completion event buffering
//   - Logging: log format and level
type Config struct {
	Paths   Paths   `toml:"paths"`
	Store   Store   `toml:"store"`
	Upload  Upload  `toml:"upload"`
	Jobs    Jobs    `toml:"jobs"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load reads the configuration, applies defaults for anything the file leaves
// out, and validates the result. An explicit path that does not exist is not
// an error; defaults are used and exists reports false. Unknown keys are
// rejected so typos do not silently fall back to defaults.
func Load(path string) (cfg *Config, resolved string, exists bool, err error) {
	loaded := Default()

	resolved, exists, err = locateConfig(path)
	if err != nil {
		return nil, "", false, err
	}
	if exists {
		if err := decodeFile(resolved, &loaded); err != nil {
			return nil, "", false, err
		}
	}

	if err := loaded.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := loaded.Validate(); err != nil {
		return nil, "", false, err
	}
	return &loaded, resolved, exists, nil
}

func decodeFile(path string, dst *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	decoder := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	err = decoder.Decode(dst)

	var strict *toml.StrictMissingError
	var syntax *toml.DecodeError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &strict):
		return fmt.Errorf("config %s has unknown keys:\n%s", path, strict.String())
	case errors.As(err, &syntax):
		row, col := syntax.Position()
		return fmt.Errorf("config %s:%d:%d: %w", path, row, col, err)
	default:
		return fmt.Errorf("parse config %s: %w", path, err)
	}
}

// locateConfig picks the config file. An explicit path always wins, even
// when missing. Otherwise the first existing file among $STYLESYNC_CONFIG,
// the per-user default, and ./stylesync.toml is used.
func locateConfig(explicit string) (string, bool, error) {
	if explicit != "" {
		expanded, err := expandPath(explicit)
		if err != nil {
			return "", false, err
		}
		ok, err := isConfigFile(expanded)
		return expanded, ok, err
	}

	fallback, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}
	candidates := []string{os.Getenv(configPathEnv), defaultConfigPath, projectConfigFile}
	for _, candidate := range candidates {
		if strings.TrimSpace(candidate) == "" {
			continue
		}
		expanded, err := expandPath(candidate)
		if err != nil {
			return "", false, err
		}
		ok, err := isConfigFile(expanded)
		if err != nil {
			return "", false, err
		}
		if ok {
			return expanded, true, nil
		}
	}
	return fallback, false, nil
}

func isConfigFile(path string) (bool, error) {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("stat config: %w", err)
	case info.IsDir():
		return false, fmt.Errorf("config path %s is a directory", path)
	}
	return true, nil
}

// EnsureDirectories creates the directories the daemon and CLI write into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.UploadsDir, c.Paths.DataDir, c.Paths.LogDir, c.Paths.StagingDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// JobsPath returns the file backing the job collection for the file backend.
func (c *Config) JobsPath() string {
	return filepath.Join(c.Paths.DataDir, JobsCollection+".json")
}

// UploadsMetaPath returns the file backing the upload log for the file backend.
func (c *Config) UploadsMetaPath() string {
	return filepath.Join(c.Paths.DataDir, UploadsCollection+".json")
}

// DatabasePath returns the SQLite database used by the sqlite backend.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "stylesync.db")
}

// DaemonLockPath returns the single-instance lock file for the daemon.
func (c *Config) DaemonLockPath() string {
	return filepath.Join(c.Paths.DataDir, "stylesyncd.lock")
}

func expandPath(value string) (string, error) {
	if value == "" {
		return "", nil
	}
	if value == "~" || strings.HasPrefix(value, "~/") || strings.HasPrefix(value, `~\`) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		value = home + value[1:]
	}
	abs, err := filepath.Abs(value)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", value, err)
	}
	return abs, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes the annotated sample configuration to path, creating
// parent directories as needed.
func CreateSample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return fileutil.WriteFileAtomic(path, []byte(sampleConfig), 0o644)
}
