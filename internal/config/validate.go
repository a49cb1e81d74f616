package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateUpload(); err != nil {
		return err
	}
	if c.Jobs.CompletionBuffer < 0 {
		return errors.New("jobs.completion_buffer must be non-negative")
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.UploadsDir) == "" {
		return errors.New("paths.uploads_dir must be set")
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	if filepath.Clean(c.Paths.UploadsDir) == filepath.Clean(c.Paths.DataDir) {
		return errors.New("paths.data_dir must differ from paths.uploads_dir")
	}
	return nil
}

func (c *Config) validateStore() error {
	switch c.Store.Backend {
	case StoreBackendFile, StoreBackendSQLite:
	default:
		return fmt.Errorf("store.backend: unsupported value %q (want file or sqlite)", c.Store.Backend)
	}
	switch c.Store.Lock {
	case StoreLockProcess, StoreLockFile:
	default:
		return fmt.Errorf("store.lock: unsupported value %q (want process or file)", c.Store.Lock)
	}
	return nil
}

func (c *Config) validateUpload() error {
	if c.Upload.MaxFileBytes < 0 {
		return errors.New("upload.max_file_bytes must be non-negative")
	}
	if c.Upload.MaxBatchFiles < 0 {
		return errors.New("upload.max_batch_files must be non-negative")
	}
	if c.Upload.MaxRequestBytes < 0 {
		return errors.New("upload.max_request_bytes must be non-negative")
	}
	if c.Upload.MaxRequestBytes > 0 && c.Upload.MaxFileBytes > c.Upload.MaxRequestBytes {
		return errors.New("upload.max_file_bytes cannot exceed upload.max_request_bytes")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
