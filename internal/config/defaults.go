package config

const (
	defaultConfigPath       = "~/.config/stylesync/config.toml"
	defaultUploadsDir       = "~/.local/share/stylesync/uploads"
	defaultDataDir          = "~/.local/share/stylesync/data"
	defaultLogDir           = "~/.local/share/stylesync/logs"
	defaultStagingDir       = "~/.local/share/stylesync/staging"
	defaultAPIBind          = "127.0.0.1:7490"
	defaultStoreBackend     = StoreBackendFile
	defaultStoreLock        = StoreLockFile
	defaultMaxFileBytes     = 50 << 20
	defaultMaxBatchFiles    = 2000
	defaultMaxRequestBytes  = 2 << 30
	defaultCompletionBuffer = 64
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"

	configPathEnv     = "STYLESYNC_CONFIG"
	projectConfigFile = "stylesync.toml"
)

// Store backend and lock identifiers accepted in the [store] section.
const (
	StoreBackendFile   = "file"
	StoreBackendSQLite = "sqlite"
	StoreLockProcess   = "process"
	StoreLockFile      = "file"
)

// Collection names shared by the record store backends.
const (
	JobsCollection    = "jobs"
	UploadsCollection = "uploads_meta"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			UploadsDir: defaultUploadsDir,
			DataDir:    defaultDataDir,
			LogDir:     defaultLogDir,
			StagingDir: defaultStagingDir,
			APIBind:    defaultAPIBind,
		},
		Store: Store{
			Backend: defaultStoreBackend,
			Lock:    defaultStoreLock,
		},
		Upload: Upload{
			MaxFileBytes:    defaultMaxFileBytes,
			MaxBatchFiles:   defaultMaxBatchFiles,
			MaxRequestBytes: defaultMaxRequestBytes,
		},
		Jobs: Jobs{
			CompletionBuffer: defaultCompletionBuffer,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
