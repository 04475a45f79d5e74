package logging

// Level names recognized by Config.Level and the per-output overrides.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Format names recognized by ConsoleConfig.Format and FileConfig.Format.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
	FormatText    = "text"
)

// Config is a literal struct carrying every logging knob; since config
// loading is out of scope for this module, callers build it directly
// rather than parsing it from a file.
type Config struct {
	Level   string
	Console ConsoleConfig
	File    FileConfig
}

// ConsoleConfig controls the stdout output core.
type ConsoleConfig struct {
	Enabled bool
	Format  string
	Level   string // overrides Config.Level when set
}

// FileConfig controls the rotating file output core.
type FileConfig struct {
	Enabled  bool
	Path     string
	Format   string
	Level    string // overrides Config.Level when set
	Rotation RotationConfig
}

// RotationConfig mirrors lumberjack.Logger's knobs.
type RotationConfig struct {
	MaxSize    int // megabytes
	MaxAge     int // days
	MaxBackups int
	Compress   bool
}

// Default returns a console-only, debug-level configuration suitable for
// startup logging before the operator's own configuration is available.
func Default() Config {
	return Config{
		Level: LevelDebug,
		Console: ConsoleConfig{
			Enabled: true,
			Format:  FormatConsole,
		},
		File: FileConfig{
			Enabled: false,
			Format:  FormatText,
		},
	}
}
