// internal/logger/config.go
package logger

type Config struct {
	LogFile    string
	Level      string
	MaxSize    int  // megabytes
	MaxAge     int  // days
	MaxBackups int  // rotated files kept
	Compress   bool // gzip rotated files
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() *Config {
	return &Config{
		LogFile:    "logs/bot.log",
		Level:      "info",
		MaxSize:    100,
		MaxAge:     7,
		MaxBackups: 3,
		Compress:   true,
	}
}
