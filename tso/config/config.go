package config

import (
	"fmt"
	"os"
)

type Config struct {
	StatusAddr string `toml:"status-addr"`
	LogLevel   string `toml:"log-level"`

	DBPath     string `toml:"db-path"` // Directory to store the data in. Should exist and be writable.
	SyncWrites bool   `toml:"sync-writes"`

	// Slot count of the conflict-detection commit map.
	CommitMapSize int `toml:"commit-map-size"`
	// Bound on in-flight retry-disambiguation events.
	RetryQueueSize int `toml:"retry-queue-size"`
	// Timestamps reserved per persisted ceiling write.
	TimestampBatch uint64 `toml:"timestamp-batch"`
}

func (c *Config) Validate() error {
	if c.CommitMapSize <= 0 {
		return fmt.Errorf("commit map size must be greater than 0")
	}
	if c.RetryQueueSize <= 0 {
		return fmt.Errorf("retry queue size must be greater than 0")
	}
	if c.TimestampBatch == 0 {
		return fmt.Errorf("timestamp batch must be greater than 0")
	}
	return nil
}

func getLogLevel() (logLevel string) {
	logLevel = "info"
	if l := os.Getenv("LOG_LEVEL"); len(l) != 0 {
		logLevel = l
	}
	return
}

func NewDefaultConfig() *Config {
	return &Config{
		StatusAddr:     "127.0.0.1:20180",
		LogLevel:       getLogLevel(),
		DBPath:         "/tmp/tinytso",
		SyncWrites:     true,
		CommitMapSize:  1000,
		RetryQueueSize: 1 << 12,
		TimestampBatch: 10 * 1000 * 1000,
	}
}

func NewTestConfig() *Config {
	return &Config{
		LogLevel:       getLogLevel(),
		DBPath:         "/tmp/tinytso",
		SyncWrites:     false,
		CommitMapSize:  1000,
		RetryQueueSize: 1 << 12,
		TimestampBatch: 1000,
	}
}
