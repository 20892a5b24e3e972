package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (SCALE_READER_*).
// It respects flags that have been explicitly set (changed map).
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("log-level", os.Getenv("SCALE_READER_LOG_LEVEL"), &cfg.LogLevel)
	s.setString("log-file", os.Getenv("SCALE_READER_LOG_FILE"), &cfg.LogFile)

	if err := s.setIntFromString("log-max-size", os.Getenv("SCALE_READER_LOG_MAX_SIZE_MB"), &cfg.LogMaxSizeMB); err != nil {
		return err
	}
	return s.setIntFromString("log-max-backups", os.Getenv("SCALE_READER_LOG_MAX_BACKUPS"), &cfg.LogMaxBackups)
}
