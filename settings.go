package kapytal

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml"
)

// Settings are the user-level presentation and housekeeping preferences the
// host application persists between sessions, stored as TOML.
type Settings struct {
	// DateFormat is the display format for dates, in Go reference-time
	// notation.
	DateFormat string `toml:"date_format"`

	// BaseCurrency is restored into the ledger on startup.
	BaseCurrency string `toml:"base_currency"`

	// BackupPaths lists the directories ledger backups are written to.
	BackupPaths []string `toml:"backup_paths"`

	// BackupSizeLimitKB caps the total size of kept backups; oldest are
	// pruned first. Zero means unlimited.
	BackupSizeLimitKB int64 `toml:"backup_size_limit_kb"`

	// LogSizeLimitKB caps the size of kept log files. Zero means unlimited.
	LogSizeLimitKB int64 `toml:"log_size_limit_kb"`
}

// DefaultSettings returns the settings used before the user saves any.
func DefaultSettings() Settings {
	return Settings{
		DateFormat:        "2006-01-02",
		BackupSizeLimitKB: 100 * 1024,
		LogSizeLimitKB:    1024,
	}
}

// LoadSettings reads settings from a TOML file. A missing file yields the
// defaults.
func LoadSettings(path string) (Settings, error) {
	settings := DefaultSettings()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return settings, nil
	}
	if err != nil {
		return settings, fmt.Errorf("reading settings: %w", err)
	}
	if err := toml.Unmarshal(data, &settings); err != nil {
		return settings, fmt.Errorf("parsing settings %s: %w", path, err)
	}
	return settings, nil
}

// SaveSettings writes settings to a TOML file.
func SaveSettings(path string, settings Settings) error {
	data, err := toml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	return nil
}
