package shipping

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/travatlanta/Sticky-sub003/internal/domain"
)

// Settings mirrors the on-disk shipping settings document.
type Settings struct {
	ShippingCost      decimal.Decimal `json:"shippingCost"`
	FreeShipping      bool            `json:"freeShipping"`
	AutomaticShipping bool            `json:"automaticShipping"`
}

func DefaultSettings() Settings {
	return Settings{
		ShippingCost:      decimal.RequireFromString("5.99"),
		FreeShipping:      false,
		AutomaticShipping: false,
	}
}

// FileStore keeps settings in a JSON file. The file is read on every call so
// admin edits apply to the next quote without a restart.
type FileStore struct {
	path string
	mu   sync.Mutex // serialises writers
	log  zerolog.Logger
}

func NewFileStore(path string, log zerolog.Logger) *FileStore {
	return &FileStore{path: path, log: log}
}

// Load falls back to DefaultSettings when the file is missing or unreadable.
func (s *FileStore) Load() Settings {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.log.Warn().Err(err).Str("path", s.path).Msg("shipping settings unreadable, using defaults")
		}
		return DefaultSettings()
	}

	settings := DefaultSettings()
	if err := json.Unmarshal(data, &settings); err != nil {
		s.log.Warn().Err(err).Str("path", s.path).Msg("shipping settings malformed, using defaults")
		return DefaultSettings()
	}
	return settings
}

// Save replaces the file atomically.
func (s *FileStore) Save(settings Settings) error {
	if settings.ShippingCost.IsNegative() {
		return fmt.Errorf("%w: shipping cost must not be negative", domain.ErrValidation)
	}
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal shipping settings: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".shipping-*.json")
	if err != nil {
		return fmt.Errorf("create temp settings file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close settings: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace settings: %w", err)
	}
	return nil
}
