// Package settings keeps the company settings of the dashboard in memory.
package settings

import (
	"errors"
	"strings"
	"sync"

	"github.com/iwvelando/finance-dashboard/internal/notify"
	"go.uber.org/zap"
)

// DefaultCompanyName is used until a name is saved.
const DefaultCompanyName = "Моя Компания"

// ErrEmptyCompanyName is returned by Save for a blank company name.
var ErrEmptyCompanyName = errors.New("company name is required")

var savedNotification = notify.Notification{
	Title:       "Настройки сохранены",
	Description: "Ваши настройки успешно обновлены",
}

// Settings are the user-editable preferences. The API key is stored but not
// used by any component.
type Settings struct {
	CompanyName        string `json:"companyName" yaml:"companyName"`
	APIKey             string `json:"apiKey" yaml:"apiKey"`
	EmailNotifications bool   `json:"emailNotifications" yaml:"emailNotifications"`
	MonthlyReports     bool   `json:"monthlyReports" yaml:"monthlyReports"`
	CashGapAlerts      bool   `json:"cashGapAlerts" yaml:"cashGapAlerts"`
}

// Defaults returns the initial settings.
func Defaults() Settings {
	return Settings{
		CompanyName:        DefaultCompanyName,
		EmailNotifications: true,
		MonthlyReports:     true,
		CashGapAlerts:      true,
	}
}

// Validate checks the settings before they are stored.
func (s Settings) Validate() error {
	if strings.TrimSpace(s.CompanyName) == "" {
		return ErrEmptyCompanyName
	}
	return nil
}

// Masked returns a copy with all but the last four characters of the API key
// hidden.
func (s Settings) Masked() Settings {
	s.APIKey = MaskKey(s.APIKey)
	return s
}

// MaskKey hides a secret, keeping its last four characters when it is long
// enough to stay unguessable.
func MaskKey(key string) string {
	runes := []rune(key)
	if len(runes) == 0 {
		return ""
	}
	if len(runes) <= 8 {
		return strings.Repeat("•", len(runes))
	}
	return strings.Repeat("•", len(runes)-4) + string(runes[len(runes)-4:])
}

// Store holds the current settings.
type Store struct {
	logger *zap.Logger

	mu      sync.RWMutex
	current Settings
}

// NewStore returns a store holding initial. A zero company name is replaced
// by DefaultCompanyName.
func NewStore(logger *zap.Logger, initial Settings) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if strings.TrimSpace(initial.CompanyName) == "" {
		initial.CompanyName = DefaultCompanyName
	}
	return &Store{logger: logger, current: initial}
}

// Get returns the current settings with the API key masked.
func (s *Store) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Masked()
}

// Save validates and replaces the settings. An API key equal to the masked
// value keeps the stored key, so a client may round-trip Get output.
func (s *Store) Save(next Settings) (notify.Notification, error) {
	next.CompanyName = strings.TrimSpace(next.CompanyName)
	if err := next.Validate(); err != nil {
		return notify.Notification{}, err
	}

	s.mu.Lock()
	if next.APIKey != "" && next.APIKey == MaskKey(s.current.APIKey) {
		next.APIKey = s.current.APIKey
	}
	s.current = next
	s.mu.Unlock()

	s.logger.Info("settings saved",
		zap.String("op", "settings.Save"),
		zap.String("company", next.CompanyName),
	)
	return savedNotification, nil
}
