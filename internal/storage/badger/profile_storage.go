package badger

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/hypr/internal/interfaces"
	"github.com/ternarybob/hypr/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// ProfileStorage implements interfaces.ProfileStorage for Badger.
// Profiles are keyed by upper-cased ticker and kept indefinitely.
type ProfileStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewProfileStorage creates a new ProfileStorage instance
func NewProfileStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ProfileStorage {
	return &ProfileStorage{
		db:     db,
		logger: logger,
	}
}

func profileKey(ticker string) string {
	return "profile:" + strings.ToUpper(strings.TrimSpace(ticker))
}

// Get retrieves a company profile by ticker
func (s *ProfileStorage) Get(ctx context.Context, ticker string) (*models.CompanyProfile, error) {
	var profile models.CompanyProfile
	err := s.db.Store().Get(profileKey(ticker), &profile)
	if err == badgerhold.ErrNotFound {
		return nil, interfaces.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get company profile: %w", err)
	}
	return &profile, nil
}

// Save inserts or updates a company profile
func (s *ProfileStorage) Save(ctx context.Context, profile *models.CompanyProfile) error {
	if err := s.db.Store().Upsert(profileKey(profile.Ticker), profile); err != nil {
		return fmt.Errorf("failed to save company profile: %w", err)
	}

	s.logger.Debug().Str("ticker", profile.Ticker).Msg("Company profile saved")
	return nil
}
