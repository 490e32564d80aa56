package badger

import (
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/hypr/internal/common"
	"github.com/ternarybob/hypr/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db       *BadgerDB
	profiles interfaces.ProfileStorage
	analyses interfaces.AnalysisStorage
	quotes   interfaces.QuoteStorage
	trending interfaces.TrendingStorage
	logger   arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig, retentionDays int) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	retention := time.Duration(retentionDays) * 24 * time.Hour

	manager := &Manager{
		db:       db,
		profiles: NewProfileStorage(db, logger),
		analyses: NewAnalysisStorage(db, logger, retention),
		quotes:   NewQuoteStorage(db, logger),
		trending: NewTrendingStorage(db, logger),
		logger:   logger,
	}

	logger.Info().Msg("Badger storage manager initialized")

	return manager, nil
}

// Profiles returns the company profile storage interface
func (m *Manager) Profiles() interfaces.ProfileStorage {
	return m.profiles
}

// Analyses returns the analysis result storage interface
func (m *Manager) Analyses() interfaces.AnalysisStorage {
	return m.analyses
}

// Quotes returns the live quote storage interface
func (m *Manager) Quotes() interfaces.QuoteStorage {
	return m.quotes
}

// Trending returns the trending snapshot storage interface
func (m *Manager) Trending() interfaces.TrendingStorage {
	return m.trending
}

// Close closes the underlying database
func (m *Manager) Close() error {
	return m.db.Close()
}
