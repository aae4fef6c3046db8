package badger

import (
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/marketpulse/internal/common"
	"github.com/ternarybob/marketpulse/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db       *BadgerDB
	company  interfaces.CompanyStorage
	pulse    interfaces.PulseStorage
	headline interfaces.HeadlineStorage
	kv       interfaces.KeyValueStorage
	logger   arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:       db,
		company:  NewCompanyStorage(db, logger),
		pulse:    NewPulseStorage(db, logger),
		headline: NewHeadlineStorage(db, logger),
		kv:       NewKVStorage(db, logger),
		logger:   logger,
	}

	logger.Info().Msg("Badger storage manager initialized")

	return manager, nil
}

// CompanyStorage returns the Company storage interface
func (m *Manager) CompanyStorage() interfaces.CompanyStorage {
	return m.company
}

// PulseStorage returns the Pulse storage interface
func (m *Manager) PulseStorage() interfaces.PulseStorage {
	return m.pulse
}

// HeadlineStorage returns the Headline storage interface
func (m *Manager) HeadlineStorage() interfaces.HeadlineStorage {
	return m.headline
}

// KeyValueStorage returns the KeyValue storage interface
func (m *Manager) KeyValueStorage() interfaces.KeyValueStorage {
	return m.kv
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
