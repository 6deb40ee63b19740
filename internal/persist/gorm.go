package persist

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"moneta/internal/config"
	"moneta/internal/models"
)

// snapshotModels is the list of GORM models making up a persisted snapshot.
var snapshotModels = []interface{}{
	&models.Account{},
	&models.Transaction{},
	&models.RecurringDefinition{},
	&models.GeneratedInstance{},
}

// GormPersister persists snapshots to a relational database through GORM.
// SQLite covers the local single-user setup; Postgres the hosted one.
type GormPersister struct {
	db *gorm.DB
}

// Open connects to the configured database and ensures the snapshot schema
// exists.
func Open(cfg *config.Config) (*GormPersister, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "sqlite":
		dialector = sqlite.Open(cfg.SQLitePath)
	case "postgres":
		dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode)
		dialector = postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true, // Required for pooled proxies; harmless for direct connections
		})
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return NewGormPersister(db)
}

// NewGormPersister wraps an existing GORM connection (used by tests with an
// in-memory SQLite database) and migrates the snapshot schema.
func NewGormPersister(db *gorm.DB) (*GormPersister, error) {
	if err := db.AutoMigrate(snapshotModels...); err != nil {
		return nil, fmt.Errorf("failed to migrate snapshot schema: %w", err)
	}
	return &GormPersister{db: db}, nil
}

// Load reads the persisted snapshot. A fresh database yields an empty
// snapshot, not an error.
func (p *GormPersister) Load() (*models.Snapshot, error) {
	var snapshot models.Snapshot

	if err := p.db.Order("created_at").Find(&snapshot.Accounts).Error; err != nil {
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}
	if err := p.db.Order("date").Find(&snapshot.Transactions).Error; err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	if err := p.db.Order("created_at").Find(&snapshot.Recurring).Error; err != nil {
		return nil, fmt.Errorf("failed to load recurring definitions: %w", err)
	}
	if err := p.db.Order("due_date").Find(&snapshot.Instances).Error; err != nil {
		return nil, fmt.Errorf("failed to load generated instances: %w", err)
	}

	return &snapshot, nil
}

// Save replaces the persisted snapshot wholesale within one database
// transaction. Last writer wins; the in-memory store already serializes
// writers, so no finer-grained merging is needed.
func (p *GormPersister) Save(snapshot *models.Snapshot) error {
	return p.db.Transaction(func(tx *gorm.DB) error {
		for _, model := range snapshotModels {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return fmt.Errorf("failed to clear table: %w", err)
			}
		}

		if len(snapshot.Accounts) > 0 {
			if err := tx.Create(snapshot.Accounts).Error; err != nil {
				return fmt.Errorf("failed to save accounts: %w", err)
			}
		}
		if len(snapshot.Transactions) > 0 {
			if err := tx.Create(snapshot.Transactions).Error; err != nil {
				return fmt.Errorf("failed to save transactions: %w", err)
			}
		}
		if len(snapshot.Recurring) > 0 {
			if err := tx.Create(snapshot.Recurring).Error; err != nil {
				return fmt.Errorf("failed to save recurring definitions: %w", err)
			}
		}
		if len(snapshot.Instances) > 0 {
			if err := tx.Create(snapshot.Instances).Error; err != nil {
				return fmt.Errorf("failed to save generated instances: %w", err)
			}
		}

		return nil
	})
}
