package persist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/flowbridge/flowbridge/types"
)

// WorkflowRecord is a saved workflow graph. Nodes holds the store's JSON
// export verbatim.
type WorkflowRecord struct {
	ID        string `gorm:"primaryKey;size:64"`
	Name      string `gorm:"size:255;index"`
	Nodes     []byte `gorm:"type:blob"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName keeps the table name stable across drivers.
func (WorkflowRecord) TableName() string { return "workflows" }

// DatabaseConfig selects and tunes the backing database.
type DatabaseConfig struct {
	Driver          string        `yaml:"driver" json:"driver"`
	Host            string        `yaml:"host" json:"host"`
	Port            int           `yaml:"port" json:"port"`
	User            string        `yaml:"user" json:"user"`
	Password        string        `yaml:"password" json:"password"`
	Name            string        `yaml:"name" json:"name"`
	SSLMode         string        `yaml:"ssl_mode" json:"ssl_mode"`
	MaxOpenConns    int           `yaml:"max_open_conns" json:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" json:"conn_max_lifetime"`
}

// DSN builds the driver-specific connection string.
func (c DatabaseConfig) DSN() string {
	switch c.Driver {
	case "postgres":
		sslMode := c.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.Name, sslMode)
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			c.User, c.Password, c.Host, c.Port, c.Name)
	default:
		// sqlite: Name is the file path, or ":memory:".
		return c.Name
	}
}

// Store persists workflows through GORM.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// Open connects to the configured database, applies pool settings, runs
// migrations, and returns a Store.
func Open(cfg DatabaseConfig, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite", "":
		dialector = sqlite.Open(cfg.DSN())
	case "postgres":
		dialector = postgres.Open(cfg.DSN())
	case "mysql":
		dialector = mysql.Open(cfg.DSN())
	default:
		return nil, fmt.Errorf("unsupported database driver: %s (supported: sqlite, postgres, mysql)", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.AutoMigrate(&WorkflowRecord{}); err != nil {
		return nil, fmt.Errorf("failed to auto migrate: %w", err)
	}

	logger.Info("database connected",
		zap.String("component", "persist"),
		zap.String("driver", cfg.Driver),
	)
	return &Store{db: db, logger: logger.With(zap.String("component", "persist"))}, nil
}

// SaveWorkflow inserts or updates a workflow by id.
func (s *Store) SaveWorkflow(id, name string, nodes []byte) error {
	record := WorkflowRecord{ID: id, Name: name, Nodes: nodes}
	err := s.db.Save(&record).Error
	if err != nil {
		return types.NewError(types.ErrInternalError, "failed to save workflow").WithCause(err)
	}
	s.logger.Debug("workflow saved", zap.String("workflow_id", id))
	return nil
}

// LoadWorkflow fetches a saved workflow by id.
func (s *Store) LoadWorkflow(id string) (*WorkflowRecord, error) {
	var record WorkflowRecord
	err := s.db.First(&record, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.NewError(types.ErrNotFound, fmt.Sprintf("workflow %s not found", id))
	}
	if err != nil {
		return nil, types.NewError(types.ErrInternalError, "failed to load workflow").WithCause(err)
	}
	return &record, nil
}

// ListWorkflows returns all saved workflows, most recently updated first.
// Nodes payloads are omitted.
func (s *Store) ListWorkflows() ([]WorkflowRecord, error) {
	var records []WorkflowRecord
	err := s.db.
		Select("id", "name", "created_at", "updated_at").
		Order("updated_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, types.NewError(types.ErrInternalError, "failed to list workflows").WithCause(err)
	}
	return records, nil
}

// DeleteWorkflow removes a saved workflow. Deleting a missing workflow
// fails with ErrNotFound.
func (s *Store) DeleteWorkflow(id string) error {
	result := s.db.Delete(&WorkflowRecord{}, "id = ?", id)
	if result.Error != nil {
		return types.NewError(types.ErrInternalError, "failed to delete workflow").WithCause(result.Error)
	}
	if result.RowsAffected == 0 {
		return types.NewError(types.ErrNotFound, fmt.Sprintf("workflow %s not found", id))
	}
	s.logger.Debug("workflow deleted", zap.String("workflow_id", id))
	return nil
}

// Ping verifies the database connection. Used by readiness probes.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
