package chatstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	defaultRetentionDays = 30
	retentionSweepEvery  = 6 * time.Hour
)

// Module provides durable chat storage via GORM + SQLite.
type Module struct {
	db            *gorm.DB
	repo          *Repository
	dbPath        string
	retentionDays int
	cancelSweep   context.CancelFunc
	sweepDone     chan struct{}
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.ServiceProviderModule = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new chatstore module.
func NewModule() *Module {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "streaming.db"
	}

	retentionDays := defaultRetentionDays
	if v := os.Getenv("CHAT_RETENTION_DAYS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			retentionDays = parsed
		}
	}

	return &Module{
		dbPath:        dbPath,
		retentionDays: retentionDays,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "chatstore"
}

// RegisterServices registers request-reply services in the service container.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	services := []struct {
		name     string
		register func() error
	}{
		{ServiceSave, func() error {
			return helper.RegisterTypedRequestReplyService(container, ServiceSave, json.Unmarshal, json.Marshal, m.saveMessage)
		}},
		{ServiceHistory, func() error {
			return helper.RegisterTypedRequestReplyService(container, ServiceHistory, json.Unmarshal, json.Marshal, m.history)
		}},
		{ServiceStats, func() error {
			return helper.RegisterTypedRequestReplyService(container, ServiceStats, json.Unmarshal, json.Marshal, m.stats)
		}},
		{ServiceStreams, func() error {
			return helper.RegisterTypedRequestReplyService(container, ServiceStreams, json.Unmarshal, json.Marshal, m.streams)
		}},
		{ServiceSearch, func() error {
			return helper.RegisterTypedRequestReplyService(container, ServiceSearch, json.Unmarshal, json.Marshal, m.search)
		}},
		{ServiceCleanup, func() error {
			return helper.RegisterTypedRequestReplyService(container, ServiceCleanup, json.Unmarshal, json.Marshal, m.cleanup)
		}},
	}

	for _, svc := range services {
		if err := svc.register(); err != nil {
			return fmt.Errorf("failed to register %s service: %w", svc.name, err)
		}
	}

	log.Printf("[chatstore] Registered services: save, history, stats, streams, search, cleanup")
	return nil
}

// Start opens the database, runs migrations and launches the retention sweeper.
func (m *Module) Start(_ context.Context) error {
	log.Printf("[chatstore] Opening SQLite database: %s", m.dbPath)

	logLevel := logger.Silent
	if os.Getenv("DB_DEBUG") == "true" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(sqlite.Open(m.dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	m.db = db

	// WAL mode is the crash-safety mechanism for concurrent chat writes.
	if err := m.db.Exec("PRAGMA journal_mode=WAL").Error; err != nil {
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if err := m.db.AutoMigrate(&ChatMessage{}); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	m.repo = NewRepository(m.db)

	sweepCtx, cancel := context.WithCancel(context.Background())
	m.cancelSweep = cancel
	m.sweepDone = make(chan struct{})
	go m.runRetentionSweep(sweepCtx)

	log.Printf("[chatstore] Module started - retention %d days", m.retentionDays)
	return nil
}

// Stop halts the sweeper and closes the database connection.
func (m *Module) Stop(_ context.Context) error {
	if m.cancelSweep != nil {
		m.cancelSweep()
		<-m.sweepDone
	}

	if m.db == nil {
		return nil
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	log.Println("[chatstore] Database connection closed")
	return nil
}

// Health performs a database ping.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "database not initialized",
		}
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("failed to get sql.DB: %v", err),
		}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"driver":         "sqlite",
			"path":           m.dbPath,
			"retention_days": m.retentionDays,
		},
	}
}

// Repo returns the repository for in-process consumers.
func (m *Module) Repo() *Repository {
	return m.repo
}

// runRetentionSweep periodically drops messages past the retention window.
func (m *Module) runRetentionSweep(ctx context.Context) {
	defer close(m.sweepDone)

	ticker := time.NewTicker(retentionSweepEvery)
	defer ticker.Stop()

	m.sweepOnce()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sweepOnce()
		}
	}
}

func (m *Module) sweepOnce() {
	cutoff := time.Now().Add(-time.Duration(m.retentionDays) * 24 * time.Hour).UnixMilli()
	deleted, err := m.repo.DeleteOlderThan(cutoff)
	if err != nil {
		log.Printf("[chatstore] Retention sweep failed: %v", err)
		return
	}
	if deleted > 0 {
		log.Printf("[chatstore] Retention sweep removed %d messages", deleted)
	}
}
