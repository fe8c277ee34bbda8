// Package warehouse reads source rows from the analytics warehouse
// (Redshift, Postgres or MySQL) into tables.
package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq" // Postgres and Redshift driver

	"github.com/elliotlrichardson/airsync/internal/config"
	"github.com/elliotlrichardson/airsync/internal/sqlutil"
)

// Manager owns the warehouse connection.
type Manager struct {
	DB      *sql.DB
	config  *config.WarehouseConfig
	dialect sqlutil.Dialect
}

// NewManager creates a new warehouse manager from configuration.
func NewManager(cfg *config.WarehouseConfig) *Manager {
	return &Manager{
		config:  cfg,
		dialect: sqlutil.DialectFor(cfg.Driver),
	}
}

// Dialect returns the SQL dialect spoken by the configured driver.
func (m *Manager) Dialect() sqlutil.Dialect {
	return m.dialect
}

// Connect opens the connection and verifies it with a single ping.
// There is no retry; a failed connection aborts the run.
func (m *Manager) Connect(ctx context.Context) error {
	db, err := sql.Open(m.driverName(), BuildDSN(m.config))
	if err != nil {
		return fmt.Errorf("failed to open warehouse connection: %w", err)
	}
	db.SetMaxOpenConns(2)
	db.SetConnMaxLifetime(10 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to connect to warehouse %s:%d: %w", m.config.Host, m.config.Port, err)
	}

	m.DB = db
	return nil
}

// Attach uses an already opened handle instead of connecting.
func (m *Manager) Attach(db *sql.DB) {
	m.DB = db
}

// Reader returns a Reader over the managed connection.
func (m *Manager) Reader() *Reader {
	return NewReader(m.DB, m.dialect)
}

func (m *Manager) driverName() string {
	if m.dialect == sqlutil.MySQL {
		return "mysql"
	}
	return "postgres"
}

// BuildDSN constructs a driver specific DSN from configuration.
func BuildDSN(cfg *config.WarehouseConfig) string {
	if sqlutil.DialectFor(cfg.Driver) == sqlutil.MySQL {
		return buildMySQLDSN(cfg)
	}
	return buildPostgresDSN(cfg)
}

// buildPostgresDSN produces the key=value form understood by lib/pq.
func buildPostgresDSN(cfg *config.WarehouseConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}

	parts := []string{
		"host=" + quoteDSNValue(cfg.Host),
		"port=" + strconv.Itoa(cfg.Port),
		"user=" + quoteDSNValue(cfg.User),
		"password=" + quoteDSNValue(cfg.Password),
		"dbname=" + quoteDSNValue(cfg.Database),
		"sslmode=" + quoteDSNValue(sslMode),
	}
	return strings.Join(parts, " ")
}

// quoteDSNValue single-quotes a lib/pq connection value when it is empty or
// contains spaces, quotes or backslashes.
func quoteDSNValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

func buildMySQLDSN(cfg *config.WarehouseConfig) string {
	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	mc.DBName = cfg.Database
	mc.ParseTime = true

	switch cfg.SSLMode {
	case "disable":
		mc.TLSConfig = "false"
	case "require", "verify-ca", "verify-full":
		mc.TLSConfig = "true"
	default:
		mc.TLSConfig = "preferred"
	}

	return mc.FormatDSN()
}

// Close closes the warehouse connection.
func (m *Manager) Close() error {
	if m.DB == nil {
		return nil
	}
	if err := m.DB.Close(); err != nil {
		return fmt.Errorf("warehouse close: %w", err)
	}
	return nil
}

// Ping verifies the connection is alive.
func (m *Manager) Ping(ctx context.Context) error {
	if m.DB == nil {
		return fmt.Errorf("warehouse ping failed: not connected")
	}
	if err := m.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("warehouse ping failed: %w", err)
	}
	return nil
}
