package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/evyataryagoni/ipinfobot/internal/models"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// LookupCacheModel is the GORM model for the lookup_cache table
type LookupCacheModel struct {
	IP        string    `gorm:"column:ip;primaryKey;size:45"`
	Payload   string    `gorm:"column:payload;type:text"` // JSON-encoded LookupResult
	ExpiresAt time.Time `gorm:"column:expires_at;index"`
}

// TableName overrides GORM's pluralized default
func (LookupCacheModel) TableName() string {
	return "lookup_cache"
}

// MySQLCache implements Cache using MySQL with GORM
// Expired rows are ignored on read and overwritten on the next Set
type MySQLCache struct {
	db  *gorm.DB
	ttl time.Duration
	now func() time.Time
}

// NewMySQLCache creates a new MySQL cache using GORM
//
// Parameters:
//   - dsn: Data Source Name
//     Format: user:password@tcp(host:port)/dbname?parseTime=true
//   - ttl: how long a stored result stays fresh
func NewMySQLCache(dsn string, ttl time.Duration) (*MySQLCache, error) {
	return openMySQLCache(mysql.Open(dsn), ttl)
}

// openMySQLCache opens and pings the pool, closing it again on any failure
func openMySQLCache(dialector gorm.Dialector, ttl time.Duration) (*MySQLCache, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
	})
	if err != nil {
		closeDB(db)
		return nil, fmt.Errorf("failed to connect to MySQL with GORM: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping MySQL database: %w", err)
	}

	return newMySQLCache(db, ttl), nil
}

// closeDB releases the pool of a partially opened connection
func closeDB(db *gorm.DB) {
	if db == nil {
		return
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}

func newMySQLCache(db *gorm.DB, ttl time.Duration) *MySQLCache {
	return &MySQLCache{db: db, ttl: ttl, now: time.Now}
}

// Migrate creates or updates the lookup_cache table
func (c *MySQLCache) Migrate() error {
	if err := c.db.AutoMigrate(&LookupCacheModel{}); err != nil {
		return fmt.Errorf("failed to migrate lookup_cache: %w", err)
	}
	return nil
}

// Get implements the Cache interface
func (c *MySQLCache) Get(ctx context.Context, ip string) (*models.LookupResult, error) {
	var record LookupCacheModel

	// SELECT * FROM lookup_cache WHERE ip = ? AND expires_at > ? ORDER BY ip LIMIT 1
	err := c.db.WithContext(ctx).
		Where("ip = ? AND expires_at > ?", ip, c.now()).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("database query failed: %w", err)
	}

	var result models.LookupResult
	if err := json.Unmarshal([]byte(record.Payload), &result); err != nil {
		return nil, fmt.Errorf("failed to decode cached result: %w", err)
	}

	return &result, nil
}

// Set implements the Cache interface as an upsert keyed by IP
func (c *MySQLCache) Set(ctx context.Context, ip string, result *models.LookupResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	record := LookupCacheModel{
		IP:        ip,
		Payload:   string(payload),
		ExpiresAt: c.now().Add(c.ttl),
	}

	err = c.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&record).Error
	if err != nil {
		return fmt.Errorf("failed to store in MySQL: %w", err)
	}

	return nil
}

// Name implements the Cache interface
func (c *MySQLCache) Name() string { return "mysql" }

// Close closes the database connection
func (c *MySQLCache) Close() error {
	if c.db != nil {
		sqlDB, err := c.db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}
