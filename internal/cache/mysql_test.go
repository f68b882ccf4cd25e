package cache

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/evyataryagoni/ipinfobot/internal/models"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupMockDB creates a mock database for testing
func setupMockDB(t *testing.T) (*MySQLCache, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	})

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open gorm db: %v", err)
	}

	c := newMySQLCache(db, time.Hour)
	c.now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }

	return c, mock, sqlDB
}

const selectQuery = "SELECT \\* FROM `lookup_cache` WHERE ip = \\? AND expires_at > \\? .*"

// TestMySQLCache_Get_Hit tests a fresh row
func TestMySQLCache_Get_Hit(t *testing.T) {
	c, mock, sqlDB := setupMockDB(t)
	defer sqlDB.Close()

	rows := sqlmock.NewRows([]string{"ip", "payload", "expires_at"}).
		AddRow("8.8.8.8", `{"ip":"8.8.8.8","city":"Mountain View","country":"US"}`, time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC))

	mock.ExpectQuery(selectQuery).
		WithArgs("8.8.8.8", sqlmock.AnyArg(), 1).
		WillReturnRows(rows)

	result, err := c.Get(context.Background(), "8.8.8.8")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.City != "Mountain View" || result.Country != "US" {
		t.Errorf("unexpected result: %+v", result)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

// TestMySQLCache_Get_Miss tests missing or expired rows
func TestMySQLCache_Get_Miss(t *testing.T) {
	c, mock, sqlDB := setupMockDB(t)
	defer sqlDB.Close()

	mock.ExpectQuery(selectQuery).
		WithArgs("1.1.1.1", sqlmock.AnyArg(), 1).
		WillReturnError(gorm.ErrRecordNotFound)

	result, err := c.Get(context.Background(), "1.1.1.1")
	if !errors.Is(err, ErrCacheMiss) {
		t.Errorf("expected ErrCacheMiss, got %v", err)
	}
	if result != nil {
		t.Error("expected nil result on miss")
	}

	mock.ExpectationsWereMet()
}

// TestMySQLCache_Get_DatabaseError tests database errors
func TestMySQLCache_Get_DatabaseError(t *testing.T) {
	c, mock, sqlDB := setupMockDB(t)
	defer sqlDB.Close()

	mock.ExpectQuery(selectQuery).
		WithArgs("8.8.8.8", sqlmock.AnyArg(), 1).
		WillReturnError(sql.ErrConnDone)

	_, err := c.Get(context.Background(), "8.8.8.8")
	if err == nil || errors.Is(err, ErrCacheMiss) {
		t.Errorf("expected database error, got %v", err)
	}

	mock.ExpectationsWereMet()
}

// TestMySQLCache_Get_CorruptPayload tests undecodable rows
func TestMySQLCache_Get_CorruptPayload(t *testing.T) {
	c, mock, sqlDB := setupMockDB(t)
	defer sqlDB.Close()

	rows := sqlmock.NewRows([]string{"ip", "payload", "expires_at"}).
		AddRow("8.8.8.8", `not json`, time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC))
	mock.ExpectQuery(selectQuery).
		WithArgs("8.8.8.8", sqlmock.AnyArg(), 1).
		WillReturnRows(rows)

	if _, err := c.Get(context.Background(), "8.8.8.8"); err == nil {
		t.Error("expected decode error, got nil")
	}
}

// TestMySQLCache_Set tests the upsert
func TestMySQLCache_Set(t *testing.T) {
	c, mock, sqlDB := setupMockDB(t)
	defer sqlDB.Close()

	mock.ExpectExec("INSERT INTO `lookup_cache` .* ON DUPLICATE KEY UPDATE .*").
		WithArgs("8.8.8.8", `{"ip":"8.8.8.8","country":"US"}`, time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := c.Set(context.Background(), "8.8.8.8", &models.LookupResult{IP: "8.8.8.8", Country: "US"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

// TestMySQLCache_Set_Error tests a failing insert
func TestMySQLCache_Set_Error(t *testing.T) {
	c, mock, sqlDB := setupMockDB(t)
	defer sqlDB.Close()

	mock.ExpectExec("INSERT INTO `lookup_cache`").
		WillReturnError(sql.ErrConnDone)

	if err := c.Set(context.Background(), "8.8.8.8", &models.LookupResult{IP: "8.8.8.8"}); err == nil {
		t.Error("expected error, got nil")
	}
}

// TestMySQLCache_Close tests cleanup
func TestMySQLCache_Close(t *testing.T) {
	c, mock, sqlDB := setupMockDB(t)
	defer sqlDB.Close()

	mock.ExpectClose()

	if err := c.Close(); err != nil {
		t.Errorf("unexpected error on close: %v", err)
	}

	mock.ExpectationsWereMet()
}

// TestMySQLCache_Close_NilDB tests close with nil db
func TestMySQLCache_Close_NilDB(t *testing.T) {
	c := &MySQLCache{db: nil}
	if err := c.Close(); err != nil {
		t.Errorf("expected no error for nil db, got: %v", err)
	}
}

// TestLookupCacheModel_TableName tests GORM table name override
func TestLookupCacheModel_TableName(t *testing.T) {
	if name := (LookupCacheModel{}).TableName(); name != "lookup_cache" {
		t.Errorf("expected table name 'lookup_cache', got '%s'", name)
	}
}

// TestOpenMySQLCache_PingFailureClosesPool tests that a failed ping releases the pool
func TestOpenMySQLCache_PingFailureClosesPool(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	mock.ExpectClose()

	c, err := openMySQLCache(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), time.Hour)
	if err == nil {
		t.Fatal("expected ping error, got nil")
	}
	if c != nil {
		t.Error("expected nil cache")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expected pool to be closed: %v", err)
	}
}

// TestOpenMySQLCache_Success tests that a healthy pool stays open
func TestOpenMySQLCache_Success(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer sqlDB.Close()

	mock.ExpectPing()

	c, err := openMySQLCache(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Name() != "mysql" {
		t.Errorf("expected mysql cache, got %s", c.Name())
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
