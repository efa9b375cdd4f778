package auth

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var (
	ErrUnsupportedDriver  = errors.New("unsupported user directory driver")
	ErrOpeningDirectoryDB = errors.New("opening user directory database failed")
	ErrClosingDirectoryDB = errors.New("closing user directory database failed")
)

// OpenDirectoryDB connects gorm to the user directory database.
func OpenDirectoryDB(driver string, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch driver {
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Warn),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	if err != nil {
		return nil, errors.Join(ErrOpeningDirectoryDB, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Join(ErrOpeningDirectoryDB, err)
	}

	if driver == DriverSQLite {
		// a single connection keeps in-memory databases alive and avoids SQLITE_BUSY
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetMaxOpenConns(20)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	return db, nil
}

// CloseDirectoryDB closes the connection pool behind db.
func CloseDirectoryDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return errors.Join(ErrClosingDirectoryDB, err)
	}

	if err := sqlDB.Close(); err != nil {
		return errors.Join(ErrClosingDirectoryDB, err)
	}

	return nil
}
