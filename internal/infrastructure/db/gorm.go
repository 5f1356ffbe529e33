package db

import (
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"finapp-backend/internal/domain/decision"
	"finapp-backend/internal/domain/loan"
	"finapp-backend/internal/domain/payment"
	"finapp-backend/internal/domain/user"
)

func OpenGorm(dsn string) (*gorm.DB, error) {
	return OpenGormWithDialector(mysql.Open(dsn))
}

// OpenSQLite opens a file (or ":memory:") database for local runs.
func OpenSQLite(path string) (*gorm.DB, error) {
	return OpenGormWithDialector(sqlite.Open(path))
}

func OpenGormWithDialector(dial gorm.Dialector) (*gorm.DB, error) {
	cfg := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
	}
	db, err := gorm.Open(dial, cfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(30)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}
	log.WithField("dialect", dial.Name()).Info("gorm: connected")
	return db, nil
}

// Models lists every persisted entity, in creation order.
func Models() []any {
	return []any{&user.User{}, &loan.Loan{}, &payment.Payment{}, &decision.Decision{}}
}

// AutoMigrate creates the schema from the entities; used for sqlite and tests.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
