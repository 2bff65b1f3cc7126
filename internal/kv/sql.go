package kv

import (
	"context"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/pkg/errors"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Entry is one stored key.
type Entry struct {
	Key       string `gorm:"primaryKey;type:varchar(191)"`
	Value     string `gorm:"type:longtext;not null"`
	UpdatedAt time.Time
}

func (Entry) TableName() string { return "local_storage" }

// SQL stores entries in a single table through GORM.
type SQL struct {
	db *gorm.DB
}

func OpenSQLite(path string) (*SQL, error) {
	if path == "" {
		path = "echocare-local.db"
	}
	return openSQL(gormsqlite.Open(path))
}

func OpenMySQL(dsn string) (*SQL, error) {
	return openSQL(mysql.Open(dsn))
}

func openSQL(d gorm.Dialector) (*SQL, error) {
	db, err := gorm.Open(d, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, errors.Wrap(err, "kv: open sql")
	}
	return NewSQL(db)
}

// NewSQL wraps an existing connection and migrates the entry table.
func NewSQL(db *gorm.DB) (*SQL, error) {
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, errors.Wrap(err, "kv: migrate")
	}
	return &SQL{db: db}, nil
}

func (s *SQL) Get(ctx context.Context, key string) (string, bool, error) {
	var e Entry
	err := s.db.WithContext(ctx).Where("`key` = ?", key).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(err, "kv: get %s", key)
	}
	return e.Value, true, nil
}

func (s *SQL) Set(ctx context.Context, key, value string) error {
	e := Entry{Key: key, Value: value, UpdatedAt: time.Now()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&e).Error
	return errors.Wrapf(err, "kv: set %s", key)
}

func (s *SQL) Remove(ctx context.Context, key string) error {
	err := s.db.WithContext(ctx).Where("`key` = ?", key).Delete(&Entry{}).Error
	return errors.Wrapf(err, "kv: remove %s", key)
}

func (s *SQL) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
