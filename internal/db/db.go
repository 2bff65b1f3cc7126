package db

import (
	"fmt"
	"strings"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/suPer8Hu/echocare/internal/chat"
	"github.com/suPer8Hu/echocare/internal/models"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects by DSN: "sqlite://<path>" (or "file:..."), anything else is
// passed to the MySQL driver.
func Open(dsn string) (*gorm.DB, error) {
	var d gorm.Dialector
	switch {
	case strings.HasPrefix(dsn, "sqlite://"):
		d = gormsqlite.Open(strings.TrimPrefix(dsn, "sqlite://"))
	case strings.HasPrefix(dsn, "file:"):
		d = gormsqlite.Open(dsn)
	default:
		d = mysql.Open(dsn)
	}
	gdb, err := gorm.Open(d, &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := Migrate(gdb); err != nil {
		return nil, err
	}
	return gdb, nil
}

func Migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(&models.User{}, &chat.Job{}); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}
