package database

import (
	"fmt"

	"github.com/billora/billora/internal/common/config"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// NewMySQL creates a Database backed by MySQL
func NewMySQL(cfg *config.DatabaseConfig) (Database, error) {
	gdb, err := gorm.Open(mysql.Open(cfg.GetDSN()), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return newGormDB(gdb)
}
