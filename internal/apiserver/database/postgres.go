package database

import (
	"fmt"

	"github.com/billora/billora/internal/common/config"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewPostgres creates a Database backed by PostgreSQL
func NewPostgres(cfg *config.DatabaseConfig) (Database, error) {
	gdb, err := gorm.Open(postgres.Open(cfg.GetDSN()), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return newGormDB(gdb)
}
