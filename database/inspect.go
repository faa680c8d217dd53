package database

import (
	"fmt"

	"gorm.io/gorm"
)

// MissingTables returns the manifest tables that do not exist in db, in
// manifest order. Columns of existing tables are not compared.
func MissingTables(db *gorm.DB, manifest *Manifest) ([]*Blueprint, error) {
	if db == nil {
		return nil, fmt.Errorf("no database connection")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}

	migrator := db.Migrator()

	var missing []*Blueprint
	for _, table := range manifest.Tables() {
		if !migrator.HasTable(table.Name()) {
			missing = append(missing, table)
		}
	}

	return missing, nil
}
