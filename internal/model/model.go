package model

import (
	"gorm.io/gorm"
)

// AutoMigrate migrates the table registered under key.
func AutoMigrate(db *gorm.DB, key string) error {
	switch key {
	case "KVEntry":
		return db.AutoMigrate(KVEntry{})
	}
	return nil
}

// AutoMigrateAll 迁移全部表
func AutoMigrateAll(db *gorm.DB) error {
	for _, key := range []string{"KVEntry"} {
		if err := AutoMigrate(db, key); err != nil {
			return err
		}
	}
	return nil
}
