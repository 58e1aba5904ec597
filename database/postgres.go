package database

import (
	"log"
	"mess-backend/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Connect(databaseURL string) *gorm.DB {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	log.Println("✅ Database connected successfully")

	// Auto-migrate all models
	err = db.AutoMigrate(
		&models.User{},
		&models.Mess{},
		&models.MessMember{},
		&models.ServiceCost{},
		&models.BazarEntry{},
		&models.MealLog{},
		&models.Payment{},
		&models.MonthLock{},
		&models.Invitation{},
		&models.Activity{},
	)
	if err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	log.Println("✅ Database migrated successfully")
	return db
}
