package migration

import (
	entities2 "Receiptify-Backend/entities"
	"fmt"
	"log"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\";")

	if err := db.AutoMigrate(&entities2.User{}); err != nil {
		log.Fatalf("Error migrating user database: %v", err)
		return err
	}
	if err := db.AutoMigrate(&entities2.Receipt{}); err != nil {
		log.Fatalf("Error migrating receipt database: %v", err)
		return err
	}
	if err := db.AutoMigrate(&entities2.CreditPackage{}); err != nil {
		log.Fatalf("Error migrating credit package database: %v", err)
		return err
	}
	if err := db.AutoMigrate(&entities2.CreditTransaction{}); err != nil {
		log.Fatalf("Error migrating credit transaction database: %v", err)
		return err
	}
	if err := db.AutoMigrate(&entities2.PaymentRecord{}); err != nil {
		log.Fatalf("Error migrating payment record database: %v", err)
		return err
	}

	fmt.Println("Database migration complete")
	return nil
}
