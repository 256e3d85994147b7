package migration

import (
	"Recipegram-Backend/entities"
	"fmt"
	"log"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&entities.User{}); err != nil {
		log.Printf("Error migrating user database: %v", err)
		return err
	}
	if err := db.AutoMigrate(&entities.Subscription{}); err != nil {
		log.Printf("Error migrating subscription database: %v", err)
		return err
	}

	if err := db.AutoMigrate(&entities.Ingredient{}, &entities.Tag{}); err != nil {
		log.Printf("Error migrating catalog database: %v", err)
		return err
	}

	if err := db.AutoMigrate(&entities.Recipe{}, &entities.RecipeIngredient{}); err != nil {
		log.Printf("Error migrating recipe database: %v", err)
		return err
	}
	if err := db.AutoMigrate(&entities.Favorite{}, &entities.ShoppingCartEntry{}); err != nil {
		log.Printf("Error migrating relation database: %v", err)
		return err
	}

	fmt.Println("Database migration complete")
	return nil
}
