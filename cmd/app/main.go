package main

import (
	"Recipegram-Backend/cmd/config"
	migration "Recipegram-Backend/cmd/database/migrate"
	"Recipegram-Backend/internal/utils"

	"github.com/sirupsen/logrus"
)

func main() {
	utils.LoadConfig()

	db, err := config.ConnectDB()
	if err != nil {
		logrus.WithError(err).Fatal("unable to connect to database")
	}

	if err := migration.Migrate(db); err != nil {
		logrus.WithError(err).Fatal("unable to migrate database")
	}

	app, err := config.NewApp(db)
	if err != nil {
		logrus.WithError(err).Fatal("unable to set up application")
	}

	port := utils.GetConfig("APP_PORT")
	if port == "" {
		port = "8080"
	}

	if err := app.Listen(":" + port); err != nil {
		logrus.WithError(err).Fatal("server stopped")
	}
}
