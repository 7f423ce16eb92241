package main

import (
	"ticketing-admin-svc/src/internal/config"
	"ticketing-admin-svc/src/internal/logger"
	"ticketing-admin-svc/src/internal/server"

	"github.com/sirupsen/logrus"
)

var log = logrus.StandardLogger()

func main() {
	cfg := config.Load()
	logger.Init(cfg)

	log.Infof("Application %s is starting....", cfg.App.Name)

	srv := server.New(cfg)
	if err := srv.Start(); err != nil {
		log.WithError(err).Fatal("Error starting server")
	}
}
