// Command devbackend serves an in-memory stand-in for the commerce API so the
// storefront can be run and poked at without the production backend.
package main

import (
	"flag"
	"log"
	"net/http"
	"time"

	"go.uber.org/zap"

	"storefront/config"
	"storefront/models"
	"storefront/utils"
)

func main() {
	addr := flag.String("addr", ":8000", "listen address")
	level := flag.String("log-level", "debug", "log level")
	demoUser := flag.String("demo-user", "demo", "username of the seeded account, empty to skip")
	demoPassword := flag.String("demo-password", "Demo123!", "password of the seeded account")
	flag.Parse()

	logger, err := utils.NewLogger(config.LogConfig{Level: *level, Format: "console"})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	s := &server{shop: newShop(), logger: logger}
	if *demoUser != "" {
		_, fe, err := s.shop.register(models.UserProfile{
			Username:  *demoUser,
			Email:     *demoUser + "@example.com",
			FirstName: "Demo",
			LastName:  "Shopper",
		}, *demoPassword)
		if err != nil || fe != nil {
			logger.Fatal("seeding demo account failed", zap.Error(err), zap.Any("fields", fe))
		}
		logger.Info("seeded demo account", zap.String("username", *demoUser))
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	logger.Info("devbackend listening", zap.String("addr", *addr))
	if err := srv.ListenAndServe(); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}
