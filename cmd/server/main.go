package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"msgboard/internal/api"
	"msgboard/internal/app/service"
	"msgboard/internal/app/session"
	"msgboard/internal/common/security"
	"msgboard/internal/domain/repository"
	"msgboard/internal/platform/cache"
	"msgboard/internal/platform/config"
	"msgboard/internal/platform/database"
)

func main() {
	// 1. Load Configuration
	config.Load()
	fmt.Println("Configuration loaded.")

	// 2. Initialize CSRF signer
	security.InitCSRF()
	fmt.Println("CSRF signer initialized.")

	// 3. Initialize Database
	database.Connect()
	defer database.Close()
	database.Migrate()
	fmt.Println("Database connected and migrated.")

	// 4. Initialize Redis
	cache.ConnectRedis()
	defer cache.CloseRedis()
	fmt.Println("Redis connected.")

	// 5. Initialize Repositories
	userRepo := repository.NewPgUserRepository(database.DB)
	messageRepo := repository.NewPgMessageRepository(database.DB)

	// 6. Initialize Session Store & Services
	sessions := session.NewRedisStore(cache.RDB, config.AppConfig.SessionTTL)
	authService := service.NewAuthService(userRepo)
	boardService := service.NewBoardService(messageRepo)

	// 7. Initialize Router & HTTP Server
	router := api.NewRouter(authService, boardService, sessions, config.AppConfig.SessionTTL, config.AppConfig.CSRFEnforce)

	server := &http.Server{
		Addr:         ":" + config.AppConfig.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 8. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on port %s", config.AppConfig.APIPort)
		var err error
		if config.AppConfig.TLSCert != "" && config.AppConfig.TLSKey != "" {
			err = server.ListenAndServeTLS(config.AppConfig.TLSCert, config.AppConfig.TLSKey)
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", config.AppConfig.APIPort, err)
		}
	}()
	log.Println("Server started successfully.")

	<-stop // Wait for interrupt signal

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	log.Println("Server stopped gracefully.")
}
