// cmd/server/main.go
package main

import (
	"log"
	"net/http"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/unohall/server/internal/auth"
	"github.com/unohall/server/internal/database"
	"github.com/unohall/server/internal/handlers"
	"github.com/unohall/server/internal/identity"
	"github.com/unohall/server/internal/middleware"
	"github.com/unohall/server/internal/uno"
)

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	if err := auth.Init(); err != nil {
		log.Fatalf("auth init failed: %v", err)
	}
	if err := database.Connect(); err != nil {
		log.Fatalf("database connect failed: %v", err)
	}
	ident, err := identity.Connect()
	if err != nil {
		log.Fatalf("redis connect failed: %v", err)
	}

	sessions := uno.NewStore(logger)
	sessions.SetResultRecorder(database.MatchRecorder{})

	srv := handlers.NewServer(sessions, ident, logger)

	mux := http.NewServeMux()

	// user endpoints
	mux.HandleFunc("/user/create", handlers.CreateUserHandler)
	mux.HandleFunc("/user/login", handlers.LoginHandler)

	// game websocket
	mux.Handle("/game/ws/", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.GameWSHandler(logger, srv),
	)))

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
