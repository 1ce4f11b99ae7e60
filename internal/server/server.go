package server

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"OtaUpdateServer/internal/database"
	"OtaUpdateServer/internal/update"
)

type Server struct {
	port int

	db     database.Service
	engine *update.Engine
}

func NewServer() *http.Server {
	port, _ := strconv.Atoi(os.Getenv("OTA_API_PORT"))
	if port == 0 {
		port = 8080
	}

	db := database.New()

	newServer := &Server{
		port: port,

		db:     db,
		engine: update.NewEngine(db, os.Getenv("OTA_BUNDLE_BASE_URL")),
	}

	// Declare Server config
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", newServer.port),
		Handler:      newServer.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return server
}
