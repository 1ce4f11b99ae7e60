package main

import (
	"errors"
	"log"
	"net/http"

	"OtaUpdateServer/internal/server"
)

func main() {
	srv := server.NewServer()

	log.Printf("Listening on %s\n", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("http server error: %v", err)
	}
}
