package main

import (
	"flag"
	"os"

	"github.com/df07/go-room-acoustics/log"
	"github.com/df07/go-room-acoustics/web/server"
)

func main() {
	// Parse command line flags
	port := flag.Int("port", 8080, "Port to serve on")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	flag.Parse()

	if *verbose {
		log.SetLevel(log.Debug)
	}

	logger := log.New("web")
	logger.Info("Room Acoustics Web Server")

	webServer := server.NewServer(*port)
	if err := webServer.Start(); err != nil {
		logger.Errorf("Error starting server: %v", err)
		os.Exit(1)
	}
}
