package main

import (
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ghosh-vishnu/MINITAB/pkg/api"
	"github.com/ghosh-vishnu/MINITAB/pkg/config"
	"github.com/ghosh-vishnu/MINITAB/pkg/store"

	log "github.com/sirupsen/logrus"
)

func main() {
	verbose := flag.Bool("v", false, "Verbose logging")
	configFile := flag.String("config", "minitab.toml", "Path to the config file")

	flag.Parse()
	if *verbose {
		// Set the log level to debug
		log.SetLevel(log.DebugLevel)
	}
	// Set the log format to include a leading timestamp in ISO8601 format
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})

	cfg, err := config.NewDatastore(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	st, err := store.Open(cfg.Store.DBFilename)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}

	router := api.GetRouter(st)
	if router != nil {
		go startServer(cfg.Store.Server.ListenAddress, router)
	}

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)

mainloop:
	// In all cases, just exit and let the container restart from scratch.
	// There's less to get wrong doing it this way.
	for {
		select {
		case <-signalChan:
			log.Info("Signalled, breaking main loop")
			break mainloop
		}
	}
}

func startServer(addr string, router http.Handler) {
	server := http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 2 * time.Second,
	}
	log.Infof("listening for HTTP on: %s", server.Addr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal("ListenAndServeError", err)
	}
}
