// Command tourplanner-server exposes the Top-Level Orchestrator over HTTP,
// for deployments that want an always-on planning service instead of the
// one-shot tourplanner CLI. Modeled on
// KhalidEchchahid-transit-app/backend/main.go's chi-based composition root.
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/groceryroute/tourplanner/internal/api"
	"github.com/groceryroute/tourplanner/internal/config"
	"github.com/groceryroute/tourplanner/internal/oracle"
	"github.com/groceryroute/tourplanner/internal/orchestrator"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	configPath := os.Getenv("TOURPLANNER_CONFIG")
	if configPath == "" {
		log.Fatal("TOURPLANNER_CONFIG is required")
	}

	doc, err := config.Load(configPath)
	if err != nil {
		log.WithError(err).Fatal("loading configuration")
	}

	var client oracle.Client
	if url := os.Getenv("TOURPLANNER_ORACLE_URL"); url != "" {
		client = oracle.NewHTTPClient(url)
	}
	adapter := oracle.New(client, doc.Cache, log)
	orch := orchestrator.New(adapter, log)

	router := api.NewRouter(orch, doc, log)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      6 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}
	log.Printf("tourplanner-server listening on :%s", port)
	log.Fatal(srv.ListenAndServe())
}
