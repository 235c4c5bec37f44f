package main

import (
	"encoding/json"
	"flag"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/leca/image-triage/internal/config"
	"github.com/leca/image-triage/internal/fixture"
	"github.com/leca/image-triage/internal/model"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	seedPath := flag.String("seed", "", "path to a JSON file with rows to seed")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	rows, err := fixture.NewRowStore(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer rows.Close()

	if *seedPath != "" {
		if err := seed(rows, *seedPath); err != nil {
			slog.Error("failed to seed rows", "error", err)
			os.Exit(1)
		}
	}

	blobs := fixture.NewBlobStore(cfg.StoragePath)

	srv := fixture.NewServer(rows, blobs, cfg.RowSourceURL)

	slog.Info("starting fixture server", "addr", cfg.ListenAddr)
	if err := http.ListenAndServe(cfg.ListenAddr, srv.Router); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

// seed loads a JSON array of rows from path and inserts them.
func seed(rows *fixture.RowStore, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var list []model.ImageRow
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	return rows.Seed(list)
}
