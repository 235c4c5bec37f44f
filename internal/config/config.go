package config

import (
	"os"
)

type Config struct {
	RowSourceURL string
	UploadURL    string
	ListenAddr   string
	DBPath       string
	StoragePath  string
}

func Load() *Config {
	return &Config{
		RowSourceURL: getEnv("TRIAGE_ROWSOURCE_URL", "http://localhost:8786"),
		UploadURL:    getEnv("TRIAGE_UPLOAD_URL", "http://localhost:8786/upload"),
		ListenAddr:   getEnv("TRIAGE_LISTEN_ADDR", ":8786"),
		DBPath:       getEnv("TRIAGE_DB_PATH", "/data/db/triage.db"),
		StoragePath:  getEnv("TRIAGE_STORAGE_PATH", "/data/blobs"),
	}
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
