// ABOUTME: Test utilities for loading SAP connection settings from .env files.
// ABOUTME: Used by integration tests that talk to a live SAP system.

package testutil

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/joho/godotenv"
)

var (
	envOnce   sync.Once
	envLoaded bool
)

// LoadEnv loads the nearest .env file, searching the current directory and
// up to 5 parent directories. Variables already set in the environment take
// precedence over .env values. Safe to call multiple times.
func LoadEnv() {
	envOnce.Do(func() {
		dir, err := os.Getwd()
		if err != nil {
			return
		}

		for range 6 {
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				if godotenv.Load(envPath) == nil {
					envLoaded = true
					return
				}
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	})
}

// EnvLoaded returns true if a .env file was successfully loaded.
func EnvLoaded() bool {
	return envLoaded
}

// SAPEnv is the live-system configuration for integration tests.
type SAPEnv struct {
	URL      string
	Client   string
	User     string
	Password string
}

// RequireSAP loads .env and skips the test unless SAP_URL, SAP_USER and
// SAP_PASSWORD are all set.
func RequireSAP(t testing.TB) SAPEnv {
	t.Helper()
	LoadEnv()

	env := SAPEnv{
		URL:      os.Getenv("SAP_URL"),
		Client:   os.Getenv("SAP_CLIENT"),
		User:     os.Getenv("SAP_USER"),
		Password: os.Getenv("SAP_PASSWORD"),
	}
	if env.URL == "" || env.User == "" || env.Password == "" {
		t.Skip("SAP_URL, SAP_USER and SAP_PASSWORD required for integration tests")
	}
	return env
}
