package config_test

import (
	"path/filepath"
	"testing"

	"github.com/queuectl/queuectl/config"
)

func TestGetDefaultsWhenUnset(t *testing.T) {
	s := config.Open(filepath.Join(t.TempDir(), "config.json"))
	v, err := s.GetInt(config.KeyMaxRetries)
	if err != nil {
		t.Fatal(err)
	}
	if v != config.DefaultMaxRetries {
		t.Fatalf("expected default %d, got %d", config.DefaultMaxRetries, v)
	}
}

func TestPutThenGetRoundTrips(t *testing.T) {
	s := config.Open(filepath.Join(t.TempDir(), "config.json"))
	if err := s.PutInt(config.KeyBackoffBase, 5); err != nil {
		t.Fatal(err)
	}
	v, err := s.GetInt(config.KeyBackoffBase)
	if err != nil {
		t.Fatal(err)
	}
	if v != 5 {
		t.Fatalf("expected 5, got %d", v)
	}
}

func TestPutPersistsAcrossStores(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	first := config.Open(path)
	if err := first.PutInt(config.KeyMaxRetries, 9); err != nil {
		t.Fatal(err)
	}

	second := config.Open(path)
	v, err := second.GetInt(config.KeyMaxRetries)
	if err != nil {
		t.Fatal(err)
	}
	if v != 9 {
		t.Fatalf("expected 9, got %d", v)
	}
}

func TestLoadTunables(t *testing.T) {
	s := config.Open(filepath.Join(t.TempDir(), "config.json"))
	tunables, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}
	if tunables.MaxRetries != config.DefaultMaxRetries {
		t.Fatalf("unexpected default max retries: %d", tunables.MaxRetries)
	}
	if tunables.LeaseTTL.Seconds() != config.DefaultLeaseTTLSeconds {
		t.Fatalf("unexpected default lease ttl: %v", tunables.LeaseTTL)
	}
}
