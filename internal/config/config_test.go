package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"time-release-helper/internal/models"
)

func TestDefaultNetworks(t *testing.T) {
	networks, err := LoadNetworks("")
	if err != nil {
		t.Fatalf("LoadNetworks() error = %v", err)
	}
	cfg := &Config{Networks: networks}

	freq, err := cfg.NetworkByPrefix(90)
	if err != nil {
		t.Fatal(err)
	}
	ref := freq.ChainReference()
	if ref.BlockHeight != 14885653 || ref.BlockInterval != 6*time.Second {
		t.Errorf("Frequency reference = %+v", ref)
	}
	if !ref.Timestamp.Equal(time.Date(2023, 3, 31, 13, 12, 30, 0, time.UTC)) {
		t.Errorf("Frequency timestamp = %s", ref.Timestamp)
	}

	rococo, err := cfg.NetworkByName("rococo")
	if err != nil {
		t.Fatal(err)
	}
	if rococo.Prefix != 42 || rococo.ChainReference().BlockHeight != 4752207 {
		t.Errorf("Rococo = %+v", rococo)
	}

	b := rococo.Builder(nil)
	if b.TimeRelease.Pallet != 40 || b.AsMulti.Pallet != 30 || b.MaxWeight.RefTime != 1_000_000_000 {
		t.Errorf("Builder() = %+v", b)
	}
	if got := rococo.Builder(&models.Weight{RefTime: 5, ProofSize: 6}); got.MaxWeight.ProofSize != 6 {
		t.Errorf("weight override ignored: %+v", got.MaxWeight)
	}

	if _, err := cfg.NetworkByPrefix(7); !errors.Is(err, models.ErrUnsupportedChain) {
		t.Errorf("NetworkByPrefix(7) error = %v", err)
	}
	if refs := cfg.References(); len(refs) != 2 {
		t.Errorf("References() = %v", refs)
	}
}

func TestParseNetworksValidation(t *testing.T) {
	tests := map[string]string{
		"empty": `networks: []`,
		"no name": `networks:
  - prefix: 1
    reference: {block: 1, timestamp: 2024-01-01T00:00:00Z, interval: 6s}`,
		"zero interval": `networks:
  - name: X
    prefix: 1
    reference: {block: 1, timestamp: 2024-01-01T00:00:00Z, interval: 0s}`,
		"duplicate prefix": `networks:
  - name: X
    prefix: 1
    reference: {block: 1, timestamp: 2024-01-01T00:00:00Z, interval: 6s}
  - name: Y
    prefix: 1
    reference: {block: 1, timestamp: 2024-01-01T00:00:00Z, interval: 6s}`,
		"not yaml": `networks: [`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseNetworks([]byte(doc)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "networks.yml")
	doc := `networks:
  - name: Local
    prefix: 42
    endpoint: ws://127.0.0.1:9944
    reference: {block: 10, timestamp: 2024-01-01T00:00:00Z, interval: 12s}
`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("NETWORKS_FILE", path)
	t.Setenv("SUBMISSION_TIMEOUT", "90")
	t.Setenv("RETRY_DELAY", "250ms")
	t.Setenv("MAX_WEIGHT_PROOF_SIZE", "65536")
	t.Setenv("RPC_RATE_LIMIT", "2.5")
	t.Setenv("KAFKA_BROKER_ADDRESS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Submission.Timeout != 90*time.Second {
		t.Errorf("submission timeout = %s", cfg.Submission.Timeout)
	}
	if cfg.RetryDelay != 250*time.Millisecond {
		t.Errorf("retry delay = %s", cfg.RetryDelay)
	}
	if cfg.Submission.MaxWeight == nil || cfg.Submission.MaxWeight.ProofSize != 65536 || cfg.Submission.MaxWeight.RefTime != 1_000_000_000 {
		t.Errorf("max weight = %+v", cfg.Submission.MaxWeight)
	}
	if cfg.RPC.RateLimit != 2.5 {
		t.Errorf("rate limit = %v", cfg.RPC.RateLimit)
	}
	if cfg.Kafka.Enabled() {
		t.Error("kafka should be disabled without a broker")
	}
	if len(cfg.Networks) != 1 || cfg.Networks[0].ChainReference().BlockInterval != 12*time.Second {
		t.Errorf("networks = %+v", cfg.Networks)
	}
}

func TestLoadMissingNetworksFile(t *testing.T) {
	t.Setenv("NETWORKS_FILE", filepath.Join(t.TempDir(), "missing.yml"))
	if _, err := Load(); err == nil {
		t.Error("expected error for a missing networks file")
	}
}

func TestLoadRejectsBadEndpoints(t *testing.T) {
	t.Setenv("RPC_ENDPOINT", "ftp://node.example")
	if _, err := Load(); err == nil {
		t.Error("expected an error for an ftp RPC_ENDPOINT")
	}

	t.Setenv("RPC_ENDPOINT", "wss://node.example")
	t.Setenv("SIGNER_ENDPOINT", "not a url")
	if _, err := Load(); err == nil {
		t.Error("expected an error for a malformed SIGNER_ENDPOINT")
	}

	t.Setenv("SIGNER_ENDPOINT", "http://127.0.0.1:9955")
	if _, err := Load(); err != nil {
		t.Errorf("Load() error = %v", err)
	}
}
