package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"
)

func TestLoadConfig_Defaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	unsetEnvWithCleanup(t, "SERVER_PORT")
	unsetEnvWithCleanup(t, "STORE_BACKEND")
	unsetEnvWithCleanup(t, "STATEMENT_LIMIT")
	unsetEnvWithCleanup(t, "ACCOUNT_SEED")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ServerPort != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.ServerPort)
	}
	if cfg.StoreBackend != BackendPostgres {
		t.Fatalf("expected default backend postgres, got %q", cfg.StoreBackend)
	}
	if cfg.StatementLimit != 10 {
		t.Fatalf("expected default statement limit 10, got %d", cfg.StatementLimit)
	}
	if cfg.AccountSeed != DefaultAccountSeed {
		t.Fatalf("expected default account seed, got %q", cfg.AccountSeed)
	}
	if cfg.PostRateLimitPerMinute != 0 {
		t.Fatalf("expected rate limiting disabled by default, got %d", cfg.PostRateLimitPerMinute)
	}
}

func TestLoadConfig_MemoryBackendNormalized(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "STORE_BACKEND", " Memory ")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.StoreBackend != BackendMemory {
		t.Fatalf("expected normalized memory backend, got %q", cfg.StoreBackend)
	}
}

func TestLoadConfig_RejectsUnknownBackend(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "STORE_BACKEND", "cassandra")

	if _, err := LoadConfig(t.TempDir()); err == nil {
		t.Fatal("expected error for unsupported backend")
	}
}

func TestParseAccountSeed(t *testing.T) {
	tests := []struct {
		name    string
		seed    string
		want    int
		wantErr bool
	}{
		{name: "default seed", seed: DefaultAccountSeed, want: 5},
		{name: "single account", seed: "7:500", want: 1},
		{name: "explicit balance", seed: "7:500:-200", want: 1},
		{name: "spaces tolerated", seed: " 1:100 , 2:200 ", want: 2},
		{name: "empty", seed: "  ", wantErr: true},
		{name: "missing limit", seed: "1", wantErr: true},
		{name: "non-numeric id", seed: "a:100", wantErr: true},
		{name: "negative limit", seed: "1:-5", wantErr: true},
		{name: "balance below limit", seed: "1:100:-200", wantErr: true},
		{name: "duplicate id", seed: "1:100,1:200", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accounts, err := ParseAccountSeed(tt.seed)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %d accounts", len(accounts))
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(accounts) != tt.want {
				t.Fatalf("expected %d accounts, got %d", tt.want, len(accounts))
			}
		})
	}
}

func TestParseAccountSeed_FieldValues(t *testing.T) {
	accounts, err := ParseAccountSeed("9:1000:-250")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a := accounts[0]
	if a.ID != 9 || a.Limit != 1000 || a.Balance != -250 {
		t.Fatalf("unexpected account: %+v", a)
	}
}

func setEnvWithCleanup(t *testing.T, key string, value string) {
	t.Helper()
	prev, hadPrev := os.LookupEnv(key)
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadPrev {
			os.Setenv(key, prev)
		} else {
			os.Unsetenv(key)
		}
	})
}

func unsetEnvWithCleanup(t *testing.T, key string) {
	t.Helper()
	prev, hadPrev := os.LookupEnv(key)
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("failed to unset env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadPrev {
			os.Setenv(key, prev)
		}
	})
}
