package remote

import (
	"fmt"
	"log/slog"

	"wealthwise/internal/remote/memory"
	"wealthwise/internal/remote/supabase"
)

type Kind string

const (
	KindNone     Kind = "none"
	KindMemory   Kind = "memory"
	KindSupabase Kind = "supabase"
)

func (k Kind) IsValid() bool {
	switch k {
	case KindNone, KindMemory, KindSupabase:
		return true
	default:
		return false
	}
}

// Result bundles the remote store and session provider for one backend.
// Both are nil for KindNone: the application then runs purely locally.
type Result struct {
	Store    Store
	Sessions SessionProvider
}

// Config holds what the factory needs to build a remote backend.
type Config struct {
	Kind            Kind
	SupabaseURL     string
	SupabaseAnonKey string
}

// Connect builds the configured remote backend. A misconfigured backend is
// an error here; remote failures after this point degrade to local-only at
// the reconciler instead.
func Connect(cfg Config, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Kind {
	case KindNone, "":
		logger.Info("No remote store configured, running local-only")
		return &Result{}, nil
	case KindMemory:
		store := memory.New()
		logger.Info("Initialized in-memory remote store")
		return &Result{Store: store, Sessions: store}, nil
	case KindSupabase:
		client, err := supabase.New(cfg.SupabaseURL, cfg.SupabaseAnonKey)
		if err != nil {
			return nil, fmt.Errorf("initialize supabase client: %w", err)
		}
		logger.Info("Initialized Supabase remote store", "url", cfg.SupabaseURL)
		return &Result{Store: client, Sessions: client}, nil
	default:
		return nil, fmt.Errorf("invalid remote backend: %s", cfg.Kind)
	}
}
