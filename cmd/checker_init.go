package main

import (
	"context"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/sarasa-labs/sarasa-checker/internal/checker"
	"github.com/sarasa-labs/sarasa-checker/internal/evidence"
	"github.com/sarasa-labs/sarasa-checker/internal/guard"
	"github.com/sarasa-labs/sarasa-checker/internal/reason"
	"github.com/sarasa-labs/sarasa-checker/internal/store"
	"github.com/sarasa-labs/sarasa-checker/pkg/tavily"
)

// checkerEnv holds the initialized store and pipeline needed by the
// serve/check/batch commands.
type checkerEnv struct {
	Store   store.Store
	Checker *checker.Checker
	Guard   *guard.Guard
}

// Close releases resources held by the environment.
func (ce *checkerEnv) Close() {
	if ce.Store != nil {
		_ = ce.Store.Close()
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "sarasa.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initChecker sets up the store, the search client, the reasoning chain, and
// the rate guard. Callers should defer env.Close().
func initChecker(ctx context.Context) (*checkerEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	if cfg.Tavily.Key == "" {
		zap.L().Warn("SARASA_TAVILY_KEY not set, searches will fail and verdicts will lean on model knowledge alone")
	}
	searchClient := tavily.NewClient(cfg.Tavily.Key, tavily.WithBaseURL(cfg.Tavily.BaseURL))
	retriever := evidence.NewRetriever(searchClient, cfg.Check.SearchRPS)

	// Reasoning providers, in fallback order. Missing keys drop the
	// provider from the chain rather than failing startup.
	var providers []reason.Provider

	if cfg.Gemini.Key != "" {
		geminiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey: cfg.Gemini.Key,
		})
		if err != nil {
			_ = st.Close()
			return nil, eris.Wrap(err, "init gemini client")
		}
		providers = append(providers, reason.NewGemini(geminiClient, cfg.Gemini.Model))
	} else {
		zap.L().Warn("SARASA_GEMINI_KEY not set, gemini provider disabled")
	}

	if cfg.Groq.Key != "" {
		providers = append(providers, reason.NewGroq(reason.NewGroqClient(cfg.Groq.Key), cfg.Groq.Model))
	} else {
		zap.L().Warn("SARASA_GROQ_KEY not set, groq provider disabled")
	}

	if cfg.Anthropic.Key != "" {
		claudeClient := sdk.NewClient(option.WithAPIKey(cfg.Anthropic.Key))
		providers = append(providers, reason.NewClaude(claudeClient, cfg.Anthropic.Model))
	} else {
		zap.L().Warn("SARASA_ANTHROPIC_KEY not set, claude provider disabled")
	}

	if len(providers) == 0 {
		zap.L().Warn("no reasoning providers configured, every check will return the uncertain fallback")
	}

	chain := reason.NewChain(providers...)

	g := guard.New(st,
		time.Duration(cfg.Rate.WindowHours)*time.Hour,
		cfg.Rate.MaxRequests,
		cfg.DevMode,
	)

	c := checker.New(st, g, retriever, chain, time.Duration(cfg.Check.DeadlineSecs)*time.Second)

	zap.L().Info("checker initialized",
		zap.String("store", cfg.Store.Driver),
		zap.Int("providers", len(providers)),
		zap.Bool("dev_mode", cfg.DevMode),
	)

	return &checkerEnv{
		Store:   st,
		Checker: c,
		Guard:   g,
	}, nil
}
