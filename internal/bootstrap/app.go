package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"docdocs-backend/internal/analyses"
	"docdocs-backend/internal/fixes"
	"docdocs-backend/internal/llm"
	"docdocs-backend/internal/llm/ollama"
	"docdocs-backend/internal/llm/openai"
	"docdocs-backend/internal/rules"
	"docdocs-backend/internal/scoring"
	"docdocs-backend/internal/shared/config"
	"docdocs-backend/internal/shared/metrics"
	"docdocs-backend/internal/shared/server"
	"docdocs-backend/internal/shared/storage/spool"
	"docdocs-backend/internal/shared/telemetry"
	"docdocs-backend/internal/suggestions"
)

// App holds shared dependencies and the wired router.
type App struct {
	Config             config.Config
	Router             *gin.Engine
	Rules              rules.RuleSet
	Spool              *spool.Spool
	Metrics            *metrics.Metrics
	Engine             *scoring.Engine
	LLM                llm.Client
	Fixes              *fixes.Generator
	AnalysesService    *analyses.Service
	AnalysisHandler    *analyses.Handler
	SuggestionsHandler *suggestions.Handler
}

// Build prepares every dependency and mounts the routes.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}

	ruleSet, err := LoadRules(cfg.RulesFile)
	if err != nil {
		return nil, err
	}

	sp, err := spool.New(cfg.SpoolDir)
	if err != nil {
		return nil, fmt.Errorf("init spool: %w", err)
	}

	app := &App{
		Config:  cfg,
		Rules:   ruleSet,
		Spool:   sp,
		Metrics: metrics.New(),
		Engine:  scoring.NewEngine(ruleSet),
	}

	client, modelServer, err := buildLLM(cfg)
	if err != nil {
		return nil, err
	}
	app.LLM = client
	app.Fixes = fixes.NewGenerator(client, cfg.FixConcurrency)

	app.AnalysesService = &analyses.Service{
		Spool:          sp,
		Engine:         app.Engine,
		Metrics:        app.Metrics,
		MaxUploadBytes: cfg.MaxUploadBytes(),
	}
	app.AnalysisHandler = analyses.NewHandler(app.AnalysesService)
	app.SuggestionsHandler = suggestions.NewHandler(app.Fixes, modelServer, app.Metrics, cfg.AIFixesEnabled)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:             cfg,
		Metrics:            app.Metrics,
		AnalysisHandler:    app.AnalysisHandler,
		SuggestionsHandler: app.SuggestionsHandler,
		AIEnabled:          cfg.AIFixesEnabled && app.Fixes.Enabled(),
	})

	telemetry.Info("bootstrap.ready", map[string]any{
		"env":              cfg.Env,
		"llm_provider":     cfg.LLMProvider,
		"ai_fixes_enabled": cfg.AIFixesEnabled,
		"rules_file":       cfg.RulesFile,
		"spool_dir":        sp.Dir(),
		"max_upload_mb":    cfg.MaxUploadMB,
	})
	return app, nil
}

// buildLLM returns nil interfaces when no provider is configured. A misconfigured
// OpenAI provider only fails the build outside dev-like environments.
func buildLLM(cfg config.Config) (llm.Client, suggestions.ModelServer, error) {
	switch cfg.LLMProvider {
	case "ollama":
		c := ollama.New(ollama.Config{
			BaseURL:       cfg.OllamaURL,
			Model:         cfg.OllamaModel,
			Timeout:       time.Duration(cfg.OllamaTimeout) * time.Second,
			RatePerSecond: cfg.LLMRatePerSec,
			Burst:         cfg.LLMBurst,
		})
		return c, c, nil
	case "openai":
		c, err := openai.NewClient(openai.Config{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIModel,
			BaseURL: cfg.OpenAIBaseURL,
			Timeout: time.Duration(cfg.OpenAITimeout) * time.Second,
		})
		if err != nil {
			if isDevLike(cfg.Env) {
				telemetry.Warn("bootstrap.llm_disabled", map[string]any{"provider": "openai", "error": err.Error()})
				return nil, nil, nil
			}
			return nil, nil, fmt.Errorf("init openai client: %w", err)
		}
		return c, c, nil
	default:
		return nil, nil, nil
	}
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local", "test":
		return true
	default:
		return false
	}
}

// LoadRules returns the default rule set, or the YAML override at path when set.
func LoadRules(path string) (rules.RuleSet, error) {
	if strings.TrimSpace(path) == "" {
		return rules.DefaultRuleSet(), nil
	}
	rs, err := rules.LoadRuleSet(path)
	if err != nil {
		return rules.RuleSet{}, fmt.Errorf("load rules: %w", err)
	}
	return rs, nil
}
