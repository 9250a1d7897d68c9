// Package app wires application services to infrastructure adapters.
package app

import (
	"context"

	"github.com/doeshing/cmdagent/internal/infrastructure/ai"
	"github.com/doeshing/cmdagent/internal/infrastructure/config"
	"github.com/doeshing/cmdagent/internal/infrastructure/contextinject"
	"github.com/doeshing/cmdagent/internal/infrastructure/executor"
	"github.com/doeshing/cmdagent/internal/infrastructure/policy"
	"github.com/doeshing/cmdagent/internal/infrastructure/template"
	"github.com/doeshing/cmdagent/internal/infrastructure/trace"
	"github.com/doeshing/cmdagent/internal/pkg/logger"
	"github.com/doeshing/cmdagent/internal/ports"
	"github.com/doeshing/cmdagent/internal/services"
)

// Container holds the assembled dependency graph.
type Container struct {
	AgentService  *services.AgentService
	DoctorService *services.DoctorService
	ConfigLoader  *config.FileLoader
	Traces        ports.TraceRepository
	Logger        ports.Logger
}

// BuildContainer constructs the dependency graph. The config file is
// loaded once here to size the context-injection pool and pick the
// shell; sessions reload it through the ConfigProvider port.
func BuildContainer(ctx context.Context, configPath string, verbose bool) (*Container, error) {
	log := logger.New(verbose)

	cfgLoader := config.NewFileLoader(configPath)
	cfg, err := cfgLoader.Load(ctx)
	if err != nil {
		return nil, err
	}

	validator := policy.New()
	renderer := template.New()
	runner := executor.NewLocalRunner(cfg.Execution.Shell)
	exec := executor.New(runner, log)
	injector := contextinject.New(renderer, validator, exec,
		cfg.Context.MaxParallel, cfg.Context.RequireAny, log)

	var traces ports.TraceRepository
	if store, err := trace.NewSQLiteStore(""); err != nil {
		// Trace persistence is best-effort; the engine runs without it.
		log.Warn("trace store unavailable", "error", err)
	} else {
		traces = store
	}

	agent := &services.AgentService{
		ConfigProvider:  cfgLoader,
		ContextBuilder:  injector,
		ProviderFactory: ai.NewFactory(),
		Validator:       validator,
		Executor:        exec,
		Traces:          traces,
		Logger:          log,
	}

	doctor := &services.DoctorService{
		ConfigProvider: cfgLoader,
		Traces:         traces,
	}

	return &Container{
		AgentService:  agent,
		DoctorService: doctor,
		ConfigLoader:  cfgLoader,
		Traces:        traces,
		Logger:        log,
	}, nil
}

// Close releases container-held resources.
func (c *Container) Close() error {
	if c.Traces != nil {
		return c.Traces.Close()
	}
	return nil
}
