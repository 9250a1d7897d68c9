package services

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/doeshing/cmdagent/internal/domain"
	"github.com/doeshing/cmdagent/internal/ports"
)

// DoctorService runs environment diagnostics: config integrity, model
// credentials, shell availability, trace store health.
type DoctorService struct {
	ConfigProvider ports.ConfigProvider
	Traces         ports.TraceRepository
}

// Run executes all checks and returns a report. The report is returned
// even when a check fails.
func (s *DoctorService) Run(ctx context.Context) (domain.HealthReport, error) {
	var checks []domain.HealthCheck

	cfg, err := s.ConfigProvider.Load(ctx)
	if err != nil {
		checks = append(checks, fail("Config file", fmt.Sprintf("load failed: %v", err)))
		return domain.HealthReport{Checks: checks}, err
	}
	checks = append(checks, ok("Config file", fmt.Sprintf("format version %s, %d models", cfg.ConfigFormatVersion, len(cfg.Models))))

	if cfg.CommandsEnabled() {
		checks = append(checks, ok("Command execution", "enabled"))
	} else {
		checks = append(checks, warn("Command execution", "disabled, enable with commands.enabled or --exec"))
	}

	for _, model := range cfg.Models {
		if model.AuthEnvVar == "" {
			checks = append(checks, warn("Model "+model.Name, "no auth_env_var configured"))
			continue
		}
		if os.Getenv(model.AuthEnvVar) == "" {
			checks = append(checks, warn("Model "+model.Name, model.AuthEnvVar+" is not set"))
		} else {
			checks = append(checks, ok("Model "+model.Name, model.AuthEnvVar+" present"))
		}
	}

	checks = append(checks, shellCheck(cfg.Execution.Shell))

	if workDir := cfg.Execution.WorkDir; workDir != "" {
		if info, err := os.Stat(workDir); err != nil || !info.IsDir() {
			checks = append(checks, fail("Working directory", workDir+" is not a directory"))
		} else {
			checks = append(checks, ok("Working directory", workDir))
		}
	}

	if s.Traces != nil {
		if _, err := s.Traces.Records(1, ""); err != nil {
			checks = append(checks, fail("Trace store", err.Error()))
		} else {
			checks = append(checks, ok("Trace store", "readable"))
		}
	}

	return domain.HealthReport{Checks: checks}, nil
}

func shellCheck(shell string) domain.HealthCheck {
	switch shell {
	case "none":
		return ok("Shell", "direct exec mode, no shell used")
	case "":
		shell = os.Getenv("SHELL")
		if shell == "" {
			shell = "/bin/sh"
		}
	}
	if _, err := exec.LookPath(shell); err != nil {
		return fail("Shell", shell+" not found in PATH")
	}
	return ok("Shell", shell)
}

func ok(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthOK, Details: details}
}

func warn(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthWarn, Details: details}
}

func fail(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthFail, Details: details}
}
