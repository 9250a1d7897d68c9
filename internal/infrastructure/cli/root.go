// Package cli wires the cobra command tree for the cmdagent binary.
package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/doeshing/cmdagent/internal/app"
	"github.com/doeshing/cmdagent/internal/services"
)

// Options holds CLI-level configuration.
type Options struct {
	ConfigPath string
	Verbose    bool
}

// NewRootCmd builds the command tree.
func NewRootCmd(ctx context.Context, opts Options) (*cobra.Command, error) {
	container, err := app.BuildContainer(ctx, opts.ConfigPath, opts.Verbose)
	if err != nil {
		return nil, err
	}
	container.AgentService.Confirmer = NewPrompter(nil, nil)

	runCmd := newRunCommand(container, opts.Verbose)

	root := &cobra.Command{
		Use:   "cmdagent [prompt]",
		Short: "cmdagent - agentic command execution",
		Long: "cmdagent answers questions by running policy-checked shell commands\n" +
			"in a sequential tool-calling loop and reporting what it found.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			runCmd.SetArgs(args)
			return runCmd.ExecuteContext(cmd.Context())
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return container.Close()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(runCmd)
	root.AddCommand(newTraceCommand(container))
	root.AddCommand(newConfigCommand(container))
	root.AddCommand(newDoctorCommand(container))
	return root, nil
}

func newRunCommand(container *app.Container, verbose bool) *cobra.Command {
	var (
		model       string
		exec        bool
		confirm     bool
		allow       []string
		deny        []string
		timeout     int
		maxCommands int
		varFlags    []string
	)

	cmd := &cobra.Command{
		Use:   "run [prompt]",
		Short: "Ask a question and let the agent run commands to answer it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliVars, err := parseVarFlags(varFlags)
			if err != nil {
				return err
			}

			sess, err := container.AgentService.StartSession(cmd.Context(), services.SessionOptions{
				ModelOverride:  model,
				EnableExec:     exec,
				ExtraAllow:     allow,
				ExtraDeny:      deny,
				ForceConfirm:   confirm,
				TimeoutSeconds: timeout,
				MaxCommands:    maxCommands,
				Variables:      cliVars,
				Environ:        environMap(),
			})
			if err != nil {
				return err
			}

			result, err := sess.Ask(cmd.Context(), strings.Join(args, " "))
			RenderResult(cmd.OutOrStdout(), result, verbose)
			return err
		},
	}

	cmd.Flags().StringVarP(&model, "model", "m", "", "Override model name (default from config)")
	cmd.Flags().BoolVar(&exec, "exec", false, "Enable command execution even if disabled in config")
	cmd.Flags().BoolVar(&confirm, "confirm", false, "Ask before every command")
	cmd.Flags().StringArrayVar(&allow, "allow", nil, "Additional allow pattern (repeatable)")
	cmd.Flags().StringArrayVar(&deny, "deny", nil, "Additional deny pattern (repeatable)")
	cmd.Flags().IntVar(&timeout, "timeout", 0, "Per-command timeout in seconds (0 uses config)")
	cmd.Flags().IntVar(&maxCommands, "max-commands", 0, "Command budget per question (0 uses config)")
	cmd.Flags().StringArrayVar(&varFlags, "var", nil, "Template variable as NAME=value (repeatable)")

	return cmd
}

func newTraceCommand(container *app.Container) *cobra.Command {
	var (
		limit  int
		search string
	)

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the persisted execution trace",
		RunE: func(cmd *cobra.Command, args []string) error {
			if container.Traces == nil {
				return fmt.Errorf("trace store unavailable")
			}
			records, err := container.Traces.Records(limit, search)
			if err != nil {
				return err
			}
			RenderTraceRecords(cmd.OutOrStdout(), records)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Max entries to show")
	cmd.Flags().StringVar(&search, "search", "", "Filter by command substring")
	return cmd
}

func newDoctorCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose environment setup",
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := container.DoctorService.Run(cmd.Context())
			RenderHealthReport(cmd.OutOrStdout(), report)
			if err != nil {
				return fmt.Errorf("diagnostics completed with errors: %w", err)
			}
			return nil
		},
	}
}

func parseVarFlags(flags []string) (map[string]string, error) {
	if len(flags) == 0 {
		return nil, nil
	}
	vars := make(map[string]string, len(flags))
	for _, flag := range flags {
		name, value, ok := strings.Cut(flag, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --var %q, expected NAME=value", flag)
		}
		vars[name] = value
	}
	return vars, nil
}

func environMap() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if name, value, ok := strings.Cut(kv, "="); ok {
			env[name] = value
		}
	}
	return env
}
