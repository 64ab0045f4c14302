package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lorrc/support-desk/internal/adapters/primary/console"
	"github.com/lorrc/support-desk/internal/config"
	"github.com/lorrc/support-desk/internal/core/services"
	"github.com/lorrc/support-desk/internal/infrastructure/logging"
)

var (
	consoleOperator string
	consoleAgents   []string
	consoleLogLevel string
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Run the interactive desk menu",
	Long:  "Run an in-process desk behind the numbered text menu. Tickets live only as long as the session.",
	Args:  cobra.NoArgs,
	RunE:  runConsole,
}

func runConsole(cmd *cobra.Command, args []string) error {
	deskCfg, err := config.LoadDesk()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	agents := deskCfg.Agents
	if cmd.Flags().Changed("agents") {
		agents = trimAll(consoleAgents)
	}

	logger := logging.NewLogger(logging.Config{
		Level:       consoleLogLevel,
		Format:      "text",
		Output:      cmd.ErrOrStderr(),
		ServiceName: "deskctl",
		Environment: "console",
	})

	desk, err := services.NewDeskService(services.DeskConfig{
		Agents:               agents,
		MaxDescriptionLength: deskCfg.MaxDescriptionLength,
	}, nil, logger)
	if err != nil {
		return fmt.Errorf("start desk: %w", err)
	}

	// The first Ctrl-C ends the session; a second one gets the default
	// behaviour and kills the process.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	context.AfterFunc(ctx, stop)
	ctx = logging.WithOperator(ctx, consoleOperator)

	err = console.NewShell(desk, cmd.InOrStdin(), cmd.OutOrStdout()).Run(ctx)
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(cmd.OutOrStdout(), "\nInterrupted. Goodbye!")
		return nil
	}
	return err
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func defaultOperator() string {
	if user := os.Getenv("USER"); user != "" {
		return user
	}
	return "console"
}

func init() {
	consoleCmd.Flags().StringVar(&consoleOperator, "operator", defaultOperator(), "operator name recorded on desk events")
	consoleCmd.Flags().StringSliceVar(&consoleAgents, "agents", nil, "comma-separated agent roster (overrides DESK_AGENTS)")
	consoleCmd.Flags().StringVar(&consoleLogLevel, "log-level", "warn", "log level written to stderr")
	rootCmd.AddCommand(consoleCmd)
}
