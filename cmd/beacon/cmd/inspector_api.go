package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/solatis/beacon/internal/core/api"
	"github.com/solatis/beacon/internal/core/auth"
	"github.com/solatis/beacon/internal/core/config"
	"github.com/solatis/beacon/internal/core/server"
	"github.com/solatis/beacon/internal/tracker"
)

var inspectorAPICmd = &cobra.Command{
	Use:   "inspector-api",
	Short: "Start the gRPC inspector API",
	RunE:  runInspectorAPI,
}

var issueKeyCmd = &cobra.Command{
	Use:   "issue-key",
	Short: "Print a new inspector API key signed with BEACON_INSPECTOR_SECRET",
	RunE:  runIssueKey,
}

func init() {
	rootCmd.AddCommand(inspectorAPICmd)
	rootCmd.AddCommand(issueKeyCmd)
	inspectorAPICmd.Flags().String("host", "127.0.0.1", "gRPC server host")
	inspectorAPICmd.Flags().Int("port", 50061, "gRPC server port")
}

func requireSecret() ([]byte, error) {
	secret, err := config.InspectorSecret()
	if err != nil {
		return nil, err
	}
	if secret == nil {
		return nil, fmt.Errorf("no inspector secret configured (set %s environment variable)", config.InspectorSecretEnv)
	}
	return secret, nil
}

func runInspectorAPI(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cmd.Flags().Changed("host") {
		cfg.Inspector.Host, _ = cmd.Flags().GetString("host")
	}
	if cmd.Flags().Changed("port") {
		cfg.Inspector.Port, _ = cmd.Flags().GetInt("port")
	}

	secret, err := requireSecret()
	if err != nil {
		return err
	}

	service, err := api.NewInspectorService(loadRegistry(cfg), slog.Default())
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	grpcServer, err := server.NewGRPCServer(&cfg.Inspector, service, auth.NewAuthenticator(secret), slog.Default())
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	slog.Info("starting inspector API",
		"version", tracker.Version,
		"host", cfg.Inspector.Host,
		"port", cfg.Inspector.Port,
		"global_contexts", len(cfg.GlobalContexts),
	)
	errChan := make(chan error, 1)
	go func() {
		errChan <- grpcServer.Start(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case <-sigChan:
		slog.Info("shutting down gracefully")
		return grpcServer.Shutdown(ctx)
	}
}

func runIssueKey(cmd *cobra.Command, args []string) error {
	secret, err := requireSecret()
	if err != nil {
		return err
	}
	key, err := auth.IssueAPIKey(secret)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), key)
	return nil
}
