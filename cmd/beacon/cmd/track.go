package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/solatis/beacon/internal/contexts"
	"github.com/solatis/beacon/internal/core/config"
	"github.com/solatis/beacon/internal/core/db"
	"github.com/solatis/beacon/internal/payload"
	"github.com/solatis/beacon/internal/sink"
	"github.com/solatis/beacon/internal/tracker"
	"github.com/solatis/beacon/internal/types"
)

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Track one self-describing event and print the payload",
	RunE:  runTrack,
}

var (
	trackSchema   string
	trackData     string
	trackContexts []string
	trackNoBase64 bool
)

func init() {
	rootCmd.AddCommand(trackCmd)
	trackCmd.Flags().StringVar(&trackSchema, "schema", "", "event schema (iglu:vendor/name/format/M-R-A)")
	trackCmd.Flags().StringVar(&trackData, "data", "{}", "event data as a JSON object")
	trackCmd.Flags().StringArrayVar(&trackContexts, "context", nil, `extra context entity as {"sc": ..., "dt": ...} (repeatable)`)
	trackCmd.Flags().BoolVar(&trackNoBase64, "no-base64", false, "emit ue_pr/co instead of ue_px/cx")
	_ = trackCmd.MarkFlagRequired("schema")
}

func runTrack(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if dbURL != "" {
		cfg.Sink.DBURL = dbURL
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(trackData), &data); err != nil {
		return fmt.Errorf("--data: %w", err)
	}
	event := types.SelfDescribingJSON{Schema: trackSchema, Data: data}

	extra := make([]types.SelfDescribingJSON, 0, len(trackContexts))
	for i, raw := range trackContexts {
		entity, err := types.ParseSelfDescribingJSON([]byte(raw))
		if err != nil {
			return fmt.Errorf("--context[%d]: %w", i, err)
		}
		extra = append(extra, entity)
	}

	sinks, closeSinks, err := openSinks(cfg.Sink)
	if err != nil {
		return err
	}
	defer closeSinks()

	var built payload.Payload
	core := tracker.NewCore(tracker.Options{
		EncodeBase64: cfg.Tracker.EncodeBase64 && !trackNoBase64,
		Callback: func(p payload.Payload) {
			built = p
			sinks.Deliver(p)
		},
	})
	configureCore(core, cfg)

	if core.Track(tracker.BuildSelfDescribingEvent(event), extra, nil) == nil {
		return fmt.Errorf("event dropped")
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(built)
}

// configureCore applies tracker settings and global contexts from config.
func configureCore(core *tracker.Core, cfg *config.Config) {
	if cfg.Tracker.Namespace != "" {
		core.SetTrackerNamespace(cfg.Tracker.Namespace)
	}
	if cfg.Tracker.AppID != "" {
		core.SetAppID(cfg.Tracker.AppID)
	}
	if cfg.Tracker.Platform != "" {
		core.SetPlatform(cfg.Tracker.Platform)
	}
	core.AddGlobalContexts(cfg.GlobalContexts...)
}

// openSinks builds the configured sinks. The returned func releases them.
func openSinks(cfg config.SinkConfig) (*sink.Multi, func(), error) {
	var sinks []sink.Sink
	closers := []func(){}
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	if cfg.DBURL != "" {
		conn, err := db.Open(cfg.DBURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open database: %w", err)
		}
		closers = append(closers, func() { conn.Close() })
		if err := db.MigrateUp(conn); err != nil {
			closeAll()
			return nil, nil, err
		}
		dbSink, err := sink.NewDBSink(conn)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		sinks = append(sinks, dbSink)
	}

	if cfg.JSONLDir != "" {
		jsonl, err := sink.NewJSONLSink(cfg.JSONLDir)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		sinks = append(sinks, jsonl)
	}

	return sink.NewMulti(slog.Default(), sinks...), closeAll, nil
}

// loadRegistry builds a context registry from config declarations.
func loadRegistry(cfg *config.Config) *contexts.GlobalContexts {
	registry := contexts.NewGlobalContexts(slog.Default())
	registry.AddGlobalContexts(cfg.GlobalContexts...)
	return registry
}
