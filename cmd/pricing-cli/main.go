// Command pricing-cli is the operator-facing counterpart to
// pricing-server: schema migration, ad-hoc resolution and pricing
// calls against the same store, and snapshot/run inspection.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gyeh/cms-pricing/internal/config"
	"github.com/gyeh/cms-pricing/internal/geo"
	"github.com/gyeh/cms-pricing/internal/ingest"
	"github.com/gyeh/cms-pricing/internal/logging"
	"github.com/gyeh/cms-pricing/internal/pricing/engine"
	"github.com/gyeh/cms-pricing/internal/pricing/orchestrator"
	"github.com/gyeh/cms-pricing/internal/snapshot"
	"github.com/gyeh/cms-pricing/internal/store/pg"
	"github.com/gyeh/cms-pricing/internal/trace"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pricing-cli",
		Short: "Operator CLI for the CMS pricing service",
	}
	root.AddCommand(newMigrateCmd(), newResolveCmd(), newPriceCmd(), newSnapshotCmd(), newRunCmd(), newIngestCmd())
	return root
}

func openStore(ctx context.Context) (*pg.Store, *zap.Logger, error) {
	cfg, err := config.Load("")
	if err != nil {
		return nil, nil, err
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, err
	}
	store, err := pg.Open(ctx, pg.Config{DSN: cfg.PostgresDSN, MaxConns: cfg.PostgresMaxConns, MinConns: cfg.PostgresMinConns}, log)
	if err != nil {
		return nil, nil, err
	}
	return store, log, nil
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the reference-data and run-trace schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, _, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()
			return store.Migrate(ctx)
		},
	}
}

func newResolveCmd() *cobra.Command {
	var zip5, plus4 string
	var strict bool
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve a ZIP/ZIP+4 to a locality",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, log, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			resolver := geo.NewResolver(store, store, log, "cli", "01")
			res, err := resolver.Resolve(ctx, geo.Params{Zip5: zip5, Plus4: plus4, Strict: strict})
			if err != nil {
				return err
			}
			return printJSON(res)
		},
	}
	cmd.Flags().StringVar(&zip5, "zip5", "", "ZIP5 to resolve (required)")
	cmd.Flags().StringVar(&plus4, "plus4", "", "ZIP+4 suffix")
	cmd.Flags().BoolVar(&strict, "strict", false, "fail rather than fall back to nearest-ZIP or benchmark")
	cmd.MarkFlagRequired("zip5")
	return cmd
}

func newPriceCmd() *cobra.Command {
	var requestFile string
	cmd := &cobra.Command{
		Use:   "price",
		Short: "Price an ad-hoc plan request read from a JSON file (or stdin with --file -)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, log, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			var req orchestrator.Request
			data, err := readInput(requestFile)
			if err != nil {
				return err
			}
			if err := json.Unmarshal(data, &req); err != nil {
				return fmt.Errorf("parse request JSON: %w", err)
			}

			resolver := geo.NewResolver(store, store, log, "cli", "01")
			engines := engine.NewTable(store)
			orch := orchestrator.NewOrchestrator(resolver, store, store, engines, store, log)

			resp, err := orch.PricePlan(ctx, "CLI pricing-cli price", req)
			if err != nil {
				return err
			}
			return printJSON(resp)
		},
	}
	cmd.Flags().StringVar(&requestFile, "file", "-", "path to the request JSON, or - for stdin")
	return cmd
}

func newSnapshotCmd() *cobra.Command {
	parent := &cobra.Command{Use: "snapshot", Short: "Inspect the snapshot registry"}

	list := &cobra.Command{
		Use:   "list <dataset-id>",
		Short: "List a dataset's snapshots",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, _, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()
			snapshots, err := store.ListSnapshots(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(snapshots)
		},
	}

	show := &cobra.Command{
		Use:   "show <dataset-id> <digest>",
		Short: "Recompute and show a dataset's digest at the given digest's row set",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, log, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()
			reg := snapshot.NewRegistry(store, log)
			digest, err := reg.RecomputeDigest(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(map[string]string{"digest": digest})
		},
	}

	parent.AddCommand(list, show)
	return parent
}

func newRunCmd() *cobra.Command {
	parent := &cobra.Command{Use: "run", Short: "Inspect and replay recorded runs"}

	show := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show a run's inputs, outputs, and trace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, _, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()
			full, err := trace.Lookup(ctx, store, args[0])
			if err != nil {
				return err
			}
			return printJSON(full)
		},
	}

	replay := &cobra.Command{
		Use:   "replay <run-id>",
		Short: "Re-execute a recorded run and report whether it reproduces exactly",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, log, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			resolver := geo.NewResolver(store, store, log, "cli", "01")
			engines := engine.NewTable(store)
			orch := orchestrator.NewOrchestrator(resolver, store, store, engines, store, log)

			report, err := trace.Replay(ctx, store, orch, args[0])
			if err != nil {
				return err
			}
			return printJSON(report)
		},
	}

	parent.AddCommand(show, replay)
	return parent
}

func newIngestCmd() *cobra.Command {
	parent := &cobra.Command{Use: "ingest", Short: "Load reference-data CSV files into the store"}

	var mpfsPath string
	mpfs := &cobra.Command{
		Use:   "mpfs",
		Short: "Load a Medicare Physician Fee Schedule CSV file",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, _, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := ingest.LoadMPFSRows(ctx, store, mpfsPath)
			if err != nil {
				return err
			}
			return printJSON(map[string]int{"rows_loaded": n})
		},
	}
	mpfs.Flags().StringVar(&mpfsPath, "file", "", "path to the MPFS CSV file (required)")
	mpfs.MarkFlagRequired("file")

	parent.AddCommand(mpfs)
	return parent
}

func readInput(path string) ([]byte, error) {
	if path == "-" || path == "" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
