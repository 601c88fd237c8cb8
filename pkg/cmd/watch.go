package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/butter-bot-machines/linetail/pkg/errors"
	"github.com/butter-bot-machines/linetail/pkg/metrics"
	"github.com/butter-bot-machines/linetail/pkg/tail"
	"github.com/butter-bot-machines/linetail/pkg/watcher"
)

func (c *CLI) newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [files...]",
		Short: "Print appended lines in debounced batches",
		Args:  cobra.ArbitraryArgs,
		RunE:  c.runWatch,
	}
	cmd.Flags().Duration("debounce", 0, "Longest time a batch keeps coalescing after its first line")
	cmd.Flags().Duration("step", 0, "Polling interval")
	cmd.Flags().Duration("timeout", 0, "Idle time before an empty poll ends, 0 to wait forever")
	cmd.Flags().Bool("yield-on-timeout", false, "Emit an empty batch on every idle timeout")
	cmd.Flags().Bool("raise-interrupt", true, "Exit with an interrupt error when cancelled")
	cmd.Flags().Bool("json", false, "Print each batch as a JSON array")
	cmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address")
	return cmd
}

// applyWatchFlags overlays explicitly set flags on the loaded config
func (c *CLI) applyWatchFlags(cmd *cobra.Command) error {
	flags := cmd.Flags()
	cfg := c.config
	if flags.Changed("debounce") {
		cfg.Poll.Debounce, _ = flags.GetDuration("debounce")
	}
	if flags.Changed("step") {
		cfg.Poll.Step, _ = flags.GetDuration("step")
	}
	if flags.Changed("timeout") {
		cfg.Poll.Timeout, _ = flags.GetDuration("timeout")
	}
	if flags.Changed("yield-on-timeout") {
		cfg.Follow.YieldOnTimeout, _ = flags.GetBool("yield-on-timeout")
	}
	if flags.Changed("raise-interrupt") {
		cfg.Follow.RaiseInterrupt, _ = flags.GetBool("raise-interrupt")
	}
	if flags.Changed("metrics-addr") {
		cfg.Metrics.Addr, _ = flags.GetString("metrics-addr")
	}
	return cfg.Validate()
}

func (c *CLI) files(args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	if len(c.config.Files) > 0 {
		return c.config.Files, nil
	}
	return nil, errors.ConfigError.New("no files to watch")
}

func (c *CLI) runWatch(cmd *cobra.Command, args []string) error {
	if err := c.applyWatchFlags(cmd); err != nil {
		return err
	}
	files, err := c.files(args)
	if err != nil {
		return err
	}
	asJSON, _ := cmd.Flags().GetBool("json")
	cfg := c.config

	g, ctx := errgroup.WithContext(cmd.Context())
	followCtx, stopFollow := context.WithCancel(ctx)
	defer stopFollow()

	t, err := tail.Open(followCtx, files,
		tail.WithBackend(cfg.Backend),
		tail.WithLogger(c.logger),
		tail.WithMetrics(c.metrics),
	)
	if err != nil {
		return err
	}
	defer t.Close()

	if cfg.Metrics.Addr != "" {
		g.Go(func() error {
			return serveMetrics(followCtx, cfg.Metrics.Addr)
		})
	}

	g.Go(func() error {
		// ends the metrics server with the loop
		defer stopFollow()
		out := cmd.OutOrStdout()
		return t.Follow(followCtx, cfg.Poll, tail.FollowOptions{
			YieldOnTimeout: cfg.Follow.YieldOnTimeout,
			RaiseInterrupt: cfg.Follow.RaiseInterrupt,
		}, func(batch []watcher.Line) error {
			return writeBatch(out, batch, asJSON)
		})
	})

	return g.Wait()
}

func writeBatch(out io.Writer, batch []watcher.Line, asJSON bool) error {
	if asJSON {
		if batch == nil {
			batch = []watcher.Line{}
		}
		return json.NewEncoder(out).Encode(batch)
	}
	for _, line := range batch {
		if _, err := fmt.Fprintln(out, line.String()); err != nil {
			return err
		}
	}
	return nil
}

func serveMetrics(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.ConfigError.Wrap(err, "metrics server failed").WithContext("addr", addr)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}
