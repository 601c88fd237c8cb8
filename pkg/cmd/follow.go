package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/butter-bot-machines/linetail/pkg/tail"
	"github.com/butter-bot-machines/linetail/pkg/watcher"
)

func (c *CLI) newFollowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "follow [files...]",
		Short: "Print appended lines one at a time as they arrive",
		Args:  cobra.ArbitraryArgs,
		RunE:  c.runFollow,
	}
	cmd.Flags().Bool("json", false, "Print each line as a JSON object")
	return cmd
}

func (c *CLI) runFollow(cmd *cobra.Command, args []string) error {
	files, err := c.files(args)
	if err != nil {
		return err
	}
	asJSON, _ := cmd.Flags().GetBool("json")

	at, err := tail.OpenAsync(cmd.Context(), files,
		tail.WithBackend(c.config.Backend),
		tail.WithLogger(c.logger),
		tail.WithMetrics(c.metrics),
	)
	if err != nil {
		return err
	}
	defer at.Close()

	out := cmd.OutOrStdout()
	enc := json.NewEncoder(out)
	return at.Follow(cmd.Context(), func(line watcher.Line) error {
		if asJSON {
			return enc.Encode(line)
		}
		_, err := fmt.Fprintln(out, line.String())
		return err
	})
}
