package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

var resyncCmd = &cobra.Command{
	Use:   "resync <name>",
	Short: "Re-apply object metadata after settings changes",
	Long: `Re-apply the configured object metadata to already stored objects.

Settings changes such as cache max age or encryption are not retroactive:
objects keep the headers they were saved with. Resync rewrites them in
place with a server-side self copy.

With --prefix the name is treated as a directory and every object under
it is resynced.`,
	Args: cobra.ExactArgs(1),
	RunE: runResync,
}

var resyncPrefix bool

func init() {
	resyncCmd.Flags().BoolVar(&resyncPrefix, "prefix", false, "resync every object under the given name")
	rootCmd.AddCommand(resyncCmd)
}

func runResync(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	name := args[0]

	storage, _, err := initStorage(ctx, cmd)
	if err != nil {
		return err
	}

	if resyncPrefix {
		slog.Info("starting resync", "prefix", name)

		count, err := storage.ResyncPrefix(ctx, name)
		if err != nil {
			return fmt.Errorf("resync prefix: %w", err)
		}

		slog.Info("resync complete", "objects", count)
		return nil
	}

	if err := storage.Resync(ctx, name); err != nil {
		return fmt.Errorf("resync: %w", err)
	}

	slog.Info("resync complete", "name", name)
	return nil
}
