package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <file> <name>",
	Short: "Upload a local file to a stored name",
	Long: `Upload a local file to a stored name like s3://bucket/key.

Prints the final stored name, which differs from the requested one when
overwrites are disabled and the name was taken.`,
	Args: cobra.ExactArgs(2),
	RunE: runUpload,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a stored object",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

var existsCmd = &cobra.Command{
	Use:   "exists <name>",
	Short: "Check whether a stored name exists",
	Long: `Check whether a stored name refers to an existing object.

Names ending in / are treated as directories and probed by prefix.
Exits 0 when the name exists and 1 when it does not.`,
	Args: cobra.ExactArgs(1),
	RunE: runExists,
}

func init() {
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(existsCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	file, name := args[0], args[1]

	storage, _, err := initStorage(ctx, cmd)
	if err != nil {
		return err
	}

	f, err := os.Open(file) //nolint:gosec // Path comes from the command line
	if err != nil {
		return fmt.Errorf("open %s: %w", file, err)
	}
	defer func() { _ = f.Close() }()

	saved, err := storage.Save(ctx, name, f)
	if err != nil {
		return err
	}

	fmt.Println(saved)
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	storage, _, err := initStorage(ctx, cmd)
	if err != nil {
		return err
	}

	return storage.Delete(ctx, args[0])
}

func runExists(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	storage, _, err := initStorage(ctx, cmd)
	if err != nil {
		return err
	}

	exists, err := storage.Exists(ctx, args[0])
	if err != nil {
		return err
	}
	if !exists {
		fmt.Println("not found")
		os.Exit(1)
	}

	fmt.Println("exists")
	return nil
}
