package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bucketry/bucketry/config"
)

var version = "dev"

var configFiles []string

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "bucketry",
	Short:   "Pluggable S3 file storage with named endpoints",
	Long: `Bucketry maps stored names of the form scheme://bucket/key onto
S3-compatible backends. Each scheme carries its own endpoint and
credentials, so one deployment can mix AWS, MinIO and other stores.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFiles, cmd.Flags())
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		setupLogging(cfg.Log.Level)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&configFiles, "config", nil, "config file paths, later files override earlier ones (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("region", "", "storage region (env: BUCKETRY_STORAGE_REGION)")
	rootCmd.PersistentFlags().String("key-prefix", "", "key prefix applied to every object (env: BUCKETRY_STORAGE_KEY_PREFIX)")
	rootCmd.PersistentFlags().Bool("read-only", false, "refuse all writes (env: BUCKETRY_STORAGE_READ_ONLY)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
