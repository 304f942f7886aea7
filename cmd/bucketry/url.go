package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/bucketry/bucketry"
)

var urlCmd = &cobra.Command{
	Use:   "url <name>",
	Short: "Print a URL for a stored name",
	Long: `Print a URL for a stored name like s3://bucket/key.

The URL is public or signed depending on the bucket_auth setting. Use
--upload to generate a presigned PUT URL instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runURL,
}

var (
	urlExpiresSeconds int
	urlUpload         bool
	urlParams         []string
)

func init() {
	urlCmd.Flags().IntVar(&urlExpiresSeconds, "expires", 0, "validity in seconds (default: storage max age)")
	urlCmd.Flags().BoolVar(&urlUpload, "upload", false, "generate a presigned upload (PUT) URL")
	urlCmd.Flags().StringArrayVar(&urlParams, "param", nil, "extra presign parameter as Key=Value, e.g. VersionId=abc (repeatable)")
	rootCmd.AddCommand(urlCmd)
}

func runURL(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	storage, _, err := initStorage(ctx, cmd)
	if err != nil {
		return err
	}

	opts := bucketry.URLOptions{
		Expires: time.Duration(urlExpiresSeconds) * time.Second,
	}
	if urlUpload {
		opts.Method = bucketry.MethodPutObject
	}
	for _, p := range urlParams {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return fmt.Errorf("invalid --param %q, expected Key=Value", p)
		}
		if opts.Params == nil {
			opts.Params = make(map[string]string)
		}
		opts.Params[k] = v
	}

	url, err := storage.URL(ctx, args[0], opts)
	if err != nil {
		return err
	}

	fmt.Println(url)
	return nil
}
