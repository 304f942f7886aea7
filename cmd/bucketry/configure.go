package main

import (
	"errors"
	"fmt"
	"net/url"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configureCmd = &cobra.Command{
	Use:   "configure <scheme>",
	Short: "Add or update a storage scheme interactively",
	Long: `Add or update a storage scheme in the configuration file.

You will be prompted for:
  - Endpoint URL (empty for the AWS regional default)
  - Presigning endpoint URL (empty to presign against the endpoint)
  - Access key and secret key (empty for the SDK default chain)

The result is written into the config file, preserving unrelated keys.`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigure,
}

var configureOutput string

func init() {
	configureCmd.Flags().StringVarP(&configureOutput, "output", "o", "config.yaml", "config file to write")
	rootCmd.AddCommand(configureCmd)
}

// configure must not require a loadable config: it is how the first config
// file gets created.
func runConfigure(cmd *cobra.Command, args []string) error {
	scheme := args[0]

	doc, err := loadConfigDoc(configureOutput)
	if err != nil {
		return err
	}

	if _, exists := dig(doc, "storage", "endpoints", scheme); exists {
		prompt := promptui.Prompt{
			Label:     fmt.Sprintf("Scheme '%s' already exists. Update it", scheme),
			IsConfirm: true,
		}
		if _, promptErr := prompt.Run(); promptErr != nil {
			fmt.Println("Cancelled.")
			return nil //nolint:nilerr // User cancelled, not an error
		}
	}

	endpointPrompt := promptui.Prompt{
		Label: "Endpoint URL (empty for AWS regional default)",
		Validate: func(input string) error {
			if input == "" {
				return nil
			}
			parsedURL, parseErr := url.Parse(input)
			if parseErr != nil {
				return fmt.Errorf("invalid URL: %w", parseErr)
			}
			if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
				return errors.New("URL must start with http:// or https://")
			}
			return nil
		},
	}
	endpointURL, err := endpointPrompt.Run()
	if err != nil {
		return handlePromptError(err)
	}

	presignPrompt := endpointPrompt
	presignPrompt.Label = "Presigning endpoint URL (empty to presign against the endpoint)"
	presignURL, err := presignPrompt.Run()
	if err != nil {
		return handlePromptError(err)
	}

	accessKeyPrompt := promptui.Prompt{
		Label: "Access Key (empty for SDK default chain)",
	}
	accessKeyVal, err := accessKeyPrompt.Run()
	if err != nil {
		return handlePromptError(err)
	}

	secretKeyVal := ""
	if accessKeyVal != "" {
		secretKeyPrompt := promptui.Prompt{
			Label: "Secret Key",
			Mask:  '*',
		}
		secretKeyVal, err = secretKeyPrompt.Run()
		if err != nil {
			return handlePromptError(err)
		}
	}

	endpoint := map[string]any{}
	if endpointURL != "" {
		endpoint["endpoint_url"] = endpointURL
	}
	if presignURL != "" {
		endpoint["endpoint_url_presigning"] = presignURL
	}
	set(doc, endpoint, "storage", "endpoints", scheme)

	if accessKeyVal != "" {
		set(doc, map[string]any{
			"access_key_id":     accessKeyVal,
			"secret_access_key": secretKeyVal,
		}, "credentials", "inline", scheme)
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(configureOutput, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	fmt.Printf("Scheme '%s' written to %s.\n", scheme, configureOutput)
	return nil
}

// loadConfigDoc reads the config file as a generic YAML document, or returns
// an empty one when the file does not exist yet.
func loadConfigDoc(path string) (map[string]any, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path comes from the --output flag
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	return doc, nil
}

// dig walks nested string-keyed maps and reports whether the path exists.
func dig(doc map[string]any, path ...string) (any, bool) {
	var current any = doc
	for _, key := range path {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// set writes value at the given path, creating intermediate maps as needed.
func set(doc map[string]any, value any, path ...string) {
	current := doc
	for _, key := range path[:len(path)-1] {
		next, ok := current[key].(map[string]any)
		if !ok {
			next = map[string]any{}
			current[key] = next
		}
		current = next
	}
	current[path[len(path)-1]] = value
}

// handlePromptError handles promptui errors.
func handlePromptError(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) {
		fmt.Println("\nCancelled.")
		os.Exit(0)
	}
	if errors.Is(err, promptui.ErrAbort) {
		fmt.Println("Cancelled.")
		return nil
	}
	return err
}
