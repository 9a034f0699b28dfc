package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sagarc03/relapse/blob"
	"github.com/sagarc03/relapse/database"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file interactively",
	Long: `Prompt for the server port, database URL and blob storage settings and
write them to a YAML config file that serve and migrate can read with
--config.

Secrets are not prompted for. Supply them through AWS_ACCESS_KEY_ID,
AWS_SECRET_ACCESS_KEY or GOOGLE_APPLICATION_CREDENTIALS at runtime.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringP("output", "o", "config.yaml", "path of the config file to write")

	rootCmd.AddCommand(initCmd)
}

// fileConfig is the subset of settings init writes.
type fileConfig struct {
	Server   fileServer   `yaml:"server"`
	Database fileDatabase `yaml:"database"`
	Storage  fileStorage  `yaml:"storage"`
}

type fileServer struct {
	Port int `yaml:"port"`
}

type fileDatabase struct {
	URL string `yaml:"url"`
}

type fileStorage struct {
	Backend   string `yaml:"backend"`
	Bucket    string `yaml:"bucket,omitempty"`
	Region    string `yaml:"region,omitempty"`
	Endpoint  string `yaml:"endpoint,omitempty"`
	URLExpiry int    `yaml:"url_expiry"`
}

// save writes the config to path, creating parent directories as needed.
func (c *fileConfig) save(path string) error {
	cleanPath := filepath.Clean(path)

	if err := os.MkdirAll(filepath.Dir(cleanPath), 0o750); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(cleanPath, data, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

func runInit(cmd *cobra.Command, _ []string) error {
	output, _ := cmd.Flags().GetString("output")

	if _, err := os.Stat(output); err == nil {
		prompt := promptui.Prompt{
			Label:     fmt.Sprintf("%s already exists. Overwrite it", output),
			IsConfirm: true,
		}
		if _, err := prompt.Run(); err != nil {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	cfg, err := promptConfig()
	if err != nil {
		return handlePromptError(err)
	}

	if err := cfg.save(output); err != nil {
		return err
	}

	fmt.Printf("Wrote %s\n", output)
	fmt.Printf("Start the server with: relapse serve --config %s\n", output)
	return nil
}

func promptConfig() (*fileConfig, error) {
	portPrompt := promptui.Prompt{
		Label:    "HTTP port",
		Default:  "5000",
		Validate: validatePort,
	}
	portVal, err := portPrompt.Run()
	if err != nil {
		return nil, err
	}
	port, _ := strconv.Atoi(portVal)

	dbPrompt := promptui.Prompt{
		Label:    "Database URL",
		Default:  database.DefaultURL,
		Validate: validateDatabaseURL,
	}
	dbURL, err := dbPrompt.Run()
	if err != nil {
		return nil, err
	}

	backendSelect := promptui.Select{
		Label: "Storage backend",
		Items: []string{blob.BackendS3, blob.BackendGCS, blob.BackendMinio, blob.BackendStowry},
	}
	_, backend, err := backendSelect.Run()
	if err != nil {
		return nil, err
	}

	storage := fileStorage{Backend: backend, URLExpiry: 3600}

	if backend != blob.BackendStowry {
		bucketPrompt := promptui.Prompt{
			Label: "Bucket (leave empty to set it later)",
		}
		if storage.Bucket, err = bucketPrompt.Run(); err != nil {
			return nil, err
		}
	}

	if backend == blob.BackendS3 || backend == blob.BackendMinio {
		regionPrompt := promptui.Prompt{
			Label:   "Region",
			Default: "us-east-1",
		}
		if storage.Region, err = regionPrompt.Run(); err != nil {
			return nil, err
		}
	}

	if backend == blob.BackendMinio || backend == blob.BackendStowry {
		endpointPrompt := promptui.Prompt{
			Label: "Endpoint",
			Validate: func(input string) error {
				if input == "" {
					return errors.New("endpoint is required")
				}
				return nil
			},
		}
		if storage.Endpoint, err = endpointPrompt.Run(); err != nil {
			return nil, err
		}
	}

	return newFileConfig(port, dbURL, storage), nil
}

func newFileConfig(port int, dbURL string, storage fileStorage) *fileConfig {
	if storage.URLExpiry <= 0 {
		storage.URLExpiry = 3600
	}
	return &fileConfig{
		Server:   fileServer{Port: port},
		Database: fileDatabase{URL: dbURL},
		Storage:  storage,
	}
}

func validatePort(input string) error {
	port, err := strconv.Atoi(input)
	if err != nil || port < 1 || port > 65535 {
		return errors.New("port must be a number between 1 and 65535")
	}
	return nil
}

func validateDatabaseURL(input string) error {
	_, _, err := database.ParseURL(input)
	return err
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
