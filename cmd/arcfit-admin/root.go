package main

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/govindavashishtha/arcfit-admin/api"
	"github.com/govindavashishtha/arcfit-admin/credentials"
	"github.com/govindavashishtha/arcfit-admin/credentials/filerepo"
	"github.com/govindavashishtha/arcfit-admin/session"
)

var (
	flagAPIURL     string
	flagConfigPath string
)

const (
	defaultAPIURL     = "http://localhost:8080"
	configFileName    = ".arcfit-admin.yaml"
	credentialsFile   = "credentials.json"
	defaultDataFolder = ".arcfit-admin"
	envPrefix         = "ARCFIT_"
)

// cliConfig is the CLI's YAML config, overridable via ARCFIT_* env vars
// and flags.
type cliConfig struct {
	APIURL        string `koanf:"apiUrl"`
	DataFolder    string `koanf:"dataFolder"`
	CheckInterval string `koanf:"checkInterval"`
}

var rootCmd = &cobra.Command{
	Use:   "arcfit-admin",
	Short: "CLI for the ArcFit fitness-center admin API",
	Long: `arcfit-admin drives the ArcFit admin API from the command line:
log in, inspect the current session, list domain records and run a local
stub of the remote API for development.

Environment Variables:
  ARCFIT_API_URL         Backend API URL (default: http://localhost:8080)
  ARCFIT_DATA_FOLDER     Where credentials are persisted
  ARCFIT_CHECK_INTERVAL  Expiry-check interval for long-running sessions`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagAPIURL, "api-url", "", "Backend API URL (overrides config file and ARCFIT_API_URL)")
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "Config file path (default: ~/"+configFileName+")")
}

// loadConfig merges defaults, the optional YAML config file and ARCFIT_*
// environment variables, in that order.
func loadConfig() (*cliConfig, error) {
	cfg := &cliConfig{
		APIURL:     defaultAPIURL,
		DataFolder: defaultDataFolderPath(),
	}

	k := koanf.New(".")

	path := flagConfigPath
	if path == "" {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, configFileName)
		}
	}
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, errors.Wrapf(err, "read config %s failed", path)
			}
		} else if flagConfigPath != "" {
			return nil, errors.Errorf("config file %s not found", flagConfigPath)
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			// ARCFIT_API_URL -> apiUrl, ARCFIT_DATA_FOLDER -> dataFolder
			return camelCaseEnvKey(strings.TrimPrefix(key, envPrefix)), value
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables failed")
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config failed")
	}

	if flagAPIURL != "" {
		cfg.APIURL = flagAPIURL
	}
	return cfg, nil
}

func camelCaseEnvKey(key string) string {
	parts := strings.Split(strings.ToLower(key), "_")
	for i := 1; i < len(parts); i++ {
		if parts[i] != "" {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, "")
}

func defaultDataFolderPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return defaultDataFolder
	}
	return filepath.Join(home, defaultDataFolder)
}

// sdk bundles the wired client, store and session manager for a command
// invocation.
type sdk struct {
	config  *cliConfig
	store   *credentials.Store
	client  *api.Client
	manager *session.Manager
}

// newSDK wires the file-backed credential store, the API client and the
// session manager from the merged configuration.
func newSDK() (*sdk, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	repo, err := filerepo.New(filepath.Join(cfg.DataFolder, credentialsFile))
	if err != nil {
		return nil, errors.Wrap(err, "open credential store")
	}
	store, err := credentials.NewStore(repo)
	if err != nil {
		return nil, err
	}

	client := api.New(cfg.APIURL, store, api.WithUserAgent("arcfit-admin-cli"))

	var options []session.Option
	if cfg.CheckInterval != "" {
		interval, err := time.ParseDuration(cfg.CheckInterval)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid checkInterval %q", cfg.CheckInterval)
		}
		options = append(options, session.WithCheckInterval(interval))
	}

	manager, err := session.New(client, store, options...)
	if err != nil {
		return nil, err
	}

	return &sdk{config: cfg, store: store, client: client, manager: manager}, nil
}
