package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sagarc03/imgtransfer/clientcli"
	"github.com/spf13/cobra"
)

var (
	version = "dev"

	cfgFile    string
	profile    string
	endpoint   string
	jsonOutput bool
	quiet      bool
	noProgress bool
)

var rootCmd = &cobra.Command{
	Use:     "imgtransfer-cli",
	Version: version,
	Short:   "Client for the imgtransfer gateway",
	Long: `imgtransfer-cli - Client for the imgtransfer image gateway

Lists, uploads, downloads and deletes images in the bucket behind an
imgtransfer server.

The endpoint is resolved from, in increasing priority:
  - the selected profile in ~/.imgtransfer/config.yaml
  - IMGTRANSFER_ENDPOINT
  - --endpoint`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ~/.imgtransfer/config.yaml, env: IMGTRANSFER_CONFIG)")
	rootCmd.PersistentFlags().StringVarP(&profile, "profile", "p", "", "profile name (env: IMGTRANSFER_PROFILE)")
	rootCmd.PersistentFlags().StringVarP(&endpoint, "endpoint", "e", "", "server URL (default: http://localhost:3030, env: IMGTRANSFER_ENDPOINT)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")
	rootCmd.PersistentFlags().BoolVar(&noProgress, "no-progress", false, "disable progress bars")

	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(configureCmd)
}

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			return exitErr.code
		}
		_ = getFormatter().FormatError(os.Stderr, err)
		return 1
	}
	return 0
}

// getConfigPath returns the profile file from --config, IMGTRANSFER_CONFIG
// or the default location.
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return clientcli.LookupEnv(os.Getenv).ProfilesPath()
}

// buildConfig resolves the endpoint from flags, env and the selected profile.
func buildConfig() (*clientcli.Config, error) {
	env := clientcli.LookupEnv(os.Getenv)

	profileName := profile
	if profileName == "" {
		profileName = env.Profile
	}
	explicit := cfgFile != "" || env.ConfigPath != "" || profileName != ""

	return resolveConfig(getConfigPath(), profileName, explicit, endpoint, env.Endpoint)
}

// resolveConfig picks the endpoint from the flag, then the environment,
// then the profile stored at path. A missing or empty profile file only
// fails when the user pointed at it explicitly.
func resolveConfig(path, profileName string, explicit bool, flagEndpoint, envEndpoint string) (*clientcli.Config, error) {
	var profileEndpoint string

	if path != "" {
		set, err := clientcli.LoadProfiles(path)
		switch {
		case err == nil:
			p, resolveErr := set.Resolve(profileName)
			switch {
			case resolveErr == nil:
				profileEndpoint = p.Endpoint
			case explicit && (profileName != "" || !errors.Is(resolveErr, clientcli.ErrNoProfiles)):
				return nil, resolveErr
			}
		case explicit:
			return nil, fmt.Errorf("load profiles: %w", err)
		}
	}

	return &clientcli.Config{Endpoint: clientcli.FirstEndpoint(flagEndpoint, envEndpoint, profileEndpoint)}, nil
}

// getFormatter returns the appropriate formatter based on flags.
func getFormatter() clientcli.Formatter {
	return clientcli.NewFormatter(jsonOutput, quiet)
}

// getClient creates and returns a configured client.
func getClient() (*clientcli.Client, error) {
	cfg, err := buildConfig()
	if err != nil {
		return nil, err
	}

	var opts []clientcli.Option
	if showProgress() {
		opts = append(opts, clientcli.WithProgress(newProgressBar))
	}

	return clientcli.New(cfg, opts...)
}

// exitError is returned when we want to exit with a specific code
// but the details were already printed.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}
