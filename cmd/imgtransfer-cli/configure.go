package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/sagarc03/imgtransfer/clientcli"
	"github.com/spf13/cobra"
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Manage gateway profiles",
	Long: `Manage gateway profiles in the configuration file.

Profiles save the endpoint of each imgtransfer server you use. Pick one
with --profile or IMGTRANSFER_PROFILE.

Configuration is stored in ~/.imgtransfer/config.yaml`,
}

var configureListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all configured profiles",
	Long: `List all profiles configured in the config file.

The default profile is marked with an asterisk (*).`,
	RunE: runConfigureList,
}

var configureAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a new profile",
	Long: `Add a new profile interactively.

You will be prompted for the endpoint URL and whether to make the profile
the default. The gateway's /healthz endpoint is checked before saving.`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigureAdd,
}

var configureRemoveCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm"},
	Short:   "Remove a profile",
	Args:    cobra.ExactArgs(1),
	RunE:    runConfigureRemove,
}

var configureSetDefaultCmd = &cobra.Command{
	Use:   "set-default <name>",
	Short: "Set the default profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigureSetDefault,
}

var configureShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show profile details",
	Long:  `Show details for a profile. If no name is provided, shows the default profile.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigureShow,
}

func init() {
	configureCmd.AddCommand(configureListCmd)
	configureCmd.AddCommand(configureAddCmd)
	configureCmd.AddCommand(configureRemoveCmd)
	configureCmd.AddCommand(configureSetDefaultCmd)
	configureCmd.AddCommand(configureShowCmd)
}

func printNoProfiles() {
	fmt.Println("No profiles configured.")
	fmt.Println("Run 'imgtransfer-cli configure add <name>' to create one.")
}

func runConfigureList(_ *cobra.Command, _ []string) error {
	set, err := clientcli.LoadProfiles(getConfigPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			printNoProfiles()
			return nil
		}
		return fmt.Errorf("load profiles: %w", err)
	}

	if len(set.Profiles) == 0 {
		printNoProfiles()
		return nil
	}

	return getFormatter().FormatProfileList(os.Stdout, set.Profiles, set.DefaultName())
}

func runConfigureAdd(cmd *cobra.Command, args []string) error {
	name := args[0]
	configPath := getConfigPath()

	set, err := clientcli.LoadProfiles(configPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load profiles: %w", err)
		}
		set = &clientcli.ProfileSet{}
	}

	existing, lookupErr := set.Resolve(name)
	exists := lookupErr == nil
	if exists {
		prompt := promptui.Prompt{
			Label:     fmt.Sprintf("Profile '%s' already exists. Update it", name),
			IsConfirm: true,
		}
		if _, promptErr := prompt.Run(); promptErr != nil {
			fmt.Println("Cancelled.")
			return nil //nolint:nilerr // User cancelled, not an error
		}
	}

	defaultEndpoint := clientcli.DefaultEndpoint
	if exists {
		defaultEndpoint = existing.Endpoint
	}

	endpointPrompt := promptui.Prompt{
		Label:   "Endpoint URL",
		Default: defaultEndpoint,
		Validate: func(input string) error {
			_, err := clientcli.NormalizeEndpoint(input)
			return err
		},
	}
	endpointURL, err := endpointPrompt.Run()
	if err != nil {
		return handlePromptError(err)
	}
	endpointURL, err = clientcli.NormalizeEndpoint(endpointURL)
	if err != nil {
		return err
	}

	setAsDefault := len(set.Profiles) == 0 || (exists && set.DefaultName() == name)
	if !setAsDefault {
		defaultPrompt := promptui.Prompt{
			Label:     "Set as default profile",
			IsConfirm: true,
		}
		if _, promptErr := defaultPrompt.Run(); promptErr == nil {
			setAsDefault = true
		}
	}

	fmt.Print("Testing connection... ")
	if connErr := testServerConnection(cmd.Context(), endpointURL); connErr != nil {
		color.Red("FAILED")
		color.Yellow("Warning: could not reach %s: %v", endpointURL, connErr)

		continuePrompt := promptui.Prompt{
			Label:     "Save profile anyway",
			IsConfirm: true,
		}
		if _, promptErr := continuePrompt.Run(); promptErr != nil {
			fmt.Println("Cancelled.")
			return nil //nolint:nilerr // User cancelled, not an error
		}
	} else {
		color.Green("OK")
	}

	created, err := set.Put(clientcli.Profile{Name: name, Endpoint: endpointURL})
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}

	if setAsDefault {
		if err := set.SetDefault(name); err != nil {
			return err
		}
	}

	if err := set.Save(configPath); err != nil {
		return fmt.Errorf("save profiles: %w", err)
	}

	if created {
		color.Green("✓ Profile '%s' added.", name)
	} else {
		color.Green("✓ Profile '%s' updated.", name)
	}
	if setAsDefault {
		fmt.Println("Set as default profile.")
	}

	return nil
}

func runConfigureRemove(_ *cobra.Command, args []string) error {
	name := args[0]
	configPath := getConfigPath()

	set, err := clientcli.LoadProfiles(configPath)
	if err != nil {
		return fmt.Errorf("load profiles: %w", err)
	}

	if _, err = set.Resolve(name); err != nil {
		return err
	}

	prompt := promptui.Prompt{
		Label:     fmt.Sprintf("Remove profile '%s'", name),
		IsConfirm: true,
	}
	if _, promptErr := prompt.Run(); promptErr != nil {
		fmt.Println("Cancelled.")
		return nil //nolint:nilerr // User cancelled, not an error
	}

	if err := set.Remove(name); err != nil {
		return fmt.Errorf("remove profile: %w", err)
	}

	if err := set.Save(configPath); err != nil {
		return fmt.Errorf("save profiles: %w", err)
	}

	color.Green("✓ Profile '%s' removed.", name)
	return nil
}

func runConfigureSetDefault(_ *cobra.Command, args []string) error {
	name := args[0]
	configPath := getConfigPath()

	set, err := clientcli.LoadProfiles(configPath)
	if err != nil {
		return fmt.Errorf("load profiles: %w", err)
	}

	if err := set.SetDefault(name); err != nil {
		return err
	}

	if err := set.Save(configPath); err != nil {
		return fmt.Errorf("save profiles: %w", err)
	}

	color.Green("✓ Default profile set to '%s'.", name)
	return nil
}

func runConfigureShow(_ *cobra.Command, args []string) error {
	set, err := clientcli.LoadProfiles(getConfigPath())
	if err != nil {
		return fmt.Errorf("load profiles: %w", err)
	}

	name := ""
	if len(args) > 0 {
		name = args[0]
	}

	p, err := set.Resolve(name)
	if err != nil {
		return err
	}

	return getFormatter().FormatProfileShow(os.Stdout, p, set.DefaultName() == p.Name)
}

// testServerConnection checks the gateway's health endpoint.
func testServerConnection(ctx context.Context, endpointURL string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client, err := clientcli.New(&clientcli.Config{Endpoint: endpointURL}, clientcli.WithTimeout(5*time.Second))
	if err != nil {
		return err
	}
	return client.Ping(ctx)
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
