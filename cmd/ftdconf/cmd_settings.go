package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ftdconf/ftdconf/pkg/cli"
	"github.com/ftdconf/ftdconf/pkg/settings"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage persistent settings",
	Long: `Manage persistent settings stored in ~/.ftdconf/settings.json.

Settings provide defaults for connection flags and hold per-device session
state (refresh token, API version) between invocations.

Examples:
  ftdconf settings show
  ftdconf settings set hostname 10.0.0.1
  ftdconf settings clear`,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := settings.Load()
		if err != nil {
			return fmt.Errorf("loading settings: %w", err)
		}

		fmt.Printf("Settings file: %s\n\n", settings.DefaultSettingsPath())

		hostname := s.DefaultHostname
		if hostname == "" {
			hostname = "(not set)"
		}
		fmt.Printf("default_hostname: %s\n", hostname)

		t := cli.NewTable("DEVICE", "USERNAME", "API", "SESSION")
		for name, h := range s.Hosts {
			session := "none"
			if h.RefreshToken != "" {
				session = "saved"
			}
			t.Row(name, h.Username, h.APIVersion, session)
		}
		t.Flush()
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <setting> <value>",
	Short: "Set a setting value",
	Long: `Set a persistent setting value.

Available settings:
  hostname - Default device (-H flag default)

Example:
  ftdconf settings set hostname 10.0.0.1`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		setting, value := args[0], args[1]

		s, err := settings.Load()
		if err != nil {
			s = &settings.Settings{}
		}

		switch setting {
		case "hostname", "default_hostname":
			s.SetDefaultHostname(value)
			fmt.Printf("Default hostname set to: %s\n", value)
		default:
			return fmt.Errorf("unknown setting: %s (valid: hostname)", setting)
		}

		if err := s.Save(); err != nil {
			return fmt.Errorf("saving settings: %w", err)
		}
		return nil
	},
}

var settingsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear all settings and saved sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		s := &settings.Settings{}
		if err := s.Save(); err != nil {
			return fmt.Errorf("saving settings: %w", err)
		}
		fmt.Println("All settings cleared.")
		return nil
	},
}

var settingsPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show settings file path",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(settings.DefaultSettingsPath())
	},
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsClearCmd)
	settingsCmd.AddCommand(settingsPathCmd)
}
