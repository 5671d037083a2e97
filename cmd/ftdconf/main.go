// Ftdconf - declarative configuration tool for FTD firewalls
//
// A CLI that drives the FDM REST API of a Cisco FTD device through its own
// OpenAPI specification:
//   - Any operation the device publishes is callable by its operation ID;
//     nothing is hard-coded per object type.
//   - add/edit/delete/upsert operations are idempotent: the engine compares
//     desired against existing state and reports whether anything changed.
//   - Check mode (-C) previews without mutating.
//   - Audit logging of executed operations.
//
// Usage pattern:
//
//	ftdconf -H <device> [-u user] <verb> [args]
//
// Examples:
//
//	ftdconf -H 10.0.0.1 spec operations --filter NetworkObject
//	ftdconf -H 10.0.0.1 execute upsertNetworkObject \
//	    --data '{"name":"web","subType":"HOST","type":"networkobject","value":"10.1.1.10"}'
//	ftdconf -H 10.0.0.1 execute getNetworkObjectList --filter subType=HOST
//	ftdconf -H 10.0.0.1 apply site.yaml -C
//	ftdconf -H 10.0.0.1 upload uploadDiskFile backup.cfg
//	ftdconf -H 10.0.0.1 logout
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ftdconf/ftdconf/pkg/audit"
	"github.com/ftdconf/ftdconf/pkg/fdm"
	"github.com/ftdconf/ftdconf/pkg/settings"
	"github.com/ftdconf/ftdconf/pkg/swagger"
	"github.com/ftdconf/ftdconf/pkg/util"
	"github.com/ftdconf/ftdconf/pkg/version"
)

var (
	// Connection flags
	hostname string // -H, --hostname
	username string // -u, --username
	password string // -p, --password
	insecure bool
	timeout  time.Duration

	// Behavior flags
	checkMode bool // -C, --check
	verbose   bool // -v, --verbose
	jsonLog   bool

	// Global state
	userSettings *settings.Settings
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:               "ftdconf",
	Short:             "FTD Firewall Configuration Tool",
	SilenceUsage:      true,
	SilenceErrors:     true,
	CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
	Long: `Ftdconf drives the FDM REST API of an FTD firewall through the device's
own OpenAPI specification. Operations are addressed by their operation ID;
add/edit/delete/upsert semantics are applied generically with idempotence.

  ftdconf -H <device> <verb> [args] [-C]`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if isSettingsOrHelp(cmd) {
			return nil
		}

		if verbose {
			util.SetLogLevel("debug")
		} else {
			util.SetLogLevel("warn")
		}
		if jsonLog {
			util.SetJSONFormat()
		}

		var err error
		userSettings, err = settings.Load()
		if err != nil {
			util.Warnf("Could not load settings: %v", err)
			userSettings = &settings.Settings{}
		}

		// Flag > environment > settings.
		if hostname == "" {
			hostname = os.Getenv("FTD_HOSTNAME")
		}
		if hostname == "" {
			hostname = userSettings.DefaultHostname
		}
		if hostname == "" {
			return fmt.Errorf("device required: use -H <hostname> or set FTD_HOSTNAME")
		}
		if username == "" {
			username = os.Getenv("FTD_USERNAME")
		}
		if password == "" {
			password = os.Getenv("FTD_PASSWORD")
		}

		auditLogger, err := audit.NewFileLogger(audit.DefaultLogPath())
		if err != nil {
			util.Warnf("Could not initialize audit logging: %v", err)
		} else {
			audit.SetDefaultLogger(auditLogger)
		}

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&hostname, "hostname", "H", "", "Device hostname or IP (env FTD_HOSTNAME)")
	rootCmd.PersistentFlags().StringVarP(&username, "username", "u", "", "API username (env FTD_USERNAME)")
	rootCmd.PersistentFlags().StringVarP(&password, "password", "p", "", "API password (env FTD_PASSWORD, prompted when absent)")
	rootCmd.PersistentFlags().BoolVar(&insecure, "insecure", true, "Skip TLS certificate verification (FDM ships self-signed certificates)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "HTTP request timeout")
	rootCmd.PersistentFlags().BoolVarP(&checkMode, "check", "C", false, "Check mode: validate and read, never mutate")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonLog, "json-log", false, "Log in JSON format")

	rootCmd.AddCommand(executeCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(specCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		if version.Version == "dev" {
			fmt.Println("ftdconf dev build (use 'make build' for version info)")
		} else {
			fmt.Printf("ftdconf %s\n", version.Info())
		}
	},
}

// connect builds a session for the selected device and logs in, preferring
// a password grant and falling back to the refresh token persisted by a
// previous run. The new refresh token is persisted for the next run.
func connect(ctx context.Context) (*fdm.Session, error) {
	host := userSettings.Host(hostname)

	if password == "" && host.RefreshToken == "" {
		prompted, err := promptPassword()
		if err != nil {
			return nil, err
		}
		password = prompted
	}

	cfg := fdm.Config{
		Hostname:     hostname,
		Username:     username,
		Password:     password,
		RefreshToken: host.RefreshToken,
		Insecure:     insecure,
		Timeout:      timeout,
		SpecCacheDir: specCacheDir(),
		SpecCacheTTL: 10 * time.Minute,
	}
	s, err := fdm.Connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := s.Login(ctx); err != nil {
		return nil, err
	}

	userSettings.SetHost(hostname, settings.Host{
		RefreshToken: s.RefreshToken(),
		APIVersion:   s.APIVersion(),
		Username:     username,
	})
	if err := userSettings.Save(); err != nil {
		util.Warnf("Could not persist session state: %v", err)
	}
	return s, nil
}

// withSession handles the connect/login/spec-fetch boilerplate shared by
// all device-facing commands.
func withSession(fn func(ctx context.Context, s *fdm.Session, index *swagger.SpecIndex) error) error {
	ctx := context.Background()
	s, err := connect(ctx)
	if err != nil {
		return err
	}
	index, err := s.SpecIndex(ctx)
	if err != nil {
		return err
	}
	return fn(ctx, s, index)
}

func promptPassword() (string, error) {
	if !term.IsTerminal(int(syscall.Stdin)) {
		return "", fmt.Errorf("no password: use -p, set FTD_PASSWORD, or run on a terminal")
	}
	fmt.Fprintf(os.Stderr, "Password for %s@%s: ", username, hostname)
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(raw), nil
}

func specCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".cache", "ftdconf")
}

// isSettingsOrHelp checks whether cmd (or any ancestor) is a settings,
// help, or version command; those run without a device.
func isSettingsOrHelp(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "help", "version", "settings", "audit":
			return true
		}
	}
	return false
}

// recordAudit writes one audit event for an executed operation.
func recordAudit(operation string, changed, success bool, errMsg string, started time.Time) {
	event := audit.NewEvent(username, hostname, operation).
		WithChanged(changed).
		WithCheckMode(checkMode).
		WithDuration(time.Since(started))
	if success {
		event.WithSuccess()
	} else {
		event.WithError(errMsg)
	}
	if err := audit.Log(event); err != nil {
		util.Warnf("Could not write audit event: %v", err)
	}
}
