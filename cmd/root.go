package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/AnyUserName/sizefit/internal/profile"
	"github.com/spf13/cobra"
)

var (
	version    = "0.1.0"
	verbose    bool
	configPath string

	logger   *slog.Logger
	profiles *profile.Set
)

var rootCmd = &cobra.Command{
	Use:   "sizefit",
	Short: "Re-encode an image to land on a target file size",
	Long: `sizefit searches a lossy codec's quality setting so the re-encoded
image is as close as possible to a target size in kilobytes (1 KB = 1000 B).

Pixel dimensions are never changed; only the codec quality is tuned.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger = newLogger(verbose)
		set, err := loadProfiles(configPath)
		if err != nil {
			return err
		}
		profiles = set
		return nil
	},
}

// Execute runs the root command with ctx, so an interrupt cancels the
// running search between probes.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("SIZEFIT_CONFIG"),
		"YAML profiles file (default $SIZEFIT_CONFIG)")
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"sizefit %s (%s/%s, %s)\n",
		version, runtime.GOOS, runtime.GOARCH, runtime.Version(),
	))
}

func loadProfiles(path string) (*profile.Set, error) {
	if path == "" {
		return profile.Builtin(), nil
	}
	set, err := profile.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger.Debug("profiles loaded", "path", path, "default", set.Default, "profiles", set.Names())
	return set, nil
}

// resolveProfile looks up name, warning when it falls back to the default.
func resolveProfile(name string) profile.Profile {
	if name != "" && !profiles.Has(name) {
		logger.Warn("unknown profile, using default", "profile", name, "default", profiles.Default)
	}
	return profiles.Get(name)
}
