package cmd

import (
	"fmt"

	"github.com/AnyUserName/sizefit/internal/encoder"
	"github.com/spf13/cobra"
)

var codecsCmd = &cobra.Command{
	Use:   "codecs",
	Short: "List lossy codecs and whether they are usable here",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg := encoder.NewRegistry()
		w := cmd.OutOrStdout()
		for _, name := range reg.Known() {
			status := "✓ available"
			if reg.Get(name) == nil {
				status = "✗ not installed"
			}
			fmt.Fprintf(w, "  %-6s %s\n", name, status)
		}
		return nil
	},
}

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List search profiles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		w := cmd.OutOrStdout()
		for _, name := range profiles.Names() {
			p := profiles.Get(name)
			def := " "
			if name == profiles.Default {
				def = "*"
			}
			fmt.Fprintf(w, "%s %-12s codec=%-5s epsilon=%-6g strategy=%s",
				def, name, p.Codec, p.Epsilon, p.Strategy)
			if p.ToleranceRatio > 0 {
				fmt.Fprintf(w, " tolerance=%g%%", p.ToleranceRatio*100)
			}
			fmt.Fprintln(w)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(codecsCmd)
	rootCmd.AddCommand(profilesCmd)
}
