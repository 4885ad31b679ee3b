package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/AnyUserName/sizefit/internal/report"
	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <report>",
	Short: "Validate a run report and check the output file it references",
	Args:  cobra.ExactArgs(1),
	RunE:  runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	reportPath := args[0]

	r, err := report.ReadJSON(reportPath)
	if err != nil {
		return fmt.Errorf("read report: %w", err)
	}

	baseDir := filepath.Dir(reportPath)
	errs := report.Validate(r, baseDir)
	w := cmd.OutOrStdout()

	if len(errs) == 0 {
		fmt.Fprintln(w, "  ✓ Report is valid")
		fmt.Fprintf(w, "  ✓ %s: %d B for a %d B target (quality %.4f), hash matches\n",
			r.Result.Path, r.Result.Size, r.Target.Bytes, r.Result.Quality)
		return nil
	}

	fmt.Fprintf(w, "  ✗ Report has %d error(s):\n", len(errs))
	for _, e := range errs {
		fmt.Fprintf(w, "    • %s\n", e)
	}
	return fmt.Errorf("validation failed with %d errors", len(errs))
}
