package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/strongdm/ai-cxdb-det/pkg/det"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the tracer version info",
	Run: func(cmd *cobra.Command, args []string) {
		v := det.VersionInfo()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "det %d.%d.%d\n", v.SWMajorVersion, v.SWMinorVersion, v.SWPatchVersion)
		fmt.Fprintf(out, "  Vendor ID:  0x%04x\n", v.VendorID)
		fmt.Fprintf(out, "  Go Version: %s\n", runtime.Version())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
