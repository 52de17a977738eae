package main

import (
	"github.com/spf13/cobra"

	"github.com/inodb/checkref/internal/gate"
)

func newGateCmd() *cobra.Command {
	var workDir string

	cmd := &cobra.Command{
		Use:   "gate <summary-file>",
		Short: "Stop the workflow if a summary reports a build mismatch",
		Long: `Read the summary printed by 'checkref check'. If it reports a genome build
mismatch, print a termination notice and write WORKFLOW_TERMINATED to the work
directory. Either way the command exits 0; only a missing summary fails.`,
		Example: `  checkref check target.vcf panel.legend out.tsv --legend --summary summary.txt
  checkref gate summary.txt`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := gate.Run(args[0], workDir, cmd.OutOrStdout())
			return err
		},
	}

	cmd.Flags().StringVar(&workDir, "workdir", ".", "Directory for the WORKFLOW_TERMINATED marker")

	return cmd
}
