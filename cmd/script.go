package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"page-stealth/stealth"
)

func newScriptCmd() *cobra.Command {
	var asFunc, probe bool

	cmd := &cobra.Command{
		Use:   "script",
		Short: "Print the masking script",
		Long: "Print the masking script as a self-invoking statement, ready for " +
			"Page.addScriptToEvaluateOnNewDocument or any equivalent hook.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := stealth.Source()
			switch {
			case probe:
				out = stealth.ProbeFunc() + "\n"
			case asFunc:
				out = stealth.Func() + "\n"
			}
			_, err := fmt.Fprint(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().BoolVar(&asFunc, "func", false, "print as an arrow function instead")
	cmd.Flags().BoolVar(&probe, "probe", false, "print the probe function that reports masked values")
	return cmd
}
