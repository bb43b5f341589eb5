package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/aretw0/weft"
	"github.com/aretw0/weft/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <flow.json>",
	Short: "Check a flow graph for structural problems",
	Long: `Validates a flow document against the structural invariants.
With --fix, the auto-repair pipeline runs on a private clone and the
normalized flow is included in the report. Use "-" to read from stdin.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runValidate(cmd, args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().Bool("fix", false, "Run the auto-repair pipeline")
	validateCmd.Flags().Bool("pretty", false, "Render the report as styled markdown")
	validateCmd.Flags().StringP("output", "o", "text", "Output format: text or json")
}

func runValidate(cmd *cobra.Command, path string) error {
	eng, _, err := newEngine(cmd)
	if err != nil {
		return err
	}

	doc, err := readFlowDocument(path)
	if err != nil {
		return err
	}

	fix, _ := cmd.Flags().GetBool("fix")
	pretty, _ := cmd.Flags().GetBool("pretty")
	output, _ := cmd.Flags().GetString("output")

	report := eng.Check(doc, weft.CheckOptions{Fix: fix})

	switch {
	case output == "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	case pretty:
		fmt.Print(tui.Render(tui.Markdown(path, report)))
	default:
		printReport(report)
	}

	if !report.Valid {
		os.Exit(1)
	}
	return nil
}

func printReport(report weft.Report) {
	if report.Valid {
		fmt.Println("Flow is valid! ✅")
	} else {
		fmt.Println("Flow is invalid ❌")
	}
	for _, e := range report.Errors {
		fmt.Printf("  error: %s\n", e)
	}
	for _, w := range report.Warnings {
		fmt.Printf("  warning: %s\n", w)
	}
	for _, f := range report.Fixes {
		fmt.Printf("  fixed: %s\n", f)
	}
}
