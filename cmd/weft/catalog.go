package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog [kind]",
	Short: "List known step kinds or inspect a single one",
	Long: `Prints the step-kind catalog the validator works from.
With a kind argument, shows the full entry for that kind.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		eng, _, err := newEngine(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error initializing weft: %v\n", err)
			os.Exit(1)
		}
		cat := eng.Catalog()

		if len(args) == 1 {
			kind := args[0]
			if successor, deprecated := cat.Canonical(kind); deprecated {
				kind = successor
			}
			entry, ok := cat.Lookup(kind)
			if !ok {
				fmt.Fprintf(os.Stderr, "Unknown kind: %s\n", args[0])
				os.Exit(1)
			}
			fmt.Printf("Kind:         %s\n", entry.Kind)
			if kind != args[0] {
				fmt.Printf("Replaces:     %s (deprecated)\n", args[0])
			}
			fmt.Printf("Display name: %s\n", entry.DisplayName)
			fmt.Printf("Category:     %s\n", entry.Category)
			if entry.RequiresCredentials {
				fmt.Printf("Credentials:  %s\n", entry.CredentialKind)
			}
			if entry.ToolEquivalent != "" {
				fmt.Printf("Tool form:    %s\n", entry.ToolEquivalent)
			}
			return
		}

		for _, kind := range cat.Kinds() {
			entry, _ := cat.Lookup(kind)
			fmt.Printf("%-32s %-12s %s\n", kind, entry.Category, entry.DisplayName)
		}
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
}
