package main

import (
	"fmt"
	"os"

	"github.com/aretw0/weft/internal/presentation/graph"
	"github.com/aretw0/weft/pkg/domain"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph <flow.json>",
	Short: "Render a flow as a Mermaid diagram",
	Long: `Reads a flow document and prints a Mermaid flowchart of its steps
and connections. Agent infrastructure edges (model, memory, tool) are
drawn dotted and labeled with their port.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		eng, _, err := newEngine(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error initializing weft: %v\n", err)
			os.Exit(1)
		}

		doc, err := readFlowDocument(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}

		g, err := domain.Decode(doc)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Cannot read flow: %v\n", err)
			os.Exit(1)
		}

		fmt.Println(graph.GenerateMermaid(g, eng.Policy()))
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
