package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/weft"
	"github.com/aretw0/weft/internal/logging"
	"github.com/aretw0/weft/pkg/catalog"
	"github.com/spf13/cobra"
)

// newEngine builds the engine from the persistent flags.
func newEngine(cmd *cobra.Command) (*weft.Engine, *slog.Logger, error) {
	levelStr, _ := cmd.Flags().GetString("log-level")
	level, err := logging.ParseLevel(levelStr)
	if err != nil {
		return nil, nil, err
	}
	logger := logging.New(level)

	opts := []weft.Option{weft.WithLogger(logger)}
	if path, _ := cmd.Flags().GetString("catalog"); path != "" {
		cat, err := catalog.LoadFile(path)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, weft.WithCatalog(cat))
	}

	eng, err := weft.New(opts...)
	if err != nil {
		return nil, nil, err
	}
	return eng, logger, nil
}

// readFlowDocument loads a flow document from a file path, or stdin when
// the path is "-".
func readFlowDocument(path string) (any, error) {
	var raw []byte
	var err error
	if path == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read flow: %w", err)
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("flow is not valid JSON: %w", err)
	}
	return doc, nil
}
