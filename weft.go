package weft

import (
	"log/slog"

	"github.com/aretw0/weft/internal/logging"
	"github.com/aretw0/weft/pkg/analysis"
	"github.com/aretw0/weft/pkg/catalog"
	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/policy"
	"github.com/aretw0/weft/pkg/repair"
	"github.com/aretw0/weft/pkg/validator"
)

// Version is the library version reported by the CLI and the MCP server.
const Version = "0.3.0"

// Engine is the high-level entry point: it wires the catalog, the
// port-kind policy, the structural validator and the repair pipeline.
// An Engine is immutable after New and safe for concurrent use.
type Engine struct {
	catalog   *catalog.Catalog
	policy    *policy.Table
	validator *validator.Validator
	repairer  *repair.Pipeline
	logger    *slog.Logger
}

// Option configures the Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithCatalog injects a custom node-type catalog, bypassing the embedded
// defaults.
func WithCatalog(cat *catalog.Catalog) Option {
	return func(e *Engine) {
		e.catalog = cat
	}
}

// New initializes the engine. By default it loads the embedded node-type
// catalog; the catalog is read once and treated as immutable afterwards.
func New(opts ...Option) (*Engine, error) {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.catalog == nil {
		cat, err := catalog.Load()
		if err != nil {
			return nil, err
		}
		eng.catalog = cat
	}

	eng.policy = policy.New(eng.catalog)
	eng.validator = validator.New(eng.policy)
	eng.repairer = repair.New(eng.policy, eng.logger)
	return eng, nil
}

// Report is the combined outcome of a validate (and optional repair) run.
type Report struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
	Fixes    []string `json:"fixes"`
	// Autofixed is true when the repair pipeline changed the graph. It is
	// not a validity guarantee: residual errors may remain.
	Autofixed  bool              `json:"autofixed"`
	Normalized *domain.FlowGraph `json:"normalized,omitempty"`
}

// CheckOptions controls a Check run.
type CheckOptions struct {
	// Fix runs the repair pipeline on a private clone and re-validates.
	Fix bool
}

// Validate checks a loose JSON document without repairing it.
func (e *Engine) Validate(doc any) Report {
	return e.Check(doc, CheckOptions{})
}

// Check validates the document and, if requested, repairs a private clone
// and re-validates it. The caller-supplied document is never mutated. The
// only path that skips the full report is malformed input, which returns a
// single fatal error and attempts no repair.
func (e *Engine) Check(doc any, opts CheckOptions) Report {
	rep, graph := e.validator.ValidateDocument(doc)
	if graph == nil {
		// FatalInput fast exit.
		return Report{Valid: false, Errors: rep.Errors}
	}
	if !opts.Fix {
		return Report{
			Valid:    rep.Valid(),
			Errors:   rep.Errors,
			Warnings: rep.Warnings,
		}
	}

	result := e.repairer.Run(graph)
	final := e.validator.Validate(result.Graph)
	e.logger.Debug("check complete",
		"errors", len(final.Errors),
		"warnings", len(final.Warnings),
		"fixes", len(result.Fixes),
	)
	return Report{
		Valid:      final.Valid(),
		Errors:     final.Errors,
		Warnings:   final.Warnings,
		Fixes:      result.Fixes,
		Autofixed:  result.Changed,
		Normalized: result.Graph,
	}
}

// Stats measures connectivity (depth, fan-out, orphans) of a document.
// Malformed input yields zero stats and false.
func (e *Engine) Stats(doc any) (analysis.Stats, bool) {
	g, err := domain.Decode(doc)
	if err != nil {
		return analysis.Stats{}, false
	}
	return analysis.Measure(g, e.policy), true
}

// Catalog exposes the read-only node-type registry.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// Policy exposes the read-only port-kind policy table.
func (e *Engine) Policy() *policy.Table {
	return e.policy
}
