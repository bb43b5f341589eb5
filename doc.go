/*
Package weft validates and repairs flow graphs: node-based automation
pipelines consumed by workflow-execution engines. Candidate graphs are
often produced by AI assistants or loose tooling and arrive structurally
broken; weft checks them against the structural invariants and applies a
deterministic, idempotent auto-repair pipeline.

# Concept

A flow graph is an ordered list of steps plus an adjacency map of typed
connections (main data flow, plus tool/languageModel/memory wiring for
agents). The engine is pure with respect to its input: it deep-clones the
graph before any mutation and returns the repaired clone, so concurrent
validations are independent and require no locking.

# Usage

	eng, err := weft.New()
	if err != nil {
		log.Fatal(err)
	}

	var doc any
	_ = json.Unmarshal(raw, &doc)

	report := eng.Check(doc, weft.CheckOptions{Fix: true})
	if !report.Valid {
		for _, e := range report.Errors {
			fmt.Println("error:", e)
		}
	}

Repair is best-effort, not a correctness guarantee: a report can state
Autofixed true alongside Valid false with the residual error list.
*/
package weft
