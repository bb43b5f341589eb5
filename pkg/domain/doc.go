/*
Package domain defines the flow-graph data model shared by the validator,
the repair pipeline and all adapters.

A FlowGraph is an ordered list of Steps plus an adjacency map keyed by
source step name and port kind. The engine never mutates a caller-supplied
graph: callers that rewrite a graph take a Clone first and return the copy.
*/
package domain
