package domain

import "errors"

// ErrNotObject is returned when the input document is not a JSON object.
var ErrNotObject = errors.New("input is not an object")

// ErrMalformedStep is returned when a step cannot be treated as a plain
// key-value map.
var ErrMalformedStep = errors.New("step is not a plain key-value map")

// ErrMalformedParameters is returned when a step's parameters cannot be
// treated as a plain key-value map.
var ErrMalformedParameters = errors.New("step parameters are not a plain key-value map")

// ErrMalformedConnections is returned when the connections structure cannot
// be decoded into the adjacency map.
var ErrMalformedConnections = errors.New("connections are not a valid adjacency map")
