package graph

import "errors"

var (
	// ErrInvalidID is returned when an entity is added with an empty id.
	ErrInvalidID = errors.New("invalid id")

	// ErrInvalidType is returned when a node or edge carries a type outside its enumeration.
	ErrInvalidType = errors.New("invalid type")

	// ErrDuplicateID is returned when an id is already taken within its id space.
	ErrDuplicateID = errors.New("duplicate id")

	// ErrDanglingReference is returned when an edge or hyperedge references a node
	// that does not exist in the store.
	ErrDanglingReference = errors.New("dangling reference")

	// ErrInvalidHyperedge is returned when a hyperedge has fewer than two distinct participants.
	ErrInvalidHyperedge = errors.New("hyperedge requires at least two distinct participants")

	// ErrNodeNotFound is returned when a node lookup by id fails on a mutating call.
	ErrNodeNotFound = errors.New("node not found")

	// ErrEdgeNotFound is returned when an edge lookup by id fails on a mutating call.
	ErrEdgeNotFound = errors.New("edge not found")
)
