package core

import "errors"

var (
	// ErrDuplicatePassName is returned by FramePassGroup.CreatePass when a
	// pass with the same name already exists anywhere in the owning frame
	// graph.
	ErrDuplicatePassName = errors.New("a pass with this name already exists")
	// ErrEmptyGraph is returned by FrameGraph.Compile when no pass was
	// ever registered.
	ErrEmptyGraph = errors.New("frame graph has no registered passes")
	// ErrNoRoot is returned when the dependency graph has no pass that is
	// nobody's destination.
	ErrNoRoot = errors.New("frame graph has no root pass")
	// ErrNoLeaf names a dependency graph with no pass that is nobody's
	// source. No function in this module returns it; Compile checks only
	// for a missing root (ErrNoRoot).
	ErrNoLeaf = errors.New("frame graph has no leaf pass")
	// ErrCyclicDependency is returned when an edge would introduce a cycle
	// in the pass dependency graph.
	ErrCyclicDependency = errors.New("frame graph dependency would introduce a cycle")
	// ErrUnknown is a catch-all for conditions that should never occur.
	ErrUnknown = errors.New("unknown")
)
