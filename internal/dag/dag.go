// Package dag holds the after-set graph of queued jobs: a directed acyclic
// graph keyed by job ID, used by job backends to replay the resolver's
// static ordering as a runtime execution constraint. All operations are
// concurrency-safe.
package dag

import (
	"fmt"
	"sync"
)

// Graph is a collection of vertices and their predecessor edges.
type Graph struct {
	mutex    sync.RWMutex
	vertices map[string]*vertex
}

// vertex is a single queued job. It is unexported to force interaction
// through string IDs rather than direct struct manipulation.
type vertex struct {
	id string
	// after holds the jobs this one must wait for (predecessors).
	after map[string]*vertex
	// unlocks holds the jobs waiting on this one (successors).
	unlocks map[string]*vertex
}

// New creates an initialized, empty Graph.
func New() *Graph {
	return &Graph{vertices: make(map[string]*vertex)}
}

// AddNode registers a job ID in the graph. Adding an existing ID is a
// no-op.
func (g *Graph) AddNode(id string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if _, ok := g.vertices[id]; ok {
		return
	}
	g.vertices[id] = &vertex{
		id:      id,
		after:   make(map[string]*vertex),
		unlocks: make(map[string]*vertex),
	}
}

// AddEdge records that job toID must wait for job fromID. An error is
// returned if either job is unknown or the edge is self-referential.
func (g *Graph) AddEdge(fromID, toID string) error {
	if fromID == toID {
		return fmt.Errorf("job cannot wait on itself: %s", fromID)
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()

	from, ok := g.vertices[fromID]
	if !ok {
		return fmt.Errorf("unknown predecessor job: %s", fromID)
	}
	to, ok := g.vertices[toID]
	if !ok {
		return fmt.Errorf("unknown job: %s", toID)
	}

	to.after[fromID] = from
	from.unlocks[toID] = to
	return nil
}

// After returns the IDs of the jobs the given job waits on.
func (g *Graph) After(id string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	v, ok := g.vertices[id]
	if !ok {
		return nil, fmt.Errorf("unknown job: %s", id)
	}
	ids := make([]string, 0, len(v.after))
	for dep := range v.after {
		ids = append(ids, dep)
	}
	return ids, nil
}

// Unlocks returns the IDs of the jobs waiting on the given job.
func (g *Graph) Unlocks(id string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	v, ok := g.vertices[id]
	if !ok {
		return nil, fmt.Errorf("unknown job: %s", id)
	}
	ids := make([]string, 0, len(v.unlocks))
	for dep := range v.unlocks {
		ids = append(ids, dep)
	}
	return ids, nil
}

// Len returns the number of jobs in the graph.
func (g *Graph) Len() int {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return len(g.vertices)
}

// DetectCycles checks the graph for cycles using depth-first search with
// explicit in-progress marking. A non-nil error names a job involved in
// the first cycle found.
func (g *Graph) DetectCycles() error {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	visiting := make(map[string]bool)
	visited := make(map[string]bool)

	var visit func(v *vertex) error
	visit = func(v *vertex) error {
		visiting[v.id] = true
		for _, dep := range v.after {
			if visiting[dep.id] {
				return fmt.Errorf("cycle detected involving job %q", dep.id)
			}
			if !visited[dep.id] {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}
		delete(visiting, v.id)
		visited[v.id] = true
		return nil
	}

	for _, v := range g.vertices {
		if !visited[v.id] {
			if err := visit(v); err != nil {
				return err
			}
		}
	}
	return nil
}
