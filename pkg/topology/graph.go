package topology

import (
	"reflect"
	"sort"

	"github.com/dominikbraun/graph"
)

// Graph is a validated, immutable resource graph.
type Graph struct {
	name  string
	root  string
	nodes map[string]Node
	order []string
	dag   graph.Graph[string, Node]
}

func (g *Graph) Name() string { return g.name }

// Root is the directory asset paths are resolved against.
func (g *Graph) Root() string { return g.root }

// Asset returns the on-disk location of a declared asset path.
func (g *Graph) Asset(p string) string {
	return resolve(g.root, p)
}

func (g *Graph) Len() int { return len(g.order) }

func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Order returns logical IDs with every node after the nodes it references.
func (g *Graph) Order() []string {
	order := make([]string, len(g.order))
	copy(order, g.order)
	return order
}

// Nodes returns every node in provisioning order.
func (g *Graph) Nodes() []Node {
	nodes := make([]Node, 0, len(g.order))
	for _, id := range g.order {
		nodes = append(nodes, g.nodes[id])
	}
	return nodes
}

// Dependencies lists the logical IDs id was declared to reference.
func (g *Graph) Dependencies(id string) []string {
	n, ok := g.nodes[id]
	if !ok {
		return nil
	}
	deps := append([]string(nil), n.References()...)
	sort.Strings(deps)
	return deps
}

// Dependents lists the logical IDs that reference id.
func (g *Graph) Dependents(id string) []string {
	adjacency, err := g.dag.AdjacencyMap()
	if err != nil {
		return nil
	}

	var dependents []string
	for target := range adjacency[id] {
		dependents = append(dependents, target)
	}
	sort.Strings(dependents)
	return dependents
}

func (g *Graph) ComputeUnits() []ComputeUnit {
	var units []ComputeUnit
	for _, n := range g.Nodes() {
		if v, ok := n.(ComputeUnit); ok {
			units = append(units, v)
		}
	}
	return units
}

func (g *Graph) Apis() []ApiFrontDoor {
	var apis []ApiFrontDoor
	for _, n := range g.Nodes() {
		if v, ok := n.(ApiFrontDoor); ok {
			apis = append(apis, v)
		}
	}
	return apis
}

// Routes returns the routes owned by api.
func (g *Graph) Routes(api string) []ApiRoute {
	var routes []ApiRoute
	for _, n := range g.Nodes() {
		if v, ok := n.(ApiRoute); ok && v.Api == api {
			routes = append(routes, v)
		}
	}
	return routes
}

func (g *Graph) Buckets() []StorageBucket {
	var buckets []StorageBucket
	for _, n := range g.Nodes() {
		if v, ok := n.(StorageBucket); ok {
			buckets = append(buckets, v)
		}
	}
	return buckets
}

func (g *Graph) Deployments() []DeploymentStep {
	var steps []DeploymentStep
	for _, n := range g.Nodes() {
		if v, ok := n.(DeploymentStep); ok {
			steps = append(steps, v)
		}
	}
	return steps
}

// ComputeUnit returns the unit with the given name.
func (g *Graph) ComputeUnit(name string) (ComputeUnit, bool) {
	n, ok := g.nodes[name]
	if !ok {
		return ComputeUnit{}, false
	}
	unit, ok := n.(ComputeUnit)
	return unit, ok
}

func (g *Graph) Bucket(name string) (StorageBucket, bool) {
	n, ok := g.nodes[name]
	if !ok {
		return StorageBucket{}, false
	}
	bucket, ok := n.(StorageBucket)
	return bucket, ok
}

// Equal reports whether two graphs declare the same nodes in the same order.
func (g *Graph) Equal(other *Graph) bool {
	if g == nil || other == nil {
		return g == other
	}

	return g.name == other.name &&
		reflect.DeepEqual(g.order, other.order) &&
		reflect.DeepEqual(g.nodes, other.nodes)
}
