package topology

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dominikbraun/graph"
)

// Declaration accumulates nodes for one stack. It is not safe for concurrent use.
type Declaration struct {
	name  string
	root  string
	nodes []Node
}

// New starts a declaration. Asset paths are resolved against root.
func New(name, root string) *Declaration {
	return &Declaration{
		name: name,
		root: root,
	}
}

func (d *Declaration) Add(nodes ...Node) *Declaration {
	d.nodes = append(d.nodes, nodes...)
	return d
}

// Build validates the declaration and freezes it into a Graph.
func (d *Declaration) Build() (*Graph, error) {
	var problems []string
	report := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if d.name == "" {
		report("stack name is empty")
	}

	byID := make(map[string]Node, len(d.nodes))
	accepted := make([]Node, 0, len(d.nodes))
	namespaces := make(map[Kind]map[string]bool)
	routes := make(map[string]bool)
	destinations := make(map[string]string)
	routed := make(map[string]int)

	for _, n := range d.nodes {
		id := n.ID()
		if id == "" {
			report("%s declared without a name", n.Kind())
			continue
		}

		if namespaces[n.Kind()] == nil {
			namespaces[n.Kind()] = make(map[string]bool)
		}
		if namespaces[n.Kind()][id] {
			report("duplicate %s %q", n.Kind(), id)
			continue
		}
		namespaces[n.Kind()][id] = true

		if other, exists := byID[id]; exists {
			report("%s %q collides with %s of the same logical ID", n.Kind(), id, other.Kind())
			continue
		}
		byID[id] = n
		accepted = append(accepted, n)
	}

	for _, n := range accepted {
		switch v := n.(type) {
		case ComputeUnit:
			if v.Runtime == "" {
				report("compute unit %q has no runtime", v.Name)
			}
			if v.EntryPoint == "" {
				report("compute unit %q has no entry point", v.Name)
			}
			if err := d.checkAsset(v.CodeBundle); err != nil {
				report("compute unit %q code bundle: %s", v.Name, err)
			}
			for i, statement := range v.Permissions {
				if len(statement.Actions) == 0 || len(statement.Resources) == 0 {
					report("compute unit %q permission %d needs at least one action and one resource", v.Name, i)
				}
			}

		case ApiRoute:
			if v.Method == "" || v.Method != strings.ToUpper(v.Method) {
				report("route %q has invalid method %q", v.ID(), v.Method)
			}
			if !strings.HasPrefix(v.Path, "/") {
				report("route %q path %q must start with /", v.ID(), v.Path)
			}
			key := v.Api + " " + v.Key()
			if routes[key] {
				report("api %q declares %s more than once", v.Api, v.Key())
			}
			routes[key] = true
			routed[v.Api]++

		case StorageBucket:
			if v.PublicRead && v.DefaultDocument == "" {
				report("bucket %q is publicly readable but has no default document", v.Name)
			}

		case DeploymentStep:
			if err := d.checkAsset(v.Source); err != nil {
				report("deployment %q source: %s", v.Name, err)
			}
			if previous, taken := destinations[v.Destination]; taken {
				report("bucket %q is already the destination of deployment %q", v.Destination, previous)
			}
			destinations[v.Destination] = v.Name
		}
	}

	for _, n := range accepted {
		for i, ref := range n.References() {
			target, exists := byID[ref]
			if !exists {
				report("%s %q references undeclared %s %q", n.Kind(), n.ID(), expectedKind(n, i), ref)
				continue
			}
			if want := expectedKind(n, i); target.Kind() != want {
				report("%s %q references %q which is a %s, not a %s", n.Kind(), n.ID(), ref, target.Kind(), want)
			}
		}

		if api, ok := n.(ApiFrontDoor); ok {
			if api.Proxy {
				report("api %q: proxy routing is not supported, declare routes explicitly", api.Name)
			}
			if routed[api.Name] == 0 {
				report("api %q has no routes", api.Name)
			}
		}
	}

	if len(problems) > 0 {
		return nil, &ConfigurationError{Stack: d.name, Problems: problems}
	}

	dag, order, err := sortNodes(accepted)
	if err != nil {
		return nil, &ConfigurationError{Stack: d.name, Problems: []string{err.Error()}}
	}

	return &Graph{
		name:  d.name,
		root:  d.root,
		nodes: byID,
		order: order,
		dag:   dag,
	}, nil
}

// sortNodes builds the dependency DAG (edges point from a dependency to its
// dependent) and sorts it. Ties are broken by logical ID so the order is stable.
func sortNodes(nodes []Node) (graph.Graph[string, Node], []string, error) {
	g := graph.New(func(n Node) string { return n.ID() }, graph.Directed(), graph.PreventCycles())

	for _, n := range nodes {
		if err := g.AddVertex(n); err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
			return nil, nil, err
		}
	}

	for _, n := range nodes {
		for _, ref := range n.References() {
			err := g.AddEdge(ref, n.ID())
			if errors.Is(err, graph.ErrEdgeAlreadyExists) {
				continue
			}
			if errors.Is(err, graph.ErrEdgeCreatesCycle) {
				return nil, nil, fmt.Errorf("dependency cycle between %q and %q", ref, n.ID())
			}
			if err != nil {
				return nil, nil, err
			}
		}
	}

	order, err := graph.StableTopologicalSort(g, func(a, b string) bool {
		return a < b
	})
	if err != nil {
		return nil, nil, err
	}

	return g, order, nil
}

func (d *Declaration) checkAsset(p string) error {
	if p == "" {
		return fmt.Errorf("no path declared")
	}

	info, err := os.Stat(resolve(d.root, p))
	if os.IsNotExist(err) {
		return fmt.Errorf("%s does not exist", p)
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", p)
	}

	return nil
}

func resolve(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

func expectedKind(n Node, i int) Kind {
	switch n.(type) {
	case ApiRoute:
		if i == 0 {
			return KindApiFrontDoor
		}
		return KindComputeUnit
	case DeploymentStep:
		return KindStorageBucket
	}
	return ""
}
