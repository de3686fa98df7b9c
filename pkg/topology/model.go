// Package topology declares cloud resources as an immutable, validated graph.
//
// Resources reference each other by logical ID. A Declaration collects them,
// Build validates every reference and computes the provisioning order, and the
// resulting Graph is handed read-only to an engine.
package topology

import (
	"crypto/sha256"
	"fmt"
	"path"
	"regexp"
	"strings"
)

type Kind string

const (
	KindComputeUnit    Kind = "ComputeUnit"
	KindApiFrontDoor   Kind = "ApiFrontDoor"
	KindApiRoute       Kind = "ApiRoute"
	KindStorageBucket  Kind = "StorageBucket"
	KindDeploymentStep Kind = "DeploymentStep"
)

// Node is any declared resource.
type Node interface {
	ID() string
	Kind() Kind
	// References lists the logical IDs this node must be provisioned after.
	References() []string
}

type PolicyStatement struct {
	Actions   []string
	Resources []string
}

// Wildcard reports whether the statement grants every action of a service or
// targets every resource.
func (p PolicyStatement) Wildcard() bool {
	for _, action := range p.Actions {
		if action == "*" || strings.HasSuffix(action, ":*") {
			return true
		}
	}

	for _, resource := range p.Resources {
		if resource == "*" {
			return true
		}
	}

	return false
}

type ComputeUnit struct {
	Name        string
	Runtime     string
	EntryPoint  string
	CodeBundle  string
	Permissions []PolicyStatement
}

func (c ComputeUnit) ID() string           { return c.Name }
func (c ComputeUnit) Kind() Kind           { return KindComputeUnit }
func (c ComputeUnit) References() []string { return nil }

// Grant returns a copy of the unit with an additional permission statement.
func (c ComputeUnit) Grant(actions []string, resources []string) ComputeUnit {
	permissions := make([]PolicyStatement, 0, len(c.Permissions)+1)
	permissions = append(permissions, c.Permissions...)
	permissions = append(permissions, PolicyStatement{Actions: actions, Resources: resources})
	c.Permissions = permissions
	return c
}

// ApiFrontDoor is an HTTP routing entity. Proxy is always false here: only
// declared routes are wired and everything else is rejected by the gateway.
type ApiFrontDoor struct {
	Name  string
	Proxy bool
}

func (a ApiFrontDoor) ID() string           { return a.Name }
func (a ApiFrontDoor) Kind() Kind           { return KindApiFrontDoor }
func (a ApiFrontDoor) References() []string { return nil }

// Route declares method+path on this API, forwarded to target.
func (a ApiFrontDoor) Route(method, path string, target ComputeUnit) ApiRoute {
	return ApiRoute{
		Api:    a.Name,
		Method: strings.ToUpper(method),
		Path:   path,
		Target: target.Name,
	}
}

type ApiRoute struct {
	Api    string
	Method string
	Path   string
	Target string
}

func (r ApiRoute) ID() string {
	return r.Api + pathID(r.Path) + r.Method
}

func (r ApiRoute) Kind() Kind           { return KindApiRoute }
func (r ApiRoute) References() []string { return []string{r.Api, r.Target} }

// Key is the gateway route key, e.g. "POST /".
func (r ApiRoute) Key() string {
	return r.Method + " " + r.Path
}

type StorageBucket struct {
	Name            string
	DefaultDocument string
	PublicRead      bool
}

func (b StorageBucket) ID() string           { return b.Name }
func (b StorageBucket) Kind() Kind           { return KindStorageBucket }
func (b StorageBucket) References() []string { return nil }

// Deploy declares a step syncing source into this bucket.
func (b StorageBucket) Deploy(name, source string) DeploymentStep {
	return DeploymentStep{
		Name:        name,
		Source:      source,
		Destination: b.Name,
	}
}

// Resolve maps a website request path to the object key that serves it.
// Directory paths resolve to the default document. A bucket without public
// read or without a default document never serves website requests.
func (b StorageBucket) Resolve(requestPath string) (string, bool) {
	if !b.PublicRead || b.DefaultDocument == "" {
		return "", false
	}

	if requestPath == "" || strings.HasSuffix(requestPath, "/") {
		requestPath += b.DefaultDocument
	}

	key := strings.TrimPrefix(path.Clean("/"+requestPath), "/")
	if key == "" {
		return "", false
	}

	return key, true
}

type DeploymentStep struct {
	Name        string
	Source      string
	Destination string
}

func (d DeploymentStep) ID() string           { return d.Name }
func (d DeploymentStep) Kind() Kind           { return KindDeploymentStep }
func (d DeploymentStep) References() []string { return []string{d.Destination} }

// plainPath matches paths whose slug can be read back unambiguously: each
// segment starts with a lowercase letter, so every capital in the slug marks
// a segment boundary.
var plainPath = regexp.MustCompile(`^(/|(/[a-z][a-z0-9]*)+)$`)

// pathID turns a route path into an alphanumeric fragment for logical IDs.
// "/v1/items" becomes "V1Items". Any other path keeps its slug and gains a
// hash of the raw path, so "/a/b" and "/a-b" never share an ID.
func pathID(p string) string {
	if plainPath.MatchString(p) {
		return slug(p)
	}
	sum := sha256.Sum256([]byte(p))
	return fmt.Sprintf("%sX%X", slug(p), sum[:4])
}

func slug(p string) string {
	var b strings.Builder
	upper := true
	for _, r := range p {
		switch {
		case r >= 'a' && r <= 'z':
			if upper {
				r -= 'a' - 'A'
			}
			b.WriteRune(r)
			upper = false
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
			upper = false
		default:
			upper = true
		}
	}
	return b.String()
}
