package topology

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtureRoot(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "resources", "lambda"), os.ModePerm))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "resources", "website"), os.ModePerm))
	require.NoError(t, os.WriteFile(filepath.Join(root, "resources", "website", "index.html"), []byte("<h1>hi</h1>"), 0o644))

	return root
}

func declare(root string) *Declaration {
	backend := ComputeUnit{
		Name:       "myCDKFunction",
		Runtime:    "nodejs20.x",
		EntryPoint: "index.handler",
		CodeBundle: "resources/lambda",
	}.Grant([]string{"ses:*"}, []string{"*"})

	api := ApiFrontDoor{Name: "myCDKAPI"}

	bucket := StorageBucket{
		Name:            "WebsiteBucket",
		DefaultDocument: "index.html",
		PublicRead:      true,
	}

	return New("HelloCdkStack", root).Add(
		backend,
		api,
		api.Route("post", "/", backend),
		bucket,
		bucket.Deploy("DeployWebsite", "resources/website"),
	)
}

func problems(t *testing.T, err error) []string {
	t.Helper()

	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	return cfgErr.Problems
}

func TestBuild(t *testing.T) {
	root := fixtureRoot(t)

	g, err := declare(root).Build()
	require.NoError(t, err)

	assert.Equal(t, "HelloCdkStack", g.Name())
	assert.Equal(t, 5, g.Len())

	for _, n := range g.Nodes() {
		for _, ref := range n.References() {
			_, ok := g.Node(ref)
			assert.Truef(t, ok, "%s references missing %s", n.ID(), ref)
		}
	}

	routes := g.Routes("myCDKAPI")
	require.Len(t, routes, 1)
	assert.Equal(t, "POST", routes[0].Method)
	assert.Equal(t, "/", routes[0].Path)
	assert.Equal(t, "myCDKFunction", routes[0].Target)
	assert.Equal(t, "myCDKAPIPOST", routes[0].ID())
	assert.Equal(t, "POST /", routes[0].Key())

	assert.Equal(t, []string{"DeployWebsite"}, g.Dependents("WebsiteBucket"))
	assert.Equal(t, []string{"myCDKAPI", "myCDKFunction"}, g.Dependencies("myCDKAPIPOST"))
	assert.Equal(t, filepath.Join(root, "resources/lambda"), g.Asset("resources/lambda"))
}

func TestOrder(t *testing.T) {
	g, err := declare(fixtureRoot(t)).Build()
	require.NoError(t, err)

	order := g.Order()
	position := make(map[string]int, len(order))
	for i, id := range order {
		position[id] = i
	}

	for _, n := range g.Nodes() {
		for _, ref := range n.References() {
			assert.Lessf(t, position[ref], position[n.ID()], "%s must come after %s", n.ID(), ref)
		}
	}

	assert.Equal(t, "WebsiteBucket", order[0])
	assert.Equal(t, "myCDKAPIPOST", order[len(order)-1])
}

func TestDeterminism(t *testing.T) {
	root := fixtureRoot(t)

	first, err := declare(root).Build()
	require.NoError(t, err)

	second, err := declare(root).Build()
	require.NoError(t, err)

	assert.True(t, first.Equal(second))
	assert.Equal(t, first.Order(), second.Order())

	other, err := New("OtherStack", root).Add(first.Nodes()...).Build()
	require.NoError(t, err)
	assert.False(t, first.Equal(other))
}

func TestOrderIndependentOfDeclarationOrder(t *testing.T) {
	root := fixtureRoot(t)

	g, err := declare(root).Build()
	require.NoError(t, err)

	nodes := g.Nodes()
	reversed := make([]Node, 0, len(nodes))
	for i := len(nodes) - 1; i >= 0; i-- {
		reversed = append(reversed, nodes[i])
	}

	again, err := New("HelloCdkStack", root).Add(reversed...).Build()
	require.NoError(t, err)
	assert.Equal(t, g.Order(), again.Order())
}

func TestBuildSimilarRoutePaths(t *testing.T) {
	root := fixtureRoot(t)
	backend := ComputeUnit{Name: "fn", Runtime: "nodejs20.x", EntryPoint: "index.handler", CodeBundle: "resources/lambda"}
	api := ApiFrontDoor{Name: "api"}

	g, err := New("s", root).Add(
		backend,
		api,
		api.Route("POST", "/a/b", backend),
		api.Route("POST", "/a-b", backend),
	).Build()
	require.NoError(t, err)

	routes := g.Routes("api")
	require.Len(t, routes, 2)
	assert.NotEqual(t, routes[0].ID(), routes[1].ID())

	ids := []string{routes[0].ID(), routes[1].ID()}
	assert.ElementsMatch(t, []string{"apiABPOST", "apiABX590BB8F6POST"}, ids)
}

func TestBuildErrors(t *testing.T) {
	unit := ComputeUnit{Name: "fn", Runtime: "nodejs20.x", EntryPoint: "index.handler", CodeBundle: "resources/lambda"}
	api := ApiFrontDoor{Name: "api"}
	bucket := StorageBucket{Name: "site", DefaultDocument: "index.html", PublicRead: true}

	tests := []struct {
		name  string
		nodes []Node
		want  string
	}{
		{
			name:  "route to undeclared compute unit",
			nodes: []Node{api, api.Route("POST", "/", ComputeUnit{Name: "ghost"})},
			want:  `references undeclared ComputeUnit "ghost"`,
		},
		{
			name:  "deployment to undeclared bucket",
			nodes: []Node{StorageBucket{Name: "other"}.Deploy("deploy", "resources/website")},
			want:  `references undeclared StorageBucket "other"`,
		},
		{
			name:  "duplicate compute unit",
			nodes: []Node{unit, unit},
			want:  `duplicate ComputeUnit "fn"`,
		},
		{
			name:  "logical id collision across kinds",
			nodes: []Node{unit, StorageBucket{Name: "fn"}},
			want:  `StorageBucket "fn" collides with ComputeUnit`,
		},
		{
			name:  "duplicate route",
			nodes: []Node{unit, api, api.Route("POST", "/", unit), ApiRoute{Api: "api", Method: "POST", Path: "/", Target: "fn"}},
			want:  `duplicate ApiRoute "apiPOST"`,
		},
		{
			name:  "missing code bundle",
			nodes: []Node{ComputeUnit{Name: "fn", Runtime: "nodejs20.x", EntryPoint: "index.handler", CodeBundle: "resources/missing"}},
			want:  "resources/missing does not exist",
		},
		{
			name:  "missing deployment source",
			nodes: []Node{bucket, bucket.Deploy("deploy", "resources/nowhere")},
			want:  "resources/nowhere does not exist",
		},
		{
			name:  "public bucket without default document",
			nodes: []Node{StorageBucket{Name: "site", PublicRead: true}},
			want:  "no default document",
		},
		{
			name:  "api without routes",
			nodes: []Node{api},
			want:  `api "api" has no routes`,
		},
		{
			name:  "proxy api",
			nodes: []Node{unit, ApiFrontDoor{Name: "api", Proxy: true}, api.Route("POST", "/", unit)},
			want:  "proxy routing is not supported",
		},
		{
			name:  "route path without leading slash",
			nodes: []Node{unit, api, api.Route("GET", "users", unit)},
			want:  "must start with /",
		},
		{
			name:  "route targets wrong kind",
			nodes: []Node{bucket, api, ApiRoute{Api: "api", Method: "GET", Path: "/", Target: "site"}},
			want:  `which is a StorageBucket, not a ComputeUnit`,
		},
		{
			name:  "bucket with two deployments",
			nodes: []Node{bucket, bucket.Deploy("one", "resources/website"), bucket.Deploy("two", "resources/website")},
			want:  `already the destination of deployment "one"`,
		},
		{
			name:  "permission without resources",
			nodes: []Node{unit.Grant([]string{"ses:SendEmail"}, nil)},
			want:  "needs at least one action and one resource",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g, err := New("Broken", fixtureRoot(t)).Add(tc.nodes...).Build()
			assert.Nil(t, g)

			got := problems(t, err)
			assert.Truef(t, containsProblem(got, tc.want), "expected a problem containing %q, got %v", tc.want, got)
			assert.Contains(t, err.Error(), "stack Broken")
		})
	}
}

func TestBuildAggregatesProblems(t *testing.T) {
	api := ApiFrontDoor{Name: "api"}

	_, err := New("Broken", fixtureRoot(t)).Add(
		api,
		api.Route("POST", "/", ComputeUnit{Name: "ghost"}),
		StorageBucket{Name: "site", PublicRead: true},
	).Build()

	got := problems(t, err)
	assert.Len(t, got, 2)
	assert.Contains(t, err.Error(), "2 configuration problems")
}

func TestGrantDoesNotAlias(t *testing.T) {
	base := ComputeUnit{Name: "fn"}.Grant([]string{"s3:GetObject"}, []string{"arn:aws:s3:::b/*"})
	first := base.Grant([]string{"ses:*"}, []string{"*"})
	second := base.Grant([]string{"sqs:SendMessage"}, []string{"*"})

	assert.Len(t, base.Permissions, 1)
	assert.Equal(t, []string{"ses:*"}, first.Permissions[1].Actions)
	assert.Equal(t, []string{"sqs:SendMessage"}, second.Permissions[1].Actions)
}

func TestWildcard(t *testing.T) {
	assert.True(t, PolicyStatement{Actions: []string{"ses:*"}, Resources: []string{"arn:x"}}.Wildcard())
	assert.True(t, PolicyStatement{Actions: []string{"ses:SendEmail"}, Resources: []string{"*"}}.Wildcard())
	assert.False(t, PolicyStatement{Actions: []string{"ses:SendEmail"}, Resources: []string{"arn:x"}}.Wildcard())
}

func TestResolve(t *testing.T) {
	site := StorageBucket{Name: "site", DefaultDocument: "index.html", PublicRead: true}

	tests := []struct {
		path string
		key  string
		ok   bool
	}{
		{"/", "index.html", true},
		{"", "index.html", true},
		{"/docs/", "docs/index.html", true},
		{"/app.js", "app.js", true},
		{"/../secret", "secret", true},
	}

	for _, tc := range tests {
		key, ok := site.Resolve(tc.path)
		assert.Equalf(t, tc.ok, ok, "path %q", tc.path)
		assert.Equalf(t, tc.key, key, "path %q", tc.path)
	}

	_, ok := StorageBucket{Name: "private", DefaultDocument: "index.html"}.Resolve("/")
	assert.False(t, ok)
}

func TestPathID(t *testing.T) {
	assert.Equal(t, "", pathID("/"))
	assert.Equal(t, "V1Items", pathID("/v1/items"))
	assert.Equal(t, "UsersIdX743C7B1E", pathID("/users/{id}"))
	assert.Equal(t, "AB", pathID("/a/b"))
	assert.Equal(t, "ABX590BB8F6", pathID("/a-b"))
	assert.NotEqual(t, pathID("/a"), pathID("/a/"))
	assert.NotEqual(t, pathID("/Users"), pathID("/users"))
}

func containsProblem(problems []string, want string) bool {
	for _, p := range problems {
		if strings.Contains(p, want) {
			return true
		}
	}
	return false
}
