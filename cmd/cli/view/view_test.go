package view

import (
	"strings"
	"testing"
	"time"

	"github.com/linecard/hellocdk/pkg/asset"
	"github.com/linecard/hellocdk/pkg/convention/website"
	"github.com/linecard/hellocdk/pkg/engine/direct"
	"github.com/linecard/hellocdk/pkg/stack"
	"github.com/linecard/hellocdk/pkg/topology"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlan(t *testing.T) {
	g, err := stack.Hello("", "../../..")
	require.NoError(t, err)

	rendered := Plan(g)

	for _, id := range g.Order() {
		assert.Contains(t, rendered, id)
	}
	assert.Contains(t, rendered, "wildcard grant")
	assert.Contains(t, rendered, "public read")
	assert.Less(t, strings.Index(rendered, stack.BucketName), strings.Index(rendered, stack.DeploymentName))
}

func TestOutputs(t *testing.T) {
	rendered := Outputs([]direct.Output{{Node: stack.ApiName, Key: "Endpoint", Value: "https://abc123.execute-api.us-west-2.amazonaws.com"}})
	assert.Contains(t, rendered, "Endpoint")
	assert.Contains(t, rendered, "https://abc123.execute-api.us-west-2.amazonaws.com")
}

func TestSyncPlan(t *testing.T) {
	step := topology.DeploymentStep{Name: stack.DeploymentName, Source: stack.WebsiteBundle, Destination: stack.BucketName}

	assert.Equal(t, "DeployWebsite: 2 objects up to date", SyncPlan(step, website.Plan{Unchanged: 2}))

	rendered := SyncPlan(step, website.Plan{
		Upload: []asset.File{{Key: "index.html"}},
		Delete: []string{"old.html"},
	})
	assert.Contains(t, rendered, "upload")
	assert.Contains(t, rendered, "index.html")
	assert.Contains(t, rendered, "old.html")
}

func TestStatus(t *testing.T) {
	rendered := Status([]StatusRow{
		{Node: stack.FunctionName, Kind: topology.KindComputeUnit, Physical: "arn:aws:lambda:us-west-2:123456789012:function:hellocdkstack-mycdkfunction", Revision: "0123456789abcdef"},
		{Node: stack.BucketName, Kind: topology.KindStorageBucket},
	})
	assert.Contains(t, rendered, "hellocdkstack-mycdkfunction")
	assert.Contains(t, rendered, "not deployed")
	assert.Contains(t, rendered, "01234567")
	assert.NotContains(t, rendered, "0123456789")
}

func TestSince(t *testing.T) {
	assert.Empty(t, Since(""))
	assert.NotEmpty(t, Since("2024-07-01T12:00:00"))
	assert.Contains(t, SinceTime(time.Now().Add(-2*time.Hour)), "2 hours")
}
