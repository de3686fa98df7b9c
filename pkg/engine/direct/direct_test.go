package direct

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/linecard/hellocdk/pkg/convention/compute"
	"github.com/linecard/hellocdk/pkg/convention/frontdoor"
	"github.com/linecard/hellocdk/pkg/convention/website"
	"github.com/linecard/hellocdk/pkg/engine"
	conventionmock "github.com/linecard/hellocdk/pkg/mock/convention"
	servicemock "github.com/linecard/hellocdk/pkg/mock/service"
	"github.com/linecard/hellocdk/pkg/stack"
	"github.com/linecard/hellocdk/pkg/topology"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/apigatewayv2/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const projectRoot = "../../.."

type recorder struct {
	sync.Mutex
	calls []string
}

func (r *recorder) record(call string) func(mock.Arguments) {
	return func(mock.Arguments) {
		r.Lock()
		defer r.Unlock()
		r.calls = append(r.calls, call)
	}
}

func (r *recorder) index(call string) int {
	for i, c := range r.calls {
		if c == call {
			return i
		}
	}
	return -1
}

func TestDirect(t *testing.T) {
	ctx := context.Background()

	g, err := stack.Hello("", projectRoot)
	require.NoError(t, err)

	fn, _ := g.ComputeUnit(stack.FunctionName)
	bucket, _ := g.Bucket(stack.BucketName)
	step := g.Deployments()[0]
	api := g.Apis()[0]
	route := g.Routes(stack.ApiName)[0]

	lambdaArn := "arn:aws:lambda:us-west-2:123456789012:function:hellocdkstack-mycdkfunction"
	deployment := compute.Deployment{GetFunctionOutput: *servicemock.MockGetFunctionOutput("123456789012", "hellocdkstack-mycdkfunction")}
	deployedApi := frontdoor.Api{Api: types.Api{ApiId: aws.String("abc123"), ApiEndpoint: aws.String("https://abc123.execute-api.us-west-2.amazonaws.com")}}
	site := website.Site{Bucket: "hellocdkstack-websitebucket-123456789012", URL: "http://hellocdkstack-websitebucket-123456789012.s3-website-us-west-2.amazonaws.com"}

	tests := []struct {
		name  string
		setup func(*recorder, *conventionmock.MockComputeConvention, *conventionmock.MockFrontDoorConvention, *conventionmock.MockWebsiteConvention)
		test  func(*testing.T, *Engine, *recorder, *conventionmock.MockComputeConvention, *conventionmock.MockFrontDoorConvention, *conventionmock.MockWebsiteConvention)
	}{
		{
			name: "Run provisions every node after its references.",
			setup: func(r *recorder, mc *conventionmock.MockComputeConvention, mf *conventionmock.MockFrontDoorConvention, mw *conventionmock.MockWebsiteConvention) {
				mc.On("Deploy", mock.Anything, fn, g.Asset(stack.LambdaBundle)).Run(r.record("deploy")).Return(deployment, nil)
				mf.On("Converge", mock.Anything, api, []topology.ApiRoute{route}).Run(r.record("api")).Return(deployedApi, nil)
				mf.On("Mount", mock.Anything, "abc123", route, lambdaArn).Run(r.record("mount")).Return(nil)
				mw.On("Converge", mock.Anything, bucket).Run(r.record("bucket")).Return(site, nil)
				mw.On("Sync", mock.Anything, step, g.Asset(stack.WebsiteBundle)).Run(r.record("sync")).Return(website.Plan{}, nil)
			},
			test: func(t *testing.T, e *Engine, r *recorder, mc *conventionmock.MockComputeConvention, mf *conventionmock.MockFrontDoorConvention, mw *conventionmock.MockWebsiteConvention) {
				require.NoError(t, e.Run(ctx, g))

				assert.Len(t, r.calls, 5)
				assert.Less(t, r.index("deploy"), r.index("mount"))
				assert.Less(t, r.index("api"), r.index("mount"))
				assert.Less(t, r.index("bucket"), r.index("sync"))

				assert.Equal(t, []Output{
					{Node: stack.BucketName, Key: "WebsiteURL", Value: site.URL},
					{Node: stack.ApiName, Key: "Endpoint", Value: "https://abc123.execute-api.us-west-2.amazonaws.com"},
				}, e.SortedOutputs())
			},
		},
		{
			name: "Run stops at the first failure and names the node.",
			setup: func(r *recorder, mc *conventionmock.MockComputeConvention, mf *conventionmock.MockFrontDoorConvention, mw *conventionmock.MockWebsiteConvention) {
				mc.On("Deploy", mock.Anything, fn, mock.Anything).Return(compute.Deployment{}, fmt.Errorf("create role: %w", &smithy.GenericAPIError{Code: "AccessDenied", Message: "not allowed"}))
				mf.On("Converge", mock.Anything, api, mock.Anything).Return(deployedApi, nil)
				mw.On("Converge", mock.Anything, bucket).Return(site, nil)
			},
			test: func(t *testing.T, e *Engine, r *recorder, mc *conventionmock.MockComputeConvention, mf *conventionmock.MockFrontDoorConvention, mw *conventionmock.MockWebsiteConvention) {
				err := e.Run(ctx, g)

				var perr *engine.ProvisioningError
				require.ErrorAs(t, err, &perr)
				assert.Equal(t, Name, perr.Engine)
				assert.Equal(t, stack.FunctionName, perr.Node)
				assert.Equal(t, engine.PermissionDenied, perr.Kind())
				assert.Equal(t, "create role: api error AccessDenied: not allowed", err.Error())
				mf.AssertNotCalled(t, "Mount", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			},
		},
		{
			name: "Sync requires a deployed bucket.",
			setup: func(r *recorder, mc *conventionmock.MockComputeConvention, mf *conventionmock.MockFrontDoorConvention, mw *conventionmock.MockWebsiteConvention) {
				mw.On("Find", mock.Anything, bucket).Return(website.Site{}, false, nil)
			},
			test: func(t *testing.T, e *Engine, r *recorder, mc *conventionmock.MockComputeConvention, mf *conventionmock.MockFrontDoorConvention, mw *conventionmock.MockWebsiteConvention) {
				err := e.Sync(ctx, g)

				var perr *engine.ProvisioningError
				require.ErrorAs(t, err, &perr)
				assert.Equal(t, stack.DeploymentName, perr.Node)
				mw.AssertNotCalled(t, "Sync", mock.Anything, mock.Anything, mock.Anything)
			},
		},
		{
			name: "Sync only runs deployment steps.",
			setup: func(r *recorder, mc *conventionmock.MockComputeConvention, mf *conventionmock.MockFrontDoorConvention, mw *conventionmock.MockWebsiteConvention) {
				mw.On("Find", mock.Anything, bucket).Return(site, true, nil)
				mw.On("Sync", mock.Anything, step, g.Asset(stack.WebsiteBundle)).Return(website.Plan{Unchanged: 1}, nil)
			},
			test: func(t *testing.T, e *Engine, r *recorder, mc *conventionmock.MockComputeConvention, mf *conventionmock.MockFrontDoorConvention, mw *conventionmock.MockWebsiteConvention) {
				require.NoError(t, e.Sync(ctx, g))

				mc.AssertNotCalled(t, "Deploy", mock.Anything, mock.Anything, mock.Anything)
				mf.AssertNotCalled(t, "Converge", mock.Anything, mock.Anything, mock.Anything)
				mw.AssertNotCalled(t, "Converge", mock.Anything, mock.Anything)
			},
		},
		{
			name: "Destroy tears down in reverse order.",
			setup: func(r *recorder, mc *conventionmock.MockComputeConvention, mf *conventionmock.MockFrontDoorConvention, mw *conventionmock.MockWebsiteConvention) {
				mc.On("Find", mock.Anything, fn).Return(deployment, nil)
				mc.On("Destroy", mock.Anything, fn).Run(r.record("function")).Return(nil)
				mf.On("Destroy", mock.Anything, api, map[string]string{"POST /": lambdaArn}).Run(r.record("api")).Return(nil)
				mw.On("Destroy", mock.Anything, bucket).Run(r.record("bucket")).Return(nil)
			},
			test: func(t *testing.T, e *Engine, r *recorder, mc *conventionmock.MockComputeConvention, mf *conventionmock.MockFrontDoorConvention, mw *conventionmock.MockWebsiteConvention) {
				require.NoError(t, e.Destroy(ctx, g))

				order := g.Order()
				var expected []string
				for i := len(order) - 1; i >= 0; i-- {
					switch order[i] {
					case stack.FunctionName:
						expected = append(expected, "function")
					case stack.ApiName:
						expected = append(expected, "api")
					case stack.BucketName:
						expected = append(expected, "bucket")
					}
				}
				assert.Equal(t, expected, r.calls)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := &recorder{}
			mc := &conventionmock.MockComputeConvention{}
			mf := &conventionmock.MockFrontDoorConvention{}
			mw := &conventionmock.MockWebsiteConvention{}
			tc.setup(r, mc, mf, mw)
			tc.test(t, New(mc, mf, mw), r, mc, mf, mw)
		})
	}
}
