package frontdoor

import (
	"context"
	"fmt"
	"testing"

	"github.com/linecard/hellocdk/pkg/convention/config"
	servicemock "github.com/linecard/hellocdk/pkg/mock/service"
	"github.com/linecard/hellocdk/pkg/topology"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/apigatewayv2/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestFrontDoor(t *testing.T) {
	ctx := context.Background()

	cfg := config.Config{
		Stack:   "HelloCdkStack",
		Account: config.Account{Id: "123456789012", Region: "us-west-2"},
	}

	fn := topology.ComputeUnit{Name: "myCDKFunction"}
	api := topology.ApiFrontDoor{Name: "myCDKAPI"}
	post := api.Route("post", "/", fn)

	lambdaArn := "arn:aws:lambda:us-west-2:123456789012:function:hellocdkstack-mycdkfunction"
	deployed := &types.Api{
		ApiId:       aws.String("abc123"),
		Name:        aws.String("hellocdkstack-mycdkapi"),
		ApiEndpoint: aws.String("https://abc123.execute-api.us-west-2.amazonaws.com"),
	}

	stale := types.Route{RouteId: aws.String("r9"), RouteKey: aws.String("GET /old"), Target: aws.String("integrations/i9")}
	current := types.Route{RouteId: aws.String("r1"), RouteKey: aws.String("POST /"), Target: aws.String("integrations/i1")}

	tests := []struct {
		name  string
		setup func(*servicemock.MockGatewayService)
		test  func(*testing.T, *servicemock.MockGatewayService)
	}{
		{
			name: "convention.Converge ensures api and stage then prunes undeclared routes.",
			setup: func(mgs *servicemock.MockGatewayService) {
				mgs.On("PutApi", mock.Anything, "hellocdkstack-mycdkapi", mock.MatchedBy(func(tags map[string]string) bool {
					return tags["LogicalId"] == "myCDKAPI" && tags["Stack"] == "HelloCdkStack"
				})).Return(deployed, nil)
				mgs.On("PutStage", mock.Anything, "abc123").Return(nil)
				mgs.On("GetRoutes", mock.Anything, "abc123").Return([]types.Route{current, stale}, nil)
				mgs.On("DeleteRoute", mock.Anything, "abc123", stale).Return(nil)
				mgs.On("DeleteIntegration", mock.Anything, "abc123", stale).Return(nil)
			},
			test: func(t *testing.T, mgs *servicemock.MockGatewayService) {
				got, err := FromServices(cfg, mgs).Converge(ctx, api, []topology.ApiRoute{post})

				require.NoError(t, err)
				assert.Equal(t, "https://abc123.execute-api.us-west-2.amazonaws.com", got.Endpoint())
				mgs.AssertNotCalled(t, "DeleteRoute", mock.Anything, "abc123", current)
				mgs.AssertNotCalled(t, "DeleteLambdaPermission", mock.Anything, mock.Anything, mock.Anything)
				mgs.AssertExpectations(t)
			},
		},
		{
			name:  "convention.Converge refuses proxy apis.",
			setup: func(mgs *servicemock.MockGatewayService) {},
			test: func(t *testing.T, mgs *servicemock.MockGatewayService) {
				_, err := FromServices(cfg, mgs).Converge(ctx, topology.ApiFrontDoor{Name: "proxy", Proxy: true}, nil)

				assert.Error(t, err)
				mgs.AssertNotCalled(t, "PutApi", mock.Anything, mock.Anything, mock.Anything)
			},
		},
		{
			name: "convention.Mount wires integration, route and permission.",
			setup: func(mgs *servicemock.MockGatewayService) {
				mgs.On("PutIntegration", mock.Anything, "abc123", lambdaArn).Return(&types.Integration{IntegrationId: aws.String("i1")}, nil)
				mgs.On("PutRoute", mock.Anything, "abc123", "i1", "POST /").Return(&current, nil)
				mgs.On("PutLambdaPermission", mock.Anything, "abc123", lambdaArn, "POST /").Return(nil)
			},
			test: func(t *testing.T, mgs *servicemock.MockGatewayService) {
				err := FromServices(cfg, mgs).Mount(ctx, "abc123", post, lambdaArn)

				assert.NoError(t, err)
				mgs.AssertExpectations(t)
			},
		},
		{
			name: "convention.Mount stops when the integration fails.",
			setup: func(mgs *servicemock.MockGatewayService) {
				mgs.On("PutIntegration", mock.Anything, "abc123", lambdaArn).Return((*types.Integration)(nil), fmt.Errorf("TooManyRequestsException"))
			},
			test: func(t *testing.T, mgs *servicemock.MockGatewayService) {
				err := FromServices(cfg, mgs).Mount(ctx, "abc123", post, lambdaArn)

				assert.EqualError(t, err, "TooManyRequestsException")
				mgs.AssertNotCalled(t, "PutRoute", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			},
		},
		{
			name: "convention.Destroy revokes permissions of known targets and deletes the api.",
			setup: func(mgs *servicemock.MockGatewayService) {
				mgs.On("FindApi", mock.Anything, "hellocdkstack-mycdkapi").Return(deployed, nil)
				mgs.On("GetRoutes", mock.Anything, "abc123").Return([]types.Route{current}, nil)
				mgs.On("DeleteRoute", mock.Anything, "abc123", current).Return(nil)
				mgs.On("DeleteLambdaPermission", mock.Anything, lambdaArn, "POST /").Return(nil)
				mgs.On("DeleteIntegration", mock.Anything, "abc123", current).Return(nil)
				mgs.On("DeleteApi", mock.Anything, "abc123").Return(nil)
			},
			test: func(t *testing.T, mgs *servicemock.MockGatewayService) {
				err := FromServices(cfg, mgs).Destroy(ctx, api, map[string]string{"POST /": lambdaArn})

				assert.NoError(t, err)
				mgs.AssertExpectations(t)
			},
		},
		{
			name: "convention.Destroy of a missing api is a no-op.",
			setup: func(mgs *servicemock.MockGatewayService) {
				mgs.On("FindApi", mock.Anything, "hellocdkstack-mycdkapi").Return((*types.Api)(nil), nil)
			},
			test: func(t *testing.T, mgs *servicemock.MockGatewayService) {
				err := FromServices(cfg, mgs).Destroy(ctx, api, nil)

				assert.NoError(t, err)
				mgs.AssertNotCalled(t, "DeleteApi", mock.Anything, mock.Anything)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mgs := &servicemock.MockGatewayService{}
			tc.setup(mgs)
			tc.test(t, mgs)
		})
	}
}
