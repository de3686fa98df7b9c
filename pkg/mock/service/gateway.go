package mock

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/apigatewayv2/types"
	"github.com/stretchr/testify/mock"
)

// MockGatewayService is a mock of GatewayService interface
type MockGatewayService struct {
	mock.Mock
}

func (m *MockGatewayService) FindApi(ctx context.Context, name string) (*types.Api, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(*types.Api), args.Error(1)
}

func (m *MockGatewayService) PutApi(ctx context.Context, name string, tags map[string]string) (*types.Api, error) {
	args := m.Called(ctx, name, tags)
	return args.Get(0).(*types.Api), args.Error(1)
}

func (m *MockGatewayService) PutStage(ctx context.Context, apiId string) error {
	args := m.Called(ctx, apiId)
	return args.Error(0)
}

func (m *MockGatewayService) DeleteApi(ctx context.Context, apiId string) error {
	args := m.Called(ctx, apiId)
	return args.Error(0)
}

func (m *MockGatewayService) PutIntegration(ctx context.Context, apiId, lambdaArn string) (*types.Integration, error) {
	args := m.Called(ctx, apiId, lambdaArn)
	return args.Get(0).(*types.Integration), args.Error(1)
}

func (m *MockGatewayService) PutRoute(ctx context.Context, apiId, integrationId, routeKey string) (*types.Route, error) {
	args := m.Called(ctx, apiId, integrationId, routeKey)
	return args.Get(0).(*types.Route), args.Error(1)
}

func (m *MockGatewayService) PutLambdaPermission(ctx context.Context, apiId, lambdaArn, routeKey string) error {
	args := m.Called(ctx, apiId, lambdaArn, routeKey)
	return args.Error(0)
}

func (m *MockGatewayService) DeleteIntegration(ctx context.Context, apiId string, route types.Route) error {
	args := m.Called(ctx, apiId, route)
	return args.Error(0)
}

func (m *MockGatewayService) DeleteRoute(ctx context.Context, apiId string, route types.Route) error {
	args := m.Called(ctx, apiId, route)
	return args.Error(0)
}

func (m *MockGatewayService) DeleteLambdaPermission(ctx context.Context, lambdaArn, routeKey string) error {
	args := m.Called(ctx, lambdaArn, routeKey)
	return args.Error(0)
}

func (m *MockGatewayService) GetRoutes(ctx context.Context, apiId string) ([]types.Route, error) {
	args := m.Called(ctx, apiId)
	return args.Get(0).([]types.Route), args.Error(1)
}
