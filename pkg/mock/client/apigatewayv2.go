package mocks

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/apigatewayv2"
	"github.com/stretchr/testify/mock"
)

type MockApiGatewayV2Client struct {
	mock.Mock
}

func (m *MockApiGatewayV2Client) GetApis(ctx context.Context, params *apigatewayv2.GetApisInput, optFns ...func(*apigatewayv2.Options)) (*apigatewayv2.GetApisOutput, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(*apigatewayv2.GetApisOutput), args.Error(1)
}

func (m *MockApiGatewayV2Client) CreateApi(ctx context.Context, params *apigatewayv2.CreateApiInput, optFns ...func(*apigatewayv2.Options)) (*apigatewayv2.CreateApiOutput, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(*apigatewayv2.CreateApiOutput), args.Error(1)
}

func (m *MockApiGatewayV2Client) DeleteApi(ctx context.Context, params *apigatewayv2.DeleteApiInput, optFns ...func(*apigatewayv2.Options)) (*apigatewayv2.DeleteApiOutput, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(*apigatewayv2.DeleteApiOutput), args.Error(1)
}

func (m *MockApiGatewayV2Client) CreateIntegration(ctx context.Context, params *apigatewayv2.CreateIntegrationInput, optFns ...func(*apigatewayv2.Options)) (*apigatewayv2.CreateIntegrationOutput, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(*apigatewayv2.CreateIntegrationOutput), args.Error(1)
}

func (m *MockApiGatewayV2Client) UpdateIntegration(ctx context.Context, params *apigatewayv2.UpdateIntegrationInput, optFns ...func(*apigatewayv2.Options)) (*apigatewayv2.UpdateIntegrationOutput, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(*apigatewayv2.UpdateIntegrationOutput), args.Error(1)
}

func (m *MockApiGatewayV2Client) GetIntegrations(ctx context.Context, params *apigatewayv2.GetIntegrationsInput, optFns ...func(*apigatewayv2.Options)) (*apigatewayv2.GetIntegrationsOutput, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(*apigatewayv2.GetIntegrationsOutput), args.Error(1)
}

func (m *MockApiGatewayV2Client) DeleteIntegration(ctx context.Context, params *apigatewayv2.DeleteIntegrationInput, optFns ...func(*apigatewayv2.Options)) (*apigatewayv2.DeleteIntegrationOutput, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(*apigatewayv2.DeleteIntegrationOutput), args.Error(1)
}

func (m *MockApiGatewayV2Client) CreateRoute(ctx context.Context, params *apigatewayv2.CreateRouteInput, optFns ...func(*apigatewayv2.Options)) (*apigatewayv2.CreateRouteOutput, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(*apigatewayv2.CreateRouteOutput), args.Error(1)
}

func (m *MockApiGatewayV2Client) UpdateRoute(ctx context.Context, params *apigatewayv2.UpdateRouteInput, optFns ...func(*apigatewayv2.Options)) (*apigatewayv2.UpdateRouteOutput, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(*apigatewayv2.UpdateRouteOutput), args.Error(1)
}

func (m *MockApiGatewayV2Client) GetRoutes(ctx context.Context, params *apigatewayv2.GetRoutesInput, optFns ...func(*apigatewayv2.Options)) (*apigatewayv2.GetRoutesOutput, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(*apigatewayv2.GetRoutesOutput), args.Error(1)
}

func (m *MockApiGatewayV2Client) DeleteRoute(ctx context.Context, params *apigatewayv2.DeleteRouteInput, optFns ...func(*apigatewayv2.Options)) (*apigatewayv2.DeleteRouteOutput, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(*apigatewayv2.DeleteRouteOutput), args.Error(1)
}

func (m *MockApiGatewayV2Client) CreateStage(ctx context.Context, params *apigatewayv2.CreateStageInput, optFns ...func(*apigatewayv2.Options)) (*apigatewayv2.CreateStageOutput, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(*apigatewayv2.CreateStageOutput), args.Error(1)
}
