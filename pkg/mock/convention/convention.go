package mock

import (
	"context"

	"github.com/linecard/hellocdk/pkg/convention/compute"
	"github.com/linecard/hellocdk/pkg/convention/frontdoor"
	"github.com/linecard/hellocdk/pkg/convention/website"
	"github.com/linecard/hellocdk/pkg/topology"

	"github.com/stretchr/testify/mock"
)

type MockComputeConvention struct {
	mock.Mock
}

func (m *MockComputeConvention) Find(ctx context.Context, unit topology.ComputeUnit) (compute.Deployment, error) {
	args := m.Called(ctx, unit)
	return args.Get(0).(compute.Deployment), args.Error(1)
}

func (m *MockComputeConvention) Deploy(ctx context.Context, unit topology.ComputeUnit, codeDir string) (compute.Deployment, error) {
	args := m.Called(ctx, unit, codeDir)
	return args.Get(0).(compute.Deployment), args.Error(1)
}

func (m *MockComputeConvention) Destroy(ctx context.Context, unit topology.ComputeUnit) error {
	args := m.Called(ctx, unit)
	return args.Error(0)
}

type MockFrontDoorConvention struct {
	mock.Mock
}

func (m *MockFrontDoorConvention) Find(ctx context.Context, api topology.ApiFrontDoor) (frontdoor.Api, bool, error) {
	args := m.Called(ctx, api)
	return args.Get(0).(frontdoor.Api), args.Bool(1), args.Error(2)
}

func (m *MockFrontDoorConvention) Converge(ctx context.Context, api topology.ApiFrontDoor, declared []topology.ApiRoute) (frontdoor.Api, error) {
	args := m.Called(ctx, api, declared)
	return args.Get(0).(frontdoor.Api), args.Error(1)
}

func (m *MockFrontDoorConvention) Mount(ctx context.Context, apiId string, route topology.ApiRoute, lambdaArn string) error {
	args := m.Called(ctx, apiId, route, lambdaArn)
	return args.Error(0)
}

func (m *MockFrontDoorConvention) Destroy(ctx context.Context, api topology.ApiFrontDoor, targets map[string]string) error {
	args := m.Called(ctx, api, targets)
	return args.Error(0)
}

type MockWebsiteConvention struct {
	mock.Mock
}

func (m *MockWebsiteConvention) Find(ctx context.Context, bucket topology.StorageBucket) (website.Site, bool, error) {
	args := m.Called(ctx, bucket)
	return args.Get(0).(website.Site), args.Bool(1), args.Error(2)
}

func (m *MockWebsiteConvention) Converge(ctx context.Context, bucket topology.StorageBucket) (website.Site, error) {
	args := m.Called(ctx, bucket)
	return args.Get(0).(website.Site), args.Error(1)
}

func (m *MockWebsiteConvention) Sync(ctx context.Context, step topology.DeploymentStep, sourceDir string) (website.Plan, error) {
	args := m.Called(ctx, step, sourceDir)
	return args.Get(0).(website.Plan), args.Error(1)
}

func (m *MockWebsiteConvention) Destroy(ctx context.Context, bucket topology.StorageBucket) error {
	args := m.Called(ctx, bucket)
	return args.Error(0)
}
