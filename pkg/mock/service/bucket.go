package mock

import (
	"context"
	"io"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/mock"
)

// MockBucketService is a mock of BucketService interface
type MockBucketService struct {
	mock.Mock
}

func (m *MockBucketService) Exists(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

func (m *MockBucketService) PutBucket(ctx context.Context, name string, tags map[string]string) error {
	args := m.Called(ctx, name, tags)
	return args.Error(0)
}

func (m *MockBucketService) PutWebsite(ctx context.Context, name, indexDocument string) error {
	args := m.Called(ctx, name, indexDocument)
	return args.Error(0)
}

func (m *MockBucketService) Website(ctx context.Context, name string) (string, error) {
	args := m.Called(ctx, name)
	return args.String(0), args.Error(1)
}

func (m *MockBucketService) PutPublicRead(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

func (m *MockBucketService) List(ctx context.Context, name string) ([]types.Object, error) {
	args := m.Called(ctx, name)
	return args.Get(0).([]types.Object), args.Error(1)
}

func (m *MockBucketService) Put(ctx context.Context, name, key string, body io.Reader, size int64, contentType string) error {
	args := m.Called(ctx, name, key, body, size, contentType)
	return args.Error(0)
}

func (m *MockBucketService) Delete(ctx context.Context, name string, keys []string) error {
	args := m.Called(ctx, name, keys)
	return args.Error(0)
}

func (m *MockBucketService) DeleteBucket(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}
