package mocks

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/stretchr/testify/mock"
)

type MockIamClient struct {
	mock.Mock
}

func (m *MockIamClient) GetPolicy(ctx context.Context, params *iam.GetPolicyInput, optFns ...func(*iam.Options)) (*iam.GetPolicyOutput, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(*iam.GetPolicyOutput), args.Error(1)
}

func (m *MockIamClient) CreatePolicy(ctx context.Context, params *iam.CreatePolicyInput, optFns ...func(*iam.Options)) (*iam.CreatePolicyOutput, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(*iam.CreatePolicyOutput), args.Error(1)
}

func (m *MockIamClient) DeletePolicy(ctx context.Context, params *iam.DeletePolicyInput, optFns ...func(*iam.Options)) (*iam.DeletePolicyOutput, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(*iam.DeletePolicyOutput), args.Error(1)
}

func (m *MockIamClient) ListPolicyVersions(ctx context.Context, params *iam.ListPolicyVersionsInput, optFns ...func(*iam.Options)) (*iam.ListPolicyVersionsOutput, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(*iam.ListPolicyVersionsOutput), args.Error(1)
}

func (m *MockIamClient) CreatePolicyVersion(ctx context.Context, params *iam.CreatePolicyVersionInput, optFns ...func(*iam.Options)) (*iam.CreatePolicyVersionOutput, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(*iam.CreatePolicyVersionOutput), args.Error(1)
}

func (m *MockIamClient) DeletePolicyVersion(ctx context.Context, params *iam.DeletePolicyVersionInput, optFns ...func(*iam.Options)) (*iam.DeletePolicyVersionOutput, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(*iam.DeletePolicyVersionOutput), args.Error(1)
}

func (m *MockIamClient) CreateRole(ctx context.Context, params *iam.CreateRoleInput, optFns ...func(*iam.Options)) (*iam.CreateRoleOutput, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(*iam.CreateRoleOutput), args.Error(1)
}

func (m *MockIamClient) GetRole(ctx context.Context, params *iam.GetRoleInput, optFns ...func(*iam.Options)) (*iam.GetRoleOutput, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(*iam.GetRoleOutput), args.Error(1)
}

func (m *MockIamClient) DeleteRole(ctx context.Context, params *iam.DeleteRoleInput, optFns ...func(*iam.Options)) (*iam.DeleteRoleOutput, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(*iam.DeleteRoleOutput), args.Error(1)
}

func (m *MockIamClient) UpdateAssumeRolePolicy(ctx context.Context, params *iam.UpdateAssumeRolePolicyInput, optFns ...func(*iam.Options)) (*iam.UpdateAssumeRolePolicyOutput, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(*iam.UpdateAssumeRolePolicyOutput), args.Error(1)
}

func (m *MockIamClient) TagRole(ctx context.Context, params *iam.TagRoleInput, optFns ...func(*iam.Options)) (*iam.TagRoleOutput, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(*iam.TagRoleOutput), args.Error(1)
}

func (m *MockIamClient) ListAttachedRolePolicies(ctx context.Context, params *iam.ListAttachedRolePoliciesInput, optFns ...func(*iam.Options)) (*iam.ListAttachedRolePoliciesOutput, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(*iam.ListAttachedRolePoliciesOutput), args.Error(1)
}

func (m *MockIamClient) AttachRolePolicy(ctx context.Context, params *iam.AttachRolePolicyInput, optFns ...func(*iam.Options)) (*iam.AttachRolePolicyOutput, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(*iam.AttachRolePolicyOutput), args.Error(1)
}

func (m *MockIamClient) DetachRolePolicy(ctx context.Context, params *iam.DetachRolePolicyInput, optFns ...func(*iam.Options)) (*iam.DetachRolePolicyOutput, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(*iam.DetachRolePolicyOutput), args.Error(1)
}
