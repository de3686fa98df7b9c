package mock

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/stretchr/testify/mock"
)

// MockFunctionService is a mock of FunctionService interface
type MockFunctionService struct {
	mock.Mock
}

func (m *MockFunctionService) Inspect(ctx context.Context, name string) (*lambda.GetFunctionOutput, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(*lambda.GetFunctionOutput), args.Error(1)
}

func (m *MockFunctionService) PutPolicy(ctx context.Context, arn string, document string, tags map[string]string) (*iam.GetPolicyOutput, error) {
	args := m.Called(ctx, arn, document, tags)
	return args.Get(0).(*iam.GetPolicyOutput), args.Error(1)
}

func (m *MockFunctionService) DeletePolicy(ctx context.Context, arn string) (*iam.DeletePolicyOutput, error) {
	args := m.Called(ctx, arn)
	return args.Get(0).(*iam.DeletePolicyOutput), args.Error(1)
}

func (m *MockFunctionService) PutRole(ctx context.Context, name string, document string, tags map[string]string) (*iam.GetRoleOutput, error) {
	args := m.Called(ctx, name, document, tags)
	return args.Get(0).(*iam.GetRoleOutput), args.Error(1)
}

func (m *MockFunctionService) DeleteRole(ctx context.Context, name string) (*iam.DeleteRoleOutput, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(*iam.DeleteRoleOutput), args.Error(1)
}

func (m *MockFunctionService) AttachPolicyToRole(ctx context.Context, policyArn, roleName string) (*iam.AttachRolePolicyOutput, error) {
	args := m.Called(ctx, policyArn, roleName)
	return args.Get(0).(*iam.AttachRolePolicyOutput), args.Error(1)
}

func (m *MockFunctionService) DetachPolicyFromRole(ctx context.Context, policyArn, roleName string) (*iam.DetachRolePolicyOutput, error) {
	args := m.Called(ctx, policyArn, roleName)
	return args.Get(0).(*iam.DetachRolePolicyOutput), args.Error(1)
}

func (m *MockFunctionService) GetRolePolicies(ctx context.Context, name string) (*iam.ListAttachedRolePoliciesOutput, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(*iam.ListAttachedRolePoliciesOutput), args.Error(1)
}

func (m *MockFunctionService) PutFunction(ctx context.Context, put *lambda.CreateFunctionInput) (*lambda.GetFunctionOutput, error) {
	args := m.Called(ctx, put)
	return args.Get(0).(*lambda.GetFunctionOutput), args.Error(1)
}

func (m *MockFunctionService) DeleteFunction(ctx context.Context, name string) (*lambda.DeleteFunctionOutput, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(*lambda.DeleteFunctionOutput), args.Error(1)
}

func MockGetFunctionOutput(account, name string) *lambda.GetFunctionOutput {
	return &lambda.GetFunctionOutput{
		Configuration: &types.FunctionConfiguration{
			FunctionName: aws.String(name),
			FunctionArn:  aws.String("arn:aws:lambda:us-west-2:" + account + ":function:" + name),
			Role:         aws.String("arn:aws:iam::" + account + ":role/" + name),
			Runtime:      types.RuntimeNodejs20x,
			Handler:      aws.String("index.handler"),
			LastModified: aws.String("2024-07-01T12:00:00.000+0000"),
		},
		Tags: map[string]string{"Stack": "HelloCdkStack"},
	}
}

func MockGetRoleOutput(account, name string) *iam.GetRoleOutput {
	return &iam.GetRoleOutput{
		Role: &iamtypes.Role{
			RoleName: aws.String(name),
			Arn:      aws.String("arn:aws:iam::" + account + ":role/" + name),
		},
	}
}

func MockGetPolicyOutput(account, name string) *iam.GetPolicyOutput {
	return &iam.GetPolicyOutput{
		Policy: &iamtypes.Policy{
			PolicyName: aws.String(name),
			Arn:        aws.String("arn:aws:iam::" + account + ":policy/" + name),
		},
	}
}
