package function

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/smithy-go"
)

func (s Service) GetRole(ctx context.Context, name string) (*iam.GetRoleOutput, error) {
	getRoleInput := &iam.GetRoleInput{
		RoleName: aws.String(name),
	}
	return s.Client.Iam.GetRole(ctx, getRoleInput)
}

func (s Service) GetRolePolicies(ctx context.Context, name string) (*iam.ListAttachedRolePoliciesOutput, error) {
	getRolePoliciesInput := &iam.ListAttachedRolePoliciesInput{
		RoleName: aws.String(name),
	}
	return s.Client.Iam.ListAttachedRolePolicies(ctx, getRolePoliciesInput)
}

func (s Service) DeleteRole(ctx context.Context, name string) (*iam.DeleteRoleOutput, error) {
	deleteRoleInput := &iam.DeleteRoleInput{
		RoleName: aws.String(name),
	}
	return s.Client.Iam.DeleteRole(ctx, deleteRoleInput)
}

// PutRole creates the role or, when it exists, replaces its trust policy and
// tags.
func (s Service) PutRole(ctx context.Context, name string, document string, tags map[string]string) (*iam.GetRoleOutput, error) {
	var apiErr smithy.APIError

	createRoleInput := iam.CreateRoleInput{
		RoleName:                 aws.String(name),
		AssumeRolePolicyDocument: aws.String(document),
		Tags:                     iamTags(tags),
	}

	_, err := s.Client.Iam.CreateRole(ctx, &createRoleInput)
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "EntityAlreadyExists":
			updateAssumeRolePolicyInput := iam.UpdateAssumeRolePolicyInput{
				RoleName:       aws.String(name),
				PolicyDocument: aws.String(document),
			}

			if _, err := s.Client.Iam.UpdateAssumeRolePolicy(ctx, &updateAssumeRolePolicyInput); err != nil {
				return &iam.GetRoleOutput{}, err
			}

			if len(tags) > 0 {
				tagRoleInput := iam.TagRoleInput{
					RoleName: aws.String(name),
					Tags:     iamTags(tags),
				}

				if _, err := s.Client.Iam.TagRole(ctx, &tagRoleInput); err != nil {
					return &iam.GetRoleOutput{}, err
				}
			}
		default:
			return &iam.GetRoleOutput{}, err
		}
	} else if err != nil {
		return &iam.GetRoleOutput{}, err
	}

	return s.GetRole(ctx, name)
}

// AttachPolicyToRole is idempotent: attaching an attached policy is a no-op in IAM.
func (s Service) AttachPolicyToRole(ctx context.Context, policyArn, roleName string) (*iam.AttachRolePolicyOutput, error) {
	attachRolePolicyInput := &iam.AttachRolePolicyInput{
		PolicyArn: aws.String(policyArn),
		RoleName:  aws.String(roleName),
	}
	return s.Client.Iam.AttachRolePolicy(ctx, attachRolePolicyInput)
}

func (s Service) DetachPolicyFromRole(ctx context.Context, policyArn, roleName string) (*iam.DetachRolePolicyOutput, error) {
	detachRolePolicyInput := &iam.DetachRolePolicyInput{
		PolicyArn: aws.String(policyArn),
		RoleName:  aws.String(roleName),
	}
	return s.Client.Iam.DetachRolePolicy(ctx, detachRolePolicyInput)
}
