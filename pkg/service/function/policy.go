package function

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/aws/smithy-go"
	"github.com/linecard/hellocdk/internal/util"
)

// PutPolicy creates the customer managed policy at arn, or pushes document as
// its new default version. IAM keeps at most five versions, so non-default
// versions are pruned first.
func (s Service) PutPolicy(ctx context.Context, arn string, document string, tags map[string]string) (*iam.GetPolicyOutput, error) {
	var apiErr smithy.APIError

	createPolicyInput := &iam.CreatePolicyInput{
		PolicyName:     aws.String(util.PolicyNameFromArn(arn)),
		PolicyDocument: aws.String(document),
		Tags:           iamTags(tags),
	}

	_, err := s.Client.Iam.CreatePolicy(ctx, createPolicyInput)
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "EntityAlreadyExists":
			if _, err := s.garbageCollectPolicyVersions(ctx, arn); err != nil {
				return &iam.GetPolicyOutput{}, err
			}

			createPolicyVersionInput := &iam.CreatePolicyVersionInput{
				PolicyArn:      aws.String(arn),
				PolicyDocument: aws.String(document),
				SetAsDefault:   true,
			}

			if _, err := s.Client.Iam.CreatePolicyVersion(ctx, createPolicyVersionInput); err != nil {
				return &iam.GetPolicyOutput{}, err
			}
		default:
			return &iam.GetPolicyOutput{}, err
		}
	} else if err != nil {
		return &iam.GetPolicyOutput{}, err
	}

	getPolicyInput := &iam.GetPolicyInput{
		PolicyArn: aws.String(arn),
	}
	return s.Client.Iam.GetPolicy(ctx, getPolicyInput)
}

func (s Service) DeletePolicy(ctx context.Context, arn string) (*iam.DeletePolicyOutput, error) {
	if _, err := s.garbageCollectPolicyVersions(ctx, arn); err != nil {
		return &iam.DeletePolicyOutput{}, err
	}

	deletePolicyInput := &iam.DeletePolicyInput{
		PolicyArn: aws.String(arn),
	}

	return s.Client.Iam.DeletePolicy(ctx, deletePolicyInput)
}

func (s Service) garbageCollectPolicyVersions(ctx context.Context, arn string) ([]types.PolicyVersion, error) {
	var apiErr smithy.APIError
	var deleted []types.PolicyVersion

	listPolicyVersionsInput := &iam.ListPolicyVersionsInput{
		PolicyArn: aws.String(arn),
	}

	listPolicyVersionsOutput, err := s.Client.Iam.ListPolicyVersions(ctx, listPolicyVersionsInput)
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchEntity" {
		return deleted, nil
	} else if err != nil {
		return deleted, err
	}

	for _, version := range listPolicyVersionsOutput.Versions {
		if version.IsDefaultVersion {
			continue
		}

		deletePolicyVersionInput := &iam.DeletePolicyVersionInput{
			PolicyArn: aws.String(arn),
			VersionId: version.VersionId,
		}

		if _, err := s.Client.Iam.DeletePolicyVersion(ctx, deletePolicyVersionInput); err != nil {
			return deleted, err
		}
		deleted = append(deleted, version)
	}

	return deleted, nil
}
