package compute

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/linecard/hellocdk/pkg/asset"
	"github.com/linecard/hellocdk/pkg/convention/config"
	"github.com/linecard/hellocdk/pkg/topology"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog/log"
)

const (
	BasicExecutionPolicyArn = "arn:aws:iam::aws:policy/service-role/AWSLambdaBasicExecutionRole"
	MemorySize              = 128
	Timeout                 = 3
)

type FunctionService interface {
	Inspect(ctx context.Context, name string) (*lambda.GetFunctionOutput, error)
	PutPolicy(ctx context.Context, arn string, document string, tags map[string]string) (*iam.GetPolicyOutput, error)
	DeletePolicy(ctx context.Context, arn string) (*iam.DeletePolicyOutput, error)
	PutRole(ctx context.Context, name string, document string, tags map[string]string) (*iam.GetRoleOutput, error)
	DeleteRole(ctx context.Context, name string) (*iam.DeleteRoleOutput, error)
	AttachPolicyToRole(ctx context.Context, policyArn, roleName string) (*iam.AttachRolePolicyOutput, error)
	DetachPolicyFromRole(ctx context.Context, policyArn, roleName string) (*iam.DetachRolePolicyOutput, error)
	GetRolePolicies(ctx context.Context, name string) (*iam.ListAttachedRolePoliciesOutput, error)
	PutFunction(ctx context.Context, put *lambda.CreateFunctionInput) (*lambda.GetFunctionOutput, error)
	DeleteFunction(ctx context.Context, name string) (*lambda.DeleteFunctionOutput, error)
}

type Deployment struct {
	lambda.GetFunctionOutput
}

func (d Deployment) Arn() string {
	if d.Configuration == nil {
		return ""
	}
	return aws.ToString(d.Configuration.FunctionArn)
}

type Services struct {
	Function FunctionService
}

type Convention struct {
	Config  config.Config
	Service Services
}

func FromServices(c config.Config, f FunctionService) Convention {
	return Convention{
		Config: c,
		Service: Services{
			Function: f,
		},
	}
}

func (c Convention) Find(ctx context.Context, unit topology.ComputeUnit) (Deployment, error) {
	ctx, span := otel.Tracer("").Start(ctx, "compute.Find")
	defer span.End()

	resource := c.Config.ResourceName(unit.ID())
	lambda, err := c.Service.Function.Inspect(ctx, resource)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return Deployment{}, err
	}

	return Deployment{*lambda}, nil
}

// Deploy converges role, policy and function for unit. codeDir is the resolved
// code bundle, shipped as a deterministic zip.
func (c Convention) Deploy(ctx context.Context, unit topology.ComputeUnit, codeDir string) (Deployment, error) {
	ctx, span := otel.Tracer("").Start(ctx, "compute.Deploy")
	defer span.End()

	resource := c.Config.ResourceName(unit.ID())
	tags := c.Config.Tags()
	tags["LogicalId"] = unit.ID()

	for i, statement := range unit.Permissions {
		if statement.Wildcard() {
			log.Warn().
				Str("node", unit.ID()).
				Strs("actions", statement.Actions).
				Strs("resources", statement.Resources).
				Msgf("permission %d grants a wildcard", i)
		}
	}

	var policyDocument string
	if len(unit.Permissions) > 0 {
		rendered, err := PolicyDocument(unit.Permissions)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return Deployment{}, err
		}
		policyDocument = rendered
	}

	zip, err := asset.Zip(codeDir)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return Deployment{}, err
	}

	// create role
	role, err := c.Service.Function.PutRole(ctx, resource, AssumeRoleDocument, tags)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return Deployment{}, err
	}

	policyArns := []string{BasicExecutionPolicyArn}

	// create policy
	if len(unit.Permissions) > 0 {
		policy, err := c.Service.Function.PutPolicy(ctx, c.Config.PolicyArn(unit.ID()), policyDocument, tags)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return Deployment{}, err
		}
		policyArns = append([]string{aws.ToString(policy.Policy.Arn)}, policyArns...)
	}

	// mix um together
	for _, policyArn := range policyArns {
		if _, err := c.Service.Function.AttachPolicyToRole(ctx, policyArn, aws.ToString(role.Role.RoleName)); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return Deployment{}, err
		}
	}

	input := &lambda.CreateFunctionInput{
		FunctionName: aws.String(resource),
		Role:         role.Role.Arn,
		Runtime:      types.Runtime(unit.Runtime),
		Handler:      aws.String(unit.EntryPoint),
		Tags:         tags,
		MemorySize:   aws.Int32(MemorySize),
		Timeout:      aws.Int32(Timeout),
		Code: &types.FunctionCode{
			ZipFile: zip,
		},
		Publish: true,
	}

	log.Info().Str("node", unit.ID()).Str("function", resource).Int("bytes", len(zip)).Msg("converging function")

	if _, err = c.Service.Function.PutFunction(ctx, input); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return Deployment{}, err
	}

	return c.Find(ctx, unit)
}

// Destroy removes the function of unit, then its role with every attached
// policy. AWS managed policies are only detached. Resources already gone are
// skipped.
func (c Convention) Destroy(ctx context.Context, unit topology.ComputeUnit) error {
	ctx, span := otel.Tracer("").Start(ctx, "compute.Destroy")
	defer span.End()

	resource := c.Config.ResourceName(unit.ID())

	if _, err := c.Service.Function.DeleteFunction(ctx, resource); err != nil && !missing(err) {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	policies, err := c.Service.Function.GetRolePolicies(ctx, resource)
	if missing(err) {
		log.Info().Str("node", unit.ID()).Msg("role already gone")
		return nil
	}
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	for _, policy := range policies.AttachedPolicies {
		policyArn := aws.ToString(policy.PolicyArn)

		if _, err := c.Service.Function.DetachPolicyFromRole(ctx, policyArn, resource); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return err
		}

		if strings.Contains(policyArn, ":aws:policy/") {
			continue
		}

		if _, err := c.Service.Function.DeletePolicy(ctx, policyArn); err != nil && !missing(err) {
			span.SetStatus(codes.Error, err.Error())
			return err
		}
	}

	if _, err = c.Service.Function.DeleteRole(ctx, resource); err != nil && !missing(err) {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

func missing(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}

	switch apiErr.ErrorCode() {
	case "ResourceNotFoundException", "NoSuchEntity":
		return true
	default:
		return false
	}
}

const AssumeRoleDocument = `{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"Service":"lambda.amazonaws.com"},"Action":"sts:AssumeRole"}]}`

type statement struct {
	Effect   string   `json:"Effect"`
	Action   []string `json:"Action"`
	Resource []string `json:"Resource"`
}

type document struct {
	Version   string      `json:"Version"`
	Statement []statement `json:"Statement"`
}

// PolicyDocument renders grants as an IAM identity policy.
func PolicyDocument(permissions []topology.PolicyStatement) (string, error) {
	if len(permissions) == 0 {
		return "", fmt.Errorf("no permissions to render")
	}

	doc := document{Version: "2012-10-17"}
	for _, p := range permissions {
		doc.Statement = append(doc.Statement, statement{
			Effect:   "Allow",
			Action:   p.Actions,
			Resource: p.Resources,
		})
	}

	rendered, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}

	return string(rendered), nil
}
