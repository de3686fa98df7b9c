// Package cdk synthesizes a topology through the AWS CDK construct library.
// It needs a Node.js runtime on PATH, which jsii starts on first use.
package cdk

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsapigateway"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslambda"
	"github.com/aws/aws-cdk-go/awscdk/v2/awss3"
	"github.com/aws/aws-cdk-go/awscdk/v2/awss3deployment"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
	"github.com/linecard/hellocdk/pkg/engine"
	"github.com/linecard/hellocdk/pkg/topology"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

const Name = "cdk"

type Synthesizer struct {
	Out  string
	Tags map[string]string
}

func New(out string, tags map[string]string) *Synthesizer {
	return &Synthesizer{
		Out:  out,
		Tags: tags,
	}
}

var _ engine.Engine = (*Synthesizer)(nil)

func (s *Synthesizer) Run(ctx context.Context, g *topology.Graph) (err error) {
	_, span := otel.Tracer("").Start(ctx, "cdk.Synth")
	defer span.End()

	// jsii reports kernel failures by panicking.
	defer func() {
		if r := recover(); r != nil {
			err = engine.Wrap(Name, "", fmt.Errorf("%v", r))
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	app := awscdk.NewApp(&awscdk.AppProps{
		Outdir: jsii.String(s.Out),
	})

	if _, err := Stack(app, g, s.Tags); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return engine.Wrap(Name, "", err)
	}

	assembly := app.Synth(nil)
	log.Info().
		Str("stack", g.Name()).
		Str("out", *assembly.Directory()).
		Msg("synthesized cloud assembly")

	return nil
}

// Stack declares every node of g as CDK constructs in a new stack under scope.
func Stack(scope constructs.Construct, g *topology.Graph, tags map[string]string) (awscdk.Stack, error) {
	stack := awscdk.NewStack(scope, jsii.String(g.Name()), &awscdk.StackProps{})
	for k, v := range tags {
		awscdk.Tags_Of(stack).Add(jsii.String(k), jsii.String(v), nil)
	}

	functions := make(map[string]awslambda.Function)
	apis := make(map[string]awsapigateway.RestApi)
	buckets := make(map[string]awss3.Bucket)

	for _, n := range g.Nodes() {
		switch v := n.(type) {
		case topology.ComputeUnit:
			runtime, err := lambdaRuntime(v.Runtime)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", v.Name, err)
			}

			fn := awslambda.NewFunction(stack, jsii.String(v.Name), &awslambda.FunctionProps{
				Runtime: runtime,
				Handler: jsii.String(v.EntryPoint),
				Code:    awslambda.Code_FromAsset(jsii.String(g.Asset(v.CodeBundle)), nil),
			})
			for _, p := range v.Permissions {
				fn.AddToRolePolicy(awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
					Actions:   jsii.Strings(p.Actions...),
					Resources: jsii.Strings(p.Resources...),
				}))
			}
			functions[v.Name] = fn

		case topology.ApiFrontDoor:
			api := awsapigateway.NewRestApi(stack, jsii.String(v.Name), &awsapigateway.RestApiProps{
				RestApiName: jsii.String(v.Name),
			})
			apis[v.Name] = api
			awscdk.NewCfnOutput(stack, jsii.String(v.Name+"Endpoint"), &awscdk.CfnOutputProps{
				Value: api.Url(),
			})

		case topology.ApiRoute:
			resource := apis[v.Api].Root()
			if v.Path != "/" {
				resource = resource.ResourceForPath(jsii.String(v.Path))
			}
			resource.AddMethod(
				jsii.String(v.Method),
				awsapigateway.NewLambdaIntegration(functions[v.Target], nil),
				nil,
			)

		case topology.StorageBucket:
			props := &awss3.BucketProps{}
			if v.DefaultDocument != "" {
				props.WebsiteIndexDocument = jsii.String(v.DefaultDocument)
			}
			if v.PublicRead {
				props.PublicReadAccess = jsii.Bool(true)
				props.BlockPublicAccess = awss3.BlockPublicAccess_BLOCK_ACLS()
			}
			bucket := awss3.NewBucket(stack, jsii.String(v.Name), props)
			buckets[v.Name] = bucket
			if v.DefaultDocument != "" {
				awscdk.NewCfnOutput(stack, jsii.String(v.Name+"WebsiteURL"), &awscdk.CfnOutputProps{
					Value: bucket.BucketWebsiteUrl(),
				})
			}

		case topology.DeploymentStep:
			awss3deployment.NewBucketDeployment(stack, jsii.String(v.Name), &awss3deployment.BucketDeploymentProps{
				Sources:           &[]awss3deployment.ISource{awss3deployment.Source_Asset(jsii.String(g.Asset(v.Source)), nil)},
				DestinationBucket: buckets[v.Destination],
			})

		default:
			return nil, fmt.Errorf("no construct mapping for %s", n.Kind())
		}
	}

	return stack, nil
}

// lambdaRuntime maps an identifier like "nodejs20.x" onto a CDK runtime.
func lambdaRuntime(identifier string) (awslambda.Runtime, error) {
	families := []struct {
		prefix string
		family awslambda.RuntimeFamily
	}{
		{"nodejs", awslambda.RuntimeFamily_NODEJS},
		{"python", awslambda.RuntimeFamily_PYTHON},
		{"java", awslambda.RuntimeFamily_JAVA},
		{"dotnet", awslambda.RuntimeFamily_DOTNET_CORE},
		{"ruby", awslambda.RuntimeFamily_RUBY},
		{"provided", awslambda.RuntimeFamily_OTHER},
	}

	for _, f := range families {
		if strings.HasPrefix(identifier, f.prefix) {
			return awslambda.NewRuntime(jsii.String(identifier), f.family, nil), nil
		}
	}

	return nil, fmt.Errorf("unknown runtime %q", identifier)
}
