package sdk

import (
	"context"
	"net/http"

	// config
	"github.com/linecard/hellocdk/pkg/convention/config"

	// services
	"github.com/linecard/hellocdk/pkg/service/bucket"
	"github.com/linecard/hellocdk/pkg/service/function"
	"github.com/linecard/hellocdk/pkg/service/gateway"

	// conventions
	"github.com/linecard/hellocdk/pkg/convention/compute"
	"github.com/linecard/hellocdk/pkg/convention/curl"
	"github.com/linecard/hellocdk/pkg/convention/frontdoor"
	"github.com/linecard/hellocdk/pkg/convention/website"

	// engines
	"github.com/linecard/hellocdk/pkg/engine/direct"

	// clients
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/apigatewayv2"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

type Clients struct {
	StsClient          *sts.Client
	LambdaClient       *lambda.Client
	IamClient          *iam.Client
	ApiGatewayV2Client *apigatewayv2.Client
	S3Client           *s3.Client
}

type Services struct {
	Function function.Service
	Gateway  gateway.Service
	Bucket   bucket.Service
}

type Conventions struct {
	Compute   compute.Convention
	FrontDoor frontdoor.Convention
	Website   website.Convention
	Curl      curl.Convention
}

type API struct {
	Conventions
	Config config.Config
	Engine *direct.Engine
}

func Init(ctx context.Context, awsConfig aws.Config, config config.Config) (API, error) {
	clients, err := InitClients(ctx, awsConfig, config)
	if err != nil {
		return API{}, err
	}

	services, err := InitServices(ctx, config, clients)
	if err != nil {
		return API{}, err
	}

	conventions, err := InitConventions(ctx, config, services)
	if err != nil {
		return API{}, err
	}

	return API{
		Conventions: conventions,
		Config:      config,
		Engine:      direct.New(conventions.Compute, conventions.FrontDoor, conventions.Website),
	}, nil
}

func InitConventions(ctx context.Context, config config.Config, services Services) (Conventions, error) {
	return Conventions{
		Compute:   compute.FromServices(config, services.Function),
		FrontDoor: frontdoor.FromServices(config, services.Gateway),
		Website:   website.FromServices(config, services.Bucket),
		Curl:      curl.FromServices(config, http.DefaultClient),
	}, nil
}

func InitServices(ctx context.Context, config config.Config, clients Clients) (Services, error) {
	return Services{
		Function: function.FromClients(clients.LambdaClient, clients.IamClient),
		Gateway:  gateway.FromClients(clients.ApiGatewayV2Client, clients.LambdaClient),
		Bucket:   bucket.FromClients(clients.S3Client, config.Account.Region),
	}, nil
}

func InitClients(ctx context.Context, awsConfig aws.Config, config config.Config) (Clients, error) {
	return Clients{
		StsClient:          sts.NewFromConfig(awsConfig),
		LambdaClient:       lambda.NewFromConfig(awsConfig),
		IamClient:          iam.NewFromConfig(awsConfig),
		ApiGatewayV2Client: apigatewayv2.NewFromConfig(awsConfig),
		S3Client:           s3.NewFromConfig(awsConfig, S3Options(config)...),
	}, nil
}

// S3Options points the S3 client at an S3-compatible endpoint when one is
// configured. Such stores need path-style addressing.
func S3Options(config config.Config) []func(*s3.Options) {
	if config.S3.Endpoint == "" {
		return nil
	}

	opts := []func(*s3.Options){
		func(o *s3.Options) {
			o.BaseEndpoint = aws.String(config.S3.Endpoint)
			o.UsePathStyle = true
		},
	}

	if config.S3.AccessKey != "" && config.S3.SecretKey != "" {
		opts = append(opts, func(o *s3.Options) {
			o.Credentials = credentials.NewStaticCredentialsProvider(config.S3.AccessKey, config.S3.SecretKey, "")
		})
	}

	return opts
}
