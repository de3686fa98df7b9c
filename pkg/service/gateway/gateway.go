package gateway

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/apigatewayv2"
	"github.com/aws/aws-sdk-go-v2/service/apigatewayv2/types"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/smithy-go"
	"github.com/linecard/hellocdk/internal/util"
)

// DefaultStage is auto-deployed, so route changes go live without an
// explicit deployment.
const DefaultStage = "$default"

type ApiGatewayV2Client interface {
	GetApis(ctx context.Context, params *apigatewayv2.GetApisInput, optFns ...func(*apigatewayv2.Options)) (*apigatewayv2.GetApisOutput, error)
	CreateApi(ctx context.Context, params *apigatewayv2.CreateApiInput, optFns ...func(*apigatewayv2.Options)) (*apigatewayv2.CreateApiOutput, error)
	DeleteApi(ctx context.Context, params *apigatewayv2.DeleteApiInput, optFns ...func(*apigatewayv2.Options)) (*apigatewayv2.DeleteApiOutput, error)
	CreateIntegration(ctx context.Context, params *apigatewayv2.CreateIntegrationInput, optFns ...func(*apigatewayv2.Options)) (*apigatewayv2.CreateIntegrationOutput, error)
	UpdateIntegration(ctx context.Context, params *apigatewayv2.UpdateIntegrationInput, optFns ...func(*apigatewayv2.Options)) (*apigatewayv2.UpdateIntegrationOutput, error)
	GetIntegrations(ctx context.Context, params *apigatewayv2.GetIntegrationsInput, optFns ...func(*apigatewayv2.Options)) (*apigatewayv2.GetIntegrationsOutput, error)
	DeleteIntegration(ctx context.Context, params *apigatewayv2.DeleteIntegrationInput, optFns ...func(*apigatewayv2.Options)) (*apigatewayv2.DeleteIntegrationOutput, error)
	CreateRoute(ctx context.Context, params *apigatewayv2.CreateRouteInput, optFns ...func(*apigatewayv2.Options)) (*apigatewayv2.CreateRouteOutput, error)
	UpdateRoute(ctx context.Context, params *apigatewayv2.UpdateRouteInput, optFns ...func(*apigatewayv2.Options)) (*apigatewayv2.UpdateRouteOutput, error)
	GetRoutes(ctx context.Context, params *apigatewayv2.GetRoutesInput, optFns ...func(*apigatewayv2.Options)) (*apigatewayv2.GetRoutesOutput, error)
	DeleteRoute(ctx context.Context, params *apigatewayv2.DeleteRouteInput, optFns ...func(*apigatewayv2.Options)) (*apigatewayv2.DeleteRouteOutput, error)
	CreateStage(ctx context.Context, params *apigatewayv2.CreateStageInput, optFns ...func(*apigatewayv2.Options)) (*apigatewayv2.CreateStageOutput, error)
}

type LambdaClient interface {
	AddPermission(ctx context.Context, params *lambda.AddPermissionInput, optFns ...func(*lambda.Options)) (*lambda.AddPermissionOutput, error)
	RemovePermission(ctx context.Context, params *lambda.RemovePermissionInput, optFns ...func(*lambda.Options)) (*lambda.RemovePermissionOutput, error)
}

type Client struct {
	Gw     ApiGatewayV2Client
	Lambda LambdaClient
}

type Service struct {
	Client Client
}

func FromClients(gwc ApiGatewayV2Client, lmc LambdaClient) Service {
	return Service{
		Client: Client{
			Gw:     gwc,
			Lambda: lmc,
		},
	}
}

// FindApi returns the HTTP API called name, or nil when there is none.
func (s Service) FindApi(ctx context.Context, name string) (*types.Api, error) {
	var matches []types.Api
	var nextToken *string

	for {
		apis, err := s.Client.Gw.GetApis(ctx, &apigatewayv2.GetApisInput{
			NextToken: nextToken,
		})
		if err != nil {
			return nil, err
		}

		for _, api := range apis.Items {
			if aws.ToString(api.Name) == name {
				matches = append(matches, api)
			}
		}

		if apis.NextToken == nil {
			break
		}
		nextToken = apis.NextToken
	}

	if len(matches) == 0 {
		return nil, nil
	}

	if len(matches) > 1 {
		return nil, fmt.Errorf("multiple apis found with name %s", name)
	}

	return &matches[0], nil
}

// PutApi returns the HTTP API called name, creating it when missing.
func (s Service) PutApi(ctx context.Context, name string, tags map[string]string) (*types.Api, error) {
	api, err := s.FindApi(ctx, name)
	if err != nil {
		return nil, err
	}

	if api != nil {
		return api, nil
	}

	created, err := s.Client.Gw.CreateApi(ctx, &apigatewayv2.CreateApiInput{
		Name:         aws.String(name),
		ProtocolType: types.ProtocolTypeHttp,
		Tags:         tags,
	})
	if err != nil {
		return nil, err
	}

	return &types.Api{
		ApiId:        created.ApiId,
		ApiEndpoint:  created.ApiEndpoint,
		Name:         created.Name,
		ProtocolType: created.ProtocolType,
		CreatedDate:  created.CreatedDate,
		Tags:         created.Tags,
	}, nil
}

// PutStage ensures the auto-deployed default stage exists.
func (s Service) PutStage(ctx context.Context, apiId string) error {
	var apiErr smithy.APIError

	_, err := s.Client.Gw.CreateStage(ctx, &apigatewayv2.CreateStageInput{
		ApiId:      aws.String(apiId),
		StageName:  aws.String(DefaultStage),
		AutoDeploy: aws.Bool(true),
	})

	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "ConflictException" {
		return nil
	}

	return err
}

func (s Service) DeleteApi(ctx context.Context, apiId string) error {
	var apiErr smithy.APIError

	_, err := s.Client.Gw.DeleteApi(ctx, &apigatewayv2.DeleteApiInput{
		ApiId: aws.String(apiId),
	})

	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NotFoundException" {
		return nil
	}

	return err
}

// PutIntegration returns the lambda proxy integration for lambdaArn, creating
// it when missing. Payload format 2.0 hands the request to the function as is.
func (s Service) PutIntegration(ctx context.Context, apiId, lambdaArn string) (*types.Integration, error) {
	integrations, err := s.Client.Gw.GetIntegrations(ctx, &apigatewayv2.GetIntegrationsInput{
		ApiId: aws.String(apiId),
	})
	if err != nil {
		return nil, err
	}

	for _, integration := range integrations.Items {
		if aws.ToString(integration.IntegrationUri) != lambdaArn {
			continue
		}

		if aws.ToString(integration.PayloadFormatVersion) == "2.0" && integration.IntegrationType == types.IntegrationTypeAwsProxy {
			return &integration, nil
		}

		updated, err := s.Client.Gw.UpdateIntegration(ctx, &apigatewayv2.UpdateIntegrationInput{
			ApiId:                aws.String(apiId),
			IntegrationId:        integration.IntegrationId,
			IntegrationType:      types.IntegrationTypeAwsProxy,
			IntegrationUri:       aws.String(lambdaArn),
			PayloadFormatVersion: aws.String("2.0"),
		})
		if err != nil {
			return nil, err
		}

		return &types.Integration{
			IntegrationId:        updated.IntegrationId,
			IntegrationType:      updated.IntegrationType,
			IntegrationUri:       updated.IntegrationUri,
			PayloadFormatVersion: updated.PayloadFormatVersion,
		}, nil
	}

	created, err := s.Client.Gw.CreateIntegration(ctx, &apigatewayv2.CreateIntegrationInput{
		ApiId:                aws.String(apiId),
		IntegrationType:      types.IntegrationTypeAwsProxy,
		IntegrationUri:       aws.String(lambdaArn),
		PayloadFormatVersion: aws.String("2.0"),
	})
	if err != nil {
		return nil, err
	}

	return &types.Integration{
		IntegrationId:        created.IntegrationId,
		IntegrationType:      created.IntegrationType,
		IntegrationUri:       created.IntegrationUri,
		PayloadFormatVersion: created.PayloadFormatVersion,
	}, nil
}

// PutRoute points routeKey ("POST /") at integrationId. Routes are public.
func (s Service) PutRoute(ctx context.Context, apiId, integrationId, routeKey string) (*types.Route, error) {
	target := fmt.Sprintf("integrations/%s", integrationId)

	existing, err := s.GetRouteByRouteKey(ctx, apiId, routeKey)
	if err != nil {
		return nil, err
	}

	if existing.RouteId != nil {
		if aws.ToString(existing.Target) == target && existing.AuthorizationType == types.AuthorizationTypeNone {
			return &existing, nil
		}

		updated, err := s.Client.Gw.UpdateRoute(ctx, &apigatewayv2.UpdateRouteInput{
			ApiId:             aws.String(apiId),
			RouteId:           existing.RouteId,
			RouteKey:          aws.String(routeKey),
			Target:            aws.String(target),
			AuthorizationType: types.AuthorizationTypeNone,
		})
		if err != nil {
			return nil, err
		}

		return &types.Route{
			RouteId:           updated.RouteId,
			RouteKey:          updated.RouteKey,
			Target:            updated.Target,
			AuthorizationType: updated.AuthorizationType,
		}, nil
	}

	created, err := s.Client.Gw.CreateRoute(ctx, &apigatewayv2.CreateRouteInput{
		ApiId:             aws.String(apiId),
		RouteKey:          aws.String(routeKey),
		Target:            aws.String(target),
		AuthorizationType: types.AuthorizationTypeNone,
	})
	if err != nil {
		return nil, err
	}

	return &types.Route{
		RouteId:           created.RouteId,
		RouteKey:          created.RouteKey,
		Target:            created.Target,
		AuthorizationType: created.AuthorizationType,
	}, nil
}

// PutLambdaPermission lets the api invoke lambdaArn for routeKey only.
func (s Service) PutLambdaPermission(ctx context.Context, apiId, lambdaArn, routeKey string) error {
	var apiErr smithy.APIError

	_, err := s.Client.Lambda.AddPermission(ctx, &lambda.AddPermissionInput{
		Action:       aws.String("lambda:InvokeFunction"),
		FunctionName: aws.String(lambdaArn),
		Principal:    aws.String("apigateway.amazonaws.com"),
		SourceArn:    aws.String(SourceArn(apiId, lambdaArn, routeKey)),
		StatementId:  aws.String(StatementId(routeKey)),
	})

	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "ResourceConflictException" {
		return nil
	}

	return err
}

func (s Service) DeleteLambdaPermission(ctx context.Context, lambdaArn, routeKey string) error {
	var apiErr smithy.APIError

	_, err := s.Client.Lambda.RemovePermission(ctx, &lambda.RemovePermissionInput{
		FunctionName: aws.String(lambdaArn),
		StatementId:  aws.String(StatementId(routeKey)),
	})

	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "ResourceNotFoundException" {
		return nil
	}

	return err
}

func (s Service) DeleteIntegration(ctx context.Context, apiId string, route types.Route) error {
	var apiErr smithy.APIError

	integrationId := strings.TrimPrefix(aws.ToString(route.Target), "integrations/")

	_, err := s.Client.Gw.DeleteIntegration(ctx, &apigatewayv2.DeleteIntegrationInput{
		ApiId:         aws.String(apiId),
		IntegrationId: aws.String(integrationId),
	})

	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NotFoundException" {
		return nil
	}

	// another route still targets the integration.
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "ConflictException" {
		return nil
	}

	return err
}

func (s Service) DeleteRoute(ctx context.Context, apiId string, route types.Route) error {
	var apiErr smithy.APIError

	_, err := s.Client.Gw.DeleteRoute(ctx, &apigatewayv2.DeleteRouteInput{
		ApiId:   aws.String(apiId),
		RouteId: route.RouteId,
	})

	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NotFoundException" {
		return fmt.Errorf("route %s not found under api %s", aws.ToString(route.RouteKey), apiId)
	}

	return err
}

func (s Service) GetRoutes(ctx context.Context, apiId string) ([]types.Route, error) {
	var routes []types.Route
	var nextToken *string

	for {
		page, err := s.Client.Gw.GetRoutes(ctx, &apigatewayv2.GetRoutesInput{
			ApiId:     aws.String(apiId),
			NextToken: nextToken,
		})
		if err != nil {
			return nil, err
		}

		routes = append(routes, page.Items...)

		if page.NextToken == nil {
			return routes, nil
		}
		nextToken = page.NextToken
	}
}

func (s Service) GetRouteByRouteKey(ctx context.Context, apiId, routeKey string) (types.Route, error) {
	var matches []types.Route

	routes, err := s.GetRoutes(ctx, apiId)
	if err != nil {
		return types.Route{}, err
	}

	for _, route := range routes {
		if aws.ToString(route.RouteKey) == routeKey {
			matches = append(matches, route)
		}
	}

	if len(matches) == 0 {
		return types.Route{}, nil
	}

	if len(matches) > 1 {
		return types.Route{}, fmt.Errorf("multiple routes found under api %s with route key %s", apiId, routeKey)
	}

	return matches[0], nil
}

var plainRoutePath = regexp.MustCompile(`^(/|(/[a-z0-9]+)+)$`)

// StatementId derives a lambda permission statement id from a route key,
// e.g. "POST /users" becomes "post-users-api-gw". Paths the slug would blur
// together ("/a-b" against "/a/b") carry an uppercase hash of the raw path,
// which no plain path can produce.
func StatementId(routeKey string) string {
	method, path, _ := strings.Cut(routeKey, " ")
	raw := path
	path = strings.NewReplacer("{", "", "}", "", "+", "").Replace(path)

	id := strings.ToLower(method)
	if slug := util.DeSlasher(path); slug != "" {
		id += "-" + slug
	}
	if !plainRoutePath.MatchString(raw) {
		sum := sha256.Sum256([]byte(raw))
		id += fmt.Sprintf("-X%X", sum[:4])
	}
	return id + "-api-gw"
}

// SourceArn scopes an invoke permission to one route of the api.
func SourceArn(apiId, lambdaArn, routeKey string) string {
	parts := strings.Split(lambdaArn, ":")
	partition, region, accountId := parts[1], parts[3], parts[4]
	method, path, _ := strings.Cut(routeKey, " ")

	return fmt.Sprintf("arn:%s:execute-api:%s:%s:%s/*/%s%s", partition, region, accountId, apiId, method, path)
}
