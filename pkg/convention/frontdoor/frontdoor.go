package frontdoor

import (
	"context"
	"fmt"

	"github.com/linecard/hellocdk/pkg/convention/config"
	"github.com/linecard/hellocdk/pkg/topology"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/apigatewayv2/types"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

type GatewayService interface {
	FindApi(ctx context.Context, name string) (*types.Api, error)
	PutApi(ctx context.Context, name string, tags map[string]string) (*types.Api, error)
	PutStage(ctx context.Context, apiId string) error
	DeleteApi(ctx context.Context, apiId string) error
	PutIntegration(ctx context.Context, apiId, lambdaArn string) (*types.Integration, error)
	PutRoute(ctx context.Context, apiId, integrationId, routeKey string) (*types.Route, error)
	PutLambdaPermission(ctx context.Context, apiId, lambdaArn, routeKey string) error
	DeleteIntegration(ctx context.Context, apiId string, route types.Route) error
	DeleteRoute(ctx context.Context, apiId string, route types.Route) error
	DeleteLambdaPermission(ctx context.Context, lambdaArn, routeKey string) error
	GetRoutes(ctx context.Context, apiId string) ([]types.Route, error)
}

type Api struct {
	types.Api
}

func (a Api) Id() string {
	return aws.ToString(a.ApiId)
}

func (a Api) Endpoint() string {
	return aws.ToString(a.ApiEndpoint)
}

type Services struct {
	Gateway GatewayService
}

type Convention struct {
	Config  config.Config
	Service Services
}

func FromServices(c config.Config, g GatewayService) Convention {
	return Convention{
		Config: c,
		Service: Services{
			Gateway: g,
		},
	}
}

// Find returns the deployed api, or false when it does not exist.
func (c Convention) Find(ctx context.Context, api topology.ApiFrontDoor) (Api, bool, error) {
	ctx, span := otel.Tracer("").Start(ctx, "frontdoor.Find")
	defer span.End()

	found, err := c.Service.Gateway.FindApi(ctx, c.Config.ResourceName(api.ID()))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return Api{}, false, err
	}

	if found == nil {
		return Api{}, false, nil
	}

	return Api{*found}, true, nil
}

// Converge ensures the api and its auto-deployed stage exist, then removes
// every route not in declared. Only declared routes are ever reachable.
func (c Convention) Converge(ctx context.Context, api topology.ApiFrontDoor, declared []topology.ApiRoute) (Api, error) {
	ctx, span := otel.Tracer("").Start(ctx, "frontdoor.Converge")
	defer span.End()

	if api.Proxy {
		err := fmt.Errorf("api %s: proxy routing is not supported", api.ID())
		span.SetStatus(codes.Error, err.Error())
		return Api{}, err
	}

	tags := c.Config.Tags()
	tags["LogicalId"] = api.ID()

	created, err := c.Service.Gateway.PutApi(ctx, c.Config.ResourceName(api.ID()), tags)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return Api{}, err
	}

	if err := c.Service.Gateway.PutStage(ctx, aws.ToString(created.ApiId)); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return Api{}, err
	}

	if err := c.prune(ctx, aws.ToString(created.ApiId), declared); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return Api{}, err
	}

	return Api{*created}, nil
}

// Mount wires route to the function at lambdaArn.
func (c Convention) Mount(ctx context.Context, apiId string, route topology.ApiRoute, lambdaArn string) error {
	ctx, span := otel.Tracer("").Start(ctx, "frontdoor.Mount")
	defer span.End()

	integration, err := c.Service.Gateway.PutIntegration(ctx, apiId, lambdaArn)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if _, err = c.Service.Gateway.PutRoute(ctx, apiId, aws.ToString(integration.IntegrationId), route.Key()); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err = c.Service.Gateway.PutLambdaPermission(ctx, apiId, lambdaArn, route.Key()); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	log.Info().Str("node", route.ID()).Str("route", route.Key()).Msg("route mounted")

	return nil
}

// Unmount removes route. The invoke permission is revoked when lambdaArn is known.
func (c Convention) Unmount(ctx context.Context, apiId string, route types.Route, lambdaArn string) error {
	ctx, span := otel.Tracer("").Start(ctx, "frontdoor.Unmount")
	defer span.End()

	if err := c.Service.Gateway.DeleteRoute(ctx, apiId, route); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if lambdaArn != "" {
		if err := c.Service.Gateway.DeleteLambdaPermission(ctx, lambdaArn, aws.ToString(route.RouteKey)); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return err
		}
	}

	if err := c.Service.Gateway.DeleteIntegration(ctx, apiId, route); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

// Destroy unmounts every route of api, then deletes it. targets maps route
// keys to function arns for permission cleanup.
func (c Convention) Destroy(ctx context.Context, api topology.ApiFrontDoor, targets map[string]string) error {
	ctx, span := otel.Tracer("").Start(ctx, "frontdoor.Destroy")
	defer span.End()

	found, exists, err := c.Find(ctx, api)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if !exists {
		log.Info().Str("node", api.ID()).Msg("api already gone")
		return nil
	}

	routes, err := c.Service.Gateway.GetRoutes(ctx, found.Id())
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	for _, route := range routes {
		if err := c.Unmount(ctx, found.Id(), route, targets[aws.ToString(route.RouteKey)]); err != nil {
			return err
		}
	}

	if err := c.Service.Gateway.DeleteApi(ctx, found.Id()); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

// Routes lists the deployed routes of api, for the view layer.
func (c Convention) Routes(ctx context.Context, api Api) ([]types.Route, error) {
	return c.Service.Gateway.GetRoutes(ctx, api.Id())
}

func (c Convention) prune(ctx context.Context, apiId string, declared []topology.ApiRoute) error {
	keep := make(map[string]bool, len(declared))
	for _, route := range declared {
		keep[route.Key()] = true
	}

	routes, err := c.Service.Gateway.GetRoutes(ctx, apiId)
	if err != nil {
		return err
	}

	for _, route := range routes {
		if keep[aws.ToString(route.RouteKey)] {
			continue
		}

		log.Warn().Str("route", aws.ToString(route.RouteKey)).Msg("removing undeclared route")
		if err := c.Unmount(ctx, apiId, route, ""); err != nil {
			return err
		}
	}

	return nil
}
