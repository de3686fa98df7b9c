// Package direct provisions a topology by calling AWS APIs node by node, in
// dependency order, instead of handing a template to a deployment service.
package direct

import (
	"context"
	"fmt"
	"sort"

	"github.com/linecard/hellocdk/pkg/convention/compute"
	"github.com/linecard/hellocdk/pkg/convention/frontdoor"
	"github.com/linecard/hellocdk/pkg/convention/website"
	"github.com/linecard/hellocdk/pkg/engine"
	"github.com/linecard/hellocdk/pkg/topology"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const Name = "direct"

type ComputeConvention interface {
	Find(ctx context.Context, unit topology.ComputeUnit) (compute.Deployment, error)
	Deploy(ctx context.Context, unit topology.ComputeUnit, codeDir string) (compute.Deployment, error)
	Destroy(ctx context.Context, unit topology.ComputeUnit) error
}

type FrontDoorConvention interface {
	Find(ctx context.Context, api topology.ApiFrontDoor) (frontdoor.Api, bool, error)
	Converge(ctx context.Context, api topology.ApiFrontDoor, declared []topology.ApiRoute) (frontdoor.Api, error)
	Mount(ctx context.Context, apiId string, route topology.ApiRoute, lambdaArn string) error
	Destroy(ctx context.Context, api topology.ApiFrontDoor, targets map[string]string) error
}

type WebsiteConvention interface {
	Find(ctx context.Context, bucket topology.StorageBucket) (website.Site, bool, error)
	Converge(ctx context.Context, bucket topology.StorageBucket) (website.Site, error)
	Sync(ctx context.Context, step topology.DeploymentStep, sourceDir string) (website.Plan, error)
	Destroy(ctx context.Context, bucket topology.StorageBucket) error
}

// Output is a value worth showing once a node is provisioned, such as an
// endpoint.
type Output struct {
	Node  string
	Key   string
	Value string
}

type Engine struct {
	Compute   ComputeConvention
	FrontDoor FrontDoorConvention
	Website   WebsiteConvention

	// Outputs collected by the last Run, in provisioning order.
	Outputs []Output
}

var (
	_ engine.Engine    = (*Engine)(nil)
	_ engine.Destroyer = (*Engine)(nil)
)

func New(c ComputeConvention, f FrontDoorConvention, w WebsiteConvention) *Engine {
	return &Engine{
		Compute:   c,
		FrontDoor: f,
		Website:   w,
	}
}

// state carries physical identifiers from a node to its dependents.
type state struct {
	functions map[string]string
	apis      map[string]string
}

// Run converges every node in provisioning order and stops at the first
// failure. Nodes already provisioned stay in place.
func (e *Engine) Run(ctx context.Context, g *topology.Graph) error {
	ctx, span := otel.Tracer("").Start(ctx, "direct.Run")
	defer span.End()

	e.Outputs = nil
	s := state{
		functions: map[string]string{},
		apis:      map[string]string{},
	}

	for _, id := range g.Order() {
		node, _ := g.Node(id)

		log.Info().Str("node", id).Str("kind", string(node.Kind())).Msg("provisioning")

		if err := e.apply(ctx, g, node, &s); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return engine.Wrap(Name, id, err)
		}
	}

	return nil
}

// Sync runs only the deployment steps of g against buckets that already exist.
func (e *Engine) Sync(ctx context.Context, g *topology.Graph) error {
	ctx, span := otel.Tracer("").Start(ctx, "direct.Sync")
	defer span.End()

	e.Outputs = nil

	for _, step := range g.Deployments() {
		bucket, _ := g.Bucket(step.Destination)

		if _, exists, err := e.Website.Find(ctx, bucket); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return engine.Wrap(Name, step.ID(), err)
		} else if !exists {
			err := fmt.Errorf("bucket %s is not deployed, run deploy first", bucket.ID())
			span.SetStatus(codes.Error, err.Error())
			return engine.Wrap(Name, step.ID(), err)
		}

		if err := e.sync(ctx, g, step); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return engine.Wrap(Name, step.ID(), err)
		}
	}

	return nil
}

// Destroy tears nodes down in reverse provisioning order. Routes and
// deployment steps go with the api and bucket that own them.
func (e *Engine) Destroy(ctx context.Context, g *topology.Graph) error {
	ctx, span := otel.Tracer("").Start(ctx, "direct.Destroy")
	defer span.End()

	order := g.Order()
	for i := len(order) - 1; i >= 0; i-- {
		id := order[i]
		node, _ := g.Node(id)

		var err error
		switch n := node.(type) {
		case topology.ComputeUnit:
			err = e.Compute.Destroy(ctx, n)
		case topology.ApiFrontDoor:
			err = e.FrontDoor.Destroy(ctx, n, e.targets(ctx, g, n))
		case topology.StorageBucket:
			err = e.Website.Destroy(ctx, n)
		default:
			continue
		}

		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return engine.Wrap(Name, id, err)
		}

		log.Info().Str("node", id).Msg("destroyed")
	}

	return nil
}

func (e *Engine) apply(ctx context.Context, g *topology.Graph, node topology.Node, s *state) error {
	switch n := node.(type) {
	case topology.ComputeUnit:
		deployment, err := e.Compute.Deploy(ctx, n, g.Asset(n.CodeBundle))
		if err != nil {
			return err
		}
		s.functions[n.ID()] = deployment.Arn()

	case topology.ApiFrontDoor:
		api, err := e.FrontDoor.Converge(ctx, n, g.Routes(n.ID()))
		if err != nil {
			return err
		}
		s.apis[n.ID()] = api.Id()
		e.output(n.ID(), "Endpoint", api.Endpoint())

	case topology.ApiRoute:
		apiId, lambdaArn := s.apis[n.Api], s.functions[n.Target]
		if apiId == "" || lambdaArn == "" {
			return fmt.Errorf("route %s: api or target was not provisioned", n.ID())
		}
		if err := e.FrontDoor.Mount(ctx, apiId, n, lambdaArn); err != nil {
			return err
		}

	case topology.StorageBucket:
		site, err := e.Website.Converge(ctx, n)
		if err != nil {
			return err
		}
		e.output(n.ID(), "WebsiteURL", site.URL)

	case topology.DeploymentStep:
		return e.sync(ctx, g, n)

	default:
		return fmt.Errorf("unsupported node kind %s", node.Kind())
	}

	return nil
}

func (e *Engine) sync(ctx context.Context, g *topology.Graph, step topology.DeploymentStep) error {
	ctx, span := otel.Tracer("").Start(ctx, "direct.sync")
	defer span.End()

	plan, err := e.Website.Sync(ctx, step, g.Asset(step.Source))
	if err != nil {
		return err
	}

	span.SetAttributes(attribute.Int("uploaded", len(plan.Upload)), attribute.Int("deleted", len(plan.Delete)))
	return nil
}

// targets maps each route key of api to the arn of its function, skipping
// functions that are already gone.
func (e *Engine) targets(ctx context.Context, g *topology.Graph, api topology.ApiFrontDoor) map[string]string {
	targets := map[string]string{}

	for _, route := range g.Routes(api.ID()) {
		unit, ok := g.ComputeUnit(route.Target)
		if !ok {
			continue
		}

		deployment, err := e.Compute.Find(ctx, unit)
		if err != nil {
			log.Debug().Err(err).Str("node", unit.ID()).Msg("function not found, skipping permission cleanup")
			continue
		}

		targets[route.Key()] = deployment.Arn()
	}

	return targets
}

func (e *Engine) output(node, key, value string) {
	if value == "" {
		return
	}
	e.Outputs = append(e.Outputs, Output{Node: node, Key: key, Value: value})
}

// SortedOutputs returns Outputs ordered by node then key.
func (e *Engine) SortedOutputs() []Output {
	outputs := append([]Output(nil), e.Outputs...)
	sort.Slice(outputs, func(i, j int) bool {
		if outputs[i].Node != outputs[j].Node {
			return outputs[i].Node < outputs[j].Node
		}
		return outputs[i].Key < outputs[j].Key
	})
	return outputs
}
