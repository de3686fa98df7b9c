package method

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/linecard/hellocdk/cmd/cli/param"
	"github.com/linecard/hellocdk/cmd/cli/view"
	"github.com/linecard/hellocdk/pkg/convention/config"
	"github.com/linecard/hellocdk/pkg/engine"
	"github.com/linecard/hellocdk/pkg/engine/cdk"
	"github.com/linecard/hellocdk/pkg/engine/cloudformation"
	"github.com/linecard/hellocdk/pkg/sdk"
	"github.com/linecard/hellocdk/pkg/topology"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog/log"
)

// Env is what every subcommand works from. API is only initialized for
// subcommands that talk to AWS.
type Env struct {
	Config config.Config
	Graph  *topology.Graph
	API    sdk.API
	Out    io.Writer
}

func Synth(ctx context.Context, env Env, p *param.Synth) error {
	var e engine.Engine

	switch p.Engine {
	case cloudformation.Name:
		format := cloudformation.Format(p.Format)
		if format != cloudformation.JSON && format != cloudformation.YAML {
			return fmt.Errorf("unknown template format %q", p.Format)
		}
		e = cloudformation.New(env.Config.Out, format, env.Config.Tags())

	case cdk.Name:
		e = cdk.New(env.Config.Out, env.Config.Tags())

	default:
		return fmt.Errorf("unknown engine %q", p.Engine)
	}

	if err := e.Run(ctx, env.Graph); err != nil {
		return err
	}

	fmt.Fprintln(env.Out, env.Config.Out)
	return nil
}

func Plan(ctx context.Context, env Env, p *param.Plan) error {
	warnWildcards(env.Graph)
	fmt.Fprintln(env.Out, view.Plan(env.Graph))
	return nil
}

func Graph(ctx context.Context, env Env, p *param.Graph) error {
	return topology.Render(env.Graph, topology.Format(p.Format), env.Out)
}

func Deploy(ctx context.Context, env Env, p *param.Deploy) error {
	warnWildcards(env.Graph)

	if err := env.API.Engine.Run(ctx, env.Graph); err != nil {
		return err
	}

	fmt.Fprintln(env.Out, view.Outputs(env.API.Engine.SortedOutputs()))
	return nil
}

func Sync(ctx context.Context, env Env, p *param.Sync) error {
	if !p.DryRun {
		return env.API.Engine.Sync(ctx, env.Graph)
	}

	for _, step := range env.Graph.Deployments() {
		plan, err := env.API.Website.Plan(ctx, step, env.Graph.Asset(step.Source))
		if err != nil {
			return engine.Wrap("direct", step.ID(), err)
		}
		fmt.Fprintln(env.Out, view.SyncPlan(step, plan))
	}

	return nil
}

func Status(ctx context.Context, env Env, p *param.Status) error {
	var rows []view.StatusRow

	for _, unit := range env.Graph.ComputeUnits() {
		row := view.StatusRow{Node: unit.ID(), Kind: unit.Kind()}

		deployment, err := env.API.Compute.Find(ctx, unit)
		switch {
		case notFound(err):
		case err != nil:
			return engine.Wrap("direct", unit.ID(), err)
		default:
			row.Physical = deployment.Arn()
			row.Revision = deployment.Tags["Sha"]
			if deployment.Configuration != nil {
				row.Updated = view.Since(aws.ToString(deployment.Configuration.LastModified))
			}
		}

		rows = append(rows, row)
	}

	for _, api := range env.Graph.Apis() {
		row := view.StatusRow{Node: api.ID(), Kind: api.Kind()}

		found, exists, err := env.API.FrontDoor.Find(ctx, api)
		if err != nil {
			return engine.Wrap("direct", api.ID(), err)
		}

		if exists {
			row.Physical = found.Endpoint()
			if found.CreatedDate != nil {
				row.Updated = view.SinceTime(*found.CreatedDate)
			}
		}

		rows = append(rows, row)
	}

	for _, bucket := range env.Graph.Buckets() {
		row := view.StatusRow{Node: bucket.ID(), Kind: bucket.Kind()}

		site, exists, err := env.API.Website.Find(ctx, bucket)
		if err != nil {
			return engine.Wrap("direct", bucket.ID(), err)
		}

		if exists {
			row.Physical = site.Bucket
			if site.URL != "" {
				row.Physical = site.URL
			}
		}

		rows = append(rows, row)
	}

	fmt.Fprintln(env.Out, view.Status(rows))
	return nil
}

func Invoke(ctx context.Context, env Env, p *param.Invoke) error {
	for _, api := range env.Graph.Apis() {
		found, exists, err := env.API.FrontDoor.Find(ctx, api)
		if err != nil {
			return engine.Wrap("direct", api.ID(), err)
		}

		if !exists {
			return fmt.Errorf("api %s is not deployed, run deploy first", api.ID())
		}

		for _, route := range env.Graph.Routes(api.ID()) {
			response, err := env.API.Curl.Call(ctx, route.Method, found.Endpoint(), route.Path, []byte(p.Data))
			if err != nil {
				return engine.Wrap("direct", route.ID(), err)
			}

			fmt.Fprintf(env.Out, "%s %d\n%s\n", route.Key(), response.Status, response.Body)
		}
	}

	return nil
}

func Destroy(ctx context.Context, env Env, p *param.Destroy) error {
	if !p.Yes {
		return fmt.Errorf("destroy removes every resource of %s, pass --yes to confirm", env.Config.Stack)
	}

	return env.API.Engine.Destroy(ctx, env.Graph)
}

func PrintConfig(ctx context.Context, env Env, p *param.Config) error {
	cJson, err := env.Config.Json()
	if err != nil {
		return err
	}

	fmt.Fprintln(env.Out, cJson)
	return nil
}

func warnWildcards(g *topology.Graph) {
	for _, unit := range g.ComputeUnits() {
		for _, statement := range unit.Permissions {
			if statement.Wildcard() {
				log.Warn().
					Str("node", unit.ID()).
					Strs("actions", statement.Actions).
					Strs("resources", statement.Resources).
					Msg("wildcard permission grant")
			}
		}
	}
}

func notFound(err error) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "ResourceNotFoundException"
}
