package router

import (
	"context"

	"github.com/linecard/hellocdk/cmd/cli/method"
	"github.com/linecard/hellocdk/cmd/cli/param"
)

type Root struct {
	param.GlobalOpts
	Synth   *param.Synth   `arg:"subcommand:synth" help:"Synthesize the stack (default)"`
	Plan    *param.Plan    `arg:"subcommand:plan" help:"Print the provisioning order"`
	Graph   *param.Graph   `arg:"subcommand:graph" help:"Render the dependency graph"`
	Deploy  *param.Deploy  `arg:"subcommand:deploy" help:"Provision the stack directly against AWS"`
	Sync    *param.Sync    `arg:"subcommand:sync" help:"Upload website content to deployed buckets"`
	Status  *param.Status  `arg:"subcommand:status" help:"Show what is deployed"`
	Invoke  *param.Invoke  `arg:"subcommand:invoke" help:"Call every route of the deployed API"`
	Destroy *param.Destroy `arg:"subcommand:destroy" help:"Tear the stack down"`
	Config  *param.Config  `arg:"subcommand:config" help:"Print configuration"`
}

func (Root) Description() string {
	return "hellocdk declares the HelloCdkStack: a Lambda function behind an API, and a public website bucket.\n"
}

// Remote reports whether the chosen subcommand talks to AWS.
func (r Root) Remote() bool {
	return r.Deploy != nil || r.Sync != nil || r.Status != nil || r.Invoke != nil || r.Destroy != nil
}

func (r Root) Route(ctx context.Context, env method.Env) error {
	switch {
	case r.Synth != nil:
		return method.Synth(ctx, env, r.Synth)

	case r.Plan != nil:
		return method.Plan(ctx, env, r.Plan)

	case r.Graph != nil:
		return method.Graph(ctx, env, r.Graph)

	case r.Deploy != nil:
		return method.Deploy(ctx, env, r.Deploy)

	case r.Sync != nil:
		return method.Sync(ctx, env, r.Sync)

	case r.Status != nil:
		return method.Status(ctx, env, r.Status)

	case r.Invoke != nil:
		return method.Invoke(ctx, env, r.Invoke)

	case r.Destroy != nil:
		return method.Destroy(ctx, env, r.Destroy)

	case r.Config != nil:
		return method.PrintConfig(ctx, env, r.Config)

	default:
		return method.Synth(ctx, env, &param.Synth{Engine: "cloudformation", Format: "json"})
	}
}
