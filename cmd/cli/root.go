package cli

import (
	"context"
	"errors"
	"os"

	"github.com/alexflint/go-arg"
	"github.com/linecard/hellocdk/cmd/cli/method"
	"github.com/linecard/hellocdk/cmd/cli/router"
	"github.com/linecard/hellocdk/internal/gitlib"
	"github.com/linecard/hellocdk/internal/umwelt"
	"github.com/linecard/hellocdk/internal/util"
	"github.com/linecard/hellocdk/pkg/convention/config"
	"github.com/linecard/hellocdk/pkg/engine"
	"github.com/linecard/hellocdk/pkg/sdk"
	"github.com/linecard/hellocdk/pkg/stack"
	"go.opentelemetry.io/otel"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Invoke() {
	var err error
	var here umwelt.Here
	var api sdk.API

	ctx := context.Background()
	ctx, span := otel.Tracer("").Start(ctx, "hellocdk")
	defer span.End()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).With().Caller().Logger()

	var root router.Root
	arg.MustParse(&root)

	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to read working directory")
	}

	git, err := gitlib.FromCwd()
	if err != nil {
		log.Debug().Err(err).Msg("no git checkout found, resources will not carry git tags")
		git = gitlib.DotGit{}
	}

	here = umwelt.Local(cwd, git)

	if root.Remote() {
		retryLogger := util.RetryLogger{
			Log: &log.Logger,
		}

		awsConfig, err := awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithLogger(&retryLogger),
			awsconfig.WithClientLogMode(aws.LogRetries))

		if err != nil {
			log.Fatal().Err(err).Msg("failed to load AWS configuration")
		}

		if here, err = umwelt.FromCwd(ctx, cwd, git, awsConfig, sts.NewFromConfig(awsConfig)); err != nil {
			log.Fatal().Err(err).Msg("failed to identify AWS caller")
		}

		if api, err = sdk.Init(ctx, awsConfig, config.FromHere(here, root.Stack, root.Out)); err != nil {
			log.Fatal().Err(err).Msg("failed to initialize SDK")
		}
	}

	cfg := config.FromHere(here, root.Stack, root.Out)

	g, err := stack.Hello(cfg.Stack, cfg.Root)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid stack declaration")
	}

	env := method.Env{
		Config: cfg,
		Graph:  g,
		API:    api,
		Out:    os.Stdout,
	}

	if err := root.Route(ctx, env); err != nil {
		event := log.Fatal().Err(err).Strs("argv", os.Args)
		var perr *engine.ProvisioningError
		if errors.As(err, &perr) {
			event = event.Str("engine", perr.Engine).Str("node", perr.Node).Str("kind", string(perr.Kind()))
		}
		event.Msg("failed command")
	}
}
