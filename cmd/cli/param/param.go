package param

type GlobalOpts struct {
	Stack string `arg:"-s,--stack,env:HELLOCDK_STACK" help:"stack name" default:"HelloCdkStack"`
	Out   string `arg:"-o,--out,env:HELLOCDK_OUT" help:"output directory, relative to the project root" default:"cdk.out"`
}

type Synth struct {
	Engine string `arg:"-e,--engine" help:"cloudformation or cdk" default:"cloudformation"`
	Format string `arg:"-f,--format" help:"template format, json or yaml" default:"json"`
}

type Plan struct{}

type Graph struct {
	Format string `arg:"-f,--format" help:"dot or mermaid" default:"dot"`
}

type Deploy struct{}

type Sync struct {
	DryRun bool `arg:"-n,--dry-run" help:"show what would be uploaded and deleted"`
}

type Status struct{}

type Destroy struct {
	Yes bool `arg:"-y,--yes" help:"confirm teardown of every deployed resource"`
}

type Config struct{}

type Invoke struct {
	Data string `arg:"-d,--data" help:"JSON request body" default:"{}"`
}
