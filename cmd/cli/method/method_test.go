package method

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/linecard/hellocdk/cmd/cli/param"
	"github.com/linecard/hellocdk/pkg/convention/compute"
	"github.com/linecard/hellocdk/pkg/convention/config"
	"github.com/linecard/hellocdk/pkg/convention/curl"
	"github.com/linecard/hellocdk/pkg/convention/frontdoor"
	"github.com/linecard/hellocdk/pkg/convention/website"
	"github.com/linecard/hellocdk/pkg/engine/cloudformation"
	servicemock "github.com/linecard/hellocdk/pkg/mock/service"
	"github.com/linecard/hellocdk/pkg/sdk"
	"github.com/linecard/hellocdk/pkg/stack"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/apigatewayv2/types"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func localEnv(t *testing.T) (Env, *bytes.Buffer) {
	t.Helper()

	g, err := stack.Hello("", "../../..")
	require.NoError(t, err)

	out := &bytes.Buffer{}
	cfg := config.Config{Stack: stack.Name, Root: "../../..", Out: t.TempDir()}
	cfg.Account.Id = "123456789012"
	cfg.Account.Region = "us-west-2"

	return Env{Config: cfg, Graph: g, Out: out}, out
}

func TestLocalCommands(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		test func(*testing.T, Env, *bytes.Buffer)
	}{
		{
			name: "synth writes a cloudformation assembly",
			test: func(t *testing.T, env Env, out *bytes.Buffer) {
				require.NoError(t, Synth(ctx, env, &param.Synth{Engine: "cloudformation", Format: "yaml"}))

				manifest, err := cloudformation.ReadManifest(env.Config.Out)
				require.NoError(t, err)
				assert.Equal(t, stack.Name, manifest.Stack)
				assert.FileExists(t, filepath.Join(env.Config.Out, manifest.Template))
				assert.Contains(t, out.String(), env.Config.Out)
			},
		},
		{
			name: "synth rejects unknown engines",
			test: func(t *testing.T, env Env, out *bytes.Buffer) {
				assert.EqualError(t, Synth(ctx, env, &param.Synth{Engine: "terraform"}), `unknown engine "terraform"`)
			},
		},
		{
			name: "synth rejects unknown formats",
			test: func(t *testing.T, env Env, out *bytes.Buffer) {
				assert.Error(t, Synth(ctx, env, &param.Synth{Engine: "cloudformation", Format: "toml"}))

				entries, err := os.ReadDir(env.Config.Out)
				require.NoError(t, err)
				assert.Empty(t, entries)
			},
		},
		{
			name: "plan lists every node",
			test: func(t *testing.T, env Env, out *bytes.Buffer) {
				require.NoError(t, Plan(ctx, env, &param.Plan{}))
				for _, id := range env.Graph.Order() {
					assert.Contains(t, out.String(), id)
				}
			},
		},
		{
			name: "graph renders mermaid",
			test: func(t *testing.T, env Env, out *bytes.Buffer) {
				require.NoError(t, Graph(ctx, env, &param.Graph{Format: "mermaid"}))
				assert.Contains(t, out.String(), stack.FunctionName)
			},
		},
		{
			name: "destroy needs confirmation",
			test: func(t *testing.T, env Env, out *bytes.Buffer) {
				assert.Error(t, Destroy(ctx, env, &param.Destroy{}))
			},
		},
		{
			name: "config hides S3 secrets",
			test: func(t *testing.T, env Env, out *bytes.Buffer) {
				env.Config.S3 = config.S3{Endpoint: "http://localhost:9000", AccessKey: "minio", SecretKey: "minio123"}

				require.NoError(t, PrintConfig(ctx, env, &param.Config{}))
				assert.Contains(t, out.String(), "localhost:9000")
				assert.NotContains(t, out.String(), "minio123")
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env, out := localEnv(t)
			tc.test(t, env, out)
		})
	}
}

func TestStatus(t *testing.T) {
	ctx := context.Background()
	env, out := localEnv(t)

	mf := &servicemock.MockFunctionService{}
	mg := &servicemock.MockGatewayService{}
	mb := &servicemock.MockBucketService{}

	mf.On("Inspect", mock.Anything, "hellocdkstack-mycdkfunction").Return((*lambda.GetFunctionOutput)(nil), &smithy.GenericAPIError{Code: "ResourceNotFoundException"})
	mg.On("FindApi", mock.Anything, "hellocdkstack-mycdkapi").Return(&types.Api{
		ApiId:       aws.String("abc123"),
		ApiEndpoint: aws.String("https://abc123.execute-api.us-west-2.amazonaws.com"),
	}, nil)
	mb.On("Exists", mock.Anything, "hellocdkstack-websitebucket-123456789012").Return(false, nil)

	env.API = sdk.API{
		Conventions: sdk.Conventions{
			Compute:   compute.FromServices(env.Config, mf),
			FrontDoor: frontdoor.FromServices(env.Config, mg),
			Website:   website.FromServices(env.Config, mb),
		},
		Config: env.Config,
	}

	require.NoError(t, Status(ctx, env, &param.Status{}))

	assert.Contains(t, out.String(), "https://abc123.execute-api.us-west-2.amazonaws.com")
	assert.Contains(t, out.String(), "not deployed")
}

func TestInvoke(t *testing.T) {
	ctx := context.Background()
	env, out := localEnv(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":"sent"}`))
	}))
	defer server.Close()

	mg := &servicemock.MockGatewayService{}
	mg.On("FindApi", mock.Anything, "hellocdkstack-mycdkapi").Return(&types.Api{
		ApiId:       aws.String("abc123"),
		ApiEndpoint: aws.String(server.URL),
	}, nil)

	env.API = sdk.API{
		Conventions: sdk.Conventions{
			FrontDoor: frontdoor.FromServices(env.Config, mg),
			Curl:      curl.FromServices(env.Config, server.Client()),
		},
	}

	require.NoError(t, Invoke(ctx, env, &param.Invoke{Data: `{"to":"someone@example.com"}`}))
	assert.Contains(t, out.String(), "POST / 200")
	assert.Contains(t, out.String(), `{"message":"sent"}`)
}
