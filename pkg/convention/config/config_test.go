package config

import (
	"testing"

	repomock "github.com/linecard/hellocdk/pkg/mock/repo"
	umweltmock "github.com/linecard/hellocdk/pkg/mock/umwelt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromHere(t *testing.T) {
	root := t.TempDir()
	mockGit := repomock.MockRepository(t, root, "feature/branch")

	here := umweltmock.FromCwd(root, mockGit)

	tests := []struct {
		name  string
		stack string
		out   string
		test  func(*testing.T, Config)
	}{
		{
			name: "defaults",
			test: func(t *testing.T, got Config) {
				assert.Equal(t, "HelloCdkStack", got.Stack)
				assert.Equal(t, root+"/cdk.out", got.Out)
				assert.Equal(t, root, got.Root)
				assert.Equal(t, "123456789012", got.Account.Id)
				assert.Equal(t, "us-west-2", got.Account.Region)
				assert.Equal(t, "feature/branch", got.Git.Branch)
				assert.Equal(t, mockGit.Sha, got.Git.Sha)
				assert.False(t, got.Git.Dirty)
			},
		},
		{
			name:  "explicit stack and absolute out",
			stack: "Other",
			out:   "/tmp/synth",
			test: func(t *testing.T, got Config) {
				assert.Equal(t, "Other", got.Stack)
				assert.Equal(t, "/tmp/synth", got.Out)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.test(t, FromHere(here, tc.stack, tc.out))
		})
	}
}

func TestNames(t *testing.T) {
	c := Config{Stack: "HelloCdkStack", Account: Account{Id: "123456789012"}}

	assert.Equal(t, "hellocdkstack-mycdkfunction", c.ResourceName("myCDKFunction"))
	assert.Equal(t, "hellocdkstack-websitebucket-123456789012", c.BucketName("WebsiteBucket"))
	assert.Equal(t, "arn:aws:iam::123456789012:policy/hellocdkstack-mycdkfunction", c.PolicyArn("myCDKFunction"))

	odd := Config{Stack: "team/Hello_Stack"}
	assert.Equal(t, "team-hello-stack-site", odd.ResourceName("Site"))
	assert.Equal(t, "team-hello-stack-site", odd.BucketName("Site"))
}

func TestTags(t *testing.T) {
	c := Config{Stack: "HelloCdkStack", Git: Git{Branch: "main", Sha: "abc"}}
	assert.Equal(t, map[string]string{
		"Stack":     "HelloCdkStack",
		"ManagedBy": "hellocdk",
		"Branch":    "main",
		"Sha":       "abc",
	}, c.Tags())

	assert.NotContains(t, c.Tags(), "Dirty")

	c.Git.Dirty = true
	assert.Equal(t, "true", c.Tags()["Dirty"])

	bare := Config{Stack: "HelloCdkStack"}
	assert.NotContains(t, bare.Tags(), "Sha")
}

func TestJsonOmitsSecrets(t *testing.T) {
	c := Config{Stack: "HelloCdkStack", S3: S3{Endpoint: "http://localhost:9000", SecretKey: "hunter2"}}

	out, err := c.Json()
	require.NoError(t, err)
	assert.Contains(t, out, "localhost:9000")
	assert.NotContains(t, out, "hunter2")
}
