package router

import (
	"testing"

	"github.com/alexflint/go-arg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, args ...string) Root {
	t.Helper()

	var root Root
	p, err := arg.NewParser(arg.Config{}, &root)
	require.NoError(t, err)
	require.NoError(t, p.Parse(args))

	return root
}

func TestRoot(t *testing.T) {
	tests := []struct {
		name string
		args []string
		test func(*testing.T, Root)
	}{
		{
			name: "no subcommand keeps defaults",
			args: []string{},
			test: func(t *testing.T, r Root) {
				assert.Equal(t, "HelloCdkStack", r.Stack)
				assert.Equal(t, "cdk.out", r.Out)
				assert.Nil(t, r.Synth)
				assert.False(t, r.Remote())
			},
		},
		{
			name: "synth takes engine and format",
			args: []string{"synth", "--engine", "cdk", "--format", "yaml"},
			test: func(t *testing.T, r Root) {
				require.NotNil(t, r.Synth)
				assert.Equal(t, "cdk", r.Synth.Engine)
				assert.Equal(t, "yaml", r.Synth.Format)
				assert.False(t, r.Remote())
			},
		},
		{
			name: "deploy talks to AWS",
			args: []string{"--stack", "Other", "deploy"},
			test: func(t *testing.T, r Root) {
				assert.Equal(t, "Other", r.Stack)
				assert.NotNil(t, r.Deploy)
				assert.True(t, r.Remote())
			},
		},
		{
			name: "sync dry run",
			args: []string{"sync", "-n"},
			test: func(t *testing.T, r Root) {
				require.NotNil(t, r.Sync)
				assert.True(t, r.Sync.DryRun)
				assert.True(t, r.Remote())
			},
		},
		{
			name: "graph defaults to dot",
			args: []string{"graph"},
			test: func(t *testing.T, r Root) {
				require.NotNil(t, r.Graph)
				assert.Equal(t, "dot", r.Graph.Format)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.test(t, parse(t, tc.args...))
		})
	}
}
