package config

import (
	"path/filepath"

	"github.com/linecard/hellocdk/internal/umwelt"
)

const (
	DefaultStack = "HelloCdkStack"
	DefaultOut   = "cdk.out"
)

func FromHere(here umwelt.Here, stack, out string) (c Config) {
	c.Stack = stack
	if c.Stack == "" {
		c.Stack = DefaultStack
	}

	c.Root = here.Root

	c.Out = out
	if c.Out == "" {
		c.Out = DefaultOut
	}
	if !filepath.IsAbs(c.Out) {
		c.Out = filepath.Join(c.Root, c.Out)
	}

	c.Caller.Arn = here.Caller.Arn

	c.Account.Id = here.Caller.Account
	c.Account.Region = here.Caller.Region

	c.Git.Branch = here.Git.Branch
	c.Git.Sha = here.Git.Sha
	c.Git.Dirty = here.Git.Dirty

	c.S3.Endpoint = here.S3.Endpoint
	c.S3.AccessKey = here.S3.AccessKey
	c.S3.SecretKey = here.S3.SecretKey

	return
}
