package config

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/linecard/hellocdk/internal/util"
)

var unsafeName = regexp.MustCompile(`[^a-z0-9-]+`)

type Caller struct {
	Arn string
}

type Account struct {
	Id     string
	Region string
}

type Git struct {
	Branch string
	Sha    string
	Dirty  bool
}

type S3 struct {
	Endpoint  string
	AccessKey string `json:"-"`
	SecretKey string `json:"-"`
}

type Config struct {
	Stack   string
	Root    string
	Out     string
	Caller  Caller
	Account Account
	Git     Git
	S3      S3
	Version string
}

// ResourceName is the physical name of a node: <stack>-<logicalID>, lower-cased
// and restricted to characters every AWS name accepts.
func (c Config) ResourceName(logicalID string) string {
	name := strings.ToLower(util.DeSlasher(c.Stack + "-" + logicalID))
	return strings.Trim(unsafeName.ReplaceAllString(name, "-"), "-")
}

// BucketName appends the account id, since bucket names are global.
func (c Config) BucketName(logicalID string) string {
	if c.Account.Id == "" {
		return c.ResourceName(logicalID)
	}
	return c.ResourceName(logicalID) + "-" + c.Account.Id
}

func (c Config) PolicyArn(logicalID string) string {
	return util.PolicyArnFromName(c.Account.Id, c.ResourceName(logicalID))
}

// Tags are applied to every provisioned resource.
func (c Config) Tags() map[string]string {
	tags := map[string]string{
		"Stack":     c.Stack,
		"ManagedBy": "hellocdk",
	}

	if c.Git.Branch != "" {
		tags["Branch"] = c.Git.Branch
	}

	if c.Git.Sha != "" {
		tags["Sha"] = c.Git.Sha
	}

	if c.Git.Dirty {
		tags["Dirty"] = "true"
	}

	return tags
}

func (c Config) Json() (string, error) {
	cJson, err := json.Marshal(c)
	if err != nil {
		return "", err
	}

	return string(cJson), nil
}
