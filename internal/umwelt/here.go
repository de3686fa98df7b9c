package umwelt

import (
	"context"

	"github.com/linecard/hellocdk/internal/gitlib"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// https://en.wikipedia.org/wiki/Umwelt
//
// Umwelt (German for "environment" or "surroundings") describes what the
// program can sense about where it runs: the project on disk, the git
// checkout around it and, when asked, the AWS caller.

type STSClient interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

type ThisCaller struct {
	Id      string
	Arn     string
	Account string
	Region  string
}

type ThisS3 struct {
	Endpoint  string
	AccessKey string
	SecretKey string
}

func (s ThisS3) Static() bool {
	return s.AccessKey != "" && s.SecretKey != ""
}

type Here struct {
	Root   string
	Caller ThisCaller
	Git    gitlib.DotGit
	S3     ThisS3
}

// Local senses everything that needs no network.
func Local(cwd string, git gitlib.DotGit) Here {
	return Here{
		Root: FindRoot(cwd, git.Root),
		Git:  git,
		S3:   GetS3Endpoint("HELLOCDK_S3"),
	}
}

func FromCwd(ctx context.Context, cwd string, git gitlib.DotGit, awsConfig aws.Config, stsc STSClient) (here Here, err error) {
	here = Local(cwd, git)

	if here.Caller, err = GetCaller(ctx, awsConfig, stsc); err != nil {
		return here, err
	}

	return here, nil
}
