package umwelt

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

func GetCaller(ctx context.Context, awsConfig aws.Config, stsc STSClient) (ThisCaller, error) {
	whoAmI := &sts.GetCallerIdentityInput{}
	caller, err := stsc.GetCallerIdentity(ctx, whoAmI)
	if err != nil {
		return ThisCaller{}, err
	}

	if awsConfig.Region == "" {
		return ThisCaller{}, fmt.Errorf("no AWS region configured, set AWS_REGION or a profile region")
	}

	return ThisCaller{
		Id:      aws.ToString(caller.UserId),
		Arn:     aws.ToString(caller.Arn),
		Account: aws.ToString(caller.Account),
		Region:  awsConfig.Region,
	}, nil
}

// GetS3Endpoint reads an S3 endpoint override from <prefix>_ENDPOINT, with
// optional static keys from <prefix>_ACCESS_KEY and <prefix>_SECRET_KEY.
func GetS3Endpoint(prefix string) ThisS3 {
	var s3 ThisS3

	endpoint, exists := os.LookupEnv(prefix + "_ENDPOINT")
	if !exists || endpoint == "" {
		return s3
	}

	s3.Endpoint = endpoint
	s3.AccessKey = os.Getenv(prefix + "_ACCESS_KEY")
	s3.SecretKey = os.Getenv(prefix + "_SECRET_KEY")

	return s3
}
