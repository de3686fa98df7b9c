package sdk

import (
	"context"
	"testing"

	"github.com/linecard/hellocdk/pkg/convention/config"
	"github.com/linecard/hellocdk/pkg/service/bucket"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestS3Options(t *testing.T) {
	tests := []struct {
		name string
		s3   config.S3
		test func(*testing.T, []func(*s3.Options))
	}{
		{
			name: "no endpoint leaves the client alone",
			test: func(t *testing.T, opts []func(*s3.Options)) {
				assert.Empty(t, opts)
			},
		},
		{
			name: "endpoint switches to path style",
			s3:   config.S3{Endpoint: "http://localhost:9000"},
			test: func(t *testing.T, opts []func(*s3.Options)) {
				var o s3.Options
				for _, fn := range opts {
					fn(&o)
				}
				assert.Equal(t, "http://localhost:9000", aws.ToString(o.BaseEndpoint))
				assert.True(t, o.UsePathStyle)
				assert.Nil(t, o.Credentials)
			},
		},
		{
			name: "keys switch to static credentials",
			s3:   config.S3{Endpoint: "http://localhost:9000", AccessKey: "minio", SecretKey: "minio123"},
			test: func(t *testing.T, opts []func(*s3.Options)) {
				var o s3.Options
				for _, fn := range opts {
					fn(&o)
				}
				require.NotNil(t, o.Credentials)

				creds, err := o.Credentials.Retrieve(context.Background())
				require.NoError(t, err)
				assert.Equal(t, "minio", creds.AccessKeyID)
				assert.Equal(t, "minio123", creds.SecretAccessKey)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.test(t, S3Options(config.Config{S3: tc.s3}))
		})
	}
}

func TestInit(t *testing.T) {
	cfg := config.Config{Stack: "HelloCdkStack"}
	cfg.Account.Region = "us-west-2"

	api, err := Init(context.Background(), aws.Config{Region: "us-west-2"}, cfg)
	require.NoError(t, err)

	require.NotNil(t, api.Engine)
	assert.Equal(t, "HelloCdkStack", api.Config.Stack)

	bucketService, ok := api.Website.Service.Bucket.(bucket.Service)
	require.True(t, ok)
	assert.Equal(t, "us-west-2", bucketService.Region)
}
