package function

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	types "github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog/log"
)

func (s Service) Inspect(ctx context.Context, name string) (*lambda.GetFunctionOutput, error) {
	getFunctionInput := &lambda.GetFunctionInput{
		FunctionName: aws.String(name),
	}

	return s.Client.Lambda.GetFunction(ctx, getFunctionInput)
}

// PutFunction creates the zip-packaged function or converges an existing one
// onto put. Code is only re-uploaded when its sha256 differs from the
// deployed code.
func (s Service) PutFunction(ctx context.Context, put *lambda.CreateFunctionInput) (*lambda.GetFunctionOutput, error) {
	var apiErr smithy.APIError

	getFunctionInput := &lambda.GetFunctionInput{
		FunctionName: put.FunctionName,
	}

	put.PackageType = types.PackageTypeZip

	current, err := s.Client.Lambda.GetFunction(ctx, getFunctionInput)
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ResourceNotFoundException":
			// a freshly created role is not assumable by lambda for a few seconds.
			_, err := s.Client.Lambda.CreateFunction(ctx, put, func(options *lambda.Options) {
				options.Retryer = retry.AddWithErrorCodes(options.Retryer, (*types.InvalidParameterValueException)(nil).ErrorCode())
				options.Retryer = retry.AddWithMaxAttempts(options.Retryer, 10)
			})
			if err != nil {
				return &lambda.GetFunctionOutput{}, err
			}

			return s.Client.Lambda.GetFunction(ctx, getFunctionInput)
		default:
			return &lambda.GetFunctionOutput{}, err
		}
	}
	if err != nil {
		return &lambda.GetFunctionOutput{}, err
	}

	_, err = s.Client.Lambda.UpdateFunctionConfiguration(ctx, &lambda.UpdateFunctionConfigurationInput{
		FunctionName: put.FunctionName,
		Role:         put.Role,
		Handler:      put.Handler,
		Runtime:      put.Runtime,
		MemorySize:   put.MemorySize,
		Timeout:      put.Timeout,
	}, func(options *lambda.Options) {
		options.Retryer = retry.AddWithErrorCodes(options.Retryer, (*types.ResourceConflictException)(nil).ErrorCode())
		options.Retryer = retry.AddWithMaxAttempts(options.Retryer, 10)
	})
	if err != nil {
		return &lambda.GetFunctionOutput{}, err
	}

	if put.Code != nil && !sameCode(current, put.Code.ZipFile) {
		_, err = s.Client.Lambda.UpdateFunctionCode(ctx, &lambda.UpdateFunctionCodeInput{
			FunctionName: put.FunctionName,
			ZipFile:      put.Code.ZipFile,
			Publish:      true,
		}, func(options *lambda.Options) {
			options.Retryer = retry.AddWithErrorCodes(options.Retryer, (*types.ResourceConflictException)(nil).ErrorCode())
			options.Retryer = retry.AddWithMaxAttempts(options.Retryer, 10)
		})
		if err != nil {
			return &lambda.GetFunctionOutput{}, err
		}
	} else {
		log.Debug().Str("function", aws.ToString(put.FunctionName)).Msg("code unchanged")
	}

	if len(put.Tags) > 0 {
		_, err = s.Client.Lambda.TagResource(ctx, &lambda.TagResourceInput{
			Resource: current.Configuration.FunctionArn,
			Tags:     put.Tags,
		})
		if err != nil {
			return &lambda.GetFunctionOutput{}, err
		}
	}

	return s.Client.Lambda.GetFunction(ctx, getFunctionInput)
}

func (s Service) DeleteFunction(ctx context.Context, name string) (*lambda.DeleteFunctionOutput, error) {
	deleteInput := lambda.DeleteFunctionInput{
		FunctionName: aws.String(name),
	}

	return s.Client.Lambda.DeleteFunction(ctx, &deleteInput)
}

// CodeSha256 is the digest lambda reports for a zip bundle.
func CodeSha256(zip []byte) string {
	sum := sha256.Sum256(zip)
	return base64.StdEncoding.EncodeToString(sum[:])
}

func sameCode(current *lambda.GetFunctionOutput, zip []byte) bool {
	if current == nil || current.Configuration == nil || zip == nil {
		return false
	}
	return aws.ToString(current.Configuration.CodeSha256) == CodeSha256(zip)
}
