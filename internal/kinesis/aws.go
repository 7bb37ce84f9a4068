package kinesis

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awskinesis "github.com/aws/aws-sdk-go-v2/service/kinesis"
)

// ClientConfig selects the AWS account and endpoint the SDK client talks to.
type ClientConfig struct {
	// Region is the AWS region of the stream.
	Region string

	// Endpoint overrides the service endpoint, for local stacks and
	// integration tests. Empty uses the AWS default.
	Endpoint string

	// AccessKeyID and SecretAccessKey select static credentials. Left
	// empty, the SDK's default chain applies (env, shared config, IMDS).
	AccessKeyID     string
	SecretAccessKey string
}

// NewAPI builds the SDK Kinesis client from cfg.
func NewAPI(ctx context.Context, cfg ClientConfig) (API, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return awskinesis.NewFromConfig(awsCfg, func(o *awskinesis.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}
