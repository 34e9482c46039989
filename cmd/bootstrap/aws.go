package bootstrap

import (
	"context"

	"github.com/gabpmcp/bolivar-test/internal/pkg/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"go.uber.org/fx"
)

var AWSModule = fx.Module("aws",
	fx.Provide(
		NewAWSConfig,
		NewS3Client,
		NewSQSClient,
		NewDynamoClient,
	),
)

// NewAWSConfig loads the default credential chain. Endpoint overrides mean a
// local stack, which only accepts static throwaway credentials.
func NewAWSConfig(cfg config.Config) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.AWS.Region),
	}
	if cfg.AWS.HasEndpointOverrides() {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider("test", "test", ""),
		))
	}
	return awsconfig.LoadDefaultConfig(context.Background(), opts...)
}

func NewS3Client(cfg config.Config, awsCfg aws.Config) *s3.Client {
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.AWS.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.AWS.S3Endpoint)
			// Local stacks resolve buckets by path, not virtual host.
			o.UsePathStyle = true
		}
	})
}

func NewSQSClient(cfg config.Config, awsCfg aws.Config) *sqs.Client {
	return sqs.NewFromConfig(awsCfg, func(o *sqs.Options) {
		if cfg.AWS.SQSEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.AWS.SQSEndpoint)
		}
	})
}

func NewDynamoClient(cfg config.Config, awsCfg aws.Config) *dynamodb.Client {
	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.AWS.DynamoEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.AWS.DynamoEndpoint)
		}
	})
}
