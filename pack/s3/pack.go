// Package s3 provides the S3 bucket listing tool.
package s3

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/felixgeelhaar/aws-mcp/domain/tool"
	"github.com/felixgeelhaar/aws-mcp/infrastructure/session"
)

// Client is the subset of the S3 API this pack uses.
type Client interface {
	ListBuckets(ctx context.Context, params *awss3.ListBucketsInput, optFns ...func(*awss3.Options)) (*awss3.ListBucketsOutput, error)
}

// Config configures the S3 pack.
type Config struct {
	// Sessions resolves AWS configuration per invocation.
	Sessions session.Loader

	// NewClient builds an S3 client from resolved configuration.
	// Defaults to the SDK constructor; tests substitute fakes.
	NewClient func(aws.Config) Client
}

// New creates the S3 tools.
func New(cfg Config) []tool.Tool {
	if cfg.Sessions == nil {
		cfg.Sessions = session.NewFactory()
	}
	if cfg.NewClient == nil {
		cfg.NewClient = func(c aws.Config) Client { return awss3.NewFromConfig(c) }
	}
	return []tool.Tool{listBucketsTool(&cfg)}
}

func (c *Config) client(ctx context.Context, sess session.Session) (Client, error) {
	awsCfg, err := c.Sessions.Load(ctx, sess)
	if err != nil {
		return nil, err
	}
	return c.NewClient(awsCfg), nil
}

type listBucketsInput struct {
	session.Args
}

func listBucketsTool(cfg *Config) tool.Tool {
	return tool.NewBuilder("list_s3_buckets").
		WithDescription("Lists S3 buckets using the configured AWS profile. Optionally takes a profile name.").
		WithInputSchema(tool.ObjectSchema(map[string]json.RawMessage{
			"profile_name": tool.StringProp("The AWS CLI profile name to use. If not provided, the default profile is used."),
			"region_name":  tool.StringProp("The AWS region to use. If not provided, the default configured region for the profile is used."),
		}, nil)).
		ReadOnly().
		WithTags("s3").
		WithHandler(func(ctx context.Context, input json.RawMessage) (tool.Result, error) {
			var in listBucketsInput
			if len(input) > 0 {
				if err := json.Unmarshal(input, &in); err != nil {
					return tool.Result{}, fmt.Errorf("%w: %v", tool.ErrInvalidInput, err)
				}
			}
			sess := in.Session()

			client, err := cfg.client(ctx, sess)
			if err != nil {
				return tool.Result{}, session.Classify(err, sess.Profile)
			}

			output, err := client.ListBuckets(ctx, &awss3.ListBucketsInput{})
			if err != nil {
				return tool.Result{}, session.Classify(err, sess.Profile)
			}

			buckets := make([]string, 0, len(output.Buckets))
			for _, b := range output.Buckets {
				buckets = append(buckets, aws.ToString(b.Name))
			}

			data, err := json.MarshalIndent(buckets, "", "  ")
			if err != nil {
				return tool.Result{}, session.Classify(err, sess.Profile)
			}
			return tool.NewResult(data), nil
		}).
		MustBuild()
}
