// Package eks provides the EKS cluster listing tool.
package eks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awseks "github.com/aws/aws-sdk-go-v2/service/eks"

	"github.com/felixgeelhaar/aws-mcp/domain/tool"
	"github.com/felixgeelhaar/aws-mcp/infrastructure/session"
)

// Client is the subset of the EKS API this pack uses.
type Client interface {
	ListClusters(ctx context.Context, params *awseks.ListClustersInput, optFns ...func(*awseks.Options)) (*awseks.ListClustersOutput, error)
	DescribeCluster(ctx context.Context, params *awseks.DescribeClusterInput, optFns ...func(*awseks.Options)) (*awseks.DescribeClusterOutput, error)
}

// Config configures the EKS pack.
type Config struct {
	// Sessions resolves AWS configuration per invocation.
	Sessions session.Loader

	// NewClient builds an EKS client from resolved configuration.
	NewClient func(aws.Config) Client
}

// New creates the EKS tools.
func New(cfg Config) []tool.Tool {
	if cfg.Sessions == nil {
		cfg.Sessions = session.NewFactory()
	}
	if cfg.NewClient == nil {
		cfg.NewClient = func(c aws.Config) Client { return awseks.NewFromConfig(c) }
	}
	return []tool.Tool{listClustersTool(&cfg)}
}

func (c *Config) client(ctx context.Context, sess session.Session) (Client, error) {
	awsCfg, err := c.Sessions.Load(ctx, sess)
	if err != nil {
		return nil, err
	}
	return c.NewClient(awsCfg), nil
}

type listClustersInput struct {
	session.Args
	IncludeAll bool `json:"include_all,omitempty"`
}

// clusterDetail is one entry of the include_all listing. Detail fields are
// best effort: a failed describe leaves only Name and Error populated.
type clusterDetail struct {
	Name            string            `json:"name"`
	Status          string            `json:"status,omitempty"`
	Version         string            `json:"version,omitempty"`
	PlatformVersion string            `json:"platform_version,omitempty"`
	Endpoint        string            `json:"endpoint,omitempty"`
	Arn             string            `json:"arn,omitempty"`
	CreatedAt       *time.Time        `json:"created_at,omitempty"`
	Tags            map[string]string `json:"tags,omitempty"`
	Error           string            `json:"error,omitempty"`
}

type listClustersOutput struct {
	Clusters any `json:"clusters"`
	Count    int `json:"count"`
}

func listClustersTool(cfg *Config) tool.Tool {
	return tool.NewBuilder("list_eks_clusters").
		WithDescription("Lists EKS clusters. With include_all, describes each cluster; clusters that fail to describe carry an inline error instead of failing the call.").
		WithInputSchema(tool.ObjectSchema(map[string]json.RawMessage{
			"profile_name": tool.StringProp("The AWS CLI profile name to use. If not provided, the default profile is used."),
			"region_name":  tool.StringProp("The AWS region to use. If not provided, the default configured region for the profile is used."),
			"include_all":  tool.BoolProp("Describe each cluster in addition to listing names.", false),
		}, nil)).
		ReadOnly().
		WithTags("eks").
		WithHandler(func(ctx context.Context, input json.RawMessage) (tool.Result, error) {
			var in listClustersInput
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

			names, err := listAllClusters(ctx, client)
			if err != nil {
				return tool.Result{}, session.Classify(err, sess.Profile)
			}

			out := listClustersOutput{Count: len(names)}
			if in.IncludeAll {
				out.Clusters = describeClusters(ctx, client, names)
			} else {
				out.Clusters = names
			}

			data, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return tool.Result{}, session.Classify(err, sess.Profile)
			}
			return tool.NewResult(data), nil
		}).
		MustBuild()
}

// listAllClusters drains ListClusters pagination.
func listAllClusters(ctx context.Context, client Client) ([]string, error) {
	var names []string
	var nextToken *string
	for {
		output, err := client.ListClusters(ctx, &awseks.ListClustersInput{NextToken: nextToken})
		if err != nil {
			return nil, err
		}
		names = append(names, output.Clusters...)
		if output.NextToken == nil {
			break
		}
		nextToken = output.NextToken
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// describeClusters describes each cluster best effort: a failing describe
// yields an entry with an inline error rather than aborting the listing.
func describeClusters(ctx context.Context, client Client, names []string) []clusterDetail {
	details := make([]clusterDetail, 0, len(names))
	for _, name := range names {
		output, err := client.DescribeCluster(ctx, &awseks.DescribeClusterInput{Name: aws.String(name)})
		if err != nil {
			details = append(details, clusterDetail{Name: name, Error: err.Error()})
			continue
		}
		c := output.Cluster
		detail := clusterDetail{
			Name:            name,
			Status:          string(c.Status),
			Version:         aws.ToString(c.Version),
			PlatformVersion: aws.ToString(c.PlatformVersion),
			Endpoint:        aws.ToString(c.Endpoint),
			Arn:             aws.ToString(c.Arn),
			Tags:            c.Tags,
		}
		if c.CreatedAt != nil {
			created := *c.CreatedAt
			detail.CreatedAt = &created
		}
		details = append(details, detail)
	}
	return details
}
