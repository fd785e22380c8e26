// Package ecs provides the ECS cluster, service and task inspection tools.
package ecs

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsecs "github.com/aws/aws-sdk-go-v2/service/ecs"

	"github.com/felixgeelhaar/aws-mcp/domain/tool"
	"github.com/felixgeelhaar/aws-mcp/infrastructure/session"
)

// describeBatchSize is the DescribeServices API limit per call.
const describeBatchSize = 10

// Client is the subset of the ECS API this pack uses.
type Client interface {
	ListClusters(ctx context.Context, params *awsecs.ListClustersInput, optFns ...func(*awsecs.Options)) (*awsecs.ListClustersOutput, error)
	ListServices(ctx context.Context, params *awsecs.ListServicesInput, optFns ...func(*awsecs.Options)) (*awsecs.ListServicesOutput, error)
	ListTasks(ctx context.Context, params *awsecs.ListTasksInput, optFns ...func(*awsecs.Options)) (*awsecs.ListTasksOutput, error)
	DescribeServices(ctx context.Context, params *awsecs.DescribeServicesInput, optFns ...func(*awsecs.Options)) (*awsecs.DescribeServicesOutput, error)
}

// Config configures the ECS pack.
type Config struct {
	// Sessions resolves AWS configuration per invocation.
	Sessions session.Loader

	// NewClient builds an ECS client from resolved configuration.
	NewClient func(aws.Config) Client
}

// New creates the ECS tools.
func New(cfg Config) []tool.Tool {
	if cfg.Sessions == nil {
		cfg.Sessions = session.NewFactory()
	}
	if cfg.NewClient == nil {
		cfg.NewClient = func(c aws.Config) Client { return awsecs.NewFromConfig(c) }
	}
	return []tool.Tool{
		listClustersTool(&cfg),
		listServicesTool(&cfg),
		listTasksTool(&cfg),
		describeServicesTool(&cfg),
	}
}

func (c *Config) client(ctx context.Context, sess session.Session) (Client, error) {
	awsCfg, err := c.Sessions.Load(ctx, sess)
	if err != nil {
		return nil, err
	}
	return c.NewClient(awsCfg), nil
}

// arnSuffix returns the resource name portion of an ARN.
func arnSuffix(arn string) string {
	if i := strings.LastIndex(arn, "/"); i >= 0 {
		return arn[i+1:]
	}
	return arn
}

func render(sess session.Session, v any) (tool.Result, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return tool.Result{}, session.Classify(err, sess.Profile)
	}
	return tool.NewResult(data), nil
}

func decode(input json.RawMessage, v any) error {
	if len(input) == 0 {
		return nil
	}
	if err := json.Unmarshal(input, v); err != nil {
		return fmt.Errorf("%w: %v", tool.ErrInvalidInput, err)
	}
	return nil
}

func sessionProps(extra map[string]json.RawMessage) map[string]json.RawMessage {
	props := map[string]json.RawMessage{
		"profile_name": tool.StringProp("The AWS CLI profile name to use. If not provided, the default profile is used."),
		"region_name":  tool.StringProp("The AWS region to use. If not provided, the default configured region for the profile is used."),
	}
	for k, v := range extra {
		props[k] = v
	}
	return props
}

type listClustersInput struct {
	session.Args
}

func listClustersTool(cfg *Config) tool.Tool {
	return tool.NewBuilder("list_ecs_clusters").
		WithDescription("Lists ECS cluster names in the selected account and region.").
		WithInputSchema(tool.ObjectSchema(sessionProps(nil), nil)).
		ReadOnly().
		WithTags("ecs").
		WithHandler(func(ctx context.Context, input json.RawMessage) (tool.Result, error) {
			var in listClustersInput
			if err := decode(input, &in); err != nil {
				return tool.Result{}, err
			}
			sess := in.Session()

			client, err := cfg.client(ctx, sess)
			if err != nil {
				return tool.Result{}, session.Classify(err, sess.Profile)
			}

			names := []string{}
			var nextToken *string
			for {
				output, err := client.ListClusters(ctx, &awsecs.ListClustersInput{NextToken: nextToken})
				if err != nil {
					return tool.Result{}, session.Classify(err, sess.Profile)
				}
				for _, arn := range output.ClusterArns {
					names = append(names, arnSuffix(arn))
				}
				if output.NextToken == nil {
					break
				}
				nextToken = output.NextToken
			}

			return render(sess, map[string]any{"clusters": names, "count": len(names)})
		}).
		MustBuild()
}

type listServicesInput struct {
	session.Args
	ClusterName string `json:"cluster_name"`
}

func listServicesTool(cfg *Config) tool.Tool {
	return tool.NewBuilder("list_ecs_services").
		WithDescription("Lists service names in an ECS cluster.").
		WithInputSchema(tool.ObjectSchema(sessionProps(map[string]json.RawMessage{
			"cluster_name": tool.StringProp("The ECS cluster name or ARN."),
		}), []string{"cluster_name"})).
		ReadOnly().
		WithTags("ecs").
		WithHandler(func(ctx context.Context, input json.RawMessage) (tool.Result, error) {
			var in listServicesInput
			if err := decode(input, &in); err != nil {
				return tool.Result{}, err
			}
			if in.ClusterName == "" {
				return tool.Result{}, fmt.Errorf("%w: cluster_name is required", tool.ErrInvalidInput)
			}
			sess := in.Session()

			client, err := cfg.client(ctx, sess)
			if err != nil {
				return tool.Result{}, session.Classify(err, sess.Profile)
			}

			arns, err := listServiceArns(ctx, client, in.ClusterName)
			if err != nil {
				return tool.Result{}, session.Classify(err, sess.Profile)
			}
			names := make([]string, 0, len(arns))
			for _, arn := range arns {
				names = append(names, arnSuffix(arn))
			}

			return render(sess, map[string]any{
				"cluster":  in.ClusterName,
				"services": names,
				"count":    len(names),
			})
		}).
		MustBuild()
}

// listServiceArns drains ListServices pagination for a cluster.
func listServiceArns(ctx context.Context, client Client, cluster string) ([]string, error) {
	arns := []string{}
	var nextToken *string
	for {
		output, err := client.ListServices(ctx, &awsecs.ListServicesInput{
			Cluster:   aws.String(cluster),
			NextToken: nextToken,
		})
		if err != nil {
			return nil, err
		}
		arns = append(arns, output.ServiceArns...)
		if output.NextToken == nil {
			break
		}
		nextToken = output.NextToken
	}
	return arns, nil
}

type listTasksInput struct {
	session.Args
	ClusterName string `json:"cluster_name"`
	ServiceName string `json:"service_name,omitempty"`
}

func listTasksTool(cfg *Config) tool.Tool {
	return tool.NewBuilder("list_ecs_tasks").
		WithDescription("Lists task ARNs in an ECS cluster, optionally scoped to one service.").
		WithInputSchema(tool.ObjectSchema(sessionProps(map[string]json.RawMessage{
			"cluster_name": tool.StringProp("The ECS cluster name or ARN."),
			"service_name": tool.StringProp("Restrict the listing to tasks of this service."),
		}), []string{"cluster_name"})).
		ReadOnly().
		WithTags("ecs").
		WithHandler(func(ctx context.Context, input json.RawMessage) (tool.Result, error) {
			var in listTasksInput
			if err := decode(input, &in); err != nil {
				return tool.Result{}, err
			}
			if in.ClusterName == "" {
				return tool.Result{}, fmt.Errorf("%w: cluster_name is required", tool.ErrInvalidInput)
			}
			sess := in.Session()

			client, err := cfg.client(ctx, sess)
			if err != nil {
				return tool.Result{}, session.Classify(err, sess.Profile)
			}

			params := &awsecs.ListTasksInput{Cluster: aws.String(in.ClusterName)}
			if in.ServiceName != "" {
				params.ServiceName = aws.String(in.ServiceName)
			}

			tasks := []string{}
			for {
				output, err := client.ListTasks(ctx, params)
				if err != nil {
					return tool.Result{}, session.Classify(err, sess.Profile)
				}
				tasks = append(tasks, output.TaskArns...)
				if output.NextToken == nil {
					break
				}
				params.NextToken = output.NextToken
			}

			out := map[string]any{
				"cluster": in.ClusterName,
				"tasks":   tasks,
				"count":   len(tasks),
			}
			if in.ServiceName != "" {
				out["service"] = in.ServiceName
			}
			return render(sess, out)
		}).
		MustBuild()
}

type describeServicesInput struct {
	session.Args
	ClusterName string   `json:"cluster_name"`
	Services    []string `json:"services,omitempty"`
}

// serviceDetail is the reshaped DescribeServices entry.
type serviceDetail struct {
	Name           string `json:"name"`
	Status         string `json:"status"`
	DesiredCount   int32  `json:"desired_count"`
	RunningCount   int32  `json:"running_count"`
	PendingCount   int32  `json:"pending_count"`
	LaunchType     string `json:"launch_type,omitempty"`
	TaskDefinition string `json:"task_definition,omitempty"`
	CreatedAt      string `json:"created_at,omitempty"`
}

func describeServicesTool(cfg *Config) tool.Tool {
	return tool.NewBuilder("describe_ecs_services").
		WithDescription("Describes services in an ECS cluster. When no services are named, describes every service in the cluster.").
		WithInputSchema(tool.ObjectSchema(sessionProps(map[string]json.RawMessage{
			"cluster_name": tool.StringProp("The ECS cluster name or ARN."),
			"services":     tool.StringArrayProp("Service names or ARNs to describe. Defaults to all services in the cluster."),
		}), []string{"cluster_name"})).
		ReadOnly().
		WithTags("ecs").
		WithHandler(func(ctx context.Context, input json.RawMessage) (tool.Result, error) {
			var in describeServicesInput
			if err := decode(input, &in); err != nil {
				return tool.Result{}, err
			}
			if in.ClusterName == "" {
				return tool.Result{}, fmt.Errorf("%w: cluster_name is required", tool.ErrInvalidInput)
			}
			sess := in.Session()

			client, err := cfg.client(ctx, sess)
			if err != nil {
				return tool.Result{}, session.Classify(err, sess.Profile)
			}

			services := in.Services
			if len(services) == 0 {
				services, err = listServiceArns(ctx, client, in.ClusterName)
				if err != nil {
					return tool.Result{}, session.Classify(err, sess.Profile)
				}
			}

			// Unlike the EKS detail listing, any batch failure aborts the
			// whole call.
			details := []serviceDetail{}
			for _, batch := range batches(services, describeBatchSize) {
				output, err := client.DescribeServices(ctx, &awsecs.DescribeServicesInput{
					Cluster:  aws.String(in.ClusterName),
					Services: batch,
				})
				if err != nil {
					return tool.Result{}, session.Classify(err, sess.Profile)
				}
				for _, svc := range output.Services {
					detail := serviceDetail{
						Name:           aws.ToString(svc.ServiceName),
						Status:         aws.ToString(svc.Status),
						DesiredCount:   svc.DesiredCount,
						RunningCount:   svc.RunningCount,
						PendingCount:   svc.PendingCount,
						LaunchType:     string(svc.LaunchType),
						TaskDefinition: aws.ToString(svc.TaskDefinition),
					}
					if svc.CreatedAt != nil {
						detail.CreatedAt = svc.CreatedAt.UTC().Format("2006-01-02T15:04:05Z")
					}
					details = append(details, detail)
				}
			}

			return render(sess, map[string]any{
				"cluster":  in.ClusterName,
				"services": details,
				"count":    len(details),
			})
		}).
		MustBuild()
}

// batches splits items into chunks of at most size.
func batches(items []string, size int) [][]string {
	var out [][]string
	for len(items) > size {
		out = append(out, items[:size])
		items = items[size:]
	}
	if len(items) > 0 {
		out = append(out, items)
	}
	return out
}
