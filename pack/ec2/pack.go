// Package ec2 provides the EC2 instance inspection tools.
package ec2

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsec2 "github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/felixgeelhaar/aws-mcp/domain/tool"
	"github.com/felixgeelhaar/aws-mcp/infrastructure/session"
)

// Client is the subset of the EC2 API this pack uses.
type Client interface {
	DescribeInstances(ctx context.Context, params *awsec2.DescribeInstancesInput, optFns ...func(*awsec2.Options)) (*awsec2.DescribeInstancesOutput, error)
}

// Config configures the EC2 pack.
type Config struct {
	// Sessions resolves AWS configuration per invocation.
	Sessions session.Loader

	// NewClient builds an EC2 client from resolved configuration.
	NewClient func(aws.Config) Client
}

// New creates the EC2 tools.
func New(cfg Config) []tool.Tool {
	if cfg.Sessions == nil {
		cfg.Sessions = session.NewFactory()
	}
	if cfg.NewClient == nil {
		cfg.NewClient = func(c aws.Config) Client { return awsec2.NewFromConfig(c) }
	}
	return []tool.Tool{
		listInstancesTool(&cfg),
		describeInstanceTool(&cfg),
	}
}

func (c *Config) client(ctx context.Context, sess session.Session) (Client, error) {
	awsCfg, err := c.Sessions.Load(ctx, sess)
	if err != nil {
		return nil, err
	}
	return c.NewClient(awsCfg), nil
}

// instanceSummary is one reshaped instance entry. Tags collapse into a
// map, with the Name tag surfaced separately.
type instanceSummary struct {
	InstanceID       string            `json:"instance_id"`
	Name             string            `json:"name,omitempty"`
	InstanceType     string            `json:"instance_type"`
	State            string            `json:"state"`
	PrivateIPAddress string            `json:"private_ip_address,omitempty"`
	PublicIPAddress  string            `json:"public_ip_address,omitempty"`
	AvailabilityZone string            `json:"availability_zone,omitempty"`
	VpcID            string            `json:"vpc_id,omitempty"`
	SubnetID         string            `json:"subnet_id,omitempty"`
	ImageID          string            `json:"image_id,omitempty"`
	LaunchTime       *time.Time        `json:"launch_time,omitempty"`
	Tags             map[string]string `json:"tags,omitempty"`
}

func summarize(inst ec2types.Instance) instanceSummary {
	s := instanceSummary{
		InstanceID:       aws.ToString(inst.InstanceId),
		InstanceType:     string(inst.InstanceType),
		PrivateIPAddress: aws.ToString(inst.PrivateIpAddress),
		PublicIPAddress:  aws.ToString(inst.PublicIpAddress),
		VpcID:            aws.ToString(inst.VpcId),
		SubnetID:         aws.ToString(inst.SubnetId),
		ImageID:          aws.ToString(inst.ImageId),
	}
	if inst.State != nil {
		s.State = string(inst.State.Name)
	}
	if inst.Placement != nil {
		s.AvailabilityZone = aws.ToString(inst.Placement.AvailabilityZone)
	}
	if inst.LaunchTime != nil {
		launched := *inst.LaunchTime
		s.LaunchTime = &launched
	}
	if len(inst.Tags) > 0 {
		s.Tags = make(map[string]string, len(inst.Tags))
		for _, tag := range inst.Tags {
			key := aws.ToString(tag.Key)
			s.Tags[key] = aws.ToString(tag.Value)
			if key == "Name" {
				s.Name = aws.ToString(tag.Value)
			}
		}
	}
	return s
}

// flatten collapses the reservation grouping DescribeInstances returns.
func flatten(reservations []ec2types.Reservation) []instanceSummary {
	instances := []instanceSummary{}
	for _, r := range reservations {
		for _, inst := range r.Instances {
			instances = append(instances, summarize(inst))
		}
	}
	return instances
}

func render(sess session.Session, v any) (tool.Result, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return tool.Result{}, session.Classify(err, sess.Profile)
	}
	return tool.NewResult(data), nil
}

type listInstancesInput struct {
	session.Args
	State string `json:"state,omitempty"`
}

func listInstancesTool(cfg *Config) tool.Tool {
	return tool.NewBuilder("list_ec2_instances").
		WithDescription("Lists EC2 instances in the selected account and region, optionally filtered by state.").
		WithInputSchema(tool.ObjectSchema(map[string]json.RawMessage{
			"profile_name": tool.StringProp("The AWS CLI profile name to use. If not provided, the default profile is used."),
			"region_name":  tool.StringProp("The AWS region to use. If not provided, the default configured region for the profile is used."),
			"state":        tool.EnumProp("Restrict to instances in this state.", []string{"pending", "running", "shutting-down", "terminated", "stopping", "stopped"}, ""),
		}, nil)).
		ReadOnly().
		WithTags("ec2").
		WithHandler(func(ctx context.Context, input json.RawMessage) (tool.Result, error) {
			var in listInstancesInput
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

			params := &awsec2.DescribeInstancesInput{}
			if in.State != "" {
				params.Filters = []ec2types.Filter{{
					Name:   aws.String("instance-state-name"),
					Values: []string{in.State},
				}}
			}

			instances := []instanceSummary{}
			for {
				output, err := client.DescribeInstances(ctx, params)
				if err != nil {
					return tool.Result{}, session.Classify(err, sess.Profile)
				}
				instances = append(instances, flatten(output.Reservations)...)
				if output.NextToken == nil {
					break
				}
				params.NextToken = output.NextToken
			}

			return render(sess, map[string]any{
				"instances": instances,
				"count":     len(instances),
			})
		}).
		MustBuild()
}

type describeInstanceInput struct {
	session.Args
	InstanceID string `json:"instance_id"`
}

func describeInstanceTool(cfg *Config) tool.Tool {
	return tool.NewBuilder("describe_ec2_instance").
		WithDescription("Describes a single EC2 instance by ID.").
		WithInputSchema(tool.ObjectSchema(map[string]json.RawMessage{
			"profile_name": tool.StringProp("The AWS CLI profile name to use. If not provided, the default profile is used."),
			"region_name":  tool.StringProp("The AWS region to use. If not provided, the default configured region for the profile is used."),
			"instance_id":  tool.StringProp("The EC2 instance ID, e.g. i-0123456789abcdef0."),
		}, []string{"instance_id"})).
		ReadOnly().
		WithTags("ec2").
		WithHandler(func(ctx context.Context, input json.RawMessage) (tool.Result, error) {
			var in describeInstanceInput
			if len(input) > 0 {
				if err := json.Unmarshal(input, &in); err != nil {
					return tool.Result{}, fmt.Errorf("%w: %v", tool.ErrInvalidInput, err)
				}
			}
			if in.InstanceID == "" {
				return tool.Result{}, fmt.Errorf("%w: instance_id is required", tool.ErrInvalidInput)
			}
			sess := in.Session()

			client, err := cfg.client(ctx, sess)
			if err != nil {
				return tool.Result{}, session.Classify(err, sess.Profile)
			}

			output, err := client.DescribeInstances(ctx, &awsec2.DescribeInstancesInput{
				InstanceIds: []string{in.InstanceID},
			})
			if err != nil {
				return tool.Result{}, session.Classify(err, sess.Profile)
			}

			instances := flatten(output.Reservations)
			if len(instances) == 0 {
				return tool.Result{}, session.Classify(
					fmt.Errorf("instance %s not found", in.InstanceID), sess.Profile)
			}

			return render(sess, instances[0])
		}).
		MustBuild()
}
