// Package costexplorer provides the Cost Explorer analytics tools.
package costexplorer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsce "github.com/aws/aws-sdk-go-v2/service/costexplorer"
	cetypes "github.com/aws/aws-sdk-go-v2/service/costexplorer/types"

	"github.com/felixgeelhaar/aws-mcp/domain/tool"
	"github.com/felixgeelhaar/aws-mcp/infrastructure/session"
)

const (
	defaultPeriodDays  = 30
	defaultGranularity = "MONTHLY"
	defaultMetric      = "UnblendedCost"
	defaultForecastMet = "UNBLENDED_COST"
	defaultRightsizing = "AmazonEC2"

	dateLayout = "2006-01-02"
)

// Client is the subset of the Cost Explorer API this pack uses.
type Client interface {
	GetCostAndUsage(ctx context.Context, params *awsce.GetCostAndUsageInput, optFns ...func(*awsce.Options)) (*awsce.GetCostAndUsageOutput, error)
	GetCostForecast(ctx context.Context, params *awsce.GetCostForecastInput, optFns ...func(*awsce.Options)) (*awsce.GetCostForecastOutput, error)
	GetDimensionValues(ctx context.Context, params *awsce.GetDimensionValuesInput, optFns ...func(*awsce.Options)) (*awsce.GetDimensionValuesOutput, error)
	GetRightsizingRecommendation(ctx context.Context, params *awsce.GetRightsizingRecommendationInput, optFns ...func(*awsce.Options)) (*awsce.GetRightsizingRecommendationOutput, error)
}

// Config configures the Cost Explorer pack.
type Config struct {
	// Sessions resolves AWS configuration per invocation.
	Sessions session.Loader

	// NewClient builds a Cost Explorer client from resolved configuration.
	NewClient func(aws.Config) Client

	// Now supplies the reference time for period calculations.
	// Defaults to time.Now; tests pin it.
	Now func() time.Time
}

// New creates the Cost Explorer tools.
func New(cfg Config) []tool.Tool {
	if cfg.Sessions == nil {
		cfg.Sessions = session.NewFactory()
	}
	if cfg.NewClient == nil {
		cfg.NewClient = func(c aws.Config) Client { return awsce.NewFromConfig(c) }
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return []tool.Tool{
		costAndUsageTool(&cfg),
		costForecastTool(&cfg),
		dimensionValuesTool(&cfg),
		rightsizingTool(&cfg),
	}
}

func (c *Config) client(ctx context.Context, sess session.Session) (Client, error) {
	awsCfg, err := c.Sessions.Load(ctx, sess)
	if err != nil {
		return nil, err
	}
	return c.NewClient(awsCfg), nil
}

// pastPeriod returns the interval covering exactly days days ending today.
func (c *Config) pastPeriod(days int) *cetypes.DateInterval {
	end := c.Now().UTC()
	start := end.AddDate(0, 0, -days)
	return &cetypes.DateInterval{
		Start: aws.String(start.Format(dateLayout)),
		End:   aws.String(end.Format(dateLayout)),
	}
}

// futurePeriod returns the interval covering days days starting today.
func (c *Config) futurePeriod(days int) *cetypes.DateInterval {
	start := c.Now().UTC()
	end := start.AddDate(0, 0, days)
	return &cetypes.DateInterval{
		Start: aws.String(start.Format(dateLayout)),
		End:   aws.String(end.Format(dateLayout)),
	}
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

type groupByArg struct {
	Type string `json:"type"`
	Key  string `json:"key"`
}

func groupByProp() json.RawMessage {
	return json.RawMessage(`{
		"type": "array",
		"description": "Groupings as {type, key} objects, e.g. {\"type\": \"DIMENSION\", \"key\": \"SERVICE\"}.",
		"items": {
			"type": "object",
			"properties": {
				"type": {"type": "string", "enum": ["DIMENSION", "TAG", "COST_CATEGORY"]},
				"key": {"type": "string"}
			},
			"required": ["type", "key"]
		}
	}`)
}

type costAndUsageInput struct {
	session.Args
	TimePeriodDays int          `json:"time_period_days,omitempty"`
	Granularity    string       `json:"granularity,omitempty"`
	Metrics        []string     `json:"metrics,omitempty"`
	GroupBy        []groupByArg `json:"group_by,omitempty"`
}

// metricAmount is one reshaped metric value.
type metricAmount struct {
	Amount string `json:"amount"`
	Unit   string `json:"unit"`
}

type costGroup struct {
	Keys    []string                `json:"keys"`
	Metrics map[string]metricAmount `json:"metrics"`
}

type costResult struct {
	Start     string                  `json:"start"`
	End       string                  `json:"end"`
	Estimated bool                    `json:"estimated"`
	Total     map[string]metricAmount `json:"total,omitempty"`
	Groups    []costGroup             `json:"groups,omitempty"`
}

func reshapeMetrics(in map[string]cetypes.MetricValue) map[string]metricAmount {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]metricAmount, len(in))
	for name, v := range in {
		out[name] = metricAmount{Amount: aws.ToString(v.Amount), Unit: aws.ToString(v.Unit)}
	}
	return out
}

func costAndUsageTool(cfg *Config) tool.Tool {
	return tool.NewBuilder("get_cost_and_usage").
		WithDescription("Retrieves cost and usage for a trailing period, optionally grouped by a dimension or tag.").
		WithInputSchema(tool.ObjectSchema(sessionProps(map[string]json.RawMessage{
			"time_period_days": tool.IntProp("Number of days of history, ending today.", defaultPeriodDays),
			"granularity":      tool.EnumProp("Result granularity.", []string{"DAILY", "MONTHLY", "HOURLY"}, defaultGranularity),
			"metrics":          tool.StringArrayProp("Cost metrics to retrieve, e.g. UnblendedCost, UsageQuantity."),
			"group_by":         groupByProp(),
		}), nil)).
		ReadOnly().
		WithTags("costexplorer").
		WithHandler(func(ctx context.Context, input json.RawMessage) (tool.Result, error) {
			var in costAndUsageInput
			if err := decode(input, &in); err != nil {
				return tool.Result{}, err
			}
			if in.TimePeriodDays <= 0 {
				in.TimePeriodDays = defaultPeriodDays
			}
			if in.Granularity == "" {
				in.Granularity = defaultGranularity
			}
			if len(in.Metrics) == 0 {
				in.Metrics = []string{defaultMetric}
			}
			sess := in.Session()

			client, err := cfg.client(ctx, sess)
			if err != nil {
				return tool.Result{}, session.Classify(err, sess.Profile)
			}

			params := &awsce.GetCostAndUsageInput{
				TimePeriod:  cfg.pastPeriod(in.TimePeriodDays),
				Granularity: cetypes.Granularity(strings.ToUpper(in.Granularity)),
				Metrics:     in.Metrics,
			}
			for _, g := range in.GroupBy {
				params.GroupBy = append(params.GroupBy, cetypes.GroupDefinition{
					Type: cetypes.GroupDefinitionType(strings.ToUpper(g.Type)),
					Key:  aws.String(g.Key),
				})
			}

			output, err := client.GetCostAndUsage(ctx, params)
			if err != nil {
				return tool.Result{}, session.Classify(err, sess.Profile)
			}

			results := make([]costResult, 0, len(output.ResultsByTime))
			for _, r := range output.ResultsByTime {
				res := costResult{
					Estimated: r.Estimated,
					Total:     reshapeMetrics(r.Total),
				}
				if r.TimePeriod != nil {
					res.Start = aws.ToString(r.TimePeriod.Start)
					res.End = aws.ToString(r.TimePeriod.End)
				}
				for _, g := range r.Groups {
					res.Groups = append(res.Groups, costGroup{
						Keys:    g.Keys,
						Metrics: reshapeMetrics(g.Metrics),
					})
				}
				results = append(results, res)
			}

			return render(sess, map[string]any{
				"time_period": map[string]string{
					"start": aws.ToString(params.TimePeriod.Start),
					"end":   aws.ToString(params.TimePeriod.End),
				},
				"granularity": string(params.Granularity),
				"results":     results,
			})
		}).
		MustBuild()
}

type costForecastInput struct {
	session.Args
	Days        int    `json:"days,omitempty"`
	Granularity string `json:"granularity,omitempty"`
	Metric      string `json:"metric,omitempty"`
}

func costForecastTool(cfg *Config) tool.Tool {
	return tool.NewBuilder("get_cost_forecast").
		WithDescription("Forecasts cost over an upcoming period.").
		WithInputSchema(tool.ObjectSchema(sessionProps(map[string]json.RawMessage{
			"days":        tool.IntProp("Number of days to forecast, starting today.", defaultPeriodDays),
			"granularity": tool.EnumProp("Forecast granularity.", []string{"DAILY", "MONTHLY"}, defaultGranularity),
			"metric":      tool.EnumProp("Forecast metric.", []string{"UNBLENDED_COST", "BLENDED_COST", "AMORTIZED_COST", "NET_UNBLENDED_COST", "NET_AMORTIZED_COST", "USAGE_QUANTITY", "NORMALIZED_USAGE_AMOUNT"}, defaultForecastMet),
		}), nil)).
		ReadOnly().
		WithTags("costexplorer").
		WithHandler(func(ctx context.Context, input json.RawMessage) (tool.Result, error) {
			var in costForecastInput
			if err := decode(input, &in); err != nil {
				return tool.Result{}, err
			}
			if in.Days <= 0 {
				in.Days = defaultPeriodDays
			}
			if in.Granularity == "" {
				in.Granularity = defaultGranularity
			}
			if in.Metric == "" {
				in.Metric = defaultForecastMet
			}
			sess := in.Session()

			client, err := cfg.client(ctx, sess)
			if err != nil {
				return tool.Result{}, session.Classify(err, sess.Profile)
			}

			params := &awsce.GetCostForecastInput{
				TimePeriod:  cfg.futurePeriod(in.Days),
				Granularity: cetypes.Granularity(strings.ToUpper(in.Granularity)),
				Metric:      cetypes.Metric(strings.ToUpper(in.Metric)),
			}
			output, err := client.GetCostForecast(ctx, params)
			if err != nil {
				return tool.Result{}, session.Classify(err, sess.Profile)
			}

			out := map[string]any{
				"time_period": map[string]string{
					"start": aws.ToString(params.TimePeriod.Start),
					"end":   aws.ToString(params.TimePeriod.End),
				},
				"granularity": string(params.Granularity),
				"metric":      string(params.Metric),
			}
			if output.Total != nil {
				out["total"] = metricAmount{
					Amount: aws.ToString(output.Total.Amount),
					Unit:   aws.ToString(output.Total.Unit),
				}
			}
			intervals := make([]map[string]string, 0, len(output.ForecastResultsByTime))
			for _, f := range output.ForecastResultsByTime {
				entry := map[string]string{"mean": aws.ToString(f.MeanValue)}
				if f.TimePeriod != nil {
					entry["start"] = aws.ToString(f.TimePeriod.Start)
					entry["end"] = aws.ToString(f.TimePeriod.End)
				}
				intervals = append(intervals, entry)
			}
			out["forecast"] = intervals

			return render(sess, out)
		}).
		MustBuild()
}

type dimensionValuesInput struct {
	session.Args
	Dimension      string `json:"dimension"`
	TimePeriodDays int    `json:"time_period_days,omitempty"`
}

func dimensionValuesTool(cfg *Config) tool.Tool {
	return tool.NewBuilder("get_cost_dimension_values").
		WithDescription("Lists the distinct values of a Cost Explorer dimension over a trailing period, e.g. all services billed.").
		WithInputSchema(tool.ObjectSchema(sessionProps(map[string]json.RawMessage{
			"dimension":        tool.StringProp("The dimension to enumerate, e.g. SERVICE, LINKED_ACCOUNT, REGION."),
			"time_period_days": tool.IntProp("Number of days of history, ending today.", defaultPeriodDays),
		}), []string{"dimension"})).
		ReadOnly().
		WithTags("costexplorer").
		WithHandler(func(ctx context.Context, input json.RawMessage) (tool.Result, error) {
			var in dimensionValuesInput
			if err := decode(input, &in); err != nil {
				return tool.Result{}, err
			}
			if in.Dimension == "" {
				return tool.Result{}, fmt.Errorf("%w: dimension is required", tool.ErrInvalidInput)
			}
			if in.TimePeriodDays <= 0 {
				in.TimePeriodDays = defaultPeriodDays
			}
			sess := in.Session()

			client, err := cfg.client(ctx, sess)
			if err != nil {
				return tool.Result{}, session.Classify(err, sess.Profile)
			}

			params := &awsce.GetDimensionValuesInput{
				TimePeriod: cfg.pastPeriod(in.TimePeriodDays),
				Dimension:  cetypes.Dimension(strings.ToUpper(in.Dimension)),
			}
			output, err := client.GetDimensionValues(ctx, params)
			if err != nil {
				return tool.Result{}, session.Classify(err, sess.Profile)
			}

			values := make([]string, 0, len(output.DimensionValues))
			for _, v := range output.DimensionValues {
				values = append(values, aws.ToString(v.Value))
			}

			return render(sess, map[string]any{
				"dimension": strings.ToUpper(in.Dimension),
				"values":    values,
				"count":     len(values),
			})
		}).
		MustBuild()
}

type rightsizingInput struct {
	session.Args
	Service string `json:"service,omitempty"`
}

// rightsizingEntry is one reshaped recommendation. Savings come from the
// termination detail or, for modify recommendations, the first (default)
// target instance.
type rightsizingEntry struct {
	AccountID        string `json:"account_id,omitempty"`
	Type             string `json:"type,omitempty"`
	CurrentInstance  string `json:"current_instance,omitempty"`
	TargetInstance   string `json:"target_instance,omitempty"`
	EstimatedSavings string `json:"estimated_monthly_savings,omitempty"`
	SavingsCurrency  string `json:"savings_currency,omitempty"`
}

func rightsizingTool(cfg *Config) tool.Tool {
	return tool.NewBuilder("get_rightsizing_recommendation").
		WithDescription("Retrieves rightsizing recommendations for a service.").
		WithInputSchema(tool.ObjectSchema(sessionProps(map[string]json.RawMessage{
			"service": tool.EnumProp("The service to get recommendations for.", []string{"AmazonEC2"}, defaultRightsizing),
		}), nil)).
		ReadOnly().
		WithTags("costexplorer").
		WithHandler(func(ctx context.Context, input json.RawMessage) (tool.Result, error) {
			var in rightsizingInput
			if err := decode(input, &in); err != nil {
				return tool.Result{}, err
			}
			if in.Service == "" {
				in.Service = defaultRightsizing
			}
			sess := in.Session()

			client, err := cfg.client(ctx, sess)
			if err != nil {
				return tool.Result{}, session.Classify(err, sess.Profile)
			}

			output, err := client.GetRightsizingRecommendation(ctx, &awsce.GetRightsizingRecommendationInput{
				Service: aws.String(in.Service),
			})
			if err != nil {
				return tool.Result{}, session.Classify(err, sess.Profile)
			}

			out := map[string]any{"service": in.Service}
			if s := output.Summary; s != nil {
				out["summary"] = map[string]string{
					"total_recommendations":     aws.ToString(s.TotalRecommendationCount),
					"estimated_monthly_savings": aws.ToString(s.EstimatedTotalMonthlySavingsAmount),
					"savings_currency":          aws.ToString(s.SavingsCurrencyCode),
				}
			}
			entries := make([]rightsizingEntry, 0, len(output.RightsizingRecommendations))
			for _, r := range output.RightsizingRecommendations {
				entry := rightsizingEntry{
					AccountID: aws.ToString(r.AccountId),
					Type:      string(r.RightsizingType),
				}
				if r.CurrentInstance != nil {
					entry.CurrentInstance = aws.ToString(r.CurrentInstance.ResourceId)
				}
				if r.TerminateRecommendationDetail != nil {
					entry.EstimatedSavings = aws.ToString(r.TerminateRecommendationDetail.EstimatedMonthlySavings)
					entry.SavingsCurrency = aws.ToString(r.TerminateRecommendationDetail.CurrencyCode)
				}
				if m := r.ModifyRecommendationDetail; m != nil && len(m.TargetInstances) > 0 {
					target := m.TargetInstances[0]
					entry.EstimatedSavings = aws.ToString(target.EstimatedMonthlySavings)
					entry.SavingsCurrency = aws.ToString(target.CurrencyCode)
					if target.ResourceDetails != nil && target.ResourceDetails.EC2ResourceDetails != nil {
						entry.TargetInstance = aws.ToString(target.ResourceDetails.EC2ResourceDetails.InstanceType)
					}
				}
				entries = append(entries, entry)
			}
			out["recommendations"] = entries
			out["count"] = len(entries)

			return render(sess, out)
		}).
		MustBuild()
}
