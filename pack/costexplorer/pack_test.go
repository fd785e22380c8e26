package costexplorer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsce "github.com/aws/aws-sdk-go-v2/service/costexplorer"
	cetypes "github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
	"github.com/aws/smithy-go"

	"github.com/felixgeelhaar/aws-mcp/domain/tool"
	"github.com/felixgeelhaar/aws-mcp/infrastructure/session"
)

type fakeLoader struct {
	err error
}

func (f *fakeLoader) Load(_ context.Context, _ session.Session) (aws.Config, error) {
	if f.err != nil {
		return aws.Config{}, f.err
	}
	return aws.Config{}, nil
}

type fakeClient struct {
	err error

	lastUsageInput     *awsce.GetCostAndUsageInput
	lastForecastInput  *awsce.GetCostForecastInput
	lastDimensionInput *awsce.GetDimensionValuesInput
	lastRightsizeInput *awsce.GetRightsizingRecommendationInput
}

func (f *fakeClient) GetCostAndUsage(_ context.Context, params *awsce.GetCostAndUsageInput, _ ...func(*awsce.Options)) (*awsce.GetCostAndUsageOutput, error) {
	f.lastUsageInput = params
	if f.err != nil {
		return nil, f.err
	}
	return &awsce.GetCostAndUsageOutput{
		ResultsByTime: []cetypes.ResultByTime{{
			TimePeriod: params.TimePeriod,
			Total: map[string]cetypes.MetricValue{
				"UnblendedCost": {Amount: aws.String("123.45"), Unit: aws.String("USD")},
			},
		}},
	}, nil
}

func (f *fakeClient) GetCostForecast(_ context.Context, params *awsce.GetCostForecastInput, _ ...func(*awsce.Options)) (*awsce.GetCostForecastOutput, error) {
	f.lastForecastInput = params
	if f.err != nil {
		return nil, f.err
	}
	return &awsce.GetCostForecastOutput{
		Total: &cetypes.MetricValue{Amount: aws.String("678.90"), Unit: aws.String("USD")},
	}, nil
}

func (f *fakeClient) GetDimensionValues(_ context.Context, params *awsce.GetDimensionValuesInput, _ ...func(*awsce.Options)) (*awsce.GetDimensionValuesOutput, error) {
	f.lastDimensionInput = params
	if f.err != nil {
		return nil, f.err
	}
	return &awsce.GetDimensionValuesOutput{
		DimensionValues: []cetypes.DimensionValuesWithAttributes{
			{Value: aws.String("Amazon Elastic Compute Cloud - Compute")},
			{Value: aws.String("Amazon Simple Storage Service")},
		},
	}, nil
}

func (f *fakeClient) GetRightsizingRecommendation(_ context.Context, params *awsce.GetRightsizingRecommendationInput, _ ...func(*awsce.Options)) (*awsce.GetRightsizingRecommendationOutput, error) {
	f.lastRightsizeInput = params
	if f.err != nil {
		return nil, f.err
	}
	return &awsce.GetRightsizingRecommendationOutput{
		Summary: &cetypes.RightsizingRecommendationSummary{
			TotalRecommendationCount:           aws.String("2"),
			EstimatedTotalMonthlySavingsAmount: aws.String("59.00"),
			SavingsCurrencyCode:                aws.String("USD"),
		},
		RightsizingRecommendations: []cetypes.RightsizingRecommendation{
			{
				AccountId:       aws.String("123456789012"),
				RightsizingType: cetypes.RightsizingTypeTerminate,
				CurrentInstance: &cetypes.CurrentInstance{ResourceId: aws.String("i-aaa")},
				TerminateRecommendationDetail: &cetypes.TerminateRecommendationDetail{
					EstimatedMonthlySavings: aws.String("42.00"),
					CurrencyCode:            aws.String("USD"),
				},
			},
			{
				AccountId:       aws.String("123456789012"),
				RightsizingType: cetypes.RightsizingTypeModify,
				CurrentInstance: &cetypes.CurrentInstance{ResourceId: aws.String("i-bbb")},
				ModifyRecommendationDetail: &cetypes.ModifyRecommendationDetail{
					TargetInstances: []cetypes.TargetInstance{{
						EstimatedMonthlySavings: aws.String("17.00"),
						CurrencyCode:            aws.String("USD"),
						ResourceDetails: &cetypes.ResourceDetails{
							EC2ResourceDetails: &cetypes.EC2ResourceDetails{
								InstanceType: aws.String("t3.small"),
							},
						},
					}},
				},
			},
		},
	}, nil
}

// fixedNow pins period math to 2026-08-25 UTC.
func fixedNow() time.Time {
	return time.Date(2026, 8, 25, 10, 30, 0, 0, time.UTC)
}

func newPack(client *fakeClient) []tool.Tool {
	return New(Config{
		Sessions:  &fakeLoader{},
		NewClient: func(aws.Config) Client { return client },
		Now:       fixedNow,
	})
}

func toolByName(t *testing.T, tools []tool.Tool, name string) tool.Tool {
	t.Helper()
	for _, tl := range tools {
		if tl.Name() == name {
			return tl
		}
	}
	t.Fatalf("tool %s not in pack", name)
	return nil
}

func TestCostAndUsage_PeriodAndGranularity(t *testing.T) {
	t.Parallel()

	client := &fakeClient{}
	tl := toolByName(t, newPack(client), "get_cost_and_usage")

	result, err := tl.Execute(context.Background(),
		json.RawMessage(`{"time_period_days": 7, "granularity": "DAILY"}`))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	tp := client.lastUsageInput.TimePeriod
	if aws.ToString(tp.Start) != "2026-08-18" || aws.ToString(tp.End) != "2026-08-25" {
		t.Errorf("period = %s..%s, want exactly 7 days ending today",
			aws.ToString(tp.Start), aws.ToString(tp.End))
	}
	if client.lastUsageInput.Granularity != cetypes.GranularityDaily {
		t.Errorf("granularity = %v, want DAILY", client.lastUsageInput.Granularity)
	}

	var out struct {
		Granularity string `json:"granularity"`
		TimePeriod  struct {
			Start string `json:"start"`
			End   string `json:"end"`
		} `json:"time_period"`
	}
	if err := json.Unmarshal(result.Output, &out); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if out.Granularity != "DAILY" {
		t.Errorf("output granularity = %q, want DAILY echoed", out.Granularity)
	}
	if out.TimePeriod.Start != "2026-08-18" {
		t.Errorf("output period start = %q", out.TimePeriod.Start)
	}
}

func TestCostAndUsage_Defaults(t *testing.T) {
	t.Parallel()

	client := &fakeClient{}
	tl := toolByName(t, newPack(client), "get_cost_and_usage")

	if _, err := tl.Execute(context.Background(), json.RawMessage(`{}`)); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	in := client.lastUsageInput
	if aws.ToString(in.TimePeriod.Start) != "2026-07-26" {
		t.Errorf("default period start = %s, want 30 days back", aws.ToString(in.TimePeriod.Start))
	}
	if in.Granularity != cetypes.GranularityMonthly {
		t.Errorf("default granularity = %v, want MONTHLY", in.Granularity)
	}
	if len(in.Metrics) != 1 || in.Metrics[0] != "UnblendedCost" {
		t.Errorf("default metrics = %v, want [UnblendedCost]", in.Metrics)
	}
}

func TestCostAndUsage_GroupBy(t *testing.T) {
	t.Parallel()

	client := &fakeClient{}
	tl := toolByName(t, newPack(client), "get_cost_and_usage")

	input := json.RawMessage(`{"group_by": [{"type": "DIMENSION", "key": "SERVICE"}]}`)
	if _, err := tl.Execute(context.Background(), input); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	groups := client.lastUsageInput.GroupBy
	if len(groups) != 1 {
		t.Fatalf("GroupBy = %+v, want one entry", groups)
	}
	if groups[0].Type != cetypes.GroupDefinitionTypeDimension || aws.ToString(groups[0].Key) != "SERVICE" {
		t.Errorf("GroupBy[0] = %+v", groups[0])
	}
}

func TestCostForecast_FuturePeriod(t *testing.T) {
	t.Parallel()

	client := &fakeClient{}
	tl := toolByName(t, newPack(client), "get_cost_forecast")

	result, err := tl.Execute(context.Background(), json.RawMessage(`{"days": 14}`))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	tp := client.lastForecastInput.TimePeriod
	if aws.ToString(tp.Start) != "2026-08-25" || aws.ToString(tp.End) != "2026-09-08" {
		t.Errorf("period = %s..%s, want 14 days starting today",
			aws.ToString(tp.Start), aws.ToString(tp.End))
	}
	if client.lastForecastInput.Metric != cetypes.MetricUnblendedCost {
		t.Errorf("metric = %v, want UNBLENDED_COST default", client.lastForecastInput.Metric)
	}

	var out struct {
		Total metricAmount `json:"total"`
	}
	if err := json.Unmarshal(result.Output, &out); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if out.Total.Amount != "678.90" || out.Total.Unit != "USD" {
		t.Errorf("total = %+v", out.Total)
	}
}

func TestDimensionValues(t *testing.T) {
	t.Parallel()

	client := &fakeClient{}
	tl := toolByName(t, newPack(client), "get_cost_dimension_values")

	result, err := tl.Execute(context.Background(), json.RawMessage(`{"dimension": "service"}`))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if client.lastDimensionInput.Dimension != cetypes.DimensionService {
		t.Errorf("dimension = %v, want SERVICE (upcased)", client.lastDimensionInput.Dimension)
	}

	var out struct {
		Dimension string   `json:"dimension"`
		Values    []string `json:"values"`
		Count     int      `json:"count"`
	}
	if err := json.Unmarshal(result.Output, &out); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if out.Dimension != "SERVICE" || out.Count != 2 {
		t.Errorf("output = %+v", out)
	}
}

func TestDimensionValues_MissingDimension(t *testing.T) {
	t.Parallel()

	tl := toolByName(t, newPack(&fakeClient{}), "get_cost_dimension_values")

	_, err := tl.Execute(context.Background(), json.RawMessage(`{}`))
	if !errors.Is(err, tool.ErrInvalidInput) {
		t.Fatalf("Execute() error = %v, want ErrInvalidInput", err)
	}
}

func TestRightsizing_DefaultService(t *testing.T) {
	t.Parallel()

	client := &fakeClient{}
	tl := toolByName(t, newPack(client), "get_rightsizing_recommendation")

	result, err := tl.Execute(context.Background(), nil)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if got := aws.ToString(client.lastRightsizeInput.Service); got != "AmazonEC2" {
		t.Errorf("service = %q, want AmazonEC2 default", got)
	}

	var out struct {
		Summary struct {
			TotalRecommendations string `json:"total_recommendations"`
		} `json:"summary"`
		Recommendations []rightsizingEntry `json:"recommendations"`
		Count           int                `json:"count"`
	}
	if err := json.Unmarshal(result.Output, &out); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if out.Summary.TotalRecommendations != "2" || out.Count != 2 {
		t.Errorf("output = %+v", out)
	}

	terminate := out.Recommendations[0]
	if terminate.CurrentInstance != "i-aaa" || terminate.EstimatedSavings != "42.00" {
		t.Errorf("terminate recommendation = %+v", terminate)
	}

	modify := out.Recommendations[1]
	if modify.EstimatedSavings != "17.00" || modify.SavingsCurrency != "USD" {
		t.Errorf("modify recommendation must carry target-instance savings: %+v", modify)
	}
	if modify.TargetInstance != "t3.small" {
		t.Errorf("modify recommendation target = %+v", modify)
	}
}

func TestAPIError(t *testing.T) {
	t.Parallel()

	client := &fakeClient{err: &smithy.GenericAPIError{
		Code:    "DataUnavailableException",
		Message: "no cost data",
	}}
	tl := toolByName(t, newPack(client), "get_cost_and_usage")

	_, err := tl.Execute(context.Background(), json.RawMessage(`{"profile_name": "billing"}`))
	var te *session.ToolError
	if !errors.As(err, &te) {
		t.Fatalf("Execute() error = %T, want *session.ToolError", err)
	}
	if te.Kind != session.KindAPI || te.Code != "DataUnavailableException" {
		t.Errorf("classified = %+v", te)
	}
}

func TestCredentialsError(t *testing.T) {
	t.Parallel()

	tools := New(Config{
		Sessions:  &fakeLoader{err: errors.New("failed to retrieve credentials")},
		NewClient: func(aws.Config) Client { return &fakeClient{} },
		Now:       fixedNow,
	})

	_, err := toolByName(t, tools, "get_cost_forecast").Execute(context.Background(), nil)
	var te *session.ToolError
	if !errors.As(err, &te) {
		t.Fatalf("Execute() error = %T, want *session.ToolError", err)
	}
	if te.Kind != session.KindCredentials {
		t.Errorf("Kind = %v, want KindCredentials", te.Kind)
	}
}
