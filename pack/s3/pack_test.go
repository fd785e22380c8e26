package s3

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/felixgeelhaar/aws-mcp/infrastructure/session"
)

// fakeLoader records the sessions it resolved.
type fakeLoader struct {
	sessions []session.Session
	err      error
}

func (f *fakeLoader) Load(_ context.Context, sess session.Session) (aws.Config, error) {
	f.sessions = append(f.sessions, sess)
	if f.err != nil {
		return aws.Config{}, f.err
	}
	return aws.Config{}, nil
}

type fakeClient struct {
	buckets []string
	err     error
}

func (f *fakeClient) ListBuckets(_ context.Context, _ *awss3.ListBucketsInput, _ ...func(*awss3.Options)) (*awss3.ListBucketsOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := &awss3.ListBucketsOutput{}
	for _, name := range f.buckets {
		out.Buckets = append(out.Buckets, s3types.Bucket{Name: aws.String(name)})
	}
	return out, nil
}

func TestListBuckets(t *testing.T) {
	t.Parallel()

	loader := &fakeLoader{}
	tools := New(Config{
		Sessions:  loader,
		NewClient: func(aws.Config) Client { return &fakeClient{buckets: []string{"a", "b"}} },
	})

	result, err := tools[0].Execute(context.Background(), json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	want := "[\n  \"a\",\n  \"b\"\n]"
	if result.OutputString() != want {
		t.Errorf("Output = %q, want %q", result.OutputString(), want)
	}
}

func TestListBuckets_SessionScoping(t *testing.T) {
	t.Parallel()

	loader := &fakeLoader{}
	tools := New(Config{
		Sessions:  loader,
		NewClient: func(aws.Config) Client { return &fakeClient{} },
	})

	first := json.RawMessage(`{"profile_name": "prod", "region_name": "us-east-1"}`)
	second := json.RawMessage(`{"profile_name": "staging"}`)
	if _, err := tools[0].Execute(context.Background(), first); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if _, err := tools[0].Execute(context.Background(), second); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if len(loader.sessions) != 2 {
		t.Fatalf("resolved %d sessions, want 2", len(loader.sessions))
	}
	if loader.sessions[0] != (session.Session{Profile: "prod", Region: "us-east-1"}) {
		t.Errorf("first session = %+v", loader.sessions[0])
	}
	// The second invocation must not inherit the first call's region.
	if loader.sessions[1] != (session.Session{Profile: "staging"}) {
		t.Errorf("second session = %+v, leaked state from first call", loader.sessions[1])
	}
}

func TestListBuckets_APIError(t *testing.T) {
	t.Parallel()

	client := &fakeClient{err: &smithy.GenericAPIError{Code: "AccessDenied", Message: "denied"}}
	tools := New(Config{
		Sessions:  &fakeLoader{},
		NewClient: func(aws.Config) Client { return client },
	})

	_, err := tools[0].Execute(context.Background(), json.RawMessage(`{"profile_name": "prod"}`))
	var te *session.ToolError
	if !errors.As(err, &te) {
		t.Fatalf("Execute() error = %T, want *session.ToolError", err)
	}
	if te.Kind != session.KindAPI {
		t.Errorf("Kind = %v, want KindAPI", te.Kind)
	}
	if !strings.Contains(err.Error(), "Profile: prod") {
		t.Errorf("error must name the profile: %v", err)
	}
}

func TestListBuckets_CredentialsError(t *testing.T) {
	t.Parallel()

	loader := &fakeLoader{err: errors.New("failed to retrieve credentials")}
	tools := New(Config{
		Sessions:  loader,
		NewClient: func(aws.Config) Client { return &fakeClient{} },
	})

	_, err := tools[0].Execute(context.Background(), nil)
	var te *session.ToolError
	if !errors.As(err, &te) {
		t.Fatalf("Execute() error = %T, want *session.ToolError", err)
	}
	if te.Kind != session.KindCredentials {
		t.Errorf("Kind = %v, want KindCredentials", te.Kind)
	}
}

func TestListBuckets_UnknownArgumentsIgnored(t *testing.T) {
	t.Parallel()

	tools := New(Config{
		Sessions:  &fakeLoader{},
		NewClient: func(aws.Config) Client { return &fakeClient{buckets: []string{"x"}} },
	})

	_, err := tools[0].Execute(context.Background(), json.RawMessage(`{"bogus": 42}`))
	if err != nil {
		t.Fatalf("Execute() error = %v, unknown arguments must be ignored", err)
	}
}
