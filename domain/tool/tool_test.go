package tool_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/felixgeelhaar/aws-mcp/domain/tool"
)

func echoHandler(ctx context.Context, input json.RawMessage) (tool.Result, error) {
	return tool.Result{Output: input}, nil
}

func TestToolBuilder_Basic(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		toolName    string
		description string
		handler     tool.Handler
		wantErr     error
	}{
		{
			name:        "valid tool",
			toolName:    "list_s3_buckets",
			description: "Lists S3 buckets",
			handler:     echoHandler,
			wantErr:     nil,
		},
		{
			name:        "empty name fails",
			toolName:    "",
			description: "Should fail",
			handler:     echoHandler,
			wantErr:     tool.ErrEmptyName,
		},
		{
			name:        "missing handler fails",
			toolName:    "no_handler",
			description: "Should fail",
			handler:     nil,
			wantErr:     tool.ErrNoHandler,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			builder := tool.NewBuilder(tt.toolName).
				WithDescription(tt.description)
			if tt.handler != nil {
				builder = builder.WithHandler(tt.handler)
			}

			built, err := builder.Build()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Build() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if tt.wantErr == nil {
				if built.Name() != tt.toolName {
					t.Errorf("Name() = %v, want %v", built.Name(), tt.toolName)
				}
				if built.Description() != tt.description {
					t.Errorf("Description() = %v, want %v", built.Description(), tt.description)
				}
			}
		})
	}
}

func TestToolBuilder_ReadOnly(t *testing.T) {
	t.Parallel()

	built := tool.NewBuilder("read_only_tool").
		WithDescription("A read-only tool").
		ReadOnly().
		Idempotent().
		WithTags("s3").
		WithHandler(echoHandler).
		MustBuild()

	annotations := built.Annotations()
	if !annotations.ReadOnly {
		t.Error("ReadOnly should be true")
	}
	if !annotations.Idempotent {
		t.Error("Idempotent should be true")
	}
	if len(annotations.Tags) != 1 || annotations.Tags[0] != "s3" {
		t.Errorf("Tags = %v, want [s3]", annotations.Tags)
	}
}

func TestDefinition_Execute(t *testing.T) {
	t.Parallel()

	built := tool.NewBuilder("echo").
		WithHandler(echoHandler).
		MustBuild()

	input := json.RawMessage(`{"profile_name": "staging"}`)
	result, err := built.Execute(context.Background(), input)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if string(result.Output) != string(input) {
		t.Errorf("Output = %s, want %s", result.Output, input)
	}
}

func TestMustBuild_Panics(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Error("MustBuild() should panic on invalid tool")
		}
	}()

	tool.NewBuilder("").MustBuild()
}

func TestDefaultInputSchema(t *testing.T) {
	t.Parallel()

	built := tool.NewBuilder("no_schema").
		WithHandler(echoHandler).
		MustBuild()

	var parsed map[string]any
	if err := json.Unmarshal(built.InputSchema().Raw(), &parsed); err != nil {
		t.Fatalf("Failed to parse default schema: %v", err)
	}
	if parsed["type"] != "object" {
		t.Errorf("type = %v, want object", parsed["type"])
	}
}
