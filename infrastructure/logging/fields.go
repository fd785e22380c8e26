package logging

import (
	"time"

	"github.com/felixgeelhaar/bolt/v3"
)

// Field is a function that applies structured data to a log event.
type Field func(*bolt.Event) *bolt.Event

// Common field constructors for server logging.

// ToolName adds a tool name field.
func ToolName(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("tool", name)
	}
}

// Profile adds the AWS profile in effect. An empty profile is logged as
// "default" to match how it is rendered in error payloads.
func Profile(name string) Field {
	if name == "" {
		name = "default"
	}
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("profile", name)
	}
}

// Region adds an AWS region field when one was supplied.
func Region(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		if name == "" {
			return e
		}
		return e.Str("region", name)
	}
}

// Service adds the AWS service a call targets (s3, ecs, ce, ...).
func Service(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("service", name)
	}
}

// Component adds a component field for categorization.
func Component(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("component", name)
	}
}

// Operation adds an operation field.
func Operation(op string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("operation", op)
	}
}

// Duration adds a duration field in milliseconds.
func Duration(d time.Duration) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int64("duration_ms", d.Milliseconds())
	}
}

// ErrorField adds an error field.
func ErrorField(err error) Field {
	return func(e *bolt.Event) *bolt.Event {
		if err == nil {
			return e
		}
		return e.Err(err)
	}
}

// Str adds a string field with custom key.
func Str(key, value string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str(key, value)
	}
}
