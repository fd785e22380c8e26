// Package tool provides the domain model for AWS query tools.
package tool

// Annotations describe tool behavior for client-side planning and caching.
// Every tool this server exposes is a read-only query; the annotations exist
// so MCP clients can distinguish repeatable lookups from time-sensitive ones.
type Annotations struct {
	// ReadOnly indicates the tool has no side effects.
	ReadOnly bool `json:"read_only"`

	// Idempotent indicates multiple calls with same input yield same result.
	Idempotent bool `json:"idempotent"`

	// Cacheable indicates results can be cached by the caller.
	Cacheable bool `json:"cacheable"`

	// Tags are arbitrary labels for categorization, e.g. the AWS service.
	Tags []string `json:"tags,omitempty"`
}

// DefaultAnnotations returns annotations with safe defaults.
func DefaultAnnotations() Annotations {
	return Annotations{}
}

// ReadOnlyAnnotations returns annotations for a read-only query tool.
func ReadOnlyAnnotations() Annotations {
	return Annotations{
		ReadOnly:   true,
		Idempotent: true,
	}
}
