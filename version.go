// Package awsmcp provides the version information for aws-mcp.
package awsmcp

// Version is the current version of aws-mcp.
const Version = "0.1.0"

// GetVersion returns the current version string.
func GetVersion() string {
	return Version
}
