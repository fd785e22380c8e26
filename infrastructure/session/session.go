// Package session builds per-invocation AWS client configuration.
//
// Every tool call resolves its own Session: the profile and region a caller
// supplied, plus the SSL-verification override read from the AWS shared
// config file. Nothing is cached between calls, so concurrent invocations
// with different profiles never share credentials or transport settings.
package session

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
)

// Session is the per-invocation context selecting which AWS account,
// role and region a tool call runs against.
type Session struct {
	// Profile is the AWS CLI profile name. Empty means the SDK's
	// default resolution chain.
	Profile string

	// Region is the AWS region. Empty means the profile's configured
	// default region.
	Region string
}

// DefaultProfileName is how an unset profile is rendered in logs and
// error payloads.
const DefaultProfileName = "default"

// ProfileOrDefault returns the profile name, or "default" when unset.
func (s Session) ProfileOrDefault() string {
	if s.Profile == "" {
		return DefaultProfileName
	}
	return s.Profile
}

// Loader resolves AWS client configuration for a session. Factory is the
// production implementation; tests substitute fakes.
type Loader interface {
	Load(ctx context.Context, sess Session) (aws.Config, error)
}

// Args are the credential-selection arguments every tool accepts. Packs
// embed Args in their input structs so profile and region decode uniformly.
type Args struct {
	ProfileName string `json:"profile_name,omitempty"`
	RegionName  string `json:"region_name,omitempty"`
}

// Session converts the decoded arguments into a Session.
func (a Args) Session() Session {
	return Session{Profile: a.ProfileName, Region: a.RegionName}
}
