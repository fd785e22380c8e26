package session

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"

	"github.com/felixgeelhaar/aws-mcp/infrastructure/logging"
)

// Factory constructs AWS client configuration for a single invocation.
type Factory struct {
	// sharedConfigPath is where the AWS shared config file lives.
	// Defaults to ~/.aws/config; overridable for tests.
	sharedConfigPath string
}

// Option configures the factory.
type Option func(*Factory)

// WithSharedConfigPath overrides the AWS shared config file location.
func WithSharedConfigPath(path string) Option {
	return func(f *Factory) {
		f.sharedConfigPath = path
	}
}

// NewFactory creates a session factory.
func NewFactory(opts ...Option) *Factory {
	f := &Factory{}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Load resolves AWS configuration for the given session. Profile and region
// are passed through only when supplied, so an unset value falls back to the
// SDK's own default-resolution chain rather than an explicit "default".
//
// When the profile's cli_ignore_ssl_verification knob is set, the returned
// config carries a dedicated HTTP client that skips certificate verification.
// The client is scoped to this one invocation; no process-wide transport
// state is touched.
func (f *Factory) Load(ctx context.Context, sess Session) (aws.Config, error) {
	var loadOpts []func(*config.LoadOptions) error
	if sess.Profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(sess.Profile))
	}
	if sess.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(sess.Region))
	}

	if !f.VerifySSL(sess.Profile) {
		logging.Warn().
			Add(logging.Component("session")).
			Add(logging.Profile(sess.Profile)).
			Msg("SSL verification disabled for this call")
		loadOpts = append(loadOpts, config.WithHTTPClient(insecureHTTPClient()))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load AWS config: %w", err)
	}
	return cfg, nil
}

// configPath returns the shared config file path, expanding the default
// per-user location when no override is set.
func (f *Factory) configPath() string {
	if f.sharedConfigPath != "" {
		return f.sharedConfigPath
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".aws", "config")
}

// insecureHTTPClient returns an HTTP client that skips TLS certificate
// verification. A fresh client per call keeps the insecure setting from
// leaking into concurrent invocations that use a verifying profile.
func insecureHTTPClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if transport.TLSClientConfig == nil {
		transport.TLSClientConfig = &tls.Config{}
	}
	transport.TLSClientConfig.InsecureSkipVerify = true
	return &http.Client{Transport: transport}
}
