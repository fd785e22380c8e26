package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aws/smithy-go"
)

// Kind categorizes a failed tool invocation.
type Kind int

const (
	// KindCredentials means local credentials are missing or incomplete.
	KindCredentials Kind = iota

	// KindAPI means AWS rejected or failed the request.
	KindAPI

	// KindUnexpected is the catch-all for everything else.
	KindUnexpected
)

// String returns the string representation of the error kind.
func (k Kind) String() string {
	switch k {
	case KindCredentials:
		return "credentials"
	case KindAPI:
		return "api"
	default:
		return "unexpected"
	}
}

// ToolError is the structured failure a tool handler returns instead of a
// raw provider error. It renders to the user-facing payload text and always
// names the profile that was in effect.
type ToolError struct {
	Kind    Kind
	Profile string
	Code    string
	Message string
	SSLHint bool

	wrapped error
}

// sslHintText points operators at the config knob when certificate
// verification is the likely culprit.
const sslHintText = " SSL verification failed. Check if 'cli_ignore_ssl_verification = true' is set in your AWS config for the profile, or if a custom CA bundle is needed via AWS_CA_BUNDLE."

// Error implements the error interface with the rendered payload text.
func (e *ToolError) Error() string {
	return e.Render()
}

// Unwrap returns the underlying provider error.
func (e *ToolError) Unwrap() error {
	return e.wrapped
}

// Render produces the descriptive message shown to the caller.
func (e *ToolError) Render() string {
	var msg string
	switch e.Kind {
	case KindCredentials:
		msg = fmt.Sprintf("AWS credentials not found or incomplete. Ensure AWS CLI is configured. Profile: %s. Error: %s", e.Profile, e.Message)
	case KindAPI:
		code := e.Code
		if code == "" {
			code = "Unknown"
		}
		message := e.Message
		if message == "" {
			message = "No message"
		}
		msg = fmt.Sprintf("AWS API error: %s - %s. Profile: %s.", code, message, e.Profile)
	default:
		msg = fmt.Sprintf("An unexpected error occurred: %s. Profile: %s.", e.Message, e.Profile)
	}
	if e.SSLHint {
		msg += sslHintText
	}
	return msg
}

// Classify converts a provider error into a ToolError for the given profile.
func Classify(err error, profile string) *ToolError {
	te := &ToolError{
		Profile: Session{Profile: profile}.ProfileOrDefault(),
		SSLHint: hasCertSignature(err),
		wrapped: err,
	}

	var apiErr smithy.APIError
	switch {
	case errors.As(err, &apiErr):
		te.Kind = KindAPI
		te.Code = apiErr.ErrorCode()
		te.Message = apiErr.ErrorMessage()
	case isCredentialsError(err):
		te.Kind = KindCredentials
		te.Message = err.Error()
	default:
		te.Kind = KindUnexpected
		te.Message = err.Error()
	}
	return te
}

// isCredentialsError matches the SDK's credential-chain failures, which
// surface as wrapped plain errors rather than typed API errors.
func isCredentialsError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, sig := range []string{
		"credential",
		"sso session",
		"token has expired",
		"no ec2 imds role found",
	} {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return false
}

// hasCertSignature reports whether the error text points at a failed
// certificate verification.
func hasCertSignature(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, sig := range []string{"certificate", "x509", "tls:"} {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return false
}
