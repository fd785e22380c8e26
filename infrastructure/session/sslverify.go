package session

import (
	"os"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/felixgeelhaar/aws-mcp/infrastructure/logging"
)

// sslVerifyKey is the AWS CLI config key that disables certificate
// verification when set to "true".
const sslVerifyKey = "cli_ignore_ssl_verification"

// VerifySSL reports whether certificate verification should stay enabled
// for the given profile. The answer is read from the AWS shared config
// file; a missing file, missing key, or any read failure keeps
// verification on.
func (f *Factory) VerifySSL(profile string) bool {
	path := f.configPath()
	if path == "" {
		return true
	}
	if _, err := os.Stat(path); err != nil {
		return true
	}

	cfg, err := ini.Load(path)
	if err != nil {
		logging.Warn().
			Add(logging.Component("session")).
			Add(logging.ErrorField(err)).
			Msg("could not read AWS config for SSL settings")
		return true
	}

	// The AWS CLI names profile sections "profile <name>", except the
	// default profile which lives in a plain [default] section.
	sectionName := "default"
	if profile != "" && profile != DefaultProfileName {
		sectionName = "profile " + profile
	}

	section, err := cfg.GetSection(sectionName)
	if err != nil {
		return true
	}
	key, err := section.GetKey(sslVerifyKey)
	if err != nil {
		return true
	}

	return !strings.EqualFold(strings.TrimSpace(key.String()), "true")
}
