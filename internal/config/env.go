package config

import (
	"os"
	"strconv"
	"time"

	"github.com/imamik/cdk-addons/internal/cluster"
)

// Environment variables overriding settings file values.
const (
	EnvFlagsDir          = "CDK_ADDONS_FLAGS_DIR"
	EnvTemplatesDir      = "CDK_ADDONS_TEMPLATES_DIR"
	EnvWorkDir           = "CDK_ADDONS_WORK_DIR"
	EnvKubeconfig        = "CDK_ADDONS_KUBECONFIG"
	EnvBackend           = "CDK_ADDONS_BACKEND"
	EnvApplyPolicy       = "CDK_ADDONS_APPLY_POLICY"
	EnvRetryMaxAttempts  = "CDK_ADDONS_RETRY_MAX_ATTEMPTS"
	EnvRetryInitialDelay = "CDK_ADDONS_RETRY_INITIAL_DELAY"
)

// applyEnv overrides s with any environment variable that is set. Invalid
// numeric or duration values are ignored.
func applyEnv(s *Settings) {
	s.FlagsDir = parseString(EnvFlagsDir, s.FlagsDir)
	s.TemplatesDir = parseString(EnvTemplatesDir, s.TemplatesDir)
	s.WorkDir = parseString(EnvWorkDir, s.WorkDir)
	s.Kubeconfig = parseString(EnvKubeconfig, s.Kubeconfig)
	s.Backend = Backend(parseString(EnvBackend, string(s.Backend)))
	s.ApplyPolicy = cluster.ApplyPolicy(parseString(EnvApplyPolicy, string(s.ApplyPolicy)))
	s.Retry.MaxRetries = parseIntPtr(EnvRetryMaxAttempts, s.Retry.MaxRetries)
	s.Retry.InitialDelay = parseDuration(EnvRetryInitialDelay, s.Retry.InitialDelay)
}

func parseString(envVar, defaultVal string) string {
	if val := os.Getenv(envVar); val != "" {
		return val
	}
	return defaultVal
}

// parseDuration parses a duration from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}

	return d
}

// parseIntPtr parses an integer from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseIntPtr(envVar string, defaultVal *int) *int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return &i
}
