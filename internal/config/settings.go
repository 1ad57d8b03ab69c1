package config

import (
	"errors"
	"fmt"
	"time"

	"k8s.io/utils/ptr"

	"github.com/imamik/cdk-addons/internal/cluster"
	"github.com/imamik/cdk-addons/internal/util/retry"
)

// Backend names the cluster backend.
type Backend string

const (
	// BackendKubectl drives the kubectl CLI.
	BackendKubectl Backend = "kubectl"
	// BackendAPI talks to the API server through client-go.
	BackendAPI Backend = "api"
)

// Default locations.
const (
	DefaultFlagsDir     = "/etc/cdk-addons/flags"
	DefaultTemplatesDir = "/usr/share/cdk-addons/templates"
	DefaultWorkDir      = "/var/lib/cdk-addons/addons"
	DefaultKubectl      = "kubectl"
)

// Settings configures one run.
type Settings struct {
	FlagsDir     string `yaml:"flagsDir"`
	TemplatesDir string `yaml:"templatesDir"`
	// WorkDir is deleted and recreated at the start of every run.
	WorkDir string `yaml:"workDir"`

	Backend Backend `yaml:"backend"`
	Kubectl string  `yaml:"kubectl"`
	// Kubeconfig overrides the kubeconfig flag when set.
	Kubeconfig string `yaml:"kubeconfig"`

	ApplyPolicy cluster.ApplyPolicy `yaml:"applyPolicy"`
	PruneKinds  []string            `yaml:"pruneKinds"`

	// MetricsTextfile, when set, receives the run metrics in the node
	// exporter textfile format.
	MetricsTextfile string `yaml:"metricsTextfile"`

	Retry RetrySettings `yaml:"retry"`
}

// RetrySettings bounds retries of transient cluster CLI failures.
type RetrySettings struct {
	// MaxRetries of zero disables retries; nil means the default.
	MaxRetries   *int          `yaml:"maxRetries"`
	InitialDelay time.Duration `yaml:"initialDelay"`
	MaxDelay     time.Duration `yaml:"maxDelay"`
}

// Default returns settings with every default applied.
func Default() *Settings {
	s := &Settings{}
	s.applyDefaults()
	return s
}

func (s *Settings) applyDefaults() {
	if s.FlagsDir == "" {
		s.FlagsDir = DefaultFlagsDir
	}
	if s.TemplatesDir == "" {
		s.TemplatesDir = DefaultTemplatesDir
	}
	if s.WorkDir == "" {
		s.WorkDir = DefaultWorkDir
	}
	if s.Backend == "" {
		s.Backend = BackendKubectl
	}
	if s.Kubectl == "" {
		s.Kubectl = DefaultKubectl
	}
	if s.ApplyPolicy == "" {
		s.ApplyPolicy = cluster.PolicyReplace
	}
	if len(s.PruneKinds) == 0 {
		s.PruneKinds = append([]string(nil), cluster.DefaultKinds...)
	}

	def := retry.DefaultConfig()
	if s.Retry.MaxRetries == nil {
		s.Retry.MaxRetries = ptr.To(def.MaxRetries)
	}
	if s.Retry.InitialDelay == 0 {
		s.Retry.InitialDelay = def.InitialDelay
	}
	if s.Retry.MaxDelay == 0 {
		s.Retry.MaxDelay = def.MaxDelay
	}
}

// RetryConfig converts the retry settings for the retry package.
func (s *Settings) RetryConfig() retry.Config {
	cfg := retry.DefaultConfig()
	cfg.MaxRetries = ptr.Deref(s.Retry.MaxRetries, cfg.MaxRetries)
	cfg.InitialDelay = s.Retry.InitialDelay
	cfg.MaxDelay = s.Retry.MaxDelay
	return cfg
}

// Validate checks the settings for consistency.
func (s *Settings) Validate() error {
	var errs []error

	if s.FlagsDir == "" {
		errs = append(errs, errors.New("flagsDir is required"))
	}
	if s.TemplatesDir == "" {
		errs = append(errs, errors.New("templatesDir is required"))
	}
	switch s.WorkDir {
	case "":
		errs = append(errs, errors.New("workDir is required"))
	case "/", s.FlagsDir, s.TemplatesDir:
		errs = append(errs, fmt.Errorf("workDir %q must be a dedicated directory", s.WorkDir))
	}

	switch s.Backend {
	case BackendKubectl:
		if s.Kubectl == "" {
			errs = append(errs, errors.New("kubectl is required with the kubectl backend"))
		}
	case BackendAPI:
	default:
		errs = append(errs, fmt.Errorf("unknown backend %q (must be %q or %q)", s.Backend, BackendKubectl, BackendAPI))
	}

	if err := s.ApplyPolicy.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(s.PruneKinds) == 0 {
		errs = append(errs, errors.New("pruneKinds must not be empty"))
	}

	if n := ptr.Deref(s.Retry.MaxRetries, 0); n < 0 {
		errs = append(errs, fmt.Errorf("retry.maxRetries must not be negative, got %d", n))
	}
	if s.Retry.InitialDelay < 0 || s.Retry.MaxDelay < 0 {
		errs = append(errs, errors.New("retry delays must not be negative"))
	}
	if s.Retry.MaxDelay > 0 && s.Retry.InitialDelay > s.Retry.MaxDelay {
		errs = append(errs, fmt.Errorf("retry.initialDelay %s exceeds retry.maxDelay %s", s.Retry.InitialDelay, s.Retry.MaxDelay))
	}

	return errors.Join(errs...)
}
