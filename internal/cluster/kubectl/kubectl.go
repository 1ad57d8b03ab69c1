// Package kubectl implements cluster.Cluster by running the kubectl CLI.
package kubectl

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/imamik/cdk-addons/internal/cluster"
	"github.com/imamik/cdk-addons/internal/manifest"
	"github.com/imamik/cdk-addons/internal/runerr"
	"github.com/imamik/cdk-addons/internal/util/retry"
)

// Runner executes a command and returns its stdout and stderr separately.
type Runner func(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)

// execRunner runs the command as a subprocess.
func execRunner(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	// #nosec G204 - binary and arguments come from local settings and rendered file paths
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// Client drives kubectl.
type Client struct {
	binary     string
	kubeconfig string
	run        Runner
	retry      retry.Config
}

var _ cluster.Cluster = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithKubeconfig forwards --kubeconfig to every invocation.
func WithKubeconfig(path string) Option {
	return func(c *Client) {
		c.kubeconfig = path
	}
}

// WithRunner replaces the subprocess runner.
func WithRunner(r Runner) Option {
	return func(c *Client) {
		c.run = r
	}
}

// WithRetry sets the backoff used for apply and get.
func WithRetry(cfg retry.Config) Option {
	return func(c *Client) {
		c.retry = cfg
	}
}

// New creates a Client running binary (usually "kubectl").
func New(binary string, opts ...Option) *Client {
	c := &Client{
		binary: binary,
		run:    execRunner,
		retry:  retry.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Apply implements cluster.Cluster.
func (c *Client) Apply(ctx context.Context, req cluster.ApplyRequest) error {
	args := []string{"apply", "-f", req.Path}
	if req.Selector != "" {
		args = append(args, "-l", req.Selector)
	}
	if req.Recursive {
		args = append(args, "--recursive")
	}
	switch req.Policy {
	case cluster.PolicyServerSide:
		args = append(args, "--server-side", "--force-conflicts")
	default:
		args = append(args, "--force")
	}

	if _, err := c.invoke(ctx, true, args...); err != nil {
		return runerr.Apply(req.Path, err)
	}
	return nil
}

// Query implements cluster.Cluster.
func (c *Client) Query(ctx context.Context, kinds []string, selector string) (manifest.IdentitySet, error) {
	if len(kinds) == 0 {
		return manifest.NewIdentitySet(), nil
	}

	out, err := c.invoke(ctx, true, "get", "-o", "json", "-l", selector, "--all-namespaces", strings.Join(kinds, ","))
	if err != nil {
		return nil, runerr.Query(err)
	}

	set, err := manifest.ParseList(out)
	if err != nil {
		return nil, runerr.Query(err)
	}
	return set, nil
}

// Delete implements cluster.Cluster. Deletes are never retried.
func (c *Client) Delete(ctx context.Context, id manifest.Identity) error {
	if _, err := c.invoke(ctx, false, "delete", "--wait=false", id.Kind, id.Name, "-n", id.Namespace); err != nil {
		return runerr.Delete(id.String(), err)
	}
	return nil
}

// NodeCount implements cluster.Cluster.
func (c *Client) NodeCount(ctx context.Context) (int, error) {
	out, err := c.invoke(ctx, true, "get", "nodes", "-o", "json")
	if err != nil {
		return 0, runerr.Query(fmt.Errorf("failed to list nodes: %w", err))
	}
	n, err := manifest.CountItems(out)
	if err != nil {
		return 0, runerr.Query(fmt.Errorf("failed to list nodes: %w", err))
	}
	return n, nil
}

// invoke runs kubectl with args and returns stdout. Transient failures are
// retried when retryable is set.
func (c *Client) invoke(ctx context.Context, retryable bool, args ...string) ([]byte, error) {
	full := args
	if c.kubeconfig != "" {
		full = append([]string{"--kubeconfig", c.kubeconfig}, args...)
	}

	var stdout []byte
	operation := func() error {
		out, errOut, err := c.run(ctx, c.binary, full...)
		if err == nil {
			stdout = out
			return nil
		}

		output := strings.TrimSpace(string(errOut))
		failure := fmt.Errorf("kubectl %s failed: %w\nOutput: %s", args[0], err, output)
		if retryable && retry.IsTransientOutput(output) {
			log.FromContext(ctx).Info("kubectl failed transiently, retrying", "command", args[0], "output", output)
			return failure
		}
		return retry.Permanent(failure)
	}

	if !retryable {
		if err := operation(); err != nil {
			return nil, unwrapPermanent(err)
		}
		return stdout, nil
	}

	if err := retry.Do(ctx, operation, retry.WithConfig(c.retry)); err != nil {
		return nil, err
	}
	return stdout, nil
}

func unwrapPermanent(err error) error {
	var p *retry.PermanentError
	if errors.As(err, &p) {
		return p.Err
	}
	return err
}
