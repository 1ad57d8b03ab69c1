// Package kubeapi implements cluster.Cluster directly against the Kubernetes
// API using client-go, for hosts where no kubectl binary is available.
package kubeapi

import (
	"context"
	"fmt"
	"sync"

	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/discovery"
	"k8s.io/client-go/discovery/cached/memory"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/restmapper"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/imamik/cdk-addons/internal/cluster"
	"github.com/imamik/cdk-addons/internal/runerr"
)

// FieldManager identifies cdk-addons in managedFields.
const FieldManager = "cdk-addons"

// Client implements cluster.Cluster using client-go.
type Client struct {
	clientset     kubernetes.Interface
	dynamicClient dynamic.Interface
	mapper        meta.RESTMapper

	mu sync.Mutex
	// mappings remembers the REST mapping of every kind seen by Query, since
	// an Identity carries no API group.
	mappings map[string]*meta.RESTMapping
}

var _ cluster.Cluster = (*Client)(nil)

// New creates a Client from a kubeconfig path. An empty path falls back to
// the in-cluster configuration.
func New(kubeconfigPath string) (*Client, error) {
	restConfig, err := clientcmd.BuildConfigFromFlags("", kubeconfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create REST config: %w", err)
	}

	clientset, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes clientset: %w", err)
	}

	dynamicClient, err := dynamic.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create dynamic client: %w", err)
	}

	discoveryClient, err := discovery.NewDiscoveryClientForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create discovery client: %w", err)
	}
	mapper := restmapper.NewDeferredDiscoveryRESTMapper(memory.NewMemCacheClient(discoveryClient))

	return NewFromClients(clientset, dynamicClient, mapper), nil
}

// NewFromClients creates a Client from pre-configured clients.
// This is useful for testing with fake clients.
func NewFromClients(clientset kubernetes.Interface, dynamicClient dynamic.Interface, mapper meta.RESTMapper) *Client {
	return &Client{
		clientset:     clientset,
		dynamicClient: dynamicClient,
		mapper:        mapper,
		mappings:      map[string]*meta.RESTMapping{},
	}
}

// NodeCount implements cluster.Cluster.
func (c *Client) NodeCount(ctx context.Context) (int, error) {
	nodes, err := c.clientset.CoreV1().Nodes().List(ctx, metav1.ListOptions{})
	if err != nil {
		return 0, runerr.Query(fmt.Errorf("failed to list nodes: %w", err))
	}
	return len(nodes.Items), nil
}

func (c *Client) remember(kind string, mapping *meta.RESTMapping) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mappings[kind] = mapping
}

func (c *Client) lookup(kind string) (*meta.RESTMapping, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.mappings[kind]
	return m, ok
}
