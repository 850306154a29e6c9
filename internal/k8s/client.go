package k8s

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	v1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
)

// Adding the following variables, so that the code can be tested
var (
	inClusterConfig      = rest.InClusterConfig
	buildConfigFromFlags = clientcmd.BuildConfigFromFlags
	newForConfig         = kubernetes.NewForConfig
)

// Client stores versioned secrets as Kubernetes Secrets in one namespace
type Client struct {
	ClientSet kubernetes.Interface
	Namespace string
	Logger    *zap.Logger
}

// NewClient creates a new Kubernetes client. It first tries to create an in-cluster config
// and falls back to kubeconfig (or ~/.kube/config when kubeconfig is empty).
func NewClient(namespace, kubeconfig string, logger *zap.Logger) (*Client, error) {
	config, err := inClusterConfig()
	if err != nil {
		if kubeconfig == "" {
			kubeconfig = filepath.Join(os.Getenv("HOME"), ".kube", "config")
		}
		config, err = buildConfigFromFlags("", kubeconfig)
		if err != nil {
			return nil, fmt.Errorf("failed to load kubeconfig: %w", err)
		}
	}

	return NewClientWithConfig(config, namespace, logger)
}

// NewClientWithConfig Function to use injected config for testing
func NewClientWithConfig(config *rest.Config, namespace string, logger *zap.Logger) (*Client, error) {
	clientset, err := newForConfig(config)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{ClientSet: clientset, Namespace: namespace, Logger: logger}, nil
}

// EnsureNamespace creates the client's namespace if needed and waits for it to become Active
func (c *Client) EnsureNamespace(ctx context.Context) error {
	ns := &v1.Namespace{
		ObjectMeta: metav1.ObjectMeta{
			Name: c.Namespace,
		},
	}

	_, err := c.ClientSet.CoreV1().Namespaces().Create(ctx, ns, metav1.CreateOptions{})
	if err != nil && !apierrors.IsAlreadyExists(err) {
		return fmt.Errorf("failed to create namespace %q: %w", c.Namespace, err)
	}

	// wait for namespace to become Active before returning
	// short timeout to avoid blocking too long
	timeout := 10 * time.Second
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		got, err := c.ClientSet.CoreV1().Namespaces().Get(ctx, c.Namespace, metav1.GetOptions{})
		if err == nil && (got.Status.Phase == v1.NamespaceActive || got.Status.Phase == "") {
			c.Logger.Debug("Namespace ready", zap.String("namespace", c.Namespace))
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}

	return fmt.Errorf("namespace %q did not become Active within %s", c.Namespace, timeout)
}
