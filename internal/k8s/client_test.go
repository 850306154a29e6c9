package k8s

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/kubernetes/fake"
	"k8s.io/client-go/rest"
)

// Testing the NewClient function with various scenarios
func TestNewClient(t *testing.T) {
	// Backup original functions
	origInCluster := inClusterConfig
	origBuild := buildConfigFromFlags
	origNewForConfig := newForConfig
	defer func() {
		inClusterConfig = origInCluster
		buildConfigFromFlags = origBuild
		newForConfig = origNewForConfig
	}()

	mockConfig := &rest.Config{}

	tests := []struct {
		name           string
		kubeconfig     string
		inClusterErr   error
		buildErr       error
		newForErr      error
		expectError    bool
		expectMessage  string
		expectBuildArg string
	}{
		{
			name:         "in-cluster config works",
			inClusterErr: nil,
			expectError:  false,
		},
		{
			name:          "in-cluster fails, fallback also fails",
			inClusterErr:  errors.New("no cluster"),
			buildErr:      errors.New("missing kubeconfig"),
			expectError:   true,
			expectMessage: "failed to load kubeconfig",
		},
		{
			name:           "in-cluster fails, explicit kubeconfig used",
			kubeconfig:     "/etc/creds/kubeconfig",
			inClusterErr:   errors.New("no cluster"),
			expectError:    false,
			expectBuildArg: "/etc/creds/kubeconfig",
		},
		{
			name:          "clientset creation fails",
			inClusterErr:  nil,
			newForErr:     errors.New("bad config"),
			expectError:   true,
			expectMessage: "bad config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buildArg string

			// Mock functions
			inClusterConfig = func() (*rest.Config, error) {
				return mockConfig, tt.inClusterErr
			}
			buildConfigFromFlags = func(_, kubeconfig string) (*rest.Config, error) {
				buildArg = kubeconfig
				if tt.buildErr != nil {
					return nil, tt.buildErr
				}
				return mockConfig, nil
			}
			newForConfig = func(_ *rest.Config) (*kubernetes.Clientset, error) {
				if tt.newForErr != nil {
					return nil, tt.newForErr
				}
				return nil, nil // no real client
			}

			client, err := NewClient("credentials", tt.kubeconfig, nil)

			if tt.expectError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectMessage)
				assert.Nil(t, client)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, client)
				assert.Equal(t, "credentials", client.Namespace)
				assert.NotNil(t, client.Logger)
			}
			if tt.expectBuildArg != "" {
				assert.Equal(t, tt.expectBuildArg, buildArg)
			}
		})
	}
}

func TestEnsureNamespace(t *testing.T) {
	client := &Client{
		ClientSet: fake.NewSimpleClientset(),
		Namespace: "credentials",
		Logger:    zaptest.NewLogger(t),
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, client.EnsureNamespace(ctx))

	ns, err := client.ClientSet.CoreV1().Namespaces().Get(ctx, "credentials", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "credentials", ns.Name)

	// already exists is fine
	require.NoError(t, client.EnsureNamespace(ctx))
}
