package k8s

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"go.uber.org/zap"
	v1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"

	"credentialsManagerAPI/internal/secretstore"
)

const (
	labelKind    = "credentials.secret-store/kind"
	labelSecret  = "credentials.secret-store/secret"
	labelVersion = "credentials.secret-store/version"

	kindSecret  = "secret"
	kindVersion = "version"

	annotationLatest = "credentials.secret-store/latest-version"

	payloadKey = "payload"
)

var _ secretstore.SecretStore = (*Client)(nil)

func (c *Client) secretName(id string) string {
	return fmt.Sprintf("namespaces/%s/secrets/%s", c.Namespace, id)
}

// versionObjectName names the Kubernetes Secret holding one version.
// Secret ids never contain a dot, so version objects cannot collide with them.
func versionObjectName(id string, n int64) string {
	return fmt.Sprintf("%s.v%d", id, n)
}

func (c *Client) toSecret(s *v1.Secret) *secretstore.Secret {
	return &secretstore.Secret{
		Name:       c.secretName(s.Name),
		ID:         s.Name,
		CreateTime: s.CreationTimestamp.Time,
		Labels:     s.Labels,
	}
}

func versionNumber(s *v1.Secret) int64 {
	n, _ := strconv.ParseInt(s.Labels[labelVersion], 10, 64)
	return n
}

func (c *Client) toVersion(s *v1.Secret) *secretstore.SecretVersion {
	n := versionNumber(s)
	return &secretstore.SecretVersion{
		Name:       fmt.Sprintf("%s/versions/%d", c.secretName(s.Labels[labelSecret]), n),
		Number:     n,
		CreateTime: s.CreationTimestamp.Time,
		State:      secretstore.VersionEnabled,
	}
}

func (c *Client) getParent(ctx context.Context, id string) (*v1.Secret, error) {
	secret, err := c.ClientSet.CoreV1().Secrets(c.Namespace).Get(ctx, id, metav1.GetOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return nil, secretstore.NotFound(err, id)
		}
		return nil, fmt.Errorf("failed to get secret: %w", err)
	}
	if secret.Labels[labelKind] != kindSecret {
		return nil, secretstore.NotFound(nil, id)
	}
	return secret, nil
}

func latestVersion(s *v1.Secret) int64 {
	n, _ := strconv.ParseInt(s.Annotations[annotationLatest], 10, 64)
	return n
}

// GetSecret retrieves the secret resource
func (c *Client) GetSecret(ctx context.Context, id string) (*secretstore.Secret, error) {
	secret, err := c.getParent(ctx, id)
	if err != nil {
		return nil, err
	}
	return c.toSecret(secret), nil
}

// CreateSecret creates an empty secret resource
func (c *Client) CreateSecret(ctx context.Context, id string) (*secretstore.Secret, error) {
	secret := &v1.Secret{
		ObjectMeta: metav1.ObjectMeta{
			Name:        id, //this must be set
			Labels:      map[string]string{labelKind: kindSecret},
			Annotations: map[string]string{annotationLatest: "0"},
		},
		Type: v1.SecretTypeOpaque,
	}

	created, err := c.ClientSet.CoreV1().Secrets(c.Namespace).Create(ctx, secret, metav1.CreateOptions{})
	if err != nil {
		if apierrors.IsAlreadyExists(err) {
			return nil, secretstore.AlreadyExists(err, id)
		}
		return nil, fmt.Errorf("failed to create secret: %w", err)
	}
	return c.toSecret(created), nil
}

// DeleteSecret deletes the versions of a secret and then the secret resource.
// A failure part way leaves the parent in place so the delete can be retried.
func (c *Client) DeleteSecret(ctx context.Context, id string) error {
	if _, err := c.getParent(ctx, id); err != nil {
		return err
	}

	versions, err := c.listVersionObjects(ctx, id)
	if err != nil {
		return err
	}
	for _, v := range versions {
		err := c.ClientSet.CoreV1().Secrets(c.Namespace).Delete(ctx, v.Name, metav1.DeleteOptions{})
		if err != nil && !apierrors.IsNotFound(err) {
			return fmt.Errorf("failed to delete secret version %q: %w", v.Name, err)
		}
	}
	c.Logger.Debug("Deleted secret versions", zap.String("secret", id), zap.Int("versions", len(versions)))

	err = c.ClientSet.CoreV1().Secrets(c.Namespace).Delete(ctx, id, metav1.DeleteOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return secretstore.NotFound(err, id)
		}
		return fmt.Errorf("failed to delete secret: %w", err)
	}
	return nil
}

// ListSecrets lists the secret resources in the namespace
func (c *Client) ListSecrets(ctx context.Context) ([]*secretstore.Secret, error) {
	selector := labels.SelectorFromSet(labels.Set{labelKind: kindSecret})
	list, err := c.ClientSet.CoreV1().Secrets(c.Namespace).List(ctx, metav1.ListOptions{LabelSelector: selector.String()})
	if err != nil {
		return nil, fmt.Errorf("failed to list secrets: %w", err)
	}

	out := make([]*secretstore.Secret, 0, len(list.Items))
	for i := range list.Items {
		if !selector.Matches(labels.Set(list.Items[i].Labels)) {
			continue
		}
		out = append(out, c.toSecret(&list.Items[i]))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (c *Client) listVersionObjects(ctx context.Context, id string) ([]v1.Secret, error) {
	selector := labels.SelectorFromSet(labels.Set{labelKind: kindVersion, labelSecret: id})
	list, err := c.ClientSet.CoreV1().Secrets(c.Namespace).List(ctx, metav1.ListOptions{LabelSelector: selector.String()})
	if err != nil {
		return nil, fmt.Errorf("failed to list secret versions: %w", err)
	}

	var out []v1.Secret
	for _, item := range list.Items {
		if selector.Matches(labels.Set(item.Labels)) {
			out = append(out, item)
		}
	}
	return out, nil
}

// ListSecretVersions lists a secret's committed versions, newest first
func (c *Client) ListSecretVersions(ctx context.Context, id string) ([]*secretstore.SecretVersion, error) {
	parent, err := c.getParent(ctx, id)
	if err != nil {
		return nil, err
	}
	committed := latestVersion(parent)

	items, err := c.listVersionObjects(ctx, id)
	if err != nil {
		return nil, err
	}

	out := make([]*secretstore.SecretVersion, 0, len(items))
	for i := range items {
		// objects above the annotation belong to appends that never committed
		if versionNumber(&items[i]) > committed {
			continue
		}
		out = append(out, c.toVersion(&items[i]))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number > out[j].Number })
	return out, nil
}

// AccessSecretVersion reads the payload of a version; "latest" follows the parent's annotation
func (c *Client) AccessSecretVersion(ctx context.Context, id, version string) (*secretstore.AccessedVersion, error) {
	n, latest, err := secretstore.ParseVersion(version)
	if err != nil {
		return nil, err
	}

	parent, err := c.getParent(ctx, id)
	if err != nil {
		return nil, err
	}
	committed := latestVersion(parent)
	if latest {
		n = committed
	}
	if n == 0 {
		return nil, secretstore.NotFound(fmt.Errorf("secret %q has no versions", id), id)
	}
	if n > committed {
		return nil, secretstore.NotFound(fmt.Errorf("version %d of secret %q not found", n, id), id)
	}

	obj, err := c.ClientSet.CoreV1().Secrets(c.Namespace).Get(ctx, versionObjectName(id, n), metav1.GetOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return nil, secretstore.NotFound(err, id)
		}
		return nil, fmt.Errorf("failed to get secret version: %w", err)
	}

	accessed := &secretstore.AccessedVersion{Name: c.toVersion(obj).Name}
	if payload, ok := obj.Data[payloadKey]; ok {
		accessed.Payload = payload
	}
	return accessed, nil
}

// AddSecretVersion stores the payload under a new number and only then moves the
// parent's latest-version annotation to it. Create answering AlreadyExists, or the
// Update failing on the parent's resourceVersion, means another writer got there first.
func (c *Client) AddSecretVersion(ctx context.Context, id string, payload []byte) (*secretstore.SecretVersion, error) {
	parent, err := c.getParent(ctx, id)
	if err != nil {
		return nil, err
	}

	items, err := c.listVersionObjects(ctx, id)
	if err != nil {
		return nil, err
	}
	n := latestVersion(parent) + 1
	for i := range items {
		// step over objects left by appends whose rollback failed
		if v := versionNumber(&items[i]); v >= n {
			n = v + 1
		}
	}

	obj := &v1.Secret{
		ObjectMeta: metav1.ObjectMeta{
			Name: versionObjectName(id, n),
			Labels: map[string]string{
				labelKind:    kindVersion,
				labelSecret:  id,
				labelVersion: strconv.FormatInt(n, 10),
			},
		},
		Data: map[string][]byte{payloadKey: payload},
		Type: v1.SecretTypeOpaque,
	}

	created, err := c.ClientSet.CoreV1().Secrets(c.Namespace).Create(ctx, obj, metav1.CreateOptions{})
	if err != nil {
		if apierrors.IsAlreadyExists(err) {
			return nil, fmt.Errorf("secret %q was modified concurrently: %w", id, err)
		}
		return nil, fmt.Errorf("failed to create secret version: %w", err)
	}

	if parent.Annotations == nil {
		parent.Annotations = map[string]string{}
	}
	parent.Annotations[annotationLatest] = strconv.FormatInt(n, 10)

	if _, err := c.ClientSet.CoreV1().Secrets(c.Namespace).Update(ctx, parent, metav1.UpdateOptions{}); err != nil {
		if derr := c.ClientSet.CoreV1().Secrets(c.Namespace).Delete(ctx, obj.Name, metav1.DeleteOptions{}); derr != nil && !apierrors.IsNotFound(derr) {
			c.Logger.Warn("Could not remove uncommitted secret version", zap.String("version", obj.Name), zap.Error(derr))
		}
		if apierrors.IsConflict(err) {
			return nil, fmt.Errorf("secret %q was modified concurrently: %w", id, err)
		}
		return nil, fmt.Errorf("failed to update secret: %w", err)
	}

	return c.toVersion(created), nil
}
