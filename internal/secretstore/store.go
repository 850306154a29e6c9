// Package secretstore defines the contract every secret backend implements.
//
// A secret is a named container holding an ordered history of immutable
// versions. Backends report absence with errors satisfying
// errors.Is(err, errors.NotFound) and duplicates with errors.AlreadyExists
// (github.com/juju/errors), so callers can tell "missing" apart from
// transport or permission failures.
package secretstore

import (
	"context"
	"time"
)

// LatestVersion is the alias that resolves to the most recently added version
const LatestVersion = "latest"

// Secret is a secret resource as reported by a backend
type Secret struct {
	Name       string // Store-derived name, e.g. projects/p/secrets/id
	ID         string // Logical name the caller used
	CreateTime time.Time
	Labels     map[string]string
}

// VersionState mirrors the lifecycle states stores report for a version
type VersionState string

const (
	VersionEnabled   VersionState = "ENABLED"
	VersionDisabled  VersionState = "DISABLED"
	VersionDestroyed VersionState = "DESTROYED"
)

// SecretVersion is one immutable snapshot of a secret's payload
type SecretVersion struct {
	Name       string
	Number     int64
	CreateTime time.Time
	State      VersionState
}

// AccessedVersion carries the payload of an accessed version.
// A nil Payload means the store returned no data.
type AccessedVersion struct {
	Name    string
	Payload []byte
}

// SecretStore is the remote secret-management API consumed by the services
type SecretStore interface {
	GetSecret(ctx context.Context, id string) (*Secret, error)
	CreateSecret(ctx context.Context, id string) (*Secret, error)
	DeleteSecret(ctx context.Context, id string) error
	ListSecrets(ctx context.Context) ([]*Secret, error)
	ListSecretVersions(ctx context.Context, id string) ([]*SecretVersion, error)
	AccessSecretVersion(ctx context.Context, id, version string) (*AccessedVersion, error)
	AddSecretVersion(ctx context.Context, id string, payload []byte) (*SecretVersion, error)
}
