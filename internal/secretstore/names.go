package secretstore

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseVersion resolves a version reference to a number.
// "latest" and "" return 0 with latest=true.
func ParseVersion(version string) (n int64, latest bool, err error) {
	if version == "" || version == LatestVersion {
		return 0, true, nil
	}
	n, err = strconv.ParseInt(version, 10, 64)
	if err != nil || n <= 0 {
		return 0, false, fmt.Errorf("invalid secret version %q", version)
	}
	return n, false, nil
}

// IDFromName returns the trailing secret id of a store-derived name
// such as projects/p/secrets/id or namespaces/ns/secrets/id.
func IDFromName(name string) string {
	parts := strings.Split(name, "/")
	for i := len(parts) - 2; i >= 0; i-- {
		if parts[i] == "secrets" {
			return parts[i+1]
		}
	}
	return parts[len(parts)-1]
}

// ResolveID accepts a bare secret id or a full name "<parent>/secrets/<id>" whose
// parent is one of parents, and returns the id. Names under any other parent are rejected.
func ResolveID(ref string, parents ...string) (string, error) {
	ref = strings.Trim(strings.TrimSpace(ref), "/")
	parent, id, ok := strings.Cut(ref, "/secrets/")
	if !ok {
		if ref == "" || strings.Contains(ref, "/") {
			return "", fmt.Errorf("invalid secret reference %q", ref)
		}
		return ref, nil
	}
	if id == "" || strings.Contains(id, "/") {
		return "", fmt.Errorf("invalid secret reference %q", ref)
	}
	for _, p := range parents {
		if p != "" && parent == strings.Trim(p, "/") {
			return id, nil
		}
	}
	return "", fmt.Errorf("secret %q does not belong to %s", ref, strings.Join(parents, " or "))
}
