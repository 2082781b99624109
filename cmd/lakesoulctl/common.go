package main

import (
	"fmt"
	"strings"

	"github.com/lakesoul-io/lakesoul-go/pkg/catalog/boltcatalog"
	"github.com/lakesoul-io/lakesoul-go/pkg/lifecycle"
)

// parseTableRefs parses "namespace/name" pairs from --tables flags.
func parseTableRefs(raw []string) ([]lifecycle.TableRef, error) {
	refs := make([]lifecycle.TableRef, 0, len(raw))
	for _, r := range raw {
		parts := strings.SplitN(r, "/", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("invalid table reference %q, expected namespace/name", r)
		}
		refs = append(refs, lifecycle.TableRef{Namespace: parts[0], Name: parts[1]})
	}
	return refs, nil
}

// openStore opens the on-disk catalog store directly, for local
// inspection/maintenance commands that don't need a running cluster.
func openStore(dataDir string) (*boltcatalog.Store, error) {
	store, err := boltcatalog.Open(dataDir)
	if err != nil {
		return nil, fmt.Errorf("open catalog store at %s: %w", dataDir, err)
	}
	return store, nil
}

func splitNamespaceName(ref string) (namespace, name string, err error) {
	parts := strings.SplitN(ref, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid table reference %q, expected namespace/name", ref)
	}
	return parts[0], parts[1], nil
}
