// Package settings loads the small JSON configuration tree a deployment
// uses to name stateless services, and answers path-shaped lookups
// through the envelope codec's own JSON path query, rather than a
// bespoke config parser.
package settings

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"

	"github.com/opensrf-go/gosrf/internal/domain/codec"
)

// Tree holds a decoded settings document and answers path queries over it.
type Tree struct {
	root any
}

// Load decodes a JSON settings document into a Tree.
func Load(data []byte) (*Tree, error) {
	var root any
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, errors.Wrap(err, "settings: decode config tree")
	}
	return &Tree{root: root}, nil
}

// Find runs codec.FindPath against the loaded tree.
func (t *Tree) Find(path string) []any {
	return codec.FindPath(t.root, path)
}

// Stateless reports whether service's /apps/<service>/stateless flag is
// set. Absent or non-boolean/non-numeric yields false.
func (t *Tree) Stateless(service string) bool {
	matches := t.Find(fmt.Sprintf("/apps/%s/stateless", service))
	if len(matches) == 0 {
		return false
	}
	switch v := matches[0].(type) {
	case bool:
		return v
	case float64:
		return v != 0
	default:
		return false
	}
}
