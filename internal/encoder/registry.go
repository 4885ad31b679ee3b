package encoder

import (
	"fmt"
	"sort"
	"strings"
)

// priority is the listing order of known codecs.
var priority = []string{"jpeg", "webp", "avif"}

var aliases = map[string]string{
	"jpg": "jpeg",
}

// Registry holds the known lossy encoders. A run picks exactly one of them
// by name; there is no automatic format selection.
type Registry struct {
	all      map[string]Encoder
	encoders map[string]Encoder
}

// NewRegistry creates a registry, probing all encoders for availability.
func NewRegistry() *Registry {
	return newRegistry(&JPEGEncoder{}, NewWebPEncoder(), NewAVIFEncoder())
}

func newRegistry(encs ...Encoder) *Registry {
	r := &Registry{
		all:      make(map[string]Encoder),
		encoders: make(map[string]Encoder),
	}
	for _, enc := range encs {
		r.all[enc.Format()] = enc
		if enc.Available() {
			r.encoders[enc.Format()] = enc
		}
	}
	return r
}

// Canonical normalizes a codec name, resolving aliases.
func Canonical(format string) string {
	f := strings.ToLower(strings.TrimSpace(format))
	if a, ok := aliases[f]; ok {
		return a
	}
	return f
}

// Get returns an available encoder for the given format, or nil.
func (r *Registry) Get(format string) Encoder {
	return r.encoders[Canonical(format)]
}

// Lookup is Get with an explanatory error for unknown or missing codecs.
func (r *Registry) Lookup(format string) (Encoder, error) {
	name := Canonical(format)
	if enc, ok := r.encoders[name]; ok {
		return enc, nil
	}
	if _, known := r.all[name]; known {
		return nil, fmt.Errorf("codec %q is not available on this system", name)
	}
	return nil, fmt.Errorf("unknown codec %q (known: %s)", format, strings.Join(r.Known(), ", "))
}

// Available returns all available format names.
func (r *Registry) Available() []string {
	return r.ordered(r.encoders)
}

// Known returns every registered format name, available or not.
func (r *Registry) Known() []string {
	return r.ordered(r.all)
}

func (r *Registry) ordered(set map[string]Encoder) []string {
	var result []string
	seen := map[string]bool{}
	// Maintain priority order.
	for _, f := range priority {
		if _, ok := set[f]; ok {
			result = append(result, f)
			seen[f] = true
		}
	}
	var rest []string
	for f := range set {
		if !seen[f] {
			rest = append(rest, f)
		}
	}
	sort.Strings(rest)
	return append(result, rest...)
}

// String returns a summary of available encoders.
func (r *Registry) String() string {
	avail := r.Available()
	if len(avail) == 0 {
		return "no encoders available"
	}
	return fmt.Sprintf("encoders: %s", strings.Join(avail, ", "))
}
