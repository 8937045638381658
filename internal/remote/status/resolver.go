package status

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the memo of resolved codes. A session only ever
// sees a handful of distinct codes.
const DefaultCacheSize = 16

// resolution is cached for hits and misses alike.
type resolution struct {
	kind *Kind
}

// Resolver maps raw status codes to kinds. It is safe for concurrent use.
type Resolver struct {
	taxonomy *Taxonomy
	cache    *lru.Cache[int32, resolution]
}

// NewResolver creates a resolver over t with a cache of size entries.
// A size <= 0 selects DefaultCacheSize.
func NewResolver(t *Taxonomy, size int) *Resolver {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[int32, resolution](size)
	if err != nil {
		// lru.New only fails for non-positive sizes.
		panic(err)
	}
	return &Resolver{taxonomy: t, cache: cache}
}

var defaultResolver = NewResolver(Default(), DefaultCacheSize)

// DefaultResolver returns the shared resolver over the built-in taxonomy.
func DefaultResolver() *Resolver { return defaultResolver }

// Resolve returns the kind for code, or nil if no kind carries it.
func (r *Resolver) Resolve(code int32) *Kind {
	if res, ok := r.cache.Get(code); ok {
		return res.kind
	}
	k := r.lookup(code)
	r.cache.Add(code, resolution{kind: k})
	return k
}

// lookup walks the bases in declaration order. Within a base the direct
// leaves take precedence over the base's own code.
func (r *Resolver) lookup(code int32) *Kind {
	for _, b := range r.taxonomy.bases {
		for _, leaf := range b.Leaves {
			if c, ok := leaf.Code(); ok && c == code {
				return leaf
			}
		}
		if c, ok := b.Kind.Code(); ok && c == code {
			return b.Kind
		}
	}
	return nil
}

// Check converts the status code returned by op into an error.
//
// Zero is success. A code that resolves yields an *Error of that kind. An
// unresolved code yields nil unless strict is set, in which case it yields
// an Unknown error that keeps the raw code.
func (r *Resolver) Check(op string, code int32, strict bool) error {
	if code == 0 {
		return nil
	}
	if k := r.Resolve(code); k != nil {
		return &Error{Kind: k, Code: code, Message: k.message, Op: op}
	}
	if strict {
		return Unknown(op, code)
	}
	return nil
}

// Len reports the number of cached resolutions.
func (r *Resolver) Len() int { return r.cache.Len() }

// CheckFunc converts the status returned by op into an error. Callers
// outside this package receive one bound to their strictness and logging.
type CheckFunc func(op string, code int32) error

// Checker returns a CheckFunc over r with a fixed strictness.
func (r *Resolver) Checker(strict bool) CheckFunc {
	return func(op string, code int32) error {
		return r.Check(op, code, strict)
	}
}
