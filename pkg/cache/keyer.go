package cache

import (
	"strconv"
	"strings"
)

// ArtifactKeyOpts holds everything besides the input image that changes an
// aged artifact.
type ArtifactKeyOpts struct {
	PresetHash string
	Seed       uint64
	Format     string
	Quality    int // zero for lossless formats
}

// Keyer builds cache keys.
type Keyer interface {
	// ArtifactKey returns the key of the artifact rendered from the input
	// with the given hash.
	ArtifactKey(inputHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer builds unprefixed keys of the form "artifact:<sha256>".
type DefaultKeyer struct{}

func (DefaultKeyer) ArtifactKey(inputHash string, opts ArtifactKeyOpts) string {
	return newKeyHash().
		field(inputHash).
		field(opts.PresetHash).
		field(strconv.FormatUint(opts.Seed, 10)).
		field(opts.Format).
		field(strconv.Itoa(opts.Quality)).
		sum("artifact")
}

// Namespaced prefixes every key built by inner with "namespace:", so that
// several deployments can share one Redis database. A nil inner uses
// [DefaultKeyer]; an empty namespace returns inner unchanged.
func Namespaced(inner Keyer, namespace string) Keyer {
	if inner == nil {
		inner = DefaultKeyer{}
	}
	namespace = strings.TrimSuffix(namespace, ":")
	if namespace == "" {
		return inner
	}
	return prefixKeyer{inner: inner, prefix: namespace + ":"}
}

type prefixKeyer struct {
	inner  Keyer
	prefix string
}

func (k prefixKeyer) ArtifactKey(inputHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(inputHash, opts)
}
