// Package paths maps file-store domains onto filesystem locations,
// applying the privilege namespace rule and host-local mirror rewrites.
package paths

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultRoot       = "/home/jovyan/data"
	defaultHomePrefix = "/home/jovyan"
)

// DefaultMirrors are probed in order: the working-directory mirror,
// then the shared SpecData mount.
var DefaultMirrors = []string{".", "/SpecData"}

// Resolver turns domain strings into canonical paths. It is pure given
// its stat function; no state is mutated.
type Resolver struct {
	// Root is the privileged data root paths are generated under.
	Root string
	// HomePrefix is the leading path segment mirrors substitute.
	HomePrefix string
	// Mirrors are candidate replacements for HomePrefix, probed in
	// order against the local filesystem.
	Mirrors []string
	// Admin includes the namespace subdirectory in generated paths.
	Admin bool

	// Stat overrides os.Stat in tests.
	Stat func(name string) (os.FileInfo, error)
}

func NewResolver(admin bool) *Resolver {
	return &Resolver{
		Root:       defaultRoot,
		HomePrefix: defaultHomePrefix,
		Mirrors:    DefaultMirrors,
		Admin:      admin,
	}
}

// Resolve maps each domain "<name>.<namespace>..." to a path under
// Root. With admin privilege the namespace becomes a subdirectory
// ("<root>/<namespace>/<name>.nxs"); otherwise it is omitted.
func (r *Resolver) Resolve(domains []string) []string {
	out := make([]string, 0, len(domains))
	for _, d := range domains {
		out = append(out, r.ResolveOne(d))
	}
	return out
}

func (r *Resolver) ResolveOne(domain string) string {
	parts := strings.Split(domain, ".")
	name := parts[0]
	if r.Admin && len(parts) > 1 {
		return filepath.Join(r.root(), parts[1], name+".nxs")
	}
	return filepath.Join(r.root(), name+".nxs")
}

// RewriteToMirror probes, in order, each mirror substitution of
// HomePrefix against the directory of the first path and rewrites the
// whole set to the first mirror that exists on this host. Paths come
// back unchanged when no mirror is reachable; a later load against the
// privileged root then fails with the file store's not-found error.
func (r *Resolver) RewriteToMirror(paths []string) []string {
	if len(paths) == 0 {
		return paths
	}
	prefix := r.homePrefix()
	dir := filepath.Dir(paths[0])
	for _, mirror := range r.mirrors() {
		probe := strings.Replace(dir, prefix, mirror, 1)
		if probe == dir && !strings.HasPrefix(dir, prefix) {
			continue
		}
		if _, err := r.stat(probe); err != nil {
			continue
		}
		out := make([]string, len(paths))
		for i, p := range paths {
			out[i] = strings.Replace(p, prefix, mirror, 1)
		}
		return out
	}
	return paths
}

func (r *Resolver) root() string {
	if r.Root == "" {
		return defaultRoot
	}
	return r.Root
}

func (r *Resolver) homePrefix() string {
	if r.HomePrefix == "" {
		return defaultHomePrefix
	}
	return r.HomePrefix
}

func (r *Resolver) mirrors() []string {
	if len(r.Mirrors) == 0 {
		return DefaultMirrors
	}
	return r.Mirrors
}

func (r *Resolver) stat(name string) (os.FileInfo, error) {
	if r.Stat != nil {
		return r.Stat(name)
	}
	return os.Stat(name)
}
