package paths

import (
	"errors"
	"os"
	"testing"
)

func statOnly(existing ...string) func(string) (os.FileInfo, error) {
	ok := make(map[string]struct{}, len(existing))
	for _, p := range existing {
		ok[p] = struct{}{}
	}
	return func(name string) (os.FileInfo, error) {
		if _, found := ok[name]; found {
			return nil, nil
		}
		return nil, errors.New("no such file")
	}
}

func TestResolveAdminIncludesNamespace(t *testing.T) {
	r := NewResolver(true)
	got := r.ResolveOne("run1.alice.vsrv-sgm-hdf5-01.clsi.ca")
	if got != "/home/jovyan/data/alice/run1.nxs" {
		t.Fatalf("ResolveOne = %q", got)
	}
}

func TestResolveNonAdminOmitsNamespace(t *testing.T) {
	r := NewResolver(false)
	got := r.ResolveOne("run1.alice.vsrv-sgm-hdf5-01.clsi.ca")
	if got != "/home/jovyan/data/run1.nxs" {
		t.Fatalf("ResolveOne = %q", got)
	}
}

func TestRewriteToMirrorSubstitutesFirstReachable(t *testing.T) {
	r := NewResolver(false)
	r.Stat = statOnly("SpecData/data") // only the shared mount exists
	r.Mirrors = []string{".", "SpecData"}

	paths := []string{"/home/jovyan/data/run1.nxs", "/home/jovyan/data/run2.nxs"}
	got := r.RewriteToMirror(paths)
	want := []string{"SpecData/data/run1.nxs", "SpecData/data/run2.nxs"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("path %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRewriteToMirrorPrefersEarlierMirror(t *testing.T) {
	r := NewResolver(false)
	r.Stat = statOnly("./data", "/SpecData/data")

	got := r.RewriteToMirror([]string{"/home/jovyan/data/run1.nxs"})
	if got[0] != "./data/run1.nxs" {
		t.Fatalf("path = %q, want local mirror", got[0])
	}
}

func TestRewriteToMirrorKeepsPathsWhenNoMirrorExists(t *testing.T) {
	r := NewResolver(false)
	r.Stat = statOnly()

	paths := []string{"/home/jovyan/data/run1.nxs"}
	got := r.RewriteToMirror(paths)
	if got[0] != paths[0] {
		t.Fatalf("path = %q, want unchanged", got[0])
	}
}

func TestRewriteToMirrorEmptyInput(t *testing.T) {
	r := NewResolver(false)
	if got := r.RewriteToMirror(nil); len(got) != 0 {
		t.Fatalf("RewriteToMirror(nil) = %v", got)
	}
}
