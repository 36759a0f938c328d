package filestore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrExists reports that Create hit a container already present.
	ErrExists = errors.New("container already exists")
	// ErrNotExist reports that Open found no container for the domain.
	ErrNotExist = errors.New("container does not exist")
)

// Store opens structured hierarchical containers addressed by domain.
type Store interface {
	// Create starts an empty container; ErrExists when one is present.
	Create(ctx context.Context, domain string) (Container, error)
	// Open loads an existing container for appending.
	Open(ctx context.Context, domain string) (Container, error)
}

// OpenOrCreate tries Create first and falls back to Open, so repeated
// writes against a pre-existing domain append entries instead of
// failing.
func OpenOrCreate(ctx context.Context, s Store, domain string) (Container, error) {
	c, err := s.Create(ctx, domain)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, ErrExists) {
		return nil, err
	}
	return s.Open(ctx, domain)
}

// Container is one open container. Close persists any mutation.
type Container interface {
	Domain() string
	Groups() []string
	Group(name string) (*Group, bool)
	CreateGroup(name string) (*Group, error)
	Close(ctx context.Context) error
}

// Group is a node in the container tree, holding attributes, nested
// groups and datasets.
type Group struct {
	name     string
	attrs    map[string]any
	groups   map[string]*Group
	datasets map[string]*Dataset
}

// Dataset is a shaped numeric array. Values are flattened row-major.
type Dataset struct {
	Name   string
	Shape  []int
	Values []float64
}

func newGroup(name string) *Group {
	return &Group{
		name:     name,
		attrs:    make(map[string]any),
		groups:   make(map[string]*Group),
		datasets: make(map[string]*Dataset),
	}
}

func (g *Group) Name() string { return g.name }

func (g *Group) SetAttr(name string, value any) {
	g.attrs[name] = value
}

func (g *Group) Attr(name string) (any, bool) {
	v, ok := g.attrs[name]
	return v, ok
}

// AttrString renders an attribute for class-marker comparison.
func (g *Group) AttrString(name string) string {
	v, ok := g.attrs[name]
	if !ok {
		return ""
	}
	return fmt.Sprint(v)
}

func (g *Group) CreateGroup(name string) (*Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("group name is required")
	}
	if _, ok := g.groups[name]; ok {
		return nil, fmt.Errorf("group %q already exists", name)
	}
	child := newGroup(name)
	g.groups[name] = child
	return child, nil
}

func (g *Group) Group(name string) (*Group, bool) {
	child, ok := g.groups[name]
	return child, ok
}

func (g *Group) GroupNames() []string {
	names := make([]string, 0, len(g.groups))
	for name := range g.groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (g *Group) CreateDataset(name string, shape []int, values []float64) (*Dataset, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("dataset name is required")
	}
	if _, ok := g.datasets[name]; ok {
		return nil, fmt.Errorf("dataset %q already exists", name)
	}
	want := 1
	for _, s := range shape {
		want *= s
	}
	if len(shape) > 0 && want != len(values) {
		return nil, fmt.Errorf("dataset %q shape %v implies %d values, got %d", name, shape, want, len(values))
	}
	ds := &Dataset{Name: name, Shape: append([]int(nil), shape...), Values: values}
	g.datasets[name] = ds
	return ds, nil
}

func (g *Group) Dataset(name string) (*Dataset, bool) {
	ds, ok := g.datasets[name]
	return ds, ok
}

func (g *Group) DatasetNames() []string {
	names := make([]string, 0, len(g.datasets))
	for name := range g.datasets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
