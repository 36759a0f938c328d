package filestore

import "context"

// persistFunc uploads the encoded container back to its backend.
type persistFunc func(ctx context.Context, domain string, raw []byte) error

type container struct {
	domain  string
	root    *Group
	persist persistFunc
}

func newContainer(domain string, root *Group, persist persistFunc) *container {
	if root == nil {
		root = newGroup("/")
	}
	return &container{domain: domain, root: root, persist: persist}
}

func (c *container) Domain() string { return c.domain }

func (c *container) Groups() []string { return c.root.GroupNames() }

func (c *container) Group(name string) (*Group, bool) { return c.root.Group(name) }

func (c *container) CreateGroup(name string) (*Group, error) { return c.root.CreateGroup(name) }

func (c *container) Close(ctx context.Context) error {
	raw, err := marshalContainer(c.root)
	if err != nil {
		return err
	}
	return c.persist(ctx, c.domain, raw)
}
