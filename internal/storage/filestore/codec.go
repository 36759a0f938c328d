package filestore

import (
	"encoding/json"
	"fmt"
)

// The on-store encoding is one JSON document per container: small NeXus
// result files fit a single GET/PUT round trip.

type groupDoc struct {
	Attrs    map[string]any        `json:"attrs,omitempty"`
	Groups   map[string]groupDoc   `json:"groups,omitempty"`
	Datasets map[string]datasetDoc `json:"datasets,omitempty"`
}

type datasetDoc struct {
	Shape  []int     `json:"shape,omitempty"`
	Values []float64 `json:"values"`
}

func encodeGroup(g *Group) groupDoc {
	doc := groupDoc{}
	if len(g.attrs) > 0 {
		doc.Attrs = g.attrs
	}
	if len(g.groups) > 0 {
		doc.Groups = make(map[string]groupDoc, len(g.groups))
		for name, child := range g.groups {
			doc.Groups[name] = encodeGroup(child)
		}
	}
	if len(g.datasets) > 0 {
		doc.Datasets = make(map[string]datasetDoc, len(g.datasets))
		for name, ds := range g.datasets {
			doc.Datasets[name] = datasetDoc{Shape: ds.Shape, Values: ds.Values}
		}
	}
	return doc
}

func decodeGroup(name string, doc groupDoc) *Group {
	g := newGroup(name)
	for k, v := range doc.Attrs {
		g.attrs[k] = v
	}
	for childName, childDoc := range doc.Groups {
		g.groups[childName] = decodeGroup(childName, childDoc)
	}
	for dsName, dsDoc := range doc.Datasets {
		g.datasets[dsName] = &Dataset{Name: dsName, Shape: dsDoc.Shape, Values: dsDoc.Values}
	}
	return g
}

func marshalContainer(root *Group) ([]byte, error) {
	raw, err := json.Marshal(encodeGroup(root))
	if err != nil {
		return nil, fmt.Errorf("encode container: %w", err)
	}
	return raw, nil
}

func unmarshalContainer(raw []byte) (*Group, error) {
	var doc groupDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode container: %w", err)
	}
	return decodeGroup("/", doc), nil
}
