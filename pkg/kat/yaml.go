package kat

import (
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/kat/pkg/value"
)

type yamlFormat struct{}

func (yamlFormat) Name() string { return "yaml" }
func (yamlFormat) Ext() string  { return ".yaml" }

// Parse walks the node tree instead of decoding into interface{} so that
// implicit timestamps stay timestamps.
func (yamlFormat) Parse(data []byte) (value.Table, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 {
		return value.Table{}, nil
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) != 1 {
		return nil, errors.New("expected a single YAML document")
	}
	v, err := fromYAML(doc.Content[0])
	if err != nil {
		return nil, err
	}
	tbl, ok := v.(value.Table)
	if !ok {
		return nil, fmt.Errorf("line %d: top level must be a mapping, found %s", doc.Content[0].Line, v.Category())
	}
	return tbl, nil
}

func fromYAML(n *yaml.Node) (value.Value, error) {
	switch n.Kind {
	case yaml.AliasNode:
		return fromYAML(n.Alias)

	case yaml.MappingNode:
		tbl := make(value.Table, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if k.Kind != yaml.ScalarNode || k.ShortTag() == "!!merge" {
				return nil, fmt.Errorf("line %d: unsupported mapping key", k.Line)
			}
			if _, dup := tbl[k.Value]; dup {
				return nil, fmt.Errorf("line %d: duplicate key %q", k.Line, k.Value)
			}
			ev, err := fromYAML(v)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k.Value, err)
			}
			tbl[k.Value] = ev
		}
		return tbl, nil

	case yaml.SequenceNode:
		arr := make(value.Array, len(n.Content))
		for i, elem := range n.Content {
			ev, err := fromYAML(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			arr[i] = ev
		}
		return arr, nil

	case yaml.ScalarNode:
		return yamlScalar(n)
	}
	return nil, fmt.Errorf("line %d: unsupported YAML node", n.Line)
}

func yamlScalar(n *yaml.Node) (value.Value, error) {
	switch n.ShortTag() {
	case "!!str":
		return value.String(n.Value), nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			return nil, err
		}
		return value.Integer(i), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, err
		}
		return value.Float(f), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, err
		}
		return value.Boolean(b), nil
	case "!!timestamp":
		if d, err := time.Parse(time.DateOnly, n.Value); err == nil {
			return value.LocalDate(d.Year(), d.Month(), d.Day()), nil
		}
		var t time.Time
		if err := n.Decode(&t); err != nil {
			return nil, err
		}
		return value.OffsetDateTime(t), nil
	case "!!null":
		return nil, fmt.Errorf("line %d: null is not a document value", n.Line)
	}
	return nil, fmt.Errorf("line %d: unsupported tag %s", n.Line, n.ShortTag())
}
