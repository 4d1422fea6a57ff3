package schema

import (
	"bytes"
	"io"
	"path"
	"strconv"
	"strings"

	gojson "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/tsgonest/schemats/internal/errors"
)

// Decode reads every top-level schema held in data. The format is chosen by
// the unit's extension: .json is JSON, anything else YAML.
func Decode(unit string, data []byte) ([]*Node, error) {
	if strings.EqualFold(path.Ext(unit), ".json") {
		return DecodeJSON(unit, bytes.NewReader(data))
	}
	return DecodeYAML(unit, bytes.NewReader(data))
}

// DecodeYAML reads a YAML stream; each document is one top-level schema.
func DecodeYAML(unit string, r io.Reader) ([]*Node, error) {
	dec := yaml.NewDecoder(r)
	var docs []any
	for {
		var doc yaml.Node
		if err := dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, errors.Wrapf(err, "parsing %s", unit)
		}
		raw, err := fromYAML(&doc)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing %s", unit)
		}
		if raw == nil {
			continue
		}
		docs = append(docs, raw)
	}
	return buildRoots(unit, docs)
}

// DecodeJSON reads either one schema object or an array of schema objects.
func DecodeJSON(unit string, r io.Reader) ([]*Node, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", unit)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	dec := gojson.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	raw, err := fromJSON(dec)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", unit)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.Newf("parsing %s: unexpected data after the top-level value", unit)
	}
	if seq, ok := raw.([]any); ok {
		return buildRoots(unit, seq)
	}
	return buildRoots(unit, []any{raw})
}

func buildRoots(unit string, docs []any) ([]*Node, error) {
	root := Location{Unit: unit}
	nodes := make([]*Node, 0, len(docs))
	for i, doc := range docs {
		loc := root
		if len(docs) > 1 {
			loc = root.Child(strconv.Itoa(i))
		}
		n, err := buildNode(loc, doc)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func fromYAML(n *yaml.Node) (any, error) {
	switch n.Kind {
	case 0:
		return nil, nil
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return fromYAML(n.Content[0])
	case yaml.AliasNode:
		return fromYAML(n.Alias)
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := fromYAML(c)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.MappingNode:
		m := &rawMap{}
		var merged []*rawMap
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			val, err := fromYAML(v)
			if err != nil {
				return nil, err
			}
			if k.ShortTag() == "!!merge" {
				switch t := val.(type) {
				case *rawMap:
					merged = append(merged, t)
				case []any:
					for _, el := range t {
						if em, ok := el.(*rawMap); ok {
							merged = append(merged, em)
						}
					}
				}
				continue
			}
			if k.Kind != yaml.ScalarNode {
				return nil, errors.Newf("line %d: mapping keys must be scalars", k.Line)
			}
			m.set(k.Value, val)
		}
		// Explicit keys win over merged ones.
		for _, src := range merged {
			for i, key := range src.keys {
				if _, ok := m.get(key); !ok {
					m.set(key, src.vals[i])
				}
			}
		}
		return m, nil
	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!null":
			return nil, nil
		case "!!bool":
			var b bool
			if err := n.Decode(&b); err != nil {
				return nil, errors.Wrapf(err, "line %d", n.Line)
			}
			return b, nil
		case "!!int", "!!float":
			return rawNumber(n.Value), nil
		default:
			return n.Value, nil
		}
	}
	return nil, errors.Newf("line %d: unsupported YAML node", n.Line)
}

func fromJSON(dec *gojson.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case gojson.Delim:
		switch t {
		case '{':
			m := &rawMap{}
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := kt.(string)
				if !ok {
					return nil, errors.Newf("expected object key, got %v", kt)
				}
				val, err := fromJSON(dec)
				if err != nil {
					return nil, err
				}
				m.set(key, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return m, nil
		case '[':
			out := []any{}
			for dec.More() {
				val, err := fromJSON(dec)
				if err != nil {
					return nil, err
				}
				out = append(out, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return out, nil
		}
		return nil, errors.Newf("unexpected delimiter %v", t)
	case gojson.Number:
		return rawNumber(t.String()), nil
	case float64:
		return rawNumber(strconv.FormatFloat(t, 'g', -1, 64)), nil
	case string, bool, nil:
		return t, nil
	}
	return nil, errors.Newf("unexpected token %v", tok)
}
