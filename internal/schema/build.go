package schema

import (
	"math"
	"strconv"

	gojson "github.com/goccy/go-json"
	"golang.org/x/text/unicode/norm"

	"github.com/tsgonest/schemats/internal/errors"
)

// Decoders reduce their input to this small ordered tree before nodes are
// built, so YAML and JSON share one set of rules.
//
//	*rawMap    mapping with key order preserved
//	[]any      sequence
//	rawNumber  number text as written
//	string, bool, nil
type rawMap struct {
	keys []string
	vals []any
}

type rawNumber string

func (m *rawMap) set(key string, v any) {
	for i, k := range m.keys {
		if k == key {
			m.vals[i] = v
			return
		}
	}
	m.keys = append(m.keys, key)
	m.vals = append(m.vals, v)
}

func (m *rawMap) get(key string) (any, bool) {
	for i, k := range m.keys {
		if k == key {
			return m.vals[i], true
		}
	}
	return nil, false
}

var nodeKeys = map[string]bool{
	"type": true, "required": true, "allow": true, "valid": true, "only": true,
	"keys": true, "items": true, "ordered": true, "alternatives": true,
	"link": true, "name": true, "description": true, "example": true, "enum": true,
}

func invalid(loc Location, format string, args ...any) error {
	return errors.Wrapf(errors.Newf(format, args...), "invalid schema at %s", loc)
}

// buildNode converts one raw mapping into a Node.
func buildNode(loc Location, v any) (*Node, error) {
	m, ok := v.(*rawMap)
	if !ok {
		return nil, invalid(loc, "expected a mapping, got %s", rawTypeName(v))
	}
	for _, k := range m.keys {
		if !nodeKeys[k] {
			return nil, errors.WithHint(
				invalid(loc, "unknown key %q", k),
				"recognized keys: type, required, allow, valid, only, keys, items, ordered, alternatives, link, name, description, example, enum",
			)
		}
	}

	n := &Node{Source: loc}

	if raw, ok := m.get("type"); ok {
		s, ok := raw.(string)
		if !ok || !knownKinds[Kind(s)] {
			return nil, invalid(loc.Child("type"), "unknown type %v", raw)
		}
		n.Kind = Kind(s)
	}

	if raw, ok := m.get("required"); ok {
		b, ok := raw.(bool)
		if !ok {
			return nil, invalid(loc.Child("required"), "required must be a boolean")
		}
		if b {
			n.Presence = PresenceRequired
		} else {
			n.Presence = PresenceOptional
		}
	}

	// valid() entries close the set and come first; allow() entries widen it.
	if raw, ok := m.get("valid"); ok {
		vals, err := buildValues(loc.Child("valid"), raw)
		if err != nil {
			return nil, err
		}
		n.Allow = append(n.Allow, vals...)
		n.Only = true
	}
	if raw, ok := m.get("allow"); ok {
		vals, err := buildValues(loc.Child("allow"), raw)
		if err != nil {
			return nil, err
		}
		n.Allow = append(n.Allow, vals...)
	}
	if raw, ok := m.get("only"); ok {
		b, ok := raw.(bool)
		if !ok {
			return nil, invalid(loc.Child("only"), "only must be a boolean")
		}
		n.Only = n.Only || b
	}

	if raw, ok := m.get("keys"); ok {
		km, ok := raw.(*rawMap)
		if !ok {
			return nil, invalid(loc.Child("keys"), "keys must be a mapping")
		}
		n.Keys = make([]Property, 0, len(km.keys))
		for i, key := range km.keys {
			child, err := buildNode(loc.Child("keys", key), km.vals[i])
			if err != nil {
				return nil, err
			}
			n.Keys = append(n.Keys, Property{Key: norm.NFC.String(key), Node: child})
		}
	}

	var err error
	if n.Items, err = buildList(loc, m, "items"); err != nil {
		return nil, err
	}
	if n.Ordered, err = buildList(loc, m, "ordered"); err != nil {
		return nil, err
	}
	if n.Alternatives, err = buildList(loc, m, "alternatives"); err != nil {
		return nil, err
	}

	if n.Link, err = buildString(loc, m, "link"); err != nil {
		return nil, err
	}
	if n.Name, err = buildString(loc, m, "name"); err != nil {
		return nil, err
	}
	if n.Description, err = buildString(loc, m, "description"); err != nil {
		return nil, err
	}
	n.Link = norm.NFC.String(n.Link)
	n.Name = norm.NFC.String(n.Name)

	if raw, ok := m.get("example"); ok {
		n.Example = exampleText(raw)
	}

	if raw, ok := m.get("enum"); ok {
		e, err := buildEnum(loc.Child("enum"), raw)
		if err != nil {
			return nil, err
		}
		n.Enum = e
	}

	if n.Kind == "" {
		n.Kind = inferKind(n)
	}
	if err := checkShape(n); err != nil {
		return nil, err
	}
	return n, nil
}

// inferKind picks a kind for nodes that omit `type` but carry structure.
func inferKind(n *Node) Kind {
	switch {
	case n.Keys != nil:
		return KindObject
	case n.Items != nil || n.Ordered != nil:
		return KindArray
	case n.Alternatives != nil:
		return KindAlternatives
	case n.Link != "":
		return KindLink
	}
	return KindAny
}

func checkShape(n *Node) error {
	if n.Keys != nil && n.Kind != KindObject {
		return invalid(n.Source.Child("keys"), "keys given on a %s node", n.Kind)
	}
	if (n.Items != nil || n.Ordered != nil) && n.Kind != KindArray {
		return invalid(n.Source, "items or ordered given on a %s node", n.Kind)
	}
	if n.Alternatives != nil && n.Kind != KindAlternatives {
		return invalid(n.Source.Child("alternatives"), "alternatives given on a %s node", n.Kind)
	}
	if n.Kind == KindLink && n.Link == "" {
		return invalid(n.Source, "link node without a target name")
	}
	if n.Kind == KindAlternatives && len(n.Alternatives) == 0 {
		return invalid(n.Source, "alternatives node without branches")
	}
	return nil
}

func buildList(loc Location, m *rawMap, key string) ([]*Node, error) {
	raw, ok := m.get(key)
	if !ok {
		return nil, nil
	}
	seq, ok := raw.([]any)
	if !ok {
		// A single mapping is accepted as a one-element list.
		seq = []any{raw}
	}
	out := make([]*Node, 0, len(seq))
	for i, el := range seq {
		child, err := buildNode(loc.Child(key, strconv.Itoa(i)), el)
		if err != nil {
			return nil, err
		}
		out = append(out, child)
	}
	return out, nil
}

func buildString(loc Location, m *rawMap, key string) (string, error) {
	raw, ok := m.get(key)
	if !ok || raw == nil {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", invalid(loc.Child(key), "%s must be a string", key)
	}
	return s, nil
}

func buildValues(loc Location, raw any) ([]Value, error) {
	seq, ok := raw.([]any)
	if !ok {
		seq = []any{raw}
	}
	out := make([]Value, 0, len(seq))
	for i, el := range seq {
		v, err := buildValue(loc.Child(strconv.Itoa(i)), el)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func buildValue(loc Location, raw any) (Value, error) {
	switch t := raw.(type) {
	case nil:
		return NullValue(), nil
	case string:
		return StringValue(t), nil
	case bool:
		return BoolValue(t), nil
	case rawNumber:
		text, err := canonicalNumber(string(t))
		if err != nil {
			return Value{}, invalid(loc, "bad number %q", string(t))
		}
		return NumberValue(text), nil
	case *rawMap:
		if ref, ok := t.get("$ref"); ok && len(t.keys) == 1 {
			s, ok := ref.(string)
			if !ok || s == "" {
				return Value{}, invalid(loc, "$ref must name a field")
			}
			return RefValue(s), nil
		}
		if u, ok := t.get("$undefined"); ok && len(t.keys) == 1 {
			if b, ok := u.(bool); ok && b {
				return UndefinedValue(), nil
			}
		}
		return Value{}, invalid(loc, "mapping values must be {$ref: field} or {$undefined: true}")
	}
	return Value{}, invalid(loc, "unsupported value of type %s", rawTypeName(raw))
}

func buildEnum(loc Location, raw any) (*Enum, error) {
	m, ok := raw.(*rawMap)
	if !ok {
		return nil, invalid(loc, "enum must be a mapping")
	}
	name, err := buildString(loc, m, "name")
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, invalid(loc.Child("name"), "enum needs a name")
	}
	rawMembers, ok := m.get("members")
	if !ok {
		return nil, invalid(loc.Child("members"), "enum needs members")
	}
	mm, ok := rawMembers.(*rawMap)
	if !ok || len(mm.keys) == 0 {
		return nil, invalid(loc.Child("members"), "enum members must be a non-empty mapping")
	}
	e := &Enum{Name: norm.NFC.String(name)}
	for i, key := range mm.keys {
		v, err := buildValue(loc.Child("members", key), mm.vals[i])
		if err != nil {
			return nil, err
		}
		if !v.IsLiteral() {
			return nil, invalid(loc.Child("members", key), "enum members must be string, number or boolean")
		}
		e.Members = append(e.Members, EnumMember{Key: key, Value: v})
	}
	return e, nil
}

// canonicalNumber normalizes number text so 1, 1.0 and 0x1 compare equal.
func canonicalNumber(text string) (string, error) {
	if i, err := strconv.ParseInt(text, 0, 64); err == nil {
		return strconv.FormatInt(i, 10), nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return "", err
	}
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return "", errors.Newf("non-finite number %q", text)
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64), nil
	}
	return strconv.FormatFloat(f, 'g', -1, 64), nil
}

// exampleText renders an example for documentation: scalars as written,
// structured values as compact JSON.
func exampleText(raw any) string {
	switch t := raw.(type) {
	case nil:
		return "null"
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case rawNumber:
		return string(t)
	}
	b, err := gojson.Marshal(plain(raw))
	if err != nil {
		return ""
	}
	return string(b)
}

// plain turns a raw tree into values go-json can marshal, keeping key order.
func plain(raw any) any {
	switch t := raw.(type) {
	case *rawMap:
		o := orderedJSON{keys: t.keys, vals: make([]any, len(t.vals))}
		for i, v := range t.vals {
			o.vals[i] = plain(v)
		}
		return o
	case []any:
		out := make([]any, len(t))
		for i, v := range t {
			out[i] = plain(v)
		}
		return out
	case rawNumber:
		return gojson.Number(t)
	}
	return raw
}

type orderedJSON struct {
	keys []string
	vals []any
}

func (o orderedJSON) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, k := range o.keys {
		if i > 0 {
			buf = append(buf, ',')
		}
		kb, err := gojson.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := gojson.Marshal(o.vals[i])
		if err != nil {
			return nil, err
		}
		buf = append(buf, kb...)
		buf = append(buf, ':')
		buf = append(buf, vb...)
	}
	return append(buf, '}'), nil
}

func rawTypeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case rawNumber:
		return "number"
	case []any:
		return "sequence"
	case *rawMap:
		return "mapping"
	}
	return "unknown"
}
