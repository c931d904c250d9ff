package kbdoc

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseYAML decodes the first YAML document in data. Empty input is null.
func ParseYAML(data []byte) (*Value, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	if node.Kind == 0 {
		return NewNull(), nil
	}
	return newNodeDecoder().decode(&node)
}

// EncodeYAML renders v as a block-style YAML document with two-space
// indentation, keeping mapping order.
func (v *Value) EncodeYAML() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v.toNode()); err != nil {
		return nil, fmt.Errorf("kbdoc: encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("kbdoc: encode yaml: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := newNodeDecoder().decode(node)
	if err != nil {
		return err
	}
	*v = *parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (v *Value) MarshalYAML() (interface{}, error) {
	return v.toNode(), nil
}

// ErrExcessiveAliasing is returned for documents whose aliases expand far
// beyond their own size.
var ErrExcessiveAliasing = errors.New("kbdoc: document contains excessive aliasing")

// nodeDecoder converts a node tree into a Value, counting nodes so that
// alias expansion stays bounded the way yaml.v3 bounds it.
type nodeDecoder struct {
	decoded   int
	aliased   int
	expanding map[*yaml.Node]bool
}

func newNodeDecoder() *nodeDecoder {
	return &nodeDecoder{expanding: make(map[*yaml.Node]bool)}
}

// allowedAliasRatio mirrors yaml.v3: small documents may be almost entirely
// aliases, large ones only a tenth.
func allowedAliasRatio(decoded int) float64 {
	switch {
	case decoded <= 400000:
		return 0.99
	case decoded >= 4000000:
		return 0.10
	default:
		return 0.99 - 0.89*(float64(decoded-400000)/3600000)
	}
}

func (d *nodeDecoder) count() error {
	d.decoded++
	if len(d.expanding) > 0 {
		d.aliased++
	}
	if d.aliased > 100 && d.decoded > 1000 &&
		float64(d.aliased)/float64(d.decoded) > allowedAliasRatio(d.decoded) {
		return ErrExcessiveAliasing
	}
	return nil
}

func (d *nodeDecoder) decode(n *yaml.Node) (*Value, error) {
	if err := d.count(); err != nil {
		return nil, err
	}
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return NewNull(), nil
		}
		return d.decode(n.Content[0])
	case yaml.AliasNode:
		if n.Alias == nil {
			return nil, fmt.Errorf("kbdoc: line %d: dangling alias", n.Line)
		}
		if d.expanding[n.Alias] {
			return nil, fmt.Errorf("kbdoc: line %d: anchor %q value contains itself", n.Line, n.Value)
		}
		d.expanding[n.Alias] = true
		defer delete(d.expanding, n.Alias)
		return d.decode(n.Alias)
	case yaml.SequenceNode:
		s := NewSequence()
		for _, c := range n.Content {
			item, err := d.decode(c)
			if err != nil {
				return nil, err
			}
			s.Append(item)
		}
		return s, nil
	case yaml.MappingNode:
		m := NewMapping()
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, err := keyText(n.Content[i])
			if err != nil {
				return nil, err
			}
			val, err := d.decode(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			m.Set(key, val)
		}
		return m, nil
	case yaml.ScalarNode:
		return fromScalar(n)
	default:
		return nil, fmt.Errorf("kbdoc: line %d: unsupported node kind %d", n.Line, n.Kind)
	}
}

func keyText(n *yaml.Node) (string, error) {
	if n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	if n.Kind != yaml.ScalarNode {
		return "", fmt.Errorf("kbdoc: line %d: mapping keys must be scalars", n.Line)
	}
	return n.Value, nil
}

func fromScalar(n *yaml.Node) (*Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return NewNull(), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, err
		}
		return NewBool(b), nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err == nil {
			return NewInt(i), nil
		}
		var u uint64
		if err := n.Decode(&u); err == nil {
			return &Value{kind: Int, text: strconv.FormatUint(u, 10)}, nil
		}
		if isDecimal(n.Value) {
			return &Value{kind: Int, text: n.Value}, nil
		}
		return NewString(n.Value), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, err
		}
		return NewFloat(f), nil
	default:
		// Strings, timestamps, binary and unknown tags keep their text.
		return NewString(n.Value), nil
	}
}

func (v *Value) toNode() *yaml.Node {
	switch v.Kind() {
	case Null:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	case Bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: v.text}
	case Int:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: v.text}
	case Float:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: yamlFloat(v.text)}
	case String:
		return strNode(v.text)
	case Sequence:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, it := range v.items {
			n.Content = append(n.Content, it.toNode())
		}
		return n
	default:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, f := range v.fields {
			n.Content = append(n.Content,
				strNode(f.Key),
				f.Value.toNode(),
			)
		}
		return n
	}
}

// strNode renders a string scalar. The encoder quotes a plain form that
// would resolve to another type by itself; blank strings are forced into
// double quotes since block and plain styles drop their line breaks.
func strNode(s string) *yaml.Node {
	n := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
	if s != "" && strings.TrimSpace(s) == "" {
		n.Style = yaml.DoubleQuotedStyle
	}
	return n
}

// yamlFloat keeps integral floats recognisable as floats on the way back.
func yamlFloat(lit string) string {
	if strings.ContainsAny(lit, ".eEnN") {
		return lit
	}
	return lit + ".0"
}

func isDecimal(s string) bool {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "-"), "+")
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
