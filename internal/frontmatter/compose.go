package frontmatter

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// reservedOrder is the emission order for the well-known metadata keys.
// Generated files read like hand-written ones: title first, draft last.
var reservedOrder = []string{"title", "slug", "date", "tags", "template", "draft"}

// Compose renders a complete content file: a `---` delimited YAML metadata
// block followed by body. Well-known keys appear in their conventional
// order, remaining keys alphabetically, so output is stable across runs.
func Compose(fields map[string]any, body []byte) ([]byte, error) {
	if len(fields) == 0 {
		return body, nil
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")

	block, err := encodeFields(fields)
	if err != nil {
		return nil, err
	}
	buf.Write(block)
	buf.WriteString("---\n")

	if len(body) > 0 {
		buf.WriteByte('\n')
		buf.Write(body)
	}
	return buf.Bytes(), nil
}

func encodeFields(fields map[string]any) ([]byte, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}

	emit := func(key string) error {
		val, err := valueNode(fields[key])
		if err != nil {
			return fmt.Errorf("key %q: %w", key, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, val)
		return nil
	}

	seen := make(map[string]bool, len(fields))
	for _, key := range reservedOrder {
		if _, ok := fields[key]; !ok {
			continue
		}
		if err := emit(key); err != nil {
			return nil, err
		}
		seen[key] = true
	}

	rest := make([]string, 0, len(fields))
	for key := range fields {
		if !seen[key] {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	for _, key := range rest {
		if err := emit(key); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		_ = enc.Close()
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func valueNode(v any) (*yaml.Node, error) {
	scalar := func(tag, val string) *yaml.Node {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: val}
	}

	switch vv := v.(type) {
	case nil:
		return scalar("!!null", "null"), nil
	case string:
		return scalar("!!str", vv), nil
	case bool:
		return scalar("!!bool", strconv.FormatBool(vv)), nil
	case int:
		return scalar("!!int", strconv.Itoa(vv)), nil
	case int64:
		return scalar("!!int", strconv.FormatInt(vv, 10)), nil
	case float64:
		return scalar("!!float", strconv.FormatFloat(vv, 'g', -1, 64)), nil
	case time.Time:
		// Quoted string, not !!timestamp: round-trips through ParseYAML
		// and stays readable in an editor.
		return scalar("!!str", vv.Format(time.RFC3339)), nil
	case []string:
		seq := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
		for _, item := range vv {
			seq.Content = append(seq.Content, scalar("!!str", item))
		}
		return seq, nil
	case []any:
		seq := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
		for _, item := range vv {
			n, err := valueNode(item)
			if err != nil {
				return nil, err
			}
			seq.Content = append(seq.Content, n)
		}
		return seq, nil
	case map[string]any:
		return nestedMap(vv)
	default:
		return nil, fmt.Errorf("unsupported metadata value type %T", v)
	}
}

func nestedMap(m map[string]any) (*yaml.Node, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range keys {
		val, err := valueNode(m[k])
		if err != nil {
			return nil, err
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}, val)
	}
	return node, nil
}
