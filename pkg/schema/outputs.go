package schema

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// parseNamedChannels parses an `output:` value. Two encodings are in the
// wild:
//
//	output:                      # mapping form
//	  alignment:
//	    - - meta: {...}          # first entry is the primary shape
//	      - alignment: {type: file}
//
//	output:                      # sequence form
//	  - alignment:
//	      - meta: {...}          # entries are the tuple elements
//	      - alignment: {type: file}
//
// Both reduce to an ordered list of NamedChannel.
func parseNamedChannels(n *yaml.Node) ([]NamedChannel, error) {
	n = resolved(n)
	if n == nil {
		return nil, fmt.Errorf("expected output channels")
	}

	switch n.Kind {
	case yaml.MappingNode:
		var out []NamedChannel
		for _, kv := range mappingPairs(n) {
			ch, err := parseOutputShape(kv.value)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", kv.key, err)
			}
			out = append(out, NamedChannel{Name: kv.key, Channel: ch})
		}
		return out, nil

	case yaml.SequenceNode:
		var out []NamedChannel
		for i, item := range n.Content {
			pairs := mappingPairs(item)
			if len(pairs) != 1 {
				return nil, fmt.Errorf("channel %d: expected a single-key map", i)
			}
			ch, err := parseOutputShape(pairs[0].value)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", pairs[0].key, err)
			}
			out = append(out, NamedChannel{Name: pairs[0].key, Channel: ch})
		}
		return out, nil

	default:
		return nil, fmt.Errorf("expected a mapping or sequence, got %s", kindName(n))
	}
}

// parseOutputShape resolves an output channel's value to its primary shape.
func parseOutputShape(n *yaml.Node) (Channel, error) {
	n = resolved(n)
	if n == nil {
		return Channel{}, fmt.Errorf("missing channel shape")
	}

	if n.Kind == yaml.MappingNode {
		// Bare element map.
		el, err := parseElement(n)
		if err != nil {
			return Channel{}, err
		}
		return Channel{Elements: []Element{el}}, nil
	}
	if n.Kind != yaml.SequenceNode {
		return Channel{}, fmt.Errorf("expected a sequence or mapping, got %s", kindName(n))
	}
	if len(n.Content) == 0 {
		return Channel{}, fmt.Errorf("empty channel shape")
	}

	first := resolved(n.Content[0])
	if first.Kind == yaml.SequenceNode {
		// Mapping form: first entry is the primary shape, later entries
		// are alternatives and are not matched against.
		return parseChannel(first)
	}
	if len(n.Content) == 1 {
		// Single element, either encoding.
		el, err := parseElement(first)
		if err != nil {
			return Channel{}, err
		}
		return Channel{Elements: []Element{el}}, nil
	}
	// Sequence form: the entries are the tuple elements themselves.
	return parseChannel(n)
}
