package schema

import (
	"fmt"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// ParseClass parses a classes/<name>.yml document.
func ParseClass(data []byte) (*Class, error) {
	root, err := documentRoot(data)
	if err != nil {
		return nil, err
	}

	cls := &Class{}
	for _, kv := range mappingPairs(root) {
		switch kv.key {
		case "name":
			cls.Name = kv.value.Value
		case "description":
			cls.Description = kv.value.Value
		case "keywords":
			cls.Keywords = stringList(kv.value)
		case "input":
			inputs, err := parseChannelList(kv.value)
			if err != nil {
				return nil, fmt.Errorf("input: %w", err)
			}
			cls.Inputs = inputs
		case "output":
			outputs, err := parseNamedChannels(kv.value)
			if err != nil {
				return nil, fmt.Errorf("output: %w", err)
			}
			cls.Outputs = outputs
		case "components":
			for _, sub := range mappingPairs(kv.value) {
				if sub.key == "modules" {
					cls.Modules = stringList(sub.value)
				}
			}
		case "testdata":
			for i, row := range sequenceItems(kv.value) {
				if row.Kind != yaml.SequenceNode {
					return nil, fmt.Errorf("testdata[%d]: expected a sequence of literals", i)
				}
				cls.TestData = append(cls.TestData, stringList(row))
			}
		}
	}

	if len(cls.Inputs) == 0 {
		return nil, fmt.Errorf("class declares no input channels")
	}
	if len(cls.Outputs) == 0 {
		return nil, fmt.Errorf("class declares no output channels")
	}
	return cls, nil
}

// ParseModuleMeta parses a module's meta.yml.
func ParseModuleMeta(data []byte) (*ModuleMeta, error) {
	root, err := documentRoot(data)
	if err != nil {
		return nil, err
	}

	meta := &ModuleMeta{}
	for _, kv := range mappingPairs(root) {
		switch kv.key {
		case "name":
			meta.Name = kv.value.Value
		case "keywords":
			meta.Keywords = stringList(kv.value)
		case "input":
			inputs, err := parseChannelList(kv.value)
			if err != nil {
				return nil, fmt.Errorf("input: %w", err)
			}
			meta.Inputs = inputs
		case "output":
			outputs, err := parseNamedChannels(kv.value)
			if err != nil {
				return nil, fmt.Errorf("output: %w", err)
			}
			meta.Outputs = outputs
		}
	}
	return meta, nil
}

type pair struct {
	key   string
	value *yaml.Node
}

func documentRoot(data []byte) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("YAML parse error: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("empty YAML document")
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("expected a mapping at document root, got %s", kindName(root))
	}
	return root, nil
}

// mappingPairs returns the key/value pairs of a mapping node in document
// order. Order matters: output channel order carries through to generated
// emit blocks.
func mappingPairs(n *yaml.Node) []pair {
	n = resolved(n)
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	pairs := make([]pair, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		pairs = append(pairs, pair{key: n.Content[i].Value, value: n.Content[i+1]})
	}
	return pairs
}

func sequenceItems(n *yaml.Node) []*yaml.Node {
	n = resolved(n)
	if n == nil || n.Kind != yaml.SequenceNode {
		return nil
	}
	return n.Content
}

// resolved follows alias nodes so anchored channel shapes compare like
// inline ones.
func resolved(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

func kindName(n *yaml.Node) string {
	switch n.Kind {
	case yaml.MappingNode:
		return "mapping"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "document"
	}
}

func stringList(n *yaml.Node) []string {
	n = resolved(n)
	if n == nil {
		return nil
	}
	var out []string
	for _, item := range sequenceItems(n) {
		item = resolved(item)
		if item.Kind == yaml.ScalarNode {
			out = append(out, item.Value)
		}
	}
	return out
}

// parseChannelList parses an `input:` value: a sequence of channels, where
// each channel is either a sequence of single-key element maps (a tuple) or
// a bare single-key element map.
func parseChannelList(n *yaml.Node) ([]Channel, error) {
	n = resolved(n)
	if n == nil || n.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("expected a sequence of channels")
	}
	channels := make([]Channel, 0, len(n.Content))
	for i, chNode := range n.Content {
		ch, err := parseChannel(chNode)
		if err != nil {
			return nil, fmt.Errorf("channel %d: %w", i, err)
		}
		channels = append(channels, ch)
	}
	return channels, nil
}

func parseChannel(n *yaml.Node) (Channel, error) {
	n = resolved(n)
	switch n.Kind {
	case yaml.SequenceNode:
		ch := Channel{Tuple: true}
		for j, elNode := range n.Content {
			el, err := parseElement(elNode)
			if err != nil {
				return Channel{}, fmt.Errorf("element %d: %w", j, err)
			}
			ch.Elements = append(ch.Elements, el)
		}
		return ch, nil
	case yaml.MappingNode:
		el, err := parseElement(n)
		if err != nil {
			return Channel{}, err
		}
		return Channel{Elements: []Element{el}}, nil
	default:
		return Channel{}, fmt.Errorf("expected a sequence or mapping, got %s", kindName(n))
	}
}

// parseElement parses a single-key map {name: {type: ..., ...}}.
func parseElement(n *yaml.Node) (Element, error) {
	pairs := mappingPairs(n)
	if len(pairs) != 1 {
		return Element{}, fmt.Errorf("expected a single-key element map, got %d keys", len(pairs))
	}
	spec, err := parseSpec(pairs[0].value)
	if err != nil {
		return Element{}, fmt.Errorf("%s: %w", pairs[0].key, err)
	}
	return Element{Name: pairs[0].key, Spec: spec}, nil
}

func parseSpec(n *yaml.Node) (Spec, error) {
	n = resolved(n)
	if n == nil || n.Kind != yaml.MappingNode {
		return Spec{}, fmt.Errorf("expected an element spec mapping")
	}
	var spec Spec
	for _, kv := range mappingPairs(n) {
		switch kv.key {
		case "type":
			spec.Type = kv.value.Value
		case "description":
			spec.Description = kv.value.Value
		case "pattern":
			spec.Pattern = kv.value.Value
		case "ontologies":
			spec.Ontologies = ontologyTerms(kv.value)
		}
	}
	if spec.Type == "" {
		return Spec{}, fmt.Errorf("element has no type")
	}
	return spec, nil
}

// ontologyTerms flattens an ontologies list. Terms appear either as plain
// strings or as single-key maps like {edam: "http://..."}; both forms reduce
// to the term values. Returns an empty (non-nil) slice for an empty list so
// matching can tell "declared empty" from "not declared".
func ontologyTerms(n *yaml.Node) []string {
	terms := []string{}
	for _, item := range sequenceItems(n) {
		item = resolved(item)
		switch item.Kind {
		case yaml.ScalarNode:
			terms = append(terms, item.Value)
		case yaml.MappingNode:
			var raw map[string]any
			if err := item.Decode(&raw); err != nil {
				continue
			}
			for _, v := range raw {
				if s := cast.ToString(v); s != "" {
					terms = append(terms, s)
				}
			}
		}
	}
	return terms
}
