package schema

import "gopkg.in/yaml.v3"

// YAML node builders used when generated meta.yml files embed channel
// structures. Building nodes by hand keeps key order deterministic, which
// map-based marshaling does not guarantee.

func scalarNode(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: v}
}

func mappingNode(pairs ...*yaml.Node) *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Content: pairs}
}

// Node renders the element as its single-key map form.
func (e Element) Node() *yaml.Node {
	spec := []*yaml.Node{
		scalarNode("type"), scalarNode(e.Spec.Type),
	}
	if e.Spec.Description != "" {
		spec = append(spec, scalarNode("description"), scalarNode(e.Spec.Description))
	}
	if e.Spec.Pattern != "" {
		spec = append(spec, scalarNode("pattern"), scalarNode(e.Spec.Pattern))
	}
	if e.Spec.Ontologies != nil {
		terms := &yaml.Node{Kind: yaml.SequenceNode}
		for _, t := range e.Spec.Ontologies {
			terms.Content = append(terms.Content,
				mappingNode(scalarNode("edam"), scalarNode(t)))
		}
		spec = append(spec, scalarNode("ontologies"), terms)
	}
	return mappingNode(scalarNode(e.Name), mappingNode(spec...))
}

// Node renders the channel structure: a sequence of element maps for
// tuples, a bare element map otherwise.
func (c Channel) Node() *yaml.Node {
	if !c.Tuple && len(c.Elements) == 1 {
		return c.Elements[0].Node()
	}
	seq := &yaml.Node{Kind: yaml.SequenceNode}
	for _, e := range c.Elements {
		seq.Content = append(seq.Content, e.Node())
	}
	return seq
}
