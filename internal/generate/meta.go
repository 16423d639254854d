package generate

import (
	"fmt"
	"strings"

	"github.com/me/nfclass/pkg/schema"
	"gopkg.in/yaml.v3"
)

func scalar(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: v}
}

func quoted(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: v, Style: yaml.DoubleQuotedStyle}
}

func mapping(pairs ...*yaml.Node) *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Content: pairs}
}

func sequence(items ...*yaml.Node) *yaml.Node {
	return &yaml.Node{Kind: yaml.SequenceNode, Content: items}
}

func stringSeq(items []string) *yaml.Node {
	seq := &yaml.Node{Kind: yaml.SequenceNode}
	for _, s := range items {
		seq.Content = append(seq.Content, scalar(s))
	}
	return seq
}

// toolElement is the selector element appended to every subworkflow input
// channel; its value picks the module each entry is routed to.
func toolElement() *yaml.Node {
	return mapping(
		scalar("tool"),
		mapping(
			scalar("type"), scalar("string"),
			scalar("description"), scalar("The name of the tool to run"),
		),
	)
}

// subworkflowMeta renders the meta.yml for an expanded subworkflow.
func subworkflowMeta(cls *schema.Class, modules []string, chNames []string, opts Options) (string, error) {
	inputs := &yaml.Node{Kind: yaml.SequenceNode}
	for i, ch := range cls.Inputs {
		structure := ch.Node()
		if structure.Kind != yaml.SequenceNode {
			structure = sequence(structure)
		}
		structure.Content = append(structure.Content, toolElement())
		inputs.Content = append(inputs.Content, mapping(
			scalar(chNames[i]),
			mapping(
				scalar("description"), scalar("Channel containing: "+strings.Join(ch.Names(), ", ")),
				scalar("structure"), structure,
			),
		))
	}

	outputs := &yaml.Node{Kind: yaml.SequenceNode}
	for _, out := range cls.Outputs {
		outputs.Content = append(outputs.Content, mapping(
			scalar(out.Name),
			mapping(
				scalar("description"), scalar("Output channel "+out.Name),
				scalar("structure"), out.Channel.Node(),
			),
		))
	}

	doc := mapping(
		scalar("name"), quoted(cls.Name),
		scalar("description"), scalar(cls.Description),
		scalar("keywords"), stringSeq(cls.Keywords),
		scalar("components"), stringSeq(modules),
		scalar("input"), inputs,
		scalar("output"), outputs,
		scalar("authors"), sequence(quoted(opts.Author)),
		scalar("maintainers"), sequence(quoted(opts.Author)),
	)

	out, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal meta.yml: %w", err)
	}
	return string(out), nil
}
