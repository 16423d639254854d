package generate

import (
	"fmt"
	"strings"

	"github.com/me/nfclass/pkg/schema"
	"gopkg.in/yaml.v3"
)

// CondaTool describes the bioconda package backing a generated module. A
// zero value is accepted; the scaffold then carries placeholder fields for
// the author to fill in.
type CondaTool struct {
	Name    string
	Version string
	Summary string
	DocURL  string
	License string
}

// Module is a rendered module scaffold whose channels follow a class.
type Module struct {
	Name  string // component path, e.g. "clustalo/align"
	Tool  string // bare tool name, e.g. "clustalo"
	Files FileSet
}

// Module scaffolds a new module for the given class. name is the component
// path under the modules directory; the tool name is its first segment.
func (b *Builder) Module(cls *schema.Class, name string, tool CondaTool, opts Options) (*Module, error) {
	toolName := strings.Split(name, "/")[0]
	if tool.Name == "" {
		tool.Name = toolName
	}
	if tool.Version == "" {
		tool.Version = "VERSION"
	}

	mainNF, err := renderTemplate(moduleMainTemplate, map[string]string{
		"Name":    moduleUpper(name),
		"Tool":    tool.Name,
		"Version": tool.Version,
		"Inputs":  moduleInputs(cls.Inputs),
		"Outputs": moduleOutputs(cls.Outputs),
	})
	if err != nil {
		return nil, err
	}

	metaYML, err := moduleMeta(cls, name, tool, opts)
	if err != nil {
		return nil, err
	}

	testNF, err := renderTemplate(moduleTestTemplate, map[string]string{
		"Name":      moduleUpper(name),
		"Tool":      tool.Name,
		"ModuleTag": "modules/" + name,
		"OrgAlpha":  notAlphabet.ReplaceAllString(opts.Org, ""),
		"Inputs":    moduleTestInputs(cls),
	})
	if err != nil {
		return nil, err
	}

	envYML, err := renderTemplate(environmentTemplate, map[string]string{
		"Tool":    tool.Name,
		"Version": tool.Version,
	})
	if err != nil {
		return nil, err
	}

	return &Module{
		Name: name,
		Tool: tool.Name,
		Files: FileSet{
			"main.nf":            mainNF,
			"meta.yml":           metaYML,
			"environment.yml":    envYML,
			"tests/main.nf.test": testNF,
		},
	}, nil
}

// moduleInputs renders the input: section from the class channels. File
// elements become path qualifiers, everything else val.
func moduleInputs(inputs []schema.Channel) string {
	var b strings.Builder
	for _, ch := range inputs {
		b.WriteString("    " + channelQualifiers(ch) + "\n")
	}
	return b.String()
}

// moduleOutputs renders the output: section, one emit per class output
// channel. The versions emit is appended by the template.
func moduleOutputs(outputs []schema.NamedChannel) string {
	var b strings.Builder
	for _, out := range outputs {
		fmt.Fprintf(&b, "    %s, emit: %s\n", outputQualifiers(out.Channel), out.Name)
	}
	return b.String()
}

// outputQualifiers is like channelQualifiers but file elements address
// their glob pattern instead of an input variable.
func outputQualifiers(ch schema.Channel) string {
	quals := make([]string, len(ch.Elements))
	for i, el := range ch.Elements {
		if el.Spec.Type == "file" {
			pattern := el.Spec.Pattern
			if pattern == "" {
				pattern = "*"
			}
			quals[i] = fmt.Sprintf("path(%q)", pattern)
		} else {
			quals[i] = fmt.Sprintf("val(%s)", el.Name)
		}
	}
	if ch.Tuple {
		return "tuple " + strings.Join(quals, ", ")
	}
	return quals[0]
}

func channelQualifiers(ch schema.Channel) string {
	if ch.Tuple {
		quals := make([]string, len(ch.Elements))
		for i, el := range ch.Elements {
			quals[i] = fmt.Sprintf("%s(%s)", elementQualifier(el), el.Name)
		}
		return "tuple " + strings.Join(quals, ", ")
	}
	el := ch.Elements[0]
	return elementQualifier(el) + " " + el.Name
}

func elementQualifier(el schema.Element) string {
	if el.Spec.Type == "file" {
		return "path"
	}
	return "val"
}

// moduleTestInputs renders the process input assignments for the scaffolded
// test, one per class test dataset row. Without datasets a TODO line is
// left for the author.
func moduleTestInputs(cls *schema.Class) string {
	if len(cls.TestData) == 0 {
		var b strings.Builder
		for i := range cls.Inputs {
			fmt.Fprintf(&b, "                // TODO input[%d] = [ ]\n", i)
		}
		return b.String()
	}
	var b strings.Builder
	for i, row := range cls.TestData {
		elems := make([]string, len(row))
		for j, lit := range row {
			elems[j] = strings.Trim(strings.Trim(lit, `"`), `'`)
		}
		fmt.Fprintf(&b, "                input[%d] = [ %s ]\n", i, strings.Join(elems, ", "))
	}
	return b.String()
}

// moduleMeta renders the module's meta.yml, carrying the class channels and
// the bioconda package details.
func moduleMeta(cls *schema.Class, name string, tool CondaTool, opts Options) (string, error) {
	inputs := &yaml.Node{Kind: yaml.SequenceNode}
	for _, ch := range cls.Inputs {
		node := ch.Node()
		if node.Kind != yaml.SequenceNode {
			node = sequence(node)
		}
		inputs.Content = append(inputs.Content, node)
	}

	outputs := &yaml.Node{Kind: yaml.SequenceNode}
	for _, out := range cls.Outputs {
		node := out.Channel.Node()
		if node.Kind != yaml.SequenceNode {
			node = sequence(node)
		}
		outputs.Content = append(outputs.Content, mapping(scalar(out.Name), node))
	}

	docURL := tool.DocURL
	if docURL == "" {
		docURL = "https://bioconda.github.io/recipes/" + tool.Name + "/README.html"
	}
	toolInfo := mapping(
		scalar("description"), scalar(tool.Summary),
		scalar("homepage"), scalar(docURL),
		scalar("documentation"), scalar(docURL),
		scalar("licence"), stringSeq([]string{tool.License}),
		scalar("identifier"), scalar(""),
	)

	doc := mapping(
		scalar("name"), quoted(strings.ReplaceAll(name, "/", "_")),
		scalar("description"), scalar(cls.Description),
		scalar("keywords"), stringSeq(cls.Keywords),
		scalar("tools"), sequence(mapping(scalar(tool.Name), toolInfo)),
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
