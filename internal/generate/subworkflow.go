// Package generate synthesizes Nextflow DSL2 source text and nf-test
// scaffolding from class specifications and module metadata.
package generate

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/me/nfclass/pkg/schema"
)

// Options carries the template variables shared by all generated
// components.
type Options struct {
	Author string // GitHub username, prefixed with '@'
	Org    string // organisation directory under modules/
}

// Builder renders components from class specifications.
type Builder struct {
	logger *slog.Logger
}

// NewBuilder creates a Builder with the given logger.
func NewBuilder(logger *slog.Logger) *Builder {
	return &Builder{logger: logger.With("component", "generate")}
}

// Subworkflow is a rendered class expansion: one generated subworkflow that
// dispatches among the class's modules.
type Subworkflow struct {
	ClassName string
	Modules   []string
	// CallArgs and OutputNames record the per-module match results, keyed
	// by module path. Modules whose inputs or outputs failed to match have
	// no entry and get no call in the generated body.
	CallArgs    map[string][]string
	OutputNames map[string]map[string]string

	Files FileSet
}

var notAlphabet = regexp.MustCompile(`[^a-zA-Z]`)

// Subworkflow expands a class into subworkflow source files, dispatching to
// the given modules. metas must hold an entry per module. testSources maps
// module paths to their tests/main.nf.test contents and is only consulted
// when the class declares no test datasets.
func (b *Builder) Subworkflow(cls *schema.Class, modules []string, metas map[string]*schema.ModuleMeta, testSources map[string][]byte, opts Options) (*Subworkflow, error) {
	if len(modules) == 0 {
		return nil, fmt.Errorf("class %q has no modules to expand", cls.Name)
	}

	swf := &Subworkflow{
		ClassName:   cls.Name,
		Modules:     modules,
		CallArgs:    make(map[string][]string),
		OutputNames: make(map[string]map[string]string),
	}

	chNames, err := channelNames(cls.Inputs)
	if err != nil {
		return nil, fmt.Errorf("class %q: %w", cls.Name, err)
	}

	// Include statements and nf-test tags.
	var includes, tags strings.Builder
	for _, module := range modules {
		fmt.Fprintf(&includes, "include { %s } from '../../../modules/%s/%s/main'\n",
			moduleUpper(module), opts.Org, module)
		fmt.Fprintf(&tags, "    tag \"subworkflows/../../modules/%s/%s\"\n", opts.Org, module)
	}

	body := b.workflowBody(cls, modules, metas, chNames, swf)

	// Emit block.
	var emits strings.Builder
	for _, out := range cls.Outputs {
		fmt.Fprintf(&emits, "    %s = ch_out_%s\n", out.Name, out.Name)
	}

	tests, extraTags := b.subworkflowTests(cls, modules, testSources, opts.Org)
	tags.WriteString(extraTags)

	mainNF, err := renderTemplate(subworkflowMainTemplate, map[string]string{
		"Name":     strings.ToUpper(strings.ReplaceAll(cls.Name, "/", "_")),
		"Includes": includes.String(),
		"Take":     "    " + strings.Join(chNames, "\n    "),
		"Body":     body,
		"Emits":    strings.TrimSuffix(emits.String(), "\n"),
	})
	if err != nil {
		return nil, err
	}

	metaYML, err := subworkflowMeta(cls, modules, chNames, opts)
	if err != nil {
		return nil, err
	}

	testNF, err := renderTemplate(subworkflowTestTemplate, map[string]string{
		"Name":     strings.ToUpper(strings.ReplaceAll(cls.Name, "/", "_")),
		"Class":    cls.Name,
		"OrgAlpha": notAlphabet.ReplaceAllString(opts.Org, ""),
		"Tags":     strings.TrimSuffix(tags.String(), "\n"),
		"Tests":    strings.TrimSuffix(tests, "\n"),
	})
	if err != nil {
		return nil, err
	}

	swf.Files = FileSet{
		"main.nf":            mainNF,
		"meta.yml":           metaYML,
		"tests/main.nf.test": testNF,
	}
	return swf, nil
}

// workflowBody generates the main: section: output declarations, branch
// dispatch on the tool element, module calls, and output mixing.
func (b *Builder) workflowBody(cls *schema.Class, modules []string, metas map[string]*schema.ModuleMeta, chNames []string, swf *Subworkflow) string {
	var body strings.Builder

	for _, out := range cls.Outputs {
		fmt.Fprintf(&body, "    def ch_out_%s = Channel.empty()\n", out.Name)
	}
	body.WriteString("\n")

	// Branch each input channel by the tool selector element.
	for _, chName := range chNames {
		elements := strings.Split(chName, "_")[1:]
		fmt.Fprintf(&body, "    %s\n", chName)
		body.WriteString("        .branch {\n")
		fmt.Fprintf(&body, "            meta, %s, tool ->\n", strings.Join(elements, ", "))
		for _, module := range modules {
			lower := moduleLower(module)
			fmt.Fprintf(&body, "                %s: tool == %q\n", lower, lower)
			fmt.Fprintf(&body, "                    return [ meta, %s ]\n", strings.Join(elements, ", "))
		}
		body.WriteString("        }\n")
		fmt.Fprintf(&body, "        .set { %s_branch }\n", chName)
	}
	body.WriteString("\n")

	// Call each module on its branch, mixing matched outputs.
	for _, module := range modules {
		meta := metas[module]
		upper := moduleUpper(module)

		access := make([]string, len(chNames))
		for i, chName := range chNames {
			access[i] = chName + "_branch." + moduleLower(module)
		}

		args, argsOK := schema.CallArgs(cls.Inputs, meta.Inputs, access)
		outs, outsOK := schema.OutputNames(cls.Outputs, meta.Outputs)
		if argsOK {
			swf.CallArgs[module] = args
			fmt.Fprintf(&body, "    %s( %s )\n", upper, strings.Join(args, ", "))
		} else {
			b.logger.Warn("module inputs do not satisfy the class, skipping call", "module", module)
		}
		if outsOK {
			swf.OutputNames[module] = outs
			for _, out := range cls.Outputs {
				fmt.Fprintf(&body, "    ch_out_%s = ch_out_%s.mix(%s.out.%s)\n",
					out.Name, out.Name, upper, outs[out.Name])
			}
		} else {
			b.logger.Warn("module outputs do not satisfy the class", "module", module)
		}
		body.WriteString("\n")
	}

	return strings.TrimSuffix(body.String(), "\n")
}

// channelNames derives the take: channel variable for each class input: the
// first element name, or the second when the channel leads with a meta map.
func channelNames(inputs []schema.Channel) ([]string, error) {
	names := make([]string, 0, len(inputs))
	for i, ch := range inputs {
		keys := ch.Names()
		if len(keys) == 0 {
			return nil, fmt.Errorf("input channel %d has no elements", i)
		}
		key := keys[0]
		if strings.HasPrefix(key, "meta") {
			if len(keys) < 2 {
				return nil, fmt.Errorf("input channel %d has only a meta element", i)
			}
			key = keys[1]
		}
		names = append(names, "ch_"+key)
	}
	return names, nil
}

// moduleUpper converts "clustalo/align" to "CLUSTALO_ALIGN".
func moduleUpper(module string) string {
	return strings.ToUpper(strings.ReplaceAll(module, "/", "_"))
}

// moduleLower converts "clustalo/align" to "clustalo_align".
func moduleLower(module string) string {
	return strings.ToLower(strings.ReplaceAll(module, "/", "_"))
}
