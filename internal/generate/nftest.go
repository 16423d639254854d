package generate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/me/nfclass/pkg/schema"
)

// subworkflowTests renders the nf-test blocks for an expanded subworkflow.
// With class test datasets, each module gets a test feeding the literals
// plus its tool name. Without, test code is reassembled from the modules'
// own test files in testSources. Returns the test blocks and any extra tag
// lines collected from composed-module setups.
func (b *Builder) subworkflowTests(cls *schema.Class, modules []string, testSources map[string][]byte, org string) (string, string) {
	if len(cls.TestData) > 0 {
		return b.testsFromData(cls, modules), ""
	}

	var tests, extraTags strings.Builder
	seenTags := make(map[string]bool)
	for _, module := range modules {
		src, ok := testSources[module]
		if !ok {
			b.logger.Warn("module has no test file, skipping test generation", "module", module)
			continue
		}
		frag, err := reassembleModuleTest(src, module, org, len(cls.Inputs))
		if err != nil {
			b.logger.Warn("could not reassemble module test", "module", module, "err", err)
			continue
		}
		tests.WriteString(frag.Render(module))
		for _, tag := range frag.ExtraTags {
			if !seenTags[tag] {
				seenTags[tag] = true
				fmt.Fprintf(&extraTags, "    tag %q\n", tag)
			}
		}
	}
	return tests.String(), extraTags.String()
}

// testsFromData builds one test block per module from the class's literal
// test datasets.
func (b *Builder) testsFromData(cls *schema.Class, modules []string) string {
	var tests strings.Builder
	for _, module := range modules {
		fmt.Fprintf(&tests, "    test(%q) {\n\n", module)
		tests.WriteString("        when {\n")
		tests.WriteString("            workflow {\n")
		tests.WriteString("                \"\"\"\n")
		for i, row := range cls.TestData {
			elems := make([]string, 0, len(row)+1)
			for _, lit := range row {
				elems = append(elems, strings.Trim(strings.Trim(lit, `"`), `'`))
			}
			elems = append(elems, "'"+moduleLower(module)+"'")
			fmt.Fprintf(&tests, "                input[%d] = Channel.of( [%s] )\n", i, " "+strings.Join(elems, ", ")+" ")
		}
		tests.WriteString("                \"\"\"\n")
		tests.WriteString("            }\n")
		tests.WriteString("        }\n\n")
		tests.WriteString("        then {\n")
		tests.WriteString("            assertAll(\n")
		tests.WriteString("                { assert workflow.success },\n")
		fmt.Fprintf(&tests, "                { assert snapshot(workflow.out).match(%q) },\n", module)
		tests.WriteString("            )\n")
		tests.WriteString("        }\n")
		tests.WriteString("    }\n\n")
	}
	return tests.String()
}

// testFragments holds the pieces lifted out of a module's tests/main.nf.test.
type testFragments struct {
	Setup     string   // composed-module setup block, paths rewritten
	Inputs    string   // the when/process input lines, tool selector appended
	Asserts   string   // the then block, process. rewritten to workflow.
	ExtraTags []string // composed modules referenced by setup blocks
}

// Render assembles a subworkflow test block from the fragments.
func (f testFragments) Render(module string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "    test(\"run %s\") {\n\n", module)
	b.WriteString(f.Setup)
	b.WriteString("        when {\n")
	b.WriteString("            workflow {\n")
	b.WriteString(f.Inputs)
	b.WriteString("            }\n")
	b.WriteString("        }\n\n")
	b.WriteString(f.Asserts)
	b.WriteString("        }\n")
	b.WriteString("    }\n\n")
	return b.String()
}

var (
	inputIndexRe = regexp.MustCompile(`input\[(\d+)\]`)
	wsRe         = regexp.MustCompile(`\s`)
)

func stripWS(s string) string { return wsRe.ReplaceAllString(s, "") }

// reassembleModuleTest lifts setup, input and assertion fragments out of a
// module's nf-test file by textual pattern matching, rewriting them for use
// in the generated subworkflow test:
//
//   - setup blocks survive with composed-module script paths re-based onto
//     the subworkflow's directory depth
//   - process input assignments keep only the class channels and get the
//     module's tool selector appended
//   - then-block assertions address workflow instead of process, and
//     snapshot names are prefixed with the module to avoid collisions
func reassembleModuleTest(src []byte, module, org string, classInputs int) (testFragments, error) {
	lines := strings.SplitAfter(string(src), "\n")
	frag := testFragments{}
	toolName := moduleLower(module)

	var setup, inputs, asserts strings.Builder
	foundInput, foundTest := false, false
	composedName := ""

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		stripped := stripWS(line)

		switch {
		case strings.HasPrefix(stripped, "setup") && strings.Contains(line, "{"):
			for i < len(lines) && !strings.Contains(lines[i], "when {") {
				line = lines[i]
				trimmed := strings.TrimSpace(line)
				if strings.HasPrefix(trimmed, "run(") {
					if parts := strings.Split(line, `"`); len(parts) > 1 {
						composedName = strings.ReplaceAll(strings.ToLower(parts[1]), "_", "/")
						frag.ExtraTags = append(frag.ExtraTags, composedName)
					}
				}
				if strings.HasPrefix(trimmed, "script") && composedName != "" {
					if parts := strings.Split(line, `"`); len(parts) >= 3 {
						line = parts[0] + fmt.Sprintf("%q", "../../../../modules/"+org+"/"+composedName+"/main.nf") + parts[2]
					}
				}
				setup.WriteString(line)
				i++
			}

		case strings.HasPrefix(stripped, "process") && strings.Contains(line, "{") && !foundInput:
			for i++; i < len(lines) && stripWS(lines[i]) != "}"; i++ {
				inputs.WriteString(rewriteInputLine(lines[i], toolName, classInputs))
			}
			foundInput = true

		case strings.Contains(line, "then") && strings.Contains(line, "{"):
			for i < len(lines) && stripWS(lines[i]) != "}" {
				line = strings.ReplaceAll(lines[i], "process.", "workflow.")
				if strings.Contains(line, "match(") {
					line = renameSnapshot(line, module)
				}
				asserts.WriteString(line)
				i++
			}
			foundTest = true
		}

		if foundInput && foundTest {
			break
		}
	}

	if !foundInput || !foundTest {
		return frag, fmt.Errorf("no when/then blocks found")
	}
	frag.Setup = setup.String()
	frag.Inputs = inputs.String()
	frag.Asserts = asserts.String()
	return frag, nil
}

// rewriteInputLine adapts one process input assignment for the generated
// subworkflow: drops inputs beyond the class channels (those are fed by the
// placeholder literals in the generated call) and appends the tool selector
// to the ones that remain.
func rewriteInputLine(line, toolName string, classInputs int) string {
	m := inputIndexRe.FindStringSubmatch(line)
	if m == nil {
		return line
	}
	var idx int
	fmt.Sscanf(m[1], "%d", &idx)
	if idx >= classInputs {
		return ""
	}
	if pos := strings.LastIndex(line, "]"); pos >= 0 {
		return line[:pos] + ", '" + toolName + "' " + line[pos:]
	}
	return line
}

// renameSnapshot gives the snapshot a module-qualified name so snapshots
// from different modules don't collide in one test file.
func renameSnapshot(line, module string) string {
	name := moduleLower(module)
	if parts := strings.SplitN(line, "workflow.out.", 2); len(parts) == 2 {
		if channel, _, ok := strings.Cut(parts[1], ")"); ok {
			channel = strings.TrimSuffix(channel, "]")
			name = name + "_" + channel
		}
	}
	parts := strings.Split(line, `"`)
	if len(parts) >= 3 {
		return parts[0] + `"` + name + `"` + parts[2]
	}
	if open := strings.Index(line, "match("); open >= 0 {
		if end := strings.Index(line[open:], ")"); end >= 0 {
			return line[:open] + fmt.Sprintf("match(%q", name) + line[open+end:]
		}
	}
	return line
}
