package schema

import (
	"slices"
	"strings"
)

// EmptyPlaceholder is the DSL2 literal passed for a module input channel
// that no class channel feeds.
const EmptyPlaceholder = "[]"

// compatibleElements reports whether a module element can stand in for a
// class element: types must agree, and for file elements that both declare
// ontologies every class term must appear in the module's list.
func compatibleElements(mod, class Spec) bool {
	if mod.Type != class.Type {
		return false
	}
	if mod.Type == "file" && mod.Ontologies != nil && class.Ontologies != nil {
		for _, term := range class.Ontologies {
			if !slices.Contains(mod.Ontologies, term) {
				return false
			}
		}
	}
	return true
}

// sameShape reports whether a module channel structurally matches a class
// channel: same encoding kind, same element count, elementwise compatible.
func sameShape(mod, class Channel) bool {
	if mod.Tuple != class.Tuple {
		return false
	}
	if len(mod.Elements) != len(class.Elements) {
		return false
	}
	for i, me := range mod.Elements {
		if !compatibleElements(me.Spec, class.Elements[i].Spec) {
			return false
		}
	}
	return true
}

// CallArgs computes the run-call arguments for a module given the class
// input channels. chNames[i] is the generated channel expression feeding
// class input i (e.g. "ch_fasta_branch.clustalo_align"). Each module input
// channel binds to the first structurally matching class channel; module
// channels with no match get an empty-list placeholder sized to the channel.
// ok is false when some class channel fed no module input, in which case the
// module does not implement the class contract.
func CallArgs(classInputs []Channel, moduleInputs []Channel, chNames []string) (args []string, ok bool) {
	for _, modCh := range moduleInputs {
		found := false
		for i, classCh := range classInputs {
			if i >= len(chNames) {
				break
			}
			if sameShape(modCh, classCh) {
				args = append(args, chNames[i])
				found = true
				break
			}
		}
		if !found {
			args = append(args, placeholder(modCh))
		}
	}

	for _, name := range chNames {
		if !slices.Contains(args, name) {
			return nil, false
		}
	}
	return args, true
}

// placeholder returns the empty literal for an unmatched module channel:
// "[]" for single-element channels, "[[], []]" and so on for wider tuples.
func placeholder(ch Channel) string {
	n := len(ch.Elements)
	if n <= 1 {
		return EmptyPlaceholder
	}
	empties := make([]string, n)
	for i := range empties {
		empties[i] = EmptyPlaceholder
	}
	return "[" + strings.Join(empties, ", ") + "]"
}

// OutputNames maps class output channel names to the module output channels
// that carry them, comparing primary shapes. ok is false when some class
// output has no counterpart, in which case the module does not implement the
// class contract.
func OutputNames(classOutputs, moduleOutputs []NamedChannel) (map[string]string, bool) {
	matched := make(map[string]string)
	for _, modOut := range moduleOutputs {
		for _, classOut := range classOutputs {
			if sameShape(modOut.Channel, classOut.Channel) {
				matched[classOut.Name] = modOut.Name
				break
			}
		}
	}
	for _, classOut := range classOutputs {
		if _, ok := matched[classOut.Name]; !ok {
			return nil, false
		}
	}
	return matched, true
}

// MatchesClass reports whether a module belongs to a class, using the strict
// discovery rule: element names, types and declared patterns must all line
// up channel by channel on both inputs and outputs, and the class keywords
// must be a subset of the module's.
func MatchesClass(cls *Class, meta *ModuleMeta) bool {
	if !equalChannelLists(meta.Inputs, cls.Inputs) {
		return false
	}
	for i := range min(len(meta.Outputs), len(cls.Outputs)) {
		if meta.Outputs[i].Name != cls.Outputs[i].Name {
			return false
		}
		if !equalChannels(meta.Outputs[i].Channel, cls.Outputs[i].Channel) {
			return false
		}
	}
	for _, kw := range cls.Keywords {
		if !slices.Contains(meta.Keywords, kw) {
			return false
		}
	}
	return true
}

func equalChannelLists(mod, class []Channel) bool {
	for i := range min(len(mod), len(class)) {
		if !equalChannels(mod[i], class[i]) {
			return false
		}
	}
	return true
}

// equalChannels is the strict elementwise comparison: names equal, types
// equal, patterns equal when both sides declare one.
func equalChannels(mod, class Channel) bool {
	if len(mod.Elements) != len(class.Elements) {
		return false
	}
	for i, me := range mod.Elements {
		ce := class.Elements[i]
		if me.Name != ce.Name || me.Spec.Type != ce.Spec.Type {
			return false
		}
		if me.Spec.Pattern != "" && ce.Spec.Pattern != "" && me.Spec.Pattern != ce.Spec.Pattern {
			return false
		}
	}
	return true
}
