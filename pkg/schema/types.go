// Package schema holds the channel-shape data model shared by classes and
// modules, YAML parsing for both, and the structural matching used to decide
// which modules implement a class contract.
package schema

// Spec describes a single channel element: its type tag and optional
// constraint metadata.
type Spec struct {
	Type        string
	Description string
	Pattern     string
	// Ontologies is nil when the element declares no ontologies key,
	// and non-nil (possibly empty) when it does. Matching distinguishes
	// the two.
	Ontologies []string
}

// Element is a named channel element, e.g. {fasta: {type: file, ...}}.
type Element struct {
	Name string
	Spec Spec
}

// Channel is an ordered sequence of elements flowing between workflow steps.
// Tuple records whether the channel was encoded as a YAML sequence (a DSL2
// tuple) rather than a bare element map.
type Channel struct {
	Elements []Element
	Tuple    bool
}

// NamedChannel is an output channel: emit name plus shape.
type NamedChannel struct {
	Name    string
	Channel Channel
}

// Class is an abstract category of tools sharing a channel I/O contract,
// loaded from classes/<name>.yml.
type Class struct {
	Name        string
	Description string
	Keywords    []string
	Inputs      []Channel
	Outputs     []NamedChannel
	// Modules is the explicit member list from components.modules,
	// empty when the class relies on discovery.
	Modules []string
	// TestData holds one row of literal expressions per input channel,
	// used to build nf-test input lines.
	TestData [][]string
}

// ModuleMeta is the declared DSL2 interface of a concrete tool wrapper,
// loaded from a module's meta.yml.
type ModuleMeta struct {
	Name     string
	Keywords []string
	Inputs   []Channel
	Outputs  []NamedChannel
}

// Len returns the element count of the channel.
func (c Channel) Len() int { return len(c.Elements) }

// Names returns the element names in order.
func (c Channel) Names() []string {
	names := make([]string, 0, len(c.Elements))
	for _, e := range c.Elements {
		names = append(names, e.Name)
	}
	return names
}
