package valueobjects

import "strings"

// Namespace identifies which sub-ontology a term belongs to. Terms parsed
// from arbitrary sources may carry an unset or non-canonical value; only the
// three canonical namespaces participate in aspect filtering and dumps.
type Namespace string

const (
	NamespaceMolecularFunction Namespace = "molecular_function"
	NamespaceBiologicalProcess Namespace = "biological_process"
	NamespaceCellularComponent Namespace = "cellular_component"
	NamespaceUnset             Namespace = ""
)

// CanonicalNamespaces returns the three canonical namespaces in aspect order
func CanonicalNamespaces() []Namespace {
	return []Namespace{
		NamespaceMolecularFunction,
		NamespaceBiologicalProcess,
		NamespaceCellularComponent,
	}
}

// IsCanonical reports whether the namespace is one of the canonical three
func (n Namespace) IsCanonical() bool {
	switch n {
	case NamespaceMolecularFunction, NamespaceBiologicalProcess, NamespaceCellularComponent:
		return true
	default:
		return false
	}
}

// String returns the raw namespace string
func (n Namespace) String() string {
	return string(n)
}

// Aspect is the single-letter sub-ontology code carried by annotation rows
type Aspect string

const (
	AspectFunction  Aspect = "F"
	AspectProcess   Aspect = "P"
	AspectComponent Aspect = "C"
)

// ParseAspect validates and normalizes an aspect code
func ParseAspect(code string) (Aspect, bool) {
	switch Aspect(strings.ToUpper(strings.TrimSpace(code))) {
	case AspectFunction:
		return AspectFunction, true
	case AspectProcess:
		return AspectProcess, true
	case AspectComponent:
		return AspectComponent, true
	default:
		return "", false
	}
}

// String returns the aspect code
func (a Aspect) String() string {
	return string(a)
}

// Namespace returns the sub-ontology an aspect code selects
func (a Aspect) Namespace() Namespace {
	switch a {
	case AspectFunction:
		return NamespaceMolecularFunction
	case AspectProcess:
		return NamespaceBiologicalProcess
	case AspectComponent:
		return NamespaceCellularComponent
	default:
		return NamespaceUnset
	}
}
