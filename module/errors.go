package module

import "fmt"

// InvalidShapeError reports that a pass observed an operator whose
// operand/result arity did not match what the pass needed to rewrite it
// (§7, "invalid opcode shape").
type InvalidShapeError struct {
	Where string // e.g. "untpit: tpit.clone import"
	Want  string
	Got   string
}

func (e *InvalidShapeError) Error() string {
	return fmt.Sprintf("%s: invalid shape: want %s, got %s", e.Where, e.Want, e.Got)
}

// MissingExportError reports that instantiate could not find the canonical
// per-method export corresponding to an import (§7, "missing export").
type MissingExportError struct {
	Name string
}

func (e *MissingExportError) Error() string {
	return fmt.Sprintf("missing export: %s", e.Name)
}

// InconsistentInstanceError reports a method exported under `~id/method`
// for an id absent from the sorted instance list derived from imports
// (§7, "inconsistent instance").
type InconsistentInstanceError struct {
	Instance string
	Method   string
}

func (e *InconsistentInstanceError) Error() string {
	return fmt.Sprintf("export %q/%q names an instance with no corresponding import", e.Instance, e.Method)
}
