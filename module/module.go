package module

import (
	"fmt"

	"github.com/portal-pit/pit/internal/arena"
)

// Module is the host-side representation every rewriter pass reads and
// mutates in place (spec §2, §3). Its five index spaces (signatures,
// functions, tables, memories, globals) are each append-only arenas;
// imports and exports are separate arenas whose Desc fields point into
// those spaces.
type Module struct {
	Signatures arena.Arena[Signature]
	Funcs      arena.Arena[Func]
	Tables     arena.Arena[Table]
	Memories   arena.Arena[Memory]
	Globals    arena.Arena[Global]
	Imports    arena.Arena[Import]
	Exports    arena.Arena[Export]
	Customs    arena.Arena[CustomSection]
}

// New returns an empty Module.
func New() *Module {
	return &Module{}
}

// AddSignature appends sig and returns its index, reusing an identical
// existing signature if one is already present (real wasm type sections
// are deduplicated this way; passes rely on it so that repeated calls with
// the same shape don't bloat the type section).
func (m *Module) AddSignature(sig Signature) Index {
	for i, s := range m.Signatures.All() {
		if s.Equal(sig) {
			return Index(i)
		}
	}
	return m.Signatures.Append(sig)
}

// AddFunc appends a function (imported if body is nil) and returns its index.
func (m *Module) AddFunc(f Func) Index {
	return m.Funcs.Append(f)
}

// AddTable appends a table and returns its index.
func (m *Module) AddTable(t Table) Index {
	return m.Tables.Append(t)
}

// AddImport appends an import and returns its index.
func (m *Module) AddImport(imp Import) Index {
	return m.Imports.Append(imp)
}

// AddExport appends an export and returns its index.
func (m *Module) AddExport(exp Export) Index {
	return m.Exports.Append(exp)
}

// ImportFunc declares a new imported function under (modName, name) with
// signature sig, returning its function index.
func (m *Module) ImportFunc(modName, name string, sig Signature) Index {
	sigIdx := m.AddSignature(sig)
	fnIdx := m.AddFunc(Func{Sig: sigIdx, Name: modName + "." + name})
	m.AddImport(Import{Module: modName, Name: name, Desc: Desc{Kind: DescFunc, Index: fnIdx}})
	return fnIdx
}

// DefineFunc declares a new locally-defined function with signature sig and
// body, returning its function index. If export != "", it is also exported
// under that name.
func (m *Module) DefineFunc(name string, sig Signature, body Body, export string) Index {
	sigIdx := m.AddSignature(sig)
	fnIdx := m.AddFunc(Func{Sig: sigIdx, Body: &body, Name: name})
	if export != "" {
		m.AddExport(Export{Name: export, Desc: Desc{Kind: DescFunc, Index: fnIdx}})
	}
	return fnIdx
}

// RemoveImportIf drops every import matching pred. Used by passes that
// convert a previously-imported function into a locally-defined one (e.g.
// untpit's tpit.void/clone/drop thunks, §4.4): the function keeps its
// index (so existing OpCall references stay valid) but stops being an
// import once its Body is filled in.
func (m *Module) RemoveImportIf(pred func(Import) bool) {
	kept := make([]Import, 0, m.Imports.Len())
	for _, imp := range m.Imports.All() {
		if !pred(imp) {
			kept = append(kept, imp)
		}
	}
	m.Imports = arena.From(kept)
}

// RemoveExportIf drops every export matching pred.
func (m *Module) RemoveExportIf(pred func(Export) bool) {
	kept := make([]Export, 0, m.Exports.Len())
	for _, exp := range m.Exports.All() {
		if !pred(exp) {
			kept = append(kept, exp)
		}
	}
	m.Exports = arena.From(kept)
}

// FuncImportIndex returns the function-space index of the import named
// (modName, name), and ok=false if no such import exists.
func (m *Module) FuncImportIndex(modName, name string) (Index, bool) {
	for _, imp := range m.Imports.All() {
		if imp.Module == modName && imp.Name == name && imp.Desc.Kind == DescFunc {
			return imp.Desc.Index, true
		}
	}
	return 0, false
}

// FindExport returns the export named name, and ok=false if none exists.
func (m *Module) FindExport(name string) (Export, bool) {
	for _, exp := range m.Exports.All() {
		if exp.Name == name {
			return exp, true
		}
	}
	return Export{}, false
}

// FuncSignature returns the signature a function index resolves to.
func (m *Module) FuncSignature(fn Index) Signature {
	return m.Signatures.All()[m.Funcs.All()[fn].Sig]
}

// Clone returns a deep copy of m, used by callers that want atomicity
// across a pass that might fail partway through (§7 ERROR HANDLING DESIGN:
// "callers that want atomicity clone the module first").
func (m *Module) Clone() *Module {
	out := New()
	out.Signatures = arena.Arena[Signature]{}
	for _, s := range m.Signatures.All() {
		cp := Signature{Params: append([]ValType{}, s.Params...), Results: append([]ValType{}, s.Results...)}
		out.Signatures.Append(cp)
	}
	for _, f := range m.Funcs.All() {
		cp := f
		if f.Body != nil {
			b := cloneBody(*f.Body)
			cp.Body = &b
		}
		out.Funcs.Append(cp)
	}
	for _, t := range m.Tables.All() {
		t.Elems = append([]Index(nil), t.Elems...)
		out.Tables.Append(t)
	}
	for _, mem := range m.Memories.All() {
		out.Memories.Append(mem)
	}
	for _, g := range m.Globals.All() {
		out.Globals.Append(g)
	}
	for _, i := range m.Imports.All() {
		out.Imports.Append(i)
	}
	for _, e := range m.Exports.All() {
		out.Exports.Append(e)
	}
	for _, c := range m.Customs.All() {
		data := append([]byte{}, c.Data...)
		out.Customs.Append(CustomSection{Name: c.Name, Data: data})
	}
	return out
}

func cloneBody(b Body) Body {
	return Body{
		Locals: append([]ValType{}, b.Locals...),
		Entry:  cloneBlock(b.Entry),
	}
}

func cloneBlock(b Block) Block {
	instrs := make([]Instr, len(b.Instrs))
	copy(instrs, b.Instrs)
	for i, in := range instrs {
		instrs[i].Operands = append([]ValueID{}, in.Operands...)
		instrs[i].Results = append([]ValueID{}, in.Results...)
		instrs[i].ResultTypes = append([]ValType{}, in.ResultTypes...)
		instrs[i].Aux = append([]Index{}, in.Aux...)
	}
	term := b.Term
	term.Values = append([]ValueID{}, b.Term.Values...)
	term.Args = append([]ValueID{}, b.Term.Args...)
	if b.Term.Then != nil {
		then := cloneBlock(*b.Term.Then)
		term.Then = &then
	}
	if b.Term.Else != nil {
		els := cloneBlock(*b.Term.Else)
		term.Else = &els
	}
	if b.Term.After != nil {
		after := cloneBlock(*b.Term.After)
		term.After = &after
	}
	return Block{
		Instrs:     instrs,
		Term:       term,
		Params:     append([]ValueID{}, b.Params...),
		ParamTypes: append([]ValType{}, b.ParamTypes...),
	}
}

// String implements fmt.Stringer for debug output.
func (m *Module) String() string {
	return fmt.Sprintf("module{sigs:%d funcs:%d tables:%d imports:%d exports:%d customs:%d}",
		m.Signatures.Len(), m.Funcs.Len(), m.Tables.Len(), m.Imports.Len(), m.Exports.Len(), m.Customs.Len())
}
