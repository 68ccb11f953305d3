package module

import "github.com/portal-pit/pit/internal/arena"

// TreeShakeFuncs removes locally-defined functions that are not reachable
// from an export, an import's own function index, or a table's Elems
// (through calls and tail calls), compacting the function index space and
// rewriting every Call, tail call, table Elems (CallIndirect target),
// Import and Export reference accordingly. This is the dead-code elimination §1 and §4.6
// call for ("a tree-shake removes the now-unreachable originals") after
// instantiate replaces every per-instance import/export with root-level
// dispatch; it is intentionally the only optimization this rewriter does
// (§1 Non-goals: "no optimization ... beyond dead-code elimination of
// newly unreachable definitions").
//
// Imported functions are never removed: removing one would change the
// import's meaning (it would have to vanish too, which is an ABI change
// no pass requests). Tables, memories, and globals are left alone; nothing
// in this rewriter produces dead tables at a scale worth collecting.
func (m *Module) TreeShakeFuncs() {
	funcs := m.Funcs.All()
	reachable := make([]bool, len(funcs))

	var roots []Index
	for _, exp := range m.Exports.All() {
		if exp.Desc.Kind == DescFunc {
			roots = append(roots, exp.Desc.Index)
		}
	}
	for _, imp := range m.Imports.All() {
		if imp.Desc.Kind == DescFunc {
			roots = append(roots, imp.Desc.Index)
		}
	}
	for _, t := range m.Tables.All() {
		roots = append(roots, t.Elems...)
	}

	var mark func(Index)
	mark = func(i Index) {
		if reachable[i] {
			return
		}
		reachable[i] = true
		body := funcs[i].Body
		if body == nil {
			return
		}
		walkBlock(&body.Entry, func(in *Instr) {
			if in.Op == OpCall {
				mark(in.Imm.Index)
			}
		})
		walkTailCalls(&body.Entry, func(t *Term) {
			mark(t.Callee)
		})
	}
	for _, r := range roots {
		mark(r)
	}

	// Imported functions are always kept, even if unreferenced, so that
	// removing dead code never changes the import section's shape.
	for i, f := range funcs {
		if f.Body == nil {
			reachable[i] = true
		}
	}

	remap := make([]Index, len(funcs))
	kept := make([]Func, 0, len(funcs))
	for i, f := range funcs {
		if !reachable[i] {
			remap[i] = ^Index(0)
			continue
		}
		remap[i] = Index(len(kept))
		kept = append(kept, f)
	}

	for i := range kept {
		if kept[i].Body != nil {
			b := kept[i].Body
			walkBlockMut(&b.Entry, func(in *Instr) {
				if in.Op == OpCall {
					in.Imm.Index = remap[in.Imm.Index]
				}
			})
			walkTailCalls(&b.Entry, func(t *Term) {
				t.Callee = remap[t.Callee]
			})
		}
	}
	for i := range m.Imports.All() {
		imp := m.Imports.Get(Index(i))
		if imp.Desc.Kind == DescFunc {
			imp.Desc.Index = remap[imp.Desc.Index]
		}
	}
	for i := range m.Exports.All() {
		exp := m.Exports.Get(Index(i))
		if exp.Desc.Kind == DescFunc {
			exp.Desc.Index = remap[exp.Desc.Index]
		}
	}
	for i := range m.Tables.All() {
		t := m.Tables.Get(Index(i))
		for k, fn := range t.Elems {
			t.Elems[k] = remap[fn]
		}
	}

	m.Funcs = arena.From(kept)
}

// walkBlock visits every instruction reachable from b (both arms of any
// TermIf), read-only.
func walkBlock(b *Block, visit func(*Instr)) {
	for i := range b.Instrs {
		visit(&b.Instrs[i])
	}
	if b.Term.Kind == TermIf {
		walkBlock(b.Term.Then, visit)
		walkBlock(b.Term.Else, visit)
		if b.Term.After != nil {
			walkBlock(b.Term.After, visit)
		}
	}
}

func walkBlockMut(b *Block, mutate func(*Instr)) {
	for i := range b.Instrs {
		mutate(&b.Instrs[i])
	}
	if b.Term.Kind == TermIf {
		walkBlockMut(b.Term.Then, mutate)
		walkBlockMut(b.Term.Else, mutate)
		if b.Term.After != nil {
			walkBlockMut(b.Term.After, mutate)
		}
	}
}

func walkTailCalls(b *Block, visit func(*Term)) {
	if b.Term.Kind == TermTailCall {
		visit(&b.Term)
	}
	if b.Term.Kind == TermIf {
		walkTailCalls(b.Term.Then, visit)
		walkTailCalls(b.Term.Else, visit)
		if b.Term.After != nil {
			walkTailCalls(b.Term.After, visit)
		}
	}
}
