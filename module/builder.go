package module

// Builder assembles one [Block] of straight-line instructions, assigning
// fresh [ValueID]s as it goes. Every pass that synthesizes a function body
// (handle.Synth, untpit's shims and wrappers, canon's dispatcher,
// instantiate's boundary wiring) uses a Builder
// instead of hand-rolling ValueID bookkeeping.
type Builder struct {
	next   *ValueID
	instrs []Instr
}

// NewBuilder returns a Builder whose first allocated ValueID follows the
// nparams function parameters (and any locals already declared ahead of
// the builder's own).
func NewBuilder(reserved int) *Builder {
	n := ValueID(reserved)
	return &Builder{next: &n}
}

// Fork returns a new Builder with its own instruction list that shares b's
// ValueID counter, so that sibling branches of a TermIf (built with their
// own Builder each) never collide on ValueIDs. See IfElseJoin.
func (b *Builder) Fork() *Builder {
	return &Builder{next: b.next}
}

func (b *Builder) alloc() ValueID {
	v := *b.next
	*b.next++
	return v
}

// reserve allocates a fresh ValueID with no defining instruction: the
// binding for a TermIf After block's parameter, whose "definition" is the
// branch that jumps into it (see IfElseJoin).
func (b *Builder) reserve() ValueID {
	return b.alloc()
}

func (b *Builder) emit(i Instr) ValueID {
	if HasResult(i.Op) {
		i.Result = b.alloc()
	}
	b.instrs = append(b.instrs, i)
	return i.Result
}

// Param returns the ValueID for parameter index i, typed t.
func (b *Builder) Param(i Index, t ValType) ValueID {
	return b.emit(Instr{Op: OpParam, Imm: Imm{Index: i}, ResultType: t})
}

// LocalGet reads local index i (params are locals 0..len(params)-1).
func (b *Builder) LocalGet(i Index, t ValType) ValueID {
	return b.emit(Instr{Op: OpLocalGet, Imm: Imm{Index: i}, ResultType: t})
}

// LocalSet writes v to local index i.
func (b *Builder) LocalSet(i Index, v ValueID) {
	b.emit(Instr{Op: OpLocalSet, Operands: []ValueID{v}, Imm: Imm{Index: i}})
}

// ConstI32 materializes an I32 constant.
func (b *Builder) ConstI32(v int32) ValueID {
	return b.emit(Instr{Op: OpConst, Imm: Imm{I32: v}, ResultType: I32})
}

// ConstI64 materializes an I64 constant.
func (b *Builder) ConstI64(v int64) ValueID {
	return b.emit(Instr{Op: OpConst, Imm: Imm{I64: v}, ResultType: I64})
}

// ConstF32 materializes an F32 constant.
func (b *Builder) ConstF32(v float32) ValueID {
	return b.emit(Instr{Op: OpConst, Imm: Imm{F32: v}, ResultType: F32})
}

// ConstF64 materializes an F64 constant.
func (b *Builder) ConstF64(v float64) ValueID {
	return b.emit(Instr{Op: OpConst, Imm: Imm{F64: v}, ResultType: F64})
}

// RefNull produces the null reference (§3, §4.6's "null-reference constant").
func (b *Builder) RefNull() ValueID {
	return b.emit(Instr{Op: OpRefNull, ResultType: Ref})
}

// RefIsNull tests v for null, producing I32 0/1 (§4.6's "ref.is_null").
func (b *Builder) RefIsNull(v ValueID) ValueID {
	return b.emit(Instr{Op: OpRefIsNull, Operands: []ValueID{v}, ResultType: I32})
}

// Call invokes function fn with args, typed by results.
func (b *Builder) Call(fn Index, args []ValueID, results []ValType) []ValueID {
	ids := make([]ValueID, len(results))
	for i := range ids {
		ids[i] = b.alloc()
	}
	b.instrs = append(b.instrs, Instr{
		Op: OpCall, Operands: args, Imm: Imm{Index: fn},
		Results: ids, ResultTypes: results,
	})
	return ids
}

// CallIndirect invokes the function named by table slot idxVal (an I32
// index into table tbl), passing args, typed by results.
func (b *Builder) CallIndirect(tbl Index, idxVal ValueID, args []ValueID, results []ValType) []ValueID {
	ids := make([]ValueID, len(results))
	for i := range ids {
		ids[i] = b.alloc()
	}
	operands := append(append([]ValueID{}, args...), idxVal)
	b.instrs = append(b.instrs, Instr{
		Op: OpCallIndirect, Operands: operands, Imm: Imm{Index: tbl},
		Results: ids, ResultTypes: results,
	})
	return ids
}

// TableGet reads table tbl at idxVal, typed elem.
func (b *Builder) TableGet(tbl Index, idxVal ValueID, elem ValType) ValueID {
	return b.emit(Instr{Op: OpTableGet, Operands: []ValueID{idxVal}, Imm: Imm{Index: tbl}, ResultType: elem})
}

// TableSet writes value into table tbl at idxVal.
func (b *Builder) TableSet(tbl Index, idxVal, value ValueID) {
	b.emit(Instr{Op: OpTableSet, Operands: []ValueID{idxVal, value}, Imm: Imm{Index: tbl}})
}

// TableSize returns the current length of table tbl.
func (b *Builder) TableSize(tbl Index) ValueID {
	return b.emit(Instr{Op: OpTableSize, Imm: Imm{Index: tbl}, ResultType: I32})
}

// TableGrow grows table tbl by delta slots initialized to init, returning
// the previous size.
func (b *Builder) TableGrow(tbl Index, delta, init ValueID) ValueID {
	return b.emit(Instr{Op: OpTableGrow, Operands: []ValueID{delta, init}, Imm: Imm{Index: tbl}, ResultType: I32})
}

// TableFindFree scans table tbl for its smallest free index (see
// OpTableFindFree), growing it by one slot if none is free. aux lists
// companion tables (§4.3's auxiliary tables) that grow in lockstep with tbl,
// so that every auxiliary table always has a slot at the returned index.
func (b *Builder) TableFindFree(tbl Index, aux ...Index) ValueID {
	return b.emit(Instr{Op: OpTableFindFree, Imm: Imm{Index: tbl}, Aux: aux, ResultType: I32})
}

// BinOp applies op to a, b, producing a value of type t.
func (b *Builder) BinOp(op BinOp, a, c ValueID, t ValType) ValueID {
	return b.emit(Instr{Op: OpBinOp, Operands: []ValueID{a, c}, Imm: Imm{BinOp: op}, ResultType: t})
}

// UnOp applies a unary op (currently only Eqz) to a.
func (b *Builder) UnOp(op BinOp, a ValueID, t ValType) ValueID {
	return b.emit(Instr{Op: OpBinOp, Operands: []ValueID{a}, Imm: Imm{BinOp: op}, ResultType: t})
}

// Block returns the accumulated instructions as a terminator-less Block;
// callers set Term before attaching it to a Body or TermIf arm.
func (b *Builder) Block() Block {
	return Block{Instrs: b.instrs}
}

// Return terminates with TermReturn.
func (b *Builder) Return(values ...ValueID) Block {
	blk := b.Block()
	blk.Term = Term{Kind: TermReturn, Values: values}
	return blk
}

// TailCall terminates with TermTailCall.
func (b *Builder) TailCall(callee Index, args ...ValueID) Block {
	blk := b.Block()
	blk.Term = Term{Kind: TermTailCall, Callee: callee, Args: args}
	return blk
}

// If terminates with TermIf: cond selects then or els, both of which
// themselves return or tail-call directly (no join).
func (b *Builder) If(cond ValueID, then, els Block) Block {
	blk := b.Block()
	blk.Term = Term{Kind: TermIf, Cond: cond, Then: &then, Else: &els}
	return blk
}

// IfElseJoin builds a TermIf whose two arms each compute resultTypes-typed
// values and join back into a continuation, the shape the shim's null
// check needs (§4.4): the null arm short-circuits to one set of values,
// the non-null arm computes another via side-effecting calls (alloc/free)
// that must not run on the null path, and the caller needs both outcomes
// available as ordinary ValueIDs afterward.
//
// buildThen and buildElse each receive a forked Builder (so the two arms'
// instructions never collide) and must return len(resultTypes) values,
// typed accordingly, ending their block in TermBr. buildAfter receives a
// third forked Builder and the joined ValueIDs — aliases for whichever arm
// actually ran — and must return a finished Block (its own Term decides
// what happens next: Return, TailCall, or another IfElseJoin).
func (b *Builder) IfElseJoin(
	cond ValueID,
	resultTypes []ValType,
	buildThen func(tb *Builder) []ValueID,
	buildElse func(eb *Builder) []ValueID,
	buildAfter func(ab *Builder, joined []ValueID) Block,
) Block {
	tb := b.Fork()
	thenVals := buildThen(tb)
	thenBlk := tb.Block()
	thenBlk.Term = Term{Kind: TermBr, Args: thenVals}

	eb := b.Fork()
	elseVals := buildElse(eb)
	elseBlk := eb.Block()
	elseBlk.Term = Term{Kind: TermBr, Args: elseVals}

	joined := make([]ValueID, len(resultTypes))
	for i := range resultTypes {
		joined[i] = b.reserve()
	}

	ab := b.Fork()
	after := buildAfter(ab, joined)
	after.Params = joined
	after.ParamTypes = append([]ValType{}, resultTypes...)

	blk := b.Block()
	blk.Term = Term{Kind: TermIf, Cond: cond, Then: &thenBlk, Else: &elseBlk, After: &after}
	return blk
}
