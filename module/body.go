package module

// Op identifies a single instruction's operation. The set is intentionally
// small: it covers exactly what the rewriter's passes need to read from an
// input handle-form module and to emit in the shims, dispatchers, and
// handle-table primitives they synthesize (§4.3-§4.6). It is not a general
// WebAssembly opcode set.
type Op uint8

const (
	// OpParam reads parameter Imm.Index of the enclosing Body. Result type
	// is the signature's parameter type.
	OpParam Op = iota
	// OpLocalGet/OpLocalSet read/write local Imm.Index (params count as the
	// first locals; OpLocalSet has no result).
	OpLocalGet
	OpLocalSet
	// OpConst materializes Imm's numeric payload, typed by ResultType.
	OpConst
	// OpRefNull produces the null reference.
	OpRefNull
	// OpRefIsNull tests Operands[0] (a Ref) for null, producing an I32 0/1.
	OpRefIsNull
	// OpCall invokes function Imm.Index with Operands as arguments,
	// producing one value per the callee signature's results (Results).
	OpCall
	// OpCallIndirect invokes the function named by the table slot at
	// Operands[len(Operands)-1] (an I32 index into table Imm.Index),
	// preceding operands are the call arguments; Results typed by
	// ResultTypes.
	OpCallIndirect
	// OpTableGet/OpTableSet/OpTableSize/OpTableGrow operate on table
	// Imm.Index. TableGet(index)->elem, TableSet(index, value)->(),
	// TableSize()->i32, TableGrow(delta, init)->i32 (previous size).
	OpTableGet
	OpTableSet
	OpTableSize
	OpTableGrow
	// OpGlobalGet/OpGlobalSet operate on global Imm.Index.
	OpGlobalGet
	OpGlobalSet
	// OpBinOp applies Imm.BinOp to Operands[0], Operands[1].
	OpBinOp
	// OpTableFindFree scans table Imm.Index for its smallest index holding
	// the zero value of the table's element type, growing the table by one
	// slot first if every existing slot is occupied, and produces that
	// index (I32). This is the bounded linear scan §4.3's alloc primitive
	// specifies ("the search is sequential from 0"); it is modeled as one
	// instruction rather than expanded into an explicit loop/branch
	// sequence because this rewriter's IR (§2: "structured blocks and
	// explicit terminators") has no other use for a general loop construct
	// — a real binary encoder backing this IR would lower OpTableFindFree
	// to the obvious `loop`/`br_if` bounded scan.
	OpTableFindFree
)

// BinOp identifies an integer arithmetic or comparison operator, used for
// the bias/encode/decode arithmetic throughout §4 ("+1 bias", "k + N*m",
// "idx mod N", "idx div N").
type BinOp uint8

const (
	Add BinOp = iota
	Sub
	Mul
	DivU
	RemU
	Eq
	Eqz // unary: only Operands[0] is read
	And
)

// Imm carries an instruction's non-SSA operands: an index into some index
// space, a binary operator selector, or a numeric constant payload.
type Imm struct {
	Index Index
	BinOp BinOp
	I32   int32
	I64   int64
	F32   float32
	F64   float64
}

// Instr is one instruction. An instruction with a non-void Result produces
// exactly one new [ValueID]; OpCall and OpCallIndirect are the exceptions
// and may produce zero or more, recorded in Results.
type Instr struct {
	Op         Op
	Operands   []ValueID
	Imm        Imm
	Result     ValueID     // valid iff HasResult(Op)
	ResultType ValType     // type of Result, or of each entry in Results
	Results    []ValueID   // for OpCall/OpCallIndirect: one ValueID per callee result
	ResultTypes []ValType  // per-Results type, for OpCall/OpCallIndirect
	Aux        []Index     // for OpTableFindFree: auxiliary tables grown in lockstep with Imm.Index's table (§4.3, "parallel array of auxiliary tables")
}

// HasResult reports whether op produces exactly one SSA value directly
// (as opposed to zero, as with OpLocalSet/OpTableSet, or a variable number,
// as with OpCall/OpCallIndirect).
func HasResult(op Op) bool {
	switch op {
	case OpLocalSet, OpTableSet:
		return false
	case OpCall, OpCallIndirect:
		return false
	default:
		return true
	}
}

// TermKind identifies how a [Block] ends.
type TermKind uint8

const (
	// TermReturn returns Values from the enclosing function.
	TermReturn TermKind = iota
	// TermTailCall invokes function Callee with Args and returns its
	// results directly, without the caller's frame observing them. This is
	// the IR-level name for the "tail-calls it"/"tail-calls the export"
	// wording throughout §4.5 and §4.6.
	TermTailCall
	// TermIf branches on Cond (an I32): if nonzero, runs Then, otherwise
	// Else. Each arm ends in its own Term — either TermReturn/TermTailCall
	// (the arm exits the function directly), or TermBr (the arm joins
	// back into After, passing Args positionally into After.Params).
	TermIf
	// TermBr ends a TermIf arm by branching to that TermIf's After block,
	// binding After.Params[i] to Args[i] (the SSA-block-parameter
	// equivalent of a phi). Only ever appears as an arm's own terminator,
	// never as a Body's entry terminator.
	TermBr
)

// Term is a Block's terminator.
type Term struct {
	Kind TermKind

	// TermReturn
	Values []ValueID

	// TermTailCall
	Callee Index
	Args   []ValueID

	// TermIf
	Cond  ValueID
	Then  *Block
	Else  *Block
	After *Block // where Then/Else's own TermBr (if any) joins back to; nil if both arms return/tail-call directly
}

// Block is a straight-line sequence of instructions followed by a
// terminator. Bodies built by this rewriter never need arbitrarily deep
// control flow: the only nesting is TermIf's two arms (used by the shim's
// null check, §4.4, and by canon's dispatcher default branch, §4.5) joining
// through an After block's Params, the parameter-passing equivalent of a
// phi. The handle-table allocator's bounded scan (§4.3) needs no nesting at
// all: it is the single OpTableFindFree instruction (see handle.Synth).
type Block struct {
	Instrs     []Instr
	Term       Term
	Params     []ValueID // non-empty only for a TermIf's After block
	ParamTypes []ValType
}

// Body is a function's definition: its additional locals (beyond
// parameters, which are addressed via OpParam/local index 0..len(Params)-1)
// and its entry block.
type Body struct {
	Locals []ValType
	Entry  Block
}
