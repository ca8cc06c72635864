// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package recon

import (
	"strconv"
	"strings"

	"github.com/SergioRZMasson/SPIRV-Cross-sub000/ir"
)

// funcEmitter walks one function's block graph in structured order and
// drives the sink. It holds the per-function naming state and the
// construct stack used to resolve branch targets into break, continue
// and fall-through.
type funcEmitter struct {
	reg  *ir.Registry
	dec  *Decisions
	tr   *Tracker
	sink Sink
	fn   *ir.Function

	names    map[ir.VarID]string
	declared map[ir.VarID]bool

	// ladders maps loop headers to the switch heads whose bodies break
	// out of them, computed up front so the flag can be declared before
	// the loop opens.
	ladders map[ir.BlockID][]ir.BlockID

	stack   []frame
	pending *pendingInit

	// selDepth counts open selection arms. The construct stack only
	// tracks breakable frames, so it alone cannot tell a function-tail
	// return from one inside an if arm.
	selDepth int
}

// frame is one open breakable construct.
type frame struct {
	kind   frameKind
	header ir.BlockID
	merge  ir.BlockID
	cont   ir.BlockID

	// ladder is the break-flag name of a loop that nested switches
	// break out of.
	ladder string

	// contInline re-emits the continue block at every continue site.
	// Set for generic loops with a separate continue block; the three
	// specific shapes fold theirs into the loop header line instead.
	contInline bool

	// needs lists ladder flags a closing switch must test and
	// propagate.
	needs []string
}

type frameKind uint8

const (
	frameLoop frameKind = iota
	frameSwitch
)

// pendingInit is a store to an undeclared loop variable, held back so a
// directly following for loop can absorb it as its init clause.
type pendingInit struct {
	variable ir.VarID
	expr     string
}

func newFuncEmitter(reg *ir.Registry, dec *Decisions, tr *Tracker, sink Sink, fn *ir.Function) *funcEmitter {
	return &funcEmitter{
		reg:      reg,
		dec:      dec,
		tr:       tr,
		sink:     sink,
		fn:       fn,
		names:    make(map[ir.VarID]string),
		declared: make(map[ir.VarID]bool),
	}
}

// EmitFunction renders one function through the sink.
func (e *funcEmitter) EmitFunction() {
	e.ladders = ComputeLadders(e.reg, e.fn)

	e.sink.BeginFunction(e.fn.Name, e.fn.Result, e.fn.Params)

	for _, vid := range e.fn.Variables {
		v := e.reg.Variable(vid)
		if v == nil || v.Deferred || v.Loop {
			continue
		}
		init := ""
		if v.Init != nil {
			init = e.constantExpr(*v.Init)
		}
		e.declareLocal(e.sink.TypeName(v.Type), e.varName(vid), init)
		e.declared[vid] = true
	}

	e.emitRange(e.fn.Entry, 0)
	e.flushPending()
	e.sink.EndFunction()
}

// varName returns the stable name of a variable, reserving it on first
// use.
func (e *funcEmitter) varName(id ir.VarID) string {
	if name, ok := e.names[id]; ok {
		return name
	}
	v := e.reg.Variable(id)
	if v != nil && v.Space != ir.SpaceFunction {
		// Module-scope variables were named by the sink's preamble.
		name := e.sink.GlobalName(id)
		e.names[id] = name
		return name
	}
	base := "_v" + strconv.FormatUint(uint64(id), 10)
	if v != nil && v.Name != "" {
		base = v.Name
	}
	name := e.sink.LocalName(base)
	e.names[id] = name
	return name
}

func (e *funcEmitter) newTemp(id ir.ValueID) string {
	return e.sink.LocalName("_e" + strconv.FormatUint(uint64(id), 10))
}

// stmt emits one statement, flushing any held-back loop initializer
// first so statement order is preserved.
func (e *funcEmitter) stmt(line string) {
	e.flushPending()
	e.sink.EmitLine(line)
}

func (e *funcEmitter) scope(header string) {
	e.flushPending()
	e.sink.BeginScope(header)
}

func (e *funcEmitter) declareLocal(typeName, name, init string) {
	e.flushPending()
	e.sink.DeclareLocal(typeName, name, init)
}

func (e *funcEmitter) flushPending() {
	p := e.pending
	if p == nil {
		return
	}
	e.pending = nil
	v := e.reg.Variable(p.variable)
	e.sink.DeclareLocal(e.sink.TypeName(v.Type), e.varName(p.variable), p.expr)
	e.declared[p.variable] = true
}

// emitRange renders blocks linearly from a block until reaching stop.
// Returns true when control terminated (break, continue, return, kill)
// rather than falling through to stop.
func (e *funcEmitter) emitRange(from, stop ir.BlockID) bool {
	id := from
	for id != 0 && id != stop {
		next, terminated := e.emitBlock(id, stop)
		if terminated {
			return true
		}
		id = next
	}
	return false
}

// emitBlock renders one block and resolves its terminator. Returns the
// next linear block (the construct's merge, or a direct successor) and
// whether control terminated instead.
func (e *funcEmitter) emitBlock(id, stop ir.BlockID) (ir.BlockID, bool) {
	b := e.reg.Block(id)
	if b == nil {
		return 0, true
	}

	if b.MergeKind == ir.MergeLoop {
		e.emitLoop(b)
		return b.Merge, false
	}

	e.emitInstructions(b)

	switch term := b.Terminator.(type) {
	case ir.Branch:
		e.emitEdge(b.ID, term.Target)
		if term.Target == stop {
			return 0, false
		}
		if e.resolveFrameTarget(term.Target) {
			return 0, true
		}
		return term.Target, false

	case ir.CondBranch:
		if b.MergeKind == ir.MergeSelection {
			e.emitIf(b, term)
			return b.Merge, false
		}
		return 0, e.emitBareCond(b, term, stop)

	case ir.SwitchTerm:
		e.emitSwitch(b, term)
		return b.Merge, false

	case ir.Return:
		e.emitReturn(term)
		return 0, true

	case ir.Kill:
		e.flushPending()
		e.sink.EmitKill()
		return 0, true

	case ir.Unreachable:
		if n := len(e.stack); n > 0 && e.stack[n-1].kind == frameSwitch {
			e.stmt("break;")
		}
		return 0, true

	default:
		return 0, true
	}
}

// emitInstructions renders the statements of one block: stores, calls,
// and materialized temporaries for values that cannot be forwarded.
func (e *funcEmitter) emitInstructions(b *ir.Block) {
	for i := range b.Instructions {
		instr := &b.Instructions[i]
		switch op := instr.Op.(type) {
		case ir.OpStore:
			e.emitStore(op)

		case ir.OpCall:
			if instr.Result == 0 {
				e.stmt(e.callExpr(op) + ";")
				continue
			}
			v := e.reg.Value(instr.Result)
			name := e.newTemp(instr.Result)
			e.declareLocal(e.sink.TypeName(v.Type), name, e.render(v))
			e.tr.BindTemp(instr.Result, name)

		default:
			if instr.Result == 0 {
				continue
			}
			if e.tr.Define(instr.Result) {
				continue
			}
			v := e.reg.Value(instr.Result)
			name := e.newTemp(instr.Result)
			e.declareLocal(e.sink.TypeName(v.Type), name, e.render(v))
			e.tr.BindTemp(instr.Result, name)
		}
	}
}

// emitStore renders a variable write, rescuing forwarded values that
// still have reads ahead and depend on the overwritten variable.
func (e *funcEmitter) emitStore(op ir.OpStore) {
	rhs := e.expr(op.Value)
	e.rescue(e.tr.InvalidateOnWrite(op.Variable))

	v := e.reg.Variable(op.Variable)
	if v != nil && !e.declared[op.Variable] {
		if v.Loop {
			// Held back: a for loop opening next absorbs it as init.
			e.flushPending()
			e.pending = &pendingInit{variable: op.Variable, expr: rhs}
			return
		}
		if v.Deferred {
			e.declareLocal(e.sink.TypeName(v.Type), e.varName(op.Variable), rhs)
			e.declared[op.Variable] = true
			return
		}
	}
	e.stmt(e.varName(op.Variable) + " = " + rhs + ";")
}

// rescue materializes invalidated forwarded values into temporaries
// holding their pre-write result.
func (e *funcEmitter) rescue(ids []ir.ValueID) {
	for _, id := range ids {
		v := e.reg.Value(id)
		name := e.newTemp(id)
		e.declareLocal(e.sink.TypeName(v.Type), name, e.render(v))
		e.tr.BindTemp(id, name)
	}
}

// emitEdge renders the phi copy-assignments pending on one control-flow
// edge, in clobber-safe order.
func (e *funcEmitter) emitEdge(from, to ir.BlockID) {
	edges := e.reg.PhiFor(to, from)
	if len(edges) == 0 {
		return
	}
	plan := PlanPhiCopies(e.tr, edges)

	snapshots := make(map[ir.ValueID]string)
	for _, c := range plan {
		if !c.ViaTemp {
			continue
		}
		if _, bound := e.tr.TempName(c.Value); bound {
			continue
		}
		v := e.reg.Value(c.Value)
		name := e.newTemp(c.Value)
		e.declareLocal(e.sink.TypeName(v.Type), name, e.expr(c.Value))
		e.tr.BindTemp(c.Value, name)
		snapshots[c.Value] = name
	}

	for _, c := range plan {
		rhs, ok := snapshots[c.Value]
		if !ok {
			rhs = e.expr(c.Value)
		}
		e.rescue(e.tr.InvalidateOnWrite(c.Variable))
		e.stmt(e.varName(c.Variable) + " = " + rhs + ";")
	}
}

// resolveFrameTarget maps a branch target onto the open construct
// stack: continue targets and merge blocks become continue and break
// statements. Returns false when the target is plain code.
func (e *funcEmitter) resolveFrameTarget(target ir.BlockID) bool {
	for i := len(e.stack) - 1; i >= 0; i-- {
		f := &e.stack[i]
		if f.kind == frameLoop && f.cont == target {
			e.emitContinue(f)
			return true
		}
		if f.merge == target {
			e.emitBreak(i)
			return true
		}
	}
	return false
}

// emitContinue renders a continue. For generic loops the continue block
// has no other home, so its statements are re-emitted here before the
// continue; a conditional back edge in it becomes the loop's exit test.
func (e *funcEmitter) emitContinue(f *frame) {
	if !f.contInline {
		e.stmt("continue;")
		return
	}
	cont := e.reg.Block(f.cont)
	if cont == nil {
		e.stmt("continue;")
		return
	}

	e.emitInstructions(cont)
	switch term := cont.Terminator.(type) {
	case ir.Branch:
		e.emitEdge(cont.ID, f.header)
		e.stmt("continue;")
	case ir.CondBranch:
		cond := e.expr(term.Condition)
		exit := term.False
		if term.True != f.header {
			cond = negate(cond)
			exit = term.True
		}
		e.scope("if (" + cond + ") {")
		e.emitEdge(cont.ID, f.header)
		e.stmt("continue;")
		e.sink.EndScope("}")
		e.scope("else {")
		if !e.resolveFrameTarget(exit) {
			e.emitRange(exit, 0)
		}
		e.sink.EndScope("}")
	default:
		e.stmt("continue;")
	}
}

// emitBreak renders a break out of the construct at stack index i. A
// break crossing switch frames cannot reach the loop directly; it sets
// the loop's ladder flag, breaks the innermost switch, and each switch
// on the way out re-tests the flag as it closes.
func (e *funcEmitter) emitBreak(i int) {
	crossed := false
	for j := i + 1; j < len(e.stack); j++ {
		if e.stack[j].kind == frameSwitch {
			crossed = true
		}
	}
	if !crossed {
		e.stmt("break;")
		return
	}

	flag := e.stack[i].ladder
	if flag == "" {
		// The pre-pass missed this break path; demote gracefully by
		// breaking the innermost construct only.
		e.stmt("break;")
		return
	}
	for j := i + 1; j < len(e.stack); j++ {
		if e.stack[j].kind == frameSwitch {
			e.stack[j].needs = appendUnique(e.stack[j].needs, flag)
		}
	}
	e.stmt(flag + " = true;")
	e.stmt("break;")
}

func appendUnique(list []string, s string) []string {
	for _, have := range list {
		if have == s {
			return list
		}
	}
	return append(list, s)
}

// emitReturn renders a return. A void return on the function's
// unconditional tail is elided; the closing brace already ends the
// function. Inside any construct, selection arms included, the return
// is real control flow and must be kept.
func (e *funcEmitter) emitReturn(term ir.Return) {
	if term.Value != 0 {
		e.stmt("return " + e.expr(term.Value) + ";")
		return
	}
	if len(e.stack) == 0 && e.selDepth == 0 {
		return
	}
	e.stmt("return;")
}

// emitBareCond renders a conditional branch that heads no selection
// construct: both edges resolve against the open constructs (break,
// continue) or fall through to stop. Returns true when neither side can
// fall through.
func (e *funcEmitter) emitBareCond(b *ir.Block, term ir.CondBranch, stop ir.BlockID) bool {
	cond := e.expr(term.Condition)
	switch {
	case term.True == stop:
		e.scope("if (" + negate(cond) + ") {")
		e.branchIntoArm(b.ID, term.False, stop)
		e.sink.EndScope("}")
		return false
	case term.False == stop:
		e.scope("if (" + cond + ") {")
		e.branchIntoArm(b.ID, term.True, stop)
		e.sink.EndScope("}")
		return false
	default:
		e.scope("if (" + cond + ") {")
		t1 := e.branchIntoArm(b.ID, term.True, stop)
		e.sink.EndScope("}")
		e.scope("else {")
		t2 := e.branchIntoArm(b.ID, term.False, stop)
		e.sink.EndScope("}")
		return t1 && t2
	}
}

// branchIntoArm follows one edge inside an if or else arm, where a
// void return must stay explicit.
func (e *funcEmitter) branchIntoArm(from, target, stop ir.BlockID) bool {
	e.selDepth++
	terminated := e.branchInto(from, target, stop)
	e.selDepth--
	return terminated
}

// branchInto follows one edge: phi copies first, then the target either
// falls through, resolves to break or continue, or opens plain code.
// Returns true when control terminated instead of falling through.
func (e *funcEmitter) branchInto(from, target, stop ir.BlockID) bool {
	e.emitEdge(from, target)
	if target == stop {
		return false
	}
	if e.resolveFrameTarget(target) {
		return true
	}
	return e.emitRange(target, stop)
}

// emitIf renders a selection construct. An empty arm collapses into a
// plain or negated test, unless the edge carries phi copies that must
// only run on that arm.
func (e *funcEmitter) emitIf(b *ir.Block, term ir.CondBranch) {
	cond := e.expr(term.Condition)
	merge := b.Merge
	edgeCopies := len(e.reg.PhiFor(merge, b.ID)) > 0

	switch {
	case term.True == merge && term.False == merge:
		// Degenerate selection; only the edge copies remain.
		e.emitEdge(b.ID, merge)

	case term.True == merge && !edgeCopies:
		e.scope("if (" + negate(cond) + ") {")
		e.branchIntoArm(b.ID, term.False, merge)
		e.sink.EndScope("}")

	case term.False == merge && !edgeCopies:
		e.scope("if (" + cond + ") {")
		e.branchIntoArm(b.ID, term.True, merge)
		e.sink.EndScope("}")

	default:
		e.scope("if (" + cond + ") {")
		e.branchIntoArm(b.ID, term.True, merge)
		e.sink.EndScope("}")
		e.scope("else {")
		e.branchIntoArm(b.ID, term.False, merge)
		e.sink.EndScope("}")
	}
}

// negate wraps a rendered condition in a logical not.
func negate(cond string) string {
	if strings.HasPrefix(cond, "!") && isLeaf(cond[1:]) {
		return cond[1:]
	}
	if isLeaf(cond) || (strings.HasPrefix(cond, "(") && strings.HasSuffix(cond, ")")) {
		return "!" + cond
	}
	return "!(" + cond + ")"
}

// emitLoop renders a loop construct in its classified shape, verifying
// at emission time the speculative assumptions the classifier could not
// check: header and test blocks must stay silent, and a for loop's
// continue block must fold into an increment clause. A failed
// speculation demotes the header for every later pass and renders the
// generic form now.
func (e *funcEmitter) emitLoop(b *ir.Block) {
	info := ClassifyLoop(e.reg, e.dec, b)

	switch info.Shape {
	case LoopShapeFor, LoopShapeWhile:
		if len(b.Phis) > 0 || !e.canStaySilent(b) {
			e.demote(b.ID)
			info.Shape = LoopShapeComplex
		} else if info.Shape == LoopShapeFor && !e.canStaySilent(e.reg.Block(info.TestBlock)) {
			e.demote(b.ID)
			info.Shape = LoopShapeComplex
		}
	case LoopShapeDoWhile:
		cont := e.reg.Block(info.Continue)
		if len(b.Phis) > 0 || (cont.ID != b.ID && !e.canStaySilent(cont)) {
			e.demote(b.ID)
			info.Shape = LoopShapeComplex
		}
	}

	ladder := ""
	if len(e.ladders[b.ID]) > 0 {
		ladder = e.sink.LocalName("_ladder")
		e.declareLocal("bool", ladder, "false")
	}

	switch info.Shape {
	case LoopShapeFor:
		e.emitForLoop(b, info, ladder)
	case LoopShapeWhile:
		e.emitWhileLoop(b, info, ladder)
	case LoopShapeDoWhile:
		e.emitDoWhile(b, info, ladder)
	default:
		e.emitComplexLoop(b, ladder)
	}
}

func (e *funcEmitter) demote(header ir.BlockID) {
	if !e.dec.IsComplex(header) {
		e.dec.MarkComplex(header)
		e.sink.RequestRecompile()
	}
}

// canStaySilent reports whether every instruction of a block vanishes
// into forwarded expressions under the current decisions.
func (e *funcEmitter) canStaySilent(b *ir.Block) bool {
	if b == nil {
		return false
	}
	for i := range b.Instructions {
		instr := &b.Instructions[i]
		switch instr.Op.(type) {
		case ir.OpStore, ir.OpCall:
			return false
		}
		if instr.Result != 0 && !e.tr.ShouldForward(instr.Result) {
			return false
		}
	}
	return true
}

// defineSilent records forwarding for every result of a silent block so
// later expression rendering sees consistent tracker state.
func (e *funcEmitter) defineSilent(b *ir.Block) {
	for i := range b.Instructions {
		if r := b.Instructions[i].Result; r != 0 {
			e.tr.Define(r)
		}
	}
}

func (e *funcEmitter) loopCond(info LoopInfo) string {
	cond := e.expr(info.Condition)
	if info.Negate {
		cond = negate(cond)
	}
	return cond
}

func (e *funcEmitter) emitForLoop(b *ir.Block, info LoopInfo, ladder string) {
	e.defineSilent(b)
	e.defineSilent(e.reg.Block(info.TestBlock))

	// The condition renders first so the test block's reads are
	// consumed before the increment clause inspects pending state.
	cond := e.loopCond(info)

	incr, ok := e.incrClause(info)
	if !ok {
		e.demote(b.ID)
		e.emitComplexLoop(b, ladder)
		return
	}

	init := ""
	if p := e.pending; p != nil {
		init = e.sink.TypeName(e.reg.Variable(p.variable).Type) + " " + e.varName(p.variable) + " = " + p.expr
		e.declared[p.variable] = true
		e.pending = nil
	}

	e.sink.BeginScope("for (" + init + "; " + cond + "; " + incr + ") {")
	e.push(frame{kind: frameLoop, header: b.ID, merge: info.Merge, cont: info.Continue, ladder: ladder})
	e.emitRange(info.Body, info.Continue)
	e.pop()
	e.flushPending()
	e.sink.EndScope("}")
}

// incrClause folds the continue block's stores into a for increment.
// Fails when a store needs rescues or a value cannot be forwarded; the
// clause has no room for declarations.
func (e *funcEmitter) incrClause(info LoopInfo) (string, bool) {
	cont := e.reg.Block(info.Continue)
	if cont == nil || cont.ID == info.Header {
		return "", false
	}
	if len(e.reg.PhiFor(info.Header, cont.ID)) > 0 {
		return "", false
	}
	if _, ok := cont.Terminator.(ir.Branch); !ok {
		return "", false
	}

	var parts []string
	for i := range cont.Instructions {
		instr := &cont.Instructions[i]
		switch op := instr.Op.(type) {
		case ir.OpStore:
			// Dependents defined in the continue block are consumed by
			// the clause itself; anything forwarded from outside would
			// need a rescue, which the clause has no room for.
			for _, dep := range e.tr.PendingDependents(op.Variable) {
				if dv := e.reg.Value(dep); dv == nil || dv.Block != cont.ID {
					return "", false
				}
			}
			parts = append(parts, e.incrStore(op))
			e.tr.InvalidateOnWrite(op.Variable)
		case ir.OpCall:
			return "", false
		default:
			if instr.Result != 0 && !e.tr.Define(instr.Result) {
				return "", false
			}
		}
	}
	return strings.Join(parts, ", "), true
}

// incrStore renders one increment store, using ++ and -- for unit steps
// on the stored variable itself.
func (e *funcEmitter) incrStore(op ir.OpStore) string {
	name := e.varName(op.Variable)
	if v := e.reg.Value(op.Value); v != nil {
		if bin, ok := v.Op.(ir.OpBinary); ok && (bin.Operator == ir.BinAdd || bin.Operator == ir.BinSub) {
			if lv := e.reg.Value(bin.Left); lv != nil {
				if load, ok := lv.Op.(ir.OpLoad); ok && load.Variable == op.Variable {
					if c, ok := e.reg.ConstantIndex(bin.Right); ok && c == 1 {
						if bin.Operator == ir.BinAdd {
							return name + "++"
						}
						return name + "--"
					}
				}
			}
		}
	}
	return name + " = " + e.expr(op.Value)
}

func (e *funcEmitter) emitWhileLoop(b *ir.Block, info LoopInfo, ladder string) {
	e.defineSilent(b)

	// A continue block with visible work has no home in a while body;
	// it folds into a for increment clause or demotes the loop.
	cont := e.reg.Block(info.Continue)
	if cont != nil && cont.ID != b.ID && !e.canStaySilent(cont) {
		cond := e.loopCond(info)
		incr, ok := e.incrClause(info)
		if !ok {
			e.demote(b.ID)
			e.emitComplexLoop(b, ladder)
			return
		}

		init := ""
		if p := e.pending; p != nil {
			init = e.sink.TypeName(e.reg.Variable(p.variable).Type) + " " + e.varName(p.variable) + " = " + p.expr
			e.declared[p.variable] = true
			e.pending = nil
		}

		e.sink.BeginScope("for (" + init + "; " + cond + "; " + incr + ") {")
		e.push(frame{kind: frameLoop, header: b.ID, merge: info.Merge, cont: info.Continue, ladder: ladder})
		e.emitRange(info.Body, info.Continue)
		e.pop()
		e.flushPending()
		e.sink.EndScope("}")
		return
	}

	e.scope("while (" + e.loopCond(info) + ") {")
	e.push(frame{kind: frameLoop, header: b.ID, merge: info.Merge, cont: info.Continue, ladder: ladder})
	e.emitRange(info.Body, info.Continue)
	e.pop()
	e.flushPending()
	e.sink.EndScope("}")
}

func (e *funcEmitter) emitDoWhile(b *ir.Block, info LoopInfo, ladder string) {
	e.scope("do {")
	e.push(frame{kind: frameLoop, header: b.ID, merge: info.Merge, cont: info.Continue, ladder: ladder})

	if info.Body == b.ID {
		// Single-block loop: the header is body, test and back edge.
		e.emitInstructions(b)
	} else {
		e.emitInstructions(b)
		e.emitRange(info.Body, info.Continue)
		cont := e.reg.Block(info.Continue)
		if cont != nil && cont.ID != b.ID {
			e.defineSilent(cont)
		}
	}

	e.pop()
	e.flushPending()
	e.sink.EndScope("} while (" + e.loopCond(info) + ");")
}

func (e *funcEmitter) emitComplexLoop(b *ir.Block, ladder string) {
	e.scope("for (;;) {")
	e.push(frame{
		kind:       frameLoop,
		header:     b.ID,
		merge:      b.Merge,
		cont:       b.Continue,
		ladder:     ladder,
		contInline: b.Continue != 0 && b.Continue != b.ID,
	})

	e.emitInstructions(b)
	switch term := b.Terminator.(type) {
	case ir.Branch:
		e.branchInto(b.ID, term.Target, 0)
	case ir.CondBranch:
		e.emitBareCond(b, term, 0)
	case ir.SwitchTerm:
		e.emitSwitch(b, term)
	case ir.Return:
		e.emitReturn(term)
	case ir.Kill:
		e.flushPending()
		e.sink.EmitKill()
	}

	e.pop()
	e.flushPending()
	e.sink.EndScope("}")
}

func (e *funcEmitter) push(f frame) {
	e.stack = append(e.stack, f)
}

func (e *funcEmitter) pop() frame {
	f := e.stack[len(e.stack)-1]
	e.stack = e.stack[:len(e.stack)-1]
	return f
}

// caseGroup is one emitted arm of a switch: the labels sharing a target
// and the target block.
type caseGroup struct {
	labels []string
	target ir.BlockID

	// fallsTo is the head of the group this one falls through into,
	// zero when the arm breaks to the merge.
	fallsTo ir.BlockID
}

// emitSwitch renders a switch construct. Arms sharing a target collapse
// into one label list; an arm whose body reaches another arm's head is
// reordered to immediately precede it and emitted without a break, which
// is how a case falling through into the default body keeps working
// after the default is spliced out of last position.
func (e *funcEmitter) emitSwitch(b *ir.Block, term ir.SwitchTerm) {
	merge := b.Merge

	// When every edge reaches the default body, no dispatch is needed;
	// the body is emitted inline as plain code, selector unread.
	lone := term.Default != 0 && term.Default != merge
	for _, c := range term.Cases {
		if c.Target != term.Default {
			lone = false
			break
		}
	}
	if lone {
		e.emitEdge(b.ID, term.Default)
		e.emitRange(term.Default, merge)
		return
	}

	groups := e.switchGroups(b, term)
	if len(groups) == 0 {
		// Every arm lands on the merge; nothing to dispatch.
		e.emitEdge(b.ID, merge)
		return
	}

	e.scope("switch (" + e.expr(term.Selector) + ") {")
	e.push(frame{kind: frameSwitch, header: b.ID, merge: merge})

	for _, g := range orderGroups(groups) {
		for _, label := range g.labels {
			e.sink.EmitLine(label)
		}
		e.sink.BeginScope("{")
		e.emitEdge(b.ID, g.target)
		stop := merge
		if g.fallsTo != 0 {
			stop = g.fallsTo
		}
		terminated := e.emitRange(g.target, stop)
		if !terminated && g.fallsTo == 0 {
			e.stmt("break;")
		}
		e.sink.EndScope("}")
	}

	f := e.pop()
	e.sink.EndScope("}")

	for _, flag := range f.needs {
		e.scope("if (" + flag + ") {")
		e.stmt("break;")
		e.sink.EndScope("}")
	}
}

// switchGroups collapses case labels by target and finds fall-through
// edges between arms. Arms landing directly on the merge are dropped;
// the default arm is kept only when it has a body.
func (e *funcEmitter) switchGroups(b *ir.Block, term ir.SwitchTerm) []caseGroup {
	order := make([]ir.BlockID, 0, len(term.Cases)+1)
	byTarget := make(map[ir.BlockID]*caseGroup)

	add := func(target ir.BlockID, label string) {
		if target == b.Merge {
			return
		}
		g, ok := byTarget[target]
		if !ok {
			g = &caseGroup{target: target}
			byTarget[target] = g
			order = append(order, target)
		}
		g.labels = append(g.labels, label)
	}

	for _, c := range term.Cases {
		add(c.Target, "case "+strconv.FormatInt(c.Value, 10)+":")
	}
	if term.Default != 0 {
		add(term.Default, "default:")
	}

	out := make([]caseGroup, 0, len(order))
	for _, target := range order {
		g := byTarget[target]
		g.fallsTo = e.fallTarget(g.target, b.Merge, byTarget)
		out = append(out, *g)
	}
	return out
}

// fallTarget walks an arm's body and returns the head of another arm it
// branches into, zero when the body only exits to the merge.
func (e *funcEmitter) fallTarget(head, merge ir.BlockID, heads map[ir.BlockID]*caseGroup) ir.BlockID {
	seen := map[ir.BlockID]struct{}{merge: {}}
	queue := []ir.BlockID{head}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if _, done := seen[id]; done {
			continue
		}
		seen[id] = struct{}{}

		blk := e.reg.Block(id)
		if blk == nil {
			continue
		}
		for _, succ := range ir.Successors(blk.Terminator) {
			if succ != head {
				if _, isHead := heads[succ]; isHead {
					return succ
				}
			}
			if _, done := seen[succ]; !done {
				queue = append(queue, succ)
			}
		}
	}
	return 0
}

// orderGroups arranges arms so every group immediately precedes the one
// it falls through into, keeping declaration order between independent
// chains.
func orderGroups(groups []caseGroup) []caseGroup {
	index := make(map[ir.BlockID]int, len(groups))
	fallenInto := make(map[ir.BlockID]bool)
	for i, g := range groups {
		index[g.target] = i
	}
	for _, g := range groups {
		if g.fallsTo != 0 {
			if _, known := index[g.fallsTo]; known {
				fallenInto[g.fallsTo] = true
			}
		}
	}

	out := make([]caseGroup, 0, len(groups))
	emitted := make(map[ir.BlockID]bool, len(groups))
	for _, g := range groups {
		if fallenInto[g.target] || emitted[g.target] {
			continue
		}
		// Follow the fall-through chain from each chain head.
		cur := g
		for {
			out = append(out, cur)
			emitted[cur.target] = true
			nextIdx, ok := index[cur.fallsTo]
			if cur.fallsTo == 0 || !ok || emitted[cur.fallsTo] {
				break
			}
			cur = groups[nextIdx]
		}
	}
	// Cycles between arms cannot all be chained; emit leftovers in
	// declaration order with explicit breaks.
	for _, g := range groups {
		if !emitted[g.target] {
			g.fallsTo = 0
			out = append(out, g)
			emitted[g.target] = true
		}
	}
	return out
}
