package cex

// Cex is the tagged union of the three counterexample kinds the batch
// driver produces, per SPEC_FULL §4.E and design note §9 ("avoid deep
// inheritance"). Only Assert, Call, and Return implement it.
type Cex interface {
	// Location is line*1000 + column of the failing site.
	Location() int
	// Clone returns an independent copy.
	Clone() Cex

	sealed()
}

// Trace is the ordered sequence of blocks leading to the failure.
type Trace []Block

// base carries the fields common to every counterexample kind.
type base struct {
	trace     Trace
	model     *Model
	modelView ModelViewInfo
	proverCtx ProverContext
	callees   map[[2]int]Cex
	line, col int
}

func (b base) Location() int { return b.line*1000 + b.col }

func (b base) clone() base {
	calleesCopy := make(map[[2]int]Cex, len(b.callees))
	for k, v := range b.callees {
		calleesCopy[k] = v.Clone()
	}
	return base{
		trace:     append(Trace(nil), b.trace...),
		model:     b.model,
		modelView: b.modelView,
		proverCtx: b.proverCtx,
		callees:   calleesCopy,
		line:      b.line,
		col:       b.col,
	}
}

// AssertCounterexample carries the failing assert command's source text.
type AssertCounterexample struct {
	base
	ErrorData string
}

func (c *AssertCounterexample) sealed() {}

// Clone implements Cex.
func (c *AssertCounterexample) Clone() Cex {
	return &AssertCounterexample{base: c.base.clone(), ErrorData: c.ErrorData}
}

// CallCounterexample carries the failing call site and the requires
// clause it violated.
type CallCounterexample struct {
	base
	FailingCall     string
	FailingRequires string
	Callee          string
}

func (c *CallCounterexample) sealed() {}

// Clone implements Cex.
func (c *CallCounterexample) Clone() Cex {
	return &CallCounterexample{
		base:            c.base.clone(),
		FailingCall:     c.FailingCall,
		FailingRequires: c.FailingRequires,
		Callee:          c.Callee,
	}
}

// ReturnCounterexample carries the failing return and the ensures clause
// it violated.
type ReturnCounterexample struct {
	base
	FailingReturn  string
	FailingEnsures string
}

func (c *ReturnCounterexample) sealed() {}

// Clone implements Cex.
func (c *ReturnCounterexample) Clone() Cex {
	return &ReturnCounterexample{
		base:           c.base.clone(),
		FailingReturn:  c.FailingReturn,
		FailingEnsures: c.FailingEnsures,
	}
}

// New builders take the common fields plus the kind-specific data.

func NewAssert(line, col int, trace Trace, model *Model, errorData string) *AssertCounterexample {
	return &AssertCounterexample{
		base:      base{line: line, col: col, trace: trace, model: model, callees: map[[2]int]Cex{}},
		ErrorData: errorData,
	}
}

func NewCall(line, col int, trace Trace, model *Model, call, requires, callee string) *CallCounterexample {
	return &CallCounterexample{
		base:            base{line: line, col: col, trace: trace, model: model, callees: map[[2]int]Cex{}},
		FailingCall:     call,
		FailingRequires: requires,
		Callee:          callee,
	}
}

func NewReturn(line, col int, trace Trace, model *Model, ret, ensures string) *ReturnCounterexample {
	return &ReturnCounterexample{
		base:           base{line: line, col: col, trace: trace, model: model, callees: map[[2]int]Cex{}},
		FailingReturn:  ret,
		FailingEnsures: ensures,
	}
}

// blockTraceTokens renders the block-trace for comparator purposes: one
// token per block name, in order.
func blockTraceTokens(c Cex) []string {
	var trace Trace
	switch v := c.(type) {
	case *AssertCounterexample:
		trace = v.trace
	case *CallCounterexample:
		trace = v.trace
	case *ReturnCounterexample:
		trace = v.trace
	}
	tokens := make([]string, len(trace))
	for i, b := range trace {
		tokens[i] = b.Name
	}
	return tokens
}
