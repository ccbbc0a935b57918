package ygggo_db

import "strings"

// Invocation is one buffered argument call: a kind from the closed set, an
// optional name, and the raw value. Immutable once created.
type Invocation struct {
	Kind  ArgKind
	Name  string // "" for positional
	Value any
}

// SqlArgs buffers typed argument invocations so one set of arguments can be
// replayed against multiple statement targets. This is the mechanism for
// building dynamic SQL incrementally.
type SqlArgs struct {
	invocations []Invocation
	err         error
}

// Args creates an empty replayable argument buffer.
func Args() *SqlArgs { return &SqlArgs{} }

// Arg buffers a positional argument. The value must belong to the closed
// set of supported kinds; a bad type surfaces when the buffer is applied.
func (a *SqlArgs) Arg(v any) *SqlArgs {
	k, err := kindOf(v)
	if err != nil && a.err == nil {
		a.err = err
	}
	a.invocations = append(a.invocations, Invocation{Kind: k, Value: v})
	return a
}

// Name buffers a named argument. The leading ':' is optional.
func (a *SqlArgs) Name(name string, v any) *SqlArgs {
	k, err := kindOf(v)
	if err != nil && a.err == nil {
		a.err = err
	}
	a.invocations = append(a.invocations, Invocation{Kind: k, Name: cleanArgName(name), Value: v})
	return a
}

// NowPerApp buffers a positional timestamp taken from the session clock.
func (a *SqlArgs) NowPerApp() *SqlArgs {
	a.invocations = append(a.invocations, Invocation{Kind: KindTimeNowPerApp, Value: timeNowPerApp{}})
	return a
}

// NameNowPerApp buffers a named timestamp taken from the session clock.
func (a *SqlArgs) NameNowPerApp(name string) *SqlArgs {
	a.invocations = append(a.invocations, Invocation{Kind: KindTimeNowPerApp, Name: cleanArgName(name), Value: timeNowPerApp{}})
	return a
}

// NowPerDB buffers a positional database-side current-time expression.
func (a *SqlArgs) NowPerDB() *SqlArgs {
	a.invocations = append(a.invocations, Invocation{Kind: KindTimeNowPerDB, Value: timeNowPerDB{}})
	return a
}

// NameNowPerDB buffers a named database-side current-time expression.
func (a *SqlArgs) NameNowPerDB(name string) *SqlArgs {
	a.invocations = append(a.invocations, Invocation{Kind: KindTimeNowPerDB, Name: cleanArgName(name), Value: timeNowPerDB{}})
	return a
}

// Invocations returns a copy of the buffered calls, in order.
func (a *SqlArgs) Invocations() []Invocation {
	out := make([]Invocation, len(a.invocations))
	copy(out, a.invocations)
	return out
}

// argSink is the apply-to-target capability implemented once per statement
// kind. SqlArgs replays its buffered invocations against it.
type argSink interface {
	addPositional(v any)
	addNamed(name string, v any)
	fail(err error)
}

func (a *SqlArgs) applyTo(t argSink) {
	if a == nil {
		return
	}
	if a.err != nil {
		t.fail(a.err)
		return
	}
	for _, inv := range a.invocations {
		if inv.Name == "" {
			t.addPositional(inv.Value)
		} else {
			t.addNamed(inv.Name, inv.Value)
		}
	}
}

// cleanArgName strips the optional leading ':' from a named parameter.
func cleanArgName(name string) string {
	return strings.TrimPrefix(name, ":")
}
