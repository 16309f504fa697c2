package beforesend

import (
	"context"
	"testing"

	"github.com/hookline/beforesend/event"
)

type fakeEngine struct{ name string }

func (f fakeEngine) Name() string                 { return f.name }
func (f fakeEngine) Validate(string) []Diagnostic { return nil }
func (f fakeEngine) Transform(context.Context, event.Value, string) Outcome {
	return Dropped()
}

func TestRegistry(t *testing.T) {
	Register(fakeEngine{name: "alpha"})
	Register(fakeEngine{name: "beta"})

	if _, ok := Lookup("alpha"); !ok {
		t.Error("alpha not registered")
	}
	if _, ok := Lookup("missing"); ok {
		t.Error("Lookup returned an engine that was never registered")
	}

	names := Names()
	seen := map[string]bool{}
	for _, n := range names {
		seen[n] = true
	}
	if !seen["alpha"] || !seen["beta"] {
		t.Errorf("Names() = %v", names)
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Errorf("Names() not sorted: %v", names)
		}
	}
}

func TestOutcomeConstructors(t *testing.T) {
	ev := event.ObjectValue(event.Member{Key: "a", Value: event.IntValue(1)})

	out := Transformed(ev)
	if out.Kind != OutcomeTransformed || !event.Equal(out.Event, ev) {
		t.Errorf("Transformed = %+v", out)
	}

	if out := Dropped(); out.Kind != OutcomeDropped {
		t.Errorf("Dropped = %+v", out)
	}

	out = LoadFailed(DiagnosticAt(3, 7, "bad token"))
	if out.Kind != OutcomeLoadFailure || out.Diag.Message != "bad token" {
		t.Errorf("LoadFailed = %+v", out)
	}
	if out.Diag.Line == nil || *out.Diag.Line != 3 || out.Diag.Column == nil || *out.Diag.Column != 7 {
		t.Errorf("Diag position = %+v", out.Diag)
	}

	out = InvocationFailed("boom", "trace")
	if out.Kind != OutcomeInvocationFailure || out.Message != "boom" || out.Trace != "trace" {
		t.Errorf("InvocationFailed = %+v", out)
	}
}

func TestDiagnosticAtOmitsZeroPosition(t *testing.T) {
	d := DiagnosticAt(0, 0, "no position")
	if d.Line != nil || d.Column != nil {
		t.Errorf("zero position not omitted: %+v", d)
	}
}

func TestOutcomeKindString(t *testing.T) {
	cases := map[OutcomeKind]string{
		OutcomeTransformed:       "transformed",
		OutcomeDropped:           "dropped",
		OutcomeLoadFailure:       "load_failure",
		OutcomeInvocationFailure: "invocation_failure",
	}
	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", kind, got, want)
		}
	}
}
