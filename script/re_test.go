package script

import (
	"testing"

	"go.starlark.net/starlark"
)

// evalRe evaluates a Starlark expression with the re module bound.
func evalRe(t *testing.T, expr string) starlark.Value {
	t.Helper()
	eng := Default()
	thread := &starlark.Thread{Name: "test"}
	v, err := starlark.EvalOptions(eng.fileOpts, thread, "expr.star", expr, eng.predeclared)
	if err != nil {
		t.Fatalf("eval %q: %v", expr, err)
	}
	return v
}

func TestReSearch(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want string
	}{
		{
			name: "group extraction",
			expr: `re.search(r'([\w.$]+(?:Exception|Error))', "blah android.content.res.Resources$NotFoundException end").group(1)`,
			want: `"android.content.res.Resources$NotFoundException"`,
		},
		{
			name: "whole match via group zero",
			expr: `re.search(r'\d+', "abc 123 def").group(0)`,
			want: `"123"`,
		},
		{
			name: "default group is zero",
			expr: `re.search(r'\d+', "abc 123 def").group()`,
			want: `"123"`,
		},
		{
			name: "no match yields None",
			expr: `re.search(r'\d+', "abc")`,
			want: `None`,
		},
		{
			name: "groups tuple",
			expr: `re.search(r'(\w+)=(\w+)', "key=value").groups()`,
			want: `("key", "value")`,
		},
		{
			name: "unmatched optional group is None",
			expr: `re.search(r'(a)(b)?', "a").groups()`,
			want: `("a", None)`,
		},
		{
			name: "start and end",
			expr: `[re.search(r'\d+', "ab 12").start(), re.search(r'\d+', "ab 12").end()]`,
			want: `[3, 5]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := evalRe(t, tt.expr)
			if got.String() != tt.want {
				t.Errorf("%s = %s, want %s", tt.expr, got, tt.want)
			}
		})
	}
}

func TestReMatchAnchorsAtStart(t *testing.T) {
	if v := evalRe(t, `re.match(r'\d+', "abc 123")`); v != starlark.None {
		t.Errorf("match on non-prefix = %s, want None", v)
	}
	if v := evalRe(t, `re.match(r'\d+', "123 abc").group(0)`); v.String() != `"123"` {
		t.Errorf("match on prefix = %s", v)
	}
}

func TestReFindall(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{`re.findall(r'\d+', "1 22 333")`, `["1", "22", "333"]`},
		{`re.findall(r'(\w)=(\w)', "a=1 b=2")`, `[("a", "1"), ("b", "2")]`},
		{`re.findall(r'x(\d)', "x1 x2")`, `["1", "2"]`},
		{`re.findall(r'\d+', "none here")`, `[]`},
	}
	for _, tt := range tests {
		if got := evalRe(t, tt.expr); got.String() != tt.want {
			t.Errorf("%s = %s, want %s", tt.expr, got, tt.want)
		}
	}
}

func TestReSub(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want string
	}{
		{
			name: "plain replacement",
			expr: `re.sub(r'\d+', "N", "a1 b22")`,
			want: `"aN bN"`,
		},
		{
			name: "python backreference",
			expr: `re.sub(r'(\w+)@(\w+)', "\\2 at \\1", "user@host")`,
			want: `"host at user"`,
		},
		{
			name: "named backreference",
			expr: `re.sub(r'(?P<word>\w+)', "[\\g<word>]", "hi")`,
			want: `"[hi]"`,
		},
		{
			name: "count limits replacements",
			expr: `re.sub(r'\d', "N", "1 2 3", 2)`,
			want: `"N N 3"`,
		},
		{
			name: "dollar is literal",
			expr: `re.sub(r'x', "$5", "x")`,
			want: `"$5"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := evalRe(t, tt.expr); got.String() != tt.want {
				t.Errorf("%s = %s, want %s", tt.expr, got, tt.want)
			}
		})
	}
}

func TestReSplit(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{`re.split(r',\s*', "a, b,c")`, `["a", "b", "c"]`},
		{`re.split(r',', "a,b,c", 1)`, `["a", "b,c"]`},
	}
	for _, tt := range tests {
		if got := evalRe(t, tt.expr); got.String() != tt.want {
			t.Errorf("%s = %s, want %s", tt.expr, got, tt.want)
		}
	}
}

func TestReCompile(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{`re.compile(r'\d+').search("ab 12").group(0)`, `"12"`},
		{`re.compile(r'\d+').match("ab 12")`, `None`},
		{`re.compile(r'\d+').findall("1 2")`, `["1", "2"]`},
		{`re.compile(r'\s+').sub("-", "a b  c")`, `"a-b-c"`},
		{`re.compile(r',').split("a,b")`, `["a", "b"]`},
		{`re.compile(r'x').pattern`, `"x"`},
	}
	for _, tt := range tests {
		if got := evalRe(t, tt.expr); got.String() != tt.want {
			t.Errorf("%s = %s, want %s", tt.expr, got, tt.want)
		}
	}
}

func TestReInvalidPattern(t *testing.T) {
	eng := Default()
	thread := &starlark.Thread{Name: "test"}
	_, err := starlark.EvalOptions(eng.fileOpts, thread, "expr.star", `re.search("(", "x")`, eng.predeclared)
	if err == nil {
		t.Fatal("invalid pattern did not raise")
	}
}
