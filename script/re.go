package script

import (
	"fmt"
	"regexp"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
)

// reModule builds the `re` utility binding: the subset of Python-style
// regular expression helpers routines actually use for redaction and
// extraction. Patterns are RE2; backreferences in sub replacements
// accept the Python \1 and \g<name> forms.
func reModule() *starlarkstruct.Module {
	return &starlarkstruct.Module{
		Name: "re",
		Members: starlark.StringDict{
			"search":  starlark.NewBuiltin("re.search", reSearch),
			"match":   starlark.NewBuiltin("re.match", reMatch),
			"findall": starlark.NewBuiltin("re.findall", reFindall),
			"sub":     starlark.NewBuiltin("re.sub", reSub),
			"split":   starlark.NewBuiltin("re.split", reSplit),
			"compile": starlark.NewBuiltin("re.compile", reCompile),
		},
	}
}

func reSearch(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var pattern, s string
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 2, &pattern, &s); err != nil {
		return nil, err
	}
	re, err := compilePattern(pattern, false)
	if err != nil {
		return nil, err
	}
	return searchIn(re, s), nil
}

func reMatch(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var pattern, s string
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 2, &pattern, &s); err != nil {
		return nil, err
	}
	re, err := compilePattern(pattern, true)
	if err != nil {
		return nil, err
	}
	return searchIn(re, s), nil
}

func reFindall(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var pattern, s string
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 2, &pattern, &s); err != nil {
		return nil, err
	}
	re, err := compilePattern(pattern, false)
	if err != nil {
		return nil, err
	}
	return findallIn(re, s), nil
}

func reSub(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var pattern, repl, s string
	count := 0
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 3, &pattern, &repl, &s, &count); err != nil {
		return nil, err
	}
	re, err := compilePattern(pattern, false)
	if err != nil {
		return nil, err
	}
	return starlark.String(subIn(re, repl, s, count)), nil
}

func reSplit(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var pattern, s string
	maxsplit := 0
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 2, &pattern, &s, &maxsplit); err != nil {
		return nil, err
	}
	re, err := compilePattern(pattern, false)
	if err != nil {
		return nil, err
	}
	return splitIn(re, s, maxsplit), nil
}

func reCompile(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var source string
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &source); err != nil {
		return nil, err
	}
	re, err := compilePattern(source, false)
	if err != nil {
		return nil, err
	}
	anchored, err := compilePattern(source, true)
	if err != nil {
		return nil, err
	}
	return &pattern{source: source, re: re, anchored: anchored}, nil
}

// compilePattern compiles an RE2 pattern, anchored at the start of the
// input for match-style calls.
func compilePattern(source string, anchored bool) (*regexp.Regexp, error) {
	expr := source
	if anchored {
		expr = `\A(?:` + source + `)`
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("re: invalid pattern %q: %v", source, err)
	}
	return re, nil
}

func searchIn(re *regexp.Regexp, s string) starlark.Value {
	loc := re.FindStringSubmatchIndex(s)
	if loc == nil {
		return starlark.None
	}
	return &match{input: s, loc: loc}
}

func findallIn(re *regexp.Regexp, s string) starlark.Value {
	matches := re.FindAllStringSubmatch(s, -1)
	groups := re.NumSubexp()
	items := make([]starlark.Value, 0, len(matches))
	for _, m := range matches {
		switch {
		case groups == 0:
			items = append(items, starlark.String(m[0]))
		case groups == 1:
			items = append(items, starlark.String(m[1]))
		default:
			tuple := make(starlark.Tuple, groups)
			for i := 1; i <= groups; i++ {
				tuple[i-1] = starlark.String(m[i])
			}
			items = append(items, tuple)
		}
	}
	return starlark.NewList(items)
}

func subIn(re *regexp.Regexp, repl, s string, count int) string {
	limit := count
	if limit <= 0 {
		limit = -1
	}
	template := pyReplacement(repl)
	locs := re.FindAllStringSubmatchIndex(s, limit)
	var out []byte
	last := 0
	for _, loc := range locs {
		out = append(out, s[last:loc[0]]...)
		out = re.ExpandString(out, template, s, loc)
		last = loc[1]
	}
	out = append(out, s[last:]...)
	return string(out)
}

func splitIn(re *regexp.Regexp, s string, maxsplit int) starlark.Value {
	n := -1
	if maxsplit > 0 {
		n = maxsplit + 1
	}
	parts := re.Split(s, n)
	items := make([]starlark.Value, len(parts))
	for i, part := range parts {
		items[i] = starlark.String(part)
	}
	return starlark.NewList(items)
}

// pyReplacement rewrites Python replacement syntax (\1, \g<name>) into
// Go template syntax (${1}, ${name}), escaping any literal $.
func pyReplacement(repl string) string {
	var b strings.Builder
	for i := 0; i < len(repl); i++ {
		c := repl[i]
		if c == '$' {
			b.WriteString("$$")
			continue
		}
		if c != '\\' || i+1 >= len(repl) {
			b.WriteByte(c)
			continue
		}
		next := repl[i+1]
		switch {
		case next >= '0' && next <= '9':
			j := i + 1
			for j < len(repl) && repl[j] >= '0' && repl[j] <= '9' {
				j++
			}
			b.WriteString("${")
			b.WriteString(repl[i+1 : j])
			b.WriteString("}")
			i = j - 1
		case next == 'g' && i+3 < len(repl) && repl[i+2] == '<':
			end := strings.IndexByte(repl[i+3:], '>')
			if end < 0 {
				b.WriteByte(c)
				continue
			}
			b.WriteString("${")
			b.WriteString(repl[i+3 : i+3+end])
			b.WriteString("}")
			i = i + 3 + end
		case next == '\\':
			b.WriteByte('\\')
			i++
		default:
			b.WriteByte(next)
			i++
		}
	}
	return b.String()
}

// pattern is the object returned by re.compile.
type pattern struct {
	source   string
	re       *regexp.Regexp
	anchored *regexp.Regexp
}

func (p *pattern) String() string        { return fmt.Sprintf("re.compile(%q)", p.source) }
func (p *pattern) Type() string          { return "re.pattern" }
func (p *pattern) Freeze()               {}
func (p *pattern) Truth() starlark.Bool  { return starlark.True }
func (p *pattern) Hash() (uint32, error) { return starlark.String(p.source).Hash() }

func (p *pattern) AttrNames() []string {
	return []string{"findall", "match", "pattern", "search", "split", "sub"}
}

func (p *pattern) Attr(name string) (starlark.Value, error) {
	switch name {
	case "pattern":
		return starlark.String(p.source), nil
	case "search":
		return p.method(name, func(b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var s string
			if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &s); err != nil {
				return nil, err
			}
			return searchIn(p.re, s), nil
		}), nil
	case "match":
		return p.method(name, func(b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var s string
			if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &s); err != nil {
				return nil, err
			}
			return searchIn(p.anchored, s), nil
		}), nil
	case "findall":
		return p.method(name, func(b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var s string
			if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &s); err != nil {
				return nil, err
			}
			return findallIn(p.re, s), nil
		}), nil
	case "sub":
		return p.method(name, func(b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var repl, s string
			count := 0
			if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 2, &repl, &s, &count); err != nil {
				return nil, err
			}
			return starlark.String(subIn(p.re, repl, s, count)), nil
		}), nil
	case "split":
		return p.method(name, func(b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var s string
			maxsplit := 0
			if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &s, &maxsplit); err != nil {
				return nil, err
			}
			return splitIn(p.re, s, maxsplit), nil
		}), nil
	}
	return nil, nil
}

func (p *pattern) method(name string, impl func(*starlark.Builtin, starlark.Tuple, []starlark.Tuple) (starlark.Value, error)) *starlark.Builtin {
	return starlark.NewBuiltin("re.pattern."+name, func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		return impl(b, args, kwargs)
	})
}

// match is the object returned by successful search and match calls.
// loc holds submatch index pairs; a negative pair start means the
// group did not participate.
type match struct {
	input string
	loc   []int
}

func (m *match) String() string {
	return fmt.Sprintf("<re.match span=(%d, %d) match=%q>", m.loc[0], m.loc[1], m.input[m.loc[0]:m.loc[1]])
}
func (m *match) Type() string          { return "re.match" }
func (m *match) Freeze()               {}
func (m *match) Truth() starlark.Bool  { return starlark.True }
func (m *match) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: re.match") }

func (m *match) AttrNames() []string {
	return []string{"end", "group", "groups", "start"}
}

func (m *match) Attr(name string) (starlark.Value, error) {
	switch name {
	case "group":
		return starlark.NewBuiltin("re.match.group", func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			n := 0
			if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0, &n); err != nil {
				return nil, err
			}
			return m.group(n)
		}), nil
	case "groups":
		return starlark.NewBuiltin("re.match.groups", func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0); err != nil {
				return nil, err
			}
			groups := make(starlark.Tuple, 0, len(m.loc)/2-1)
			for i := 1; i < len(m.loc)/2; i++ {
				g, err := m.group(i)
				if err != nil {
					return nil, err
				}
				groups = append(groups, g)
			}
			return groups, nil
		}), nil
	case "start":
		return m.boundary("re.match.start", 0), nil
	case "end":
		return m.boundary("re.match.end", 1), nil
	}
	return nil, nil
}

func (m *match) group(n int) (starlark.Value, error) {
	if n < 0 || n >= len(m.loc)/2 {
		return nil, fmt.Errorf("re: no such group %d", n)
	}
	start, end := m.loc[2*n], m.loc[2*n+1]
	if start < 0 {
		return starlark.None, nil
	}
	return starlark.String(m.input[start:end]), nil
}

func (m *match) boundary(name string, offset int) *starlark.Builtin {
	return starlark.NewBuiltin(name, func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		n := 0
		if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0, &n); err != nil {
			return nil, err
		}
		if n < 0 || n >= len(m.loc)/2 {
			return nil, fmt.Errorf("re: no such group %d", n)
		}
		return starlark.MakeInt(m.loc[2*n+offset]), nil
	})
}
