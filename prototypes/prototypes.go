// Copyright 2025 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package prototypes extracts normalized declaration signatures from
// C/C++ sources.
//
// It is a token-level heuristic, not a parser. A header and a translation
// unit are considered related when their signature sets intersect, which
// approximates "the unit defines or uses a symbol declared in the header".
package prototypes

import (
	"maps"
	"slices"
	"strings"
)

// Signature is a normalized declaration signature.
type Signature struct {
	// Text is the rendered declaration, e.g. "const char *name(int a)".
	Text string
	// Name is the qualified name of the declared symbol, e.g. "ns::X::get".
	Name string
}

// Set is a set of signatures of a file, and the identifiers the file
// refers to. It is immutable once extracted.
type Set struct {
	texts map[string]Signature
	names map[string]bool
	// refs are identifiers appearing anywhere in the file, outside
	// comments, literals and preprocessor lines.
	refs map[string]bool
}

func newSet() *Set {
	return &Set{
		texts: make(map[string]Signature),
		names: make(map[string]bool),
		refs:  make(map[string]bool),
	}
}

func (s *Set) add(sig Signature) {
	s.texts[sig.Text] = sig
	s.names[sig.Name] = true
}

// Len returns the number of distinct signatures.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.texts)
}

// HasName reports whether the set has a signature named name.
func (s *Set) HasName(name string) bool {
	if s == nil {
		return false
	}
	return s.names[name]
}

// Signatures returns signatures sorted by text.
func (s *Set) Signatures() []Signature {
	if s == nil {
		return nil
	}
	var sigs []Signature
	for _, text := range slices.Sorted(maps.Keys(s.texts)) {
		sigs = append(sigs, s.texts[text])
	}
	return sigs
}

// Intersects reports whether s and o share a signature text or a
// qualified name.
// Matching by name links a definition to its declaration even when
// parameter names, default arguments or the return type differ.
func (s *Set) Intersects(o *Set) bool {
	if s.Len() == 0 || o.Len() == 0 {
		return false
	}
	a, b := s, o
	if len(a.texts) > len(b.texts) {
		a, b = b, a
	}
	for text, sig := range a.texts {
		if _, ok := b.texts[text]; ok {
			return true
		}
		if b.names[sig.Name] {
			return true
		}
	}
	return false
}

// References reports whether s refers to a symbol declared in o, by the
// unqualified name of one of o's signatures.
// A unit that includes a header but uses nothing it declares doesn't
// reference it.
func (s *Set) References(o *Set) bool {
	if s == nil || o == nil || len(s.refs) == 0 {
		return false
	}
	for name := range o.names {
		if s.refs[unqualified(name)] {
			return true
		}
	}
	return false
}

// unqualified strips scope qualifiers and a destructor mark from name,
// e.g. "ns::X::~X" to "X".
func unqualified(name string) string {
	if i := strings.LastIndex(name, "::"); i >= 0 {
		name = name[i+len("::"):]
	}
	return strings.TrimPrefix(name, "~")
}

// Extract extracts the signature set of C/C++ source buf.
func Extract(buf []byte) *Set {
	e := &extractor{
		toks: tokenize(buf),
		set:  newSet(),
	}
	for _, tok := range e.toks {
		if isIdent(tok) && !keywords[tok] && !specifiers[tok] {
			e.set.refs[tok] = true
		}
	}
	e.run()
	return e.set
}

type scopeKind int

const (
	scopeNamespace scopeKind = iota
	scopeLinkage
	scopeClass
)

type scope struct {
	kind scopeKind
	name string
}

type extractor struct {
	toks   []string
	scopes []scope
	stmt   []string
	// discard ignores the rest of the current statement.
	discard bool
	set     *Set
}

// specifiers never become part of a signature, so that a declaration
// and its definition render the same.
var specifiers = map[string]bool{
	"extern":        true,
	"inline":        true,
	"static":        true,
	"virtual":       true,
	"explicit":      true,
	"constexpr":     true,
	"consteval":     true,
	"constinit":     true,
	"register":      true,
	"thread_local":  true,
	"_Thread_local": true,
	"_Noreturn":     true,
	"__inline":      true,
	"__inline__":    true,
	"__forceinline": true,
	"__extension__": true,
}

// attributes are followed by a parenthesized group that is skipped.
var attributes = map[string]bool{
	"__attribute__": true,
	"__declspec":    true,
	"alignas":       true,
	"_Alignas":      true,
	"asm":           true,
	"__asm":         true,
	"__asm__":       true,
}

var keywords = map[string]bool{
	"if":       true,
	"else":     true,
	"while":    true,
	"for":      true,
	"do":       true,
	"switch":   true,
	"case":     true,
	"return":   true,
	"sizeof":   true,
	"alignof":  true,
	"_Alignof": true,
	"typeof":   true,
	"decltype": true,
	"noexcept": true,
	"throw":    true,
	"new":      true,
	"delete":   true,
	"void":     true,
	"int":      true,
	"char":     true,
	"long":     true,
	"short":    true,
	"unsigned": true,
	"signed":   true,
	"float":    true,
	"double":   true,
	"bool":     true,
	"const":    true,
	"volatile": true,
	"struct":   true,
	"class":    true,
	"union":    true,
	"enum":     true,
}

func (e *extractor) run() {
	toks := e.toks
	for i := 0; i < len(toks); i++ {
		tok := toks[i]
		switch {
		case tok == "extern" && i+1 < len(toks) && isStringLiteral(toks[i+1]):
			// extern "C" { ... } or extern "C" declaration.
			if i+2 < len(toks) && toks[i+2] == "{" {
				e.scopes = append(e.scopes, scope{kind: scopeLinkage})
				e.reset()
				i += 2
				continue
			}
			i++
			continue
		case specifiers[tok]:
			continue
		case attributes[tok]:
			i = skipGroup(toks, i+1, "(", ")")
			continue
		case tok == "template":
			if i+1 < len(toks) && toks[i+1] == "<" {
				i = skipGroup(toks, i+1, "<", ">")
			}
			continue
		case (tok == "public" || tok == "private" || tok == "protected") && len(e.stmt) == 0:
			if i+1 < len(toks) && toks[i+1] == ":" {
				i++
				continue
			}
		case tok == "[" && i+1 < len(toks) && toks[i+1] == "[":
			// [[attribute]]
			i = skipGroup(toks, i, "[", "]")
			continue
		case tok == ";":
			e.declaration()
			e.reset()
			continue
		case tok == "{":
			i = e.openBrace(i)
			continue
		case tok == "}":
			e.closeBrace()
			continue
		}
		e.stmt = append(e.stmt, tok)
	}
}

func (e *extractor) reset() {
	e.stmt = e.stmt[:0]
	e.discard = false
}

func (e *extractor) inClass() bool {
	return len(e.scopes) > 0 && e.scopes[len(e.scopes)-1].kind == scopeClass
}

// prefix returns qualifier tokens for the current scope, e.g.
// ["ns", "::", "X", "::"].
func (e *extractor) prefix() []string {
	var toks []string
	for _, s := range e.scopes {
		if s.kind == scopeLinkage || s.name == "" {
			continue
		}
		toks = append(toks, s.name, "::")
	}
	return toks
}

func (e *extractor) openBrace(i int) int {
	stmt := e.stmt
	switch {
	case e.discard:
		return skipGroup(e.toks, i, "{", "}")

	case len(stmt) > 0 && stmt[0] == "namespace":
		// namespace a::b { is a nested namespace definition.
		e.scopes = append(e.scopes, scope{kind: scopeNamespace, name: strings.Join(stmt[1:], "")})
		e.reset()
		return i

	case slices.Contains(stmt, "enum"):
		e.discard = true
		return skipGroup(e.toks, i, "{", "}")
	}
	if d, ok := findDeclarator(stmt); ok && !slices.Contains(stmt[:d.nameStart], "=") {
		e.function(stmt, d)
		e.reset()
		return skipGroup(e.toks, i, "{", "}")
	}
	if slices.Contains(stmt, "=") {
		// initializer; the declaration continues up to ';'.
		return skipGroup(e.toks, i, "{", "}")
	}
	if k := classKeyIndex(stmt); k >= 0 {
		e.scopes = append(e.scopes, scope{kind: scopeClass, name: className(stmt[k+1:])})
		e.reset()
		return i
	}
	e.reset()
	e.discard = true
	return skipGroup(e.toks, i, "{", "}")
}

func (e *extractor) closeBrace() {
	if len(e.scopes) == 0 {
		e.reset()
		return
	}
	s := e.scopes[len(e.scopes)-1]
	e.scopes = e.scopes[:len(e.scopes)-1]
	e.reset()
	if s.kind == scopeClass {
		// struct X { ... } x; declares x of an unnamed or local type.
		e.discard = true
	}
}

func (e *extractor) declaration() {
	stmt := e.stmt
	if e.discard || len(stmt) == 0 {
		return
	}
	switch stmt[0] {
	case "typedef", "using", "friend", "return", "namespace", "static_assert", "_Static_assert", "enum", "goto", "break", "continue":
		return
	case "class", "struct", "union":
		if len(stmt) <= 2 {
			// forward declaration.
			return
		}
	}
	if d, ok := findDeclarator(stmt); ok && !slices.Contains(stmt[:d.nameStart], "=") {
		e.function(stmt, d)
		return
	}
	if e.inClass() {
		return
	}
	e.variable(stmt)
}

// declarator locates the name and parameter list of a function declarator
// in a statement.
type declarator struct {
	nameStart int
	// nameEnd is the index of the opening parenthesis of the parameter list.
	nameEnd int
	// close is the index of the closing parenthesis of the parameter list.
	close int
	// name is the name tokens, with an operator name folded into one token.
	name []string
}

func findDeclarator(stmt []string) (declarator, bool) {
	if k := slices.Index(stmt, "operator"); k >= 0 {
		return operatorDeclarator(stmt, k)
	}
	for i := 0; i < len(stmt); i++ {
		if stmt[i] != "(" {
			continue
		}
		if i == 0 {
			return declarator{}, false
		}
		prev := stmt[i-1]
		switch prev {
		case "decltype", "typeof", "__typeof__", "sizeof", "alignof", "_Alignof", "noexcept", "throw":
			i = skipGroup(stmt, i, "(", ")")
			continue
		}
		if !isIdent(prev) || keywords[prev] {
			return declarator{}, false
		}
		if i+1 < len(stmt) && (stmt[i+1] == "*" || stmt[i+1] == "^" || stmt[i+1] == "&") {
			// function pointer variable, e.g. int (*fp)(int).
			return declarator{}, false
		}
		closeParen := skipGroup(stmt, i, "(", ")")
		if closeParen >= len(stmt) {
			return declarator{}, false
		}
		start := qualifiedStart(stmt, i-1)
		return declarator{
			nameStart: start,
			nameEnd:   i,
			close:     closeParen,
			name:      slices.Clone(stmt[start:i]),
		}, true
	}
	return declarator{}, false
}

func operatorDeclarator(stmt []string, k int) (declarator, bool) {
	j := k + 1
	if j+1 < len(stmt) && stmt[j] == "(" && stmt[j+1] == ")" {
		j += 2
	}
	for j < len(stmt) && stmt[j] != "(" {
		j++
	}
	if j >= len(stmt) {
		return declarator{}, false
	}
	closeParen := skipGroup(stmt, j, "(", ")")
	if closeParen >= len(stmt) {
		return declarator{}, false
	}
	start := qualifiedStart(stmt, k)
	name := slices.Clone(stmt[start:k])
	name = append(name, strings.Join(stmt[k:j], ""))
	return declarator{
		nameStart: start,
		nameEnd:   j,
		close:     closeParen,
		name:      name,
	}, true
}

// qualifiedStart walks back from the identifier at i over qualifiers
// such as X:: and ~.
func qualifiedStart(stmt []string, i int) int {
	start := i
	for start > 0 {
		t := stmt[start-1]
		switch {
		case t == "~":
			start--
		case t == "::" && start >= 2 && isIdent(stmt[start-2]):
			start -= 2
		default:
			return start
		}
	}
	return start
}

func (e *extractor) function(stmt []string, d declarator) {
	name := strings.Join(d.name, "")
	if name == "" || keywords[name] {
		return
	}
	prefix := e.prefix()
	var toks []string
	toks = append(toks, stmt[:d.nameStart]...)
	toks = append(toks, prefix...)
	toks = append(toks, d.name...)
	toks = append(toks, stmt[d.nameEnd:d.close+1]...)
	if d.close+1 < len(stmt) && stmt[d.close+1] == "const" {
		toks = append(toks, "const")
	}
	e.set.add(Signature{
		Text: render(toks),
		Name: strings.Join(prefix, "") + name,
	})
}

func (e *extractor) variable(stmt []string) {
	if i := slices.Index(stmt, "="); i >= 0 {
		stmt = stmt[:i]
	}
	if len(stmt) < 2 {
		return
	}
	// function pointer: type (*name)(params)
	for i := 0; i+2 < len(stmt); i++ {
		if stmt[i] == "(" && stmt[i+1] == "*" && isIdent(stmt[i+2]) {
			e.set.add(Signature{
				Text: render(append(slices.Clone(e.prefix()), stmt...)),
				Name: strings.Join(e.prefix(), "") + stmt[i+2],
			})
			return
		}
	}
	if slices.Contains(stmt, "(") {
		return
	}
	for _, decl := range splitDeclarators(stmt) {
		name := lastIdent(decl)
		if name < 0 || keywords[decl[name]] || name == 0 {
			continue
		}
		toks := slices.Clone(decl[:name])
		toks = append(toks, e.prefix()...)
		toks = append(toks, decl[name:]...)
		e.set.add(Signature{
			Text: render(toks),
			Name: strings.Join(e.prefix(), "") + decl[name],
		})
	}
}

// splitDeclarators splits "int *a, b[2]" into "int *a" and "int b[2]".
func splitDeclarators(stmt []string) [][]string {
	var parts [][]string
	depth := 0
	start := 0
	for i, tok := range stmt {
		switch tok {
		case "(", "[", "<":
			depth++
		case ")", "]", ">":
			depth--
		case ",":
			if depth == 0 {
				parts = append(parts, stmt[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, stmt[start:])
	if len(parts) == 1 {
		return parts
	}
	first := parts[0]
	n := lastIdent(first)
	if n <= 0 {
		return parts[:1]
	}
	base := first[:n]
	for len(base) > 0 && (base[len(base)-1] == "*" || base[len(base)-1] == "&") {
		base = base[:len(base)-1]
	}
	decls := [][]string{first}
	for _, p := range parts[1:] {
		decl := slices.Clone(base)
		decls = append(decls, append(decl, p...))
	}
	return decls
}

// lastIdent returns the index of the last identifier outside brackets.
func lastIdent(toks []string) int {
	depth := 0
	for i := len(toks) - 1; i >= 0; i-- {
		switch toks[i] {
		case "]":
			depth++
			continue
		case "[":
			depth--
			continue
		}
		if depth == 0 && isIdent(toks[i]) {
			return i
		}
	}
	return -1
}

// className returns the class name in the tokens following the class key,
// skipping export macros as in "class API_EXPORT Foo : public Bar".
func className(toks []string) string {
	var name string
	for _, tok := range toks {
		if tok == ":" {
			break
		}
		if isIdent(tok) && tok != "final" {
			name = tok
		}
	}
	return name
}

func classKeyIndex(stmt []string) int {
	for i, tok := range stmt {
		switch tok {
		case "class", "struct", "union":
			return i
		}
	}
	return -1
}

// skipGroup returns the index of the token closing the group opened at i.
// It returns i-1 if toks[i] doesn't open a group, and len(toks) if the
// group is not closed.
func skipGroup(toks []string, i int, open, close string) int {
	if i >= len(toks) || toks[i] != open {
		return i - 1
	}
	depth := 0
	for ; i < len(toks); i++ {
		switch toks[i] {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return len(toks)
}

func isStringLiteral(tok string) bool {
	return strings.HasPrefix(tok, `"`)
}

// render joins tokens with single spaces, binding punctuation to its
// neighbours. Pointer and reference marks render as " *" with no space
// before the following token.
func render(toks []string) string {
	var sb strings.Builder
	prev := ""
	for i, tok := range toks {
		if i > 0 && needSpace(prev, tok) {
			sb.WriteByte(' ')
		}
		sb.WriteString(tok)
		prev = tok
	}
	return sb.String()
}

func needSpace(prev, tok string) bool {
	switch tok {
	case "(", ")", ",", "[", "]", "::", "<", ">":
		return false
	}
	switch prev {
	case "(", "[", "::", "~", "<", "*", "&":
		return false
	}
	return true
}
