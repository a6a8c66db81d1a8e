// Copyright 2025 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package prototypes

import "bytes"

// tokenize splits C/C++ source into lightweight tokens.
// Comments and preprocessor lines are dropped.
// String and character literals are kept as single tokens.
func tokenize(buf []byte) []string {
	var toks []string
	lineStart := true
	for i := 0; i < len(buf); {
		ch := buf[i]
		switch {
		case ch == '\n':
			lineStart = true
			i++
			continue
		case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\f' || ch == '\v':
			i++
			continue
		case ch == '#' && lineStart:
			i = skipDirective(buf, i)
			continue
		case ch == '/' && i+1 < len(buf) && buf[i+1] == '/':
			j := bytes.IndexByte(buf[i:], '\n')
			if j < 0 {
				return toks
			}
			i += j
			continue
		case ch == '/' && i+1 < len(buf) && buf[i+1] == '*':
			j := bytes.Index(buf[i+2:], []byte("*/"))
			if j < 0 {
				return toks
			}
			// a block comment doesn't end a line for directive detection.
			i += 2 + j + 2
			continue
		}
		lineStart = false
		switch {
		case isIdentStart(ch):
			j := i + 1
			for j < len(buf) && isIdentChar(buf[j]) {
				j++
			}
			toks = append(toks, string(buf[i:j]))
			i = j
		case ch >= '0' && ch <= '9':
			j := i + 1
			for j < len(buf) && (isIdentChar(buf[j]) || buf[j] == '.') {
				j++
			}
			toks = append(toks, string(buf[i:j]))
			i = j
		case ch == '"' || ch == '\'':
			j := skipLiteral(buf, i)
			toks = append(toks, string(buf[i:j]))
			i = j
		case ch == ':' && i+1 < len(buf) && buf[i+1] == ':':
			toks = append(toks, "::")
			i += 2
		case ch == '.' && bytes.HasPrefix(buf[i:], []byte("...")):
			toks = append(toks, "...")
			i += 3
		case ch == '-' && i+1 < len(buf) && buf[i+1] == '>':
			toks = append(toks, "->")
			i += 2
		default:
			toks = append(toks, string(ch))
			i++
		}
	}
	return toks
}

// skipDirective returns the index of the newline that ends the
// preprocessor directive starting at i, following backslash continuations.
func skipDirective(buf []byte, i int) int {
	for i < len(buf) {
		j := bytes.IndexByte(buf[i:], '\n')
		if j < 0 {
			return len(buf)
		}
		end := i + j
		line := bytes.TrimRight(buf[i:end], " \t\r")
		if !bytes.HasSuffix(line, []byte(`\`)) {
			return end
		}
		i = end + 1
	}
	return i
}

func skipLiteral(buf []byte, i int) int {
	quote := buf[i]
	j := i + 1
	for j < len(buf) {
		switch buf[j] {
		case '\\':
			j += 2
			continue
		case quote:
			return j + 1
		case '\n':
			// unterminated literal.
			return j
		}
		j++
	}
	return len(buf)
}

func isIdentStart(ch byte) bool {
	return ch == '_' || ch == '$' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentChar(ch byte) bool {
	return isIdentStart(ch) || (ch >= '0' && ch <= '9')
}

func isIdent(tok string) bool {
	return tok != "" && isIdentStart(tok[0])
}
