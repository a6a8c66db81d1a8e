// Copyright 2025 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package scandeps

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
)

// topLevelFunctions matches function definitions directly under the
// translation unit, e.g. `int main(void) { ... }`.
const topLevelFunctions = `
(translation_unit
  (function_definition
    declarator: (function_declarator
      declarator: (identifier) @name)))
`

type grammar struct {
	lang  *sitter.Language
	query *sitter.Query
}

var (
	cGrammar   = sync.OnceValues(func() (*grammar, error) { return newGrammar(c.GetLanguage()) })
	cppGrammar = sync.OnceValues(func() (*grammar, error) { return newGrammar(cpp.GetLanguage()) })
)

func newGrammar(lang *sitter.Language) (*grammar, error) {
	q, err := sitter.NewQuery([]byte(topLevelFunctions), lang)
	if err != nil {
		return nil, fmt.Errorf("failed to compile query: %w", err)
	}
	return &grammar{lang: lang, query: q}, nil
}

func grammarFor(fname string) (*grammar, error) {
	if filepath.Ext(fname) == ".c" {
		return cGrammar()
	}
	return cppGrammar()
}

// declaresMain reports whether the translation unit defines a top-level
// main function.
func declaresMain(ctx context.Context, fname string, buf []byte) (bool, error) {
	g, err := grammarFor(fname)
	if err != nil {
		return false, err
	}
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(g.lang)
	tree, err := parser.ParseCtx(ctx, nil, buf)
	if err != nil {
		return false, fmt.Errorf("failed to parse %s: %w", fname, err)
	}
	defer tree.Close()

	cursor := sitter.NewQueryCursor()
	defer cursor.Close()
	cursor.Exec(g.query, tree.RootNode())
	for {
		match, ok := cursor.NextMatch()
		if !ok {
			return false, nil
		}
		for _, capture := range match.Captures {
			if capture.Node.Content(buf) == "main" {
				return true, nil
			}
		}
	}
}
