// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package shutil provides POSIX shell quoting for command lines.
package shutil

import (
	"fmt"
	"strings"
)

// Split splits a command line, such as flags in a config file or
// pkg-config output, into args.
// It handles single quotes, double quotes and backslash escapes, and
// returns error for shell metachars outside of quotes.
func Split(cmdline string) ([]string, error) {
	var args []string
	var sb strings.Builder
	inArg := false
	escaped := false
	var quote rune
	for _, ch := range cmdline {
		switch {
		case escaped:
			sb.WriteRune(ch)
			escaped = false
			continue
		case quote == '\'':
			if ch == '\'' {
				quote = 0
				continue
			}
			sb.WriteRune(ch)
			continue
		case quote == '"':
			switch ch {
			case '"':
				quote = 0
			case '\\':
				escaped = true
			default:
				sb.WriteRune(ch)
			}
			continue
		}
		switch ch {
		case ' ', '\t', '\n', '\r':
			if inArg {
				args = append(args, sb.String())
				sb.Reset()
				inArg = false
			}
			continue
		case '\\':
			escaped = true
		case '\'', '"':
			quote = ch
		case ';', '&', '|', '<', '>', '$', '`':
			return nil, fmt.Errorf("failed to split: cmdline contains shell metachar %c", ch)
		default:
			sb.WriteRune(ch)
		}
		inArg = true
	}
	if escaped {
		return nil, fmt.Errorf("failed to split: trailing backslash in %q", cmdline)
	}
	if quote != 0 {
		return nil, fmt.Errorf("failed to split: unterminated %c in %q", quote, cmdline)
	}
	if inArg {
		args = append(args, sb.String())
	}
	return args, nil
}
