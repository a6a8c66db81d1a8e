// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package scandeps

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/kilnbuild/kiln/o11y/clog"
)

// CPPScan scans C preprocessor directives for #include in buf.
// It returns include paths with delimiters, e.g. `"foo.h"` or `<foo.h>`.
func CPPScan(ctx context.Context, fname string, buf []byte) []string {
	started := time.Now()
	var includes []string
	for len(buf) > 0 {
		// start of line
		buf = bytes.TrimSpace(buf)
		if len(buf) == 0 {
			break
		}
		var line []byte
		i := bytes.IndexByte(buf, '\n')
		if i < 0 {
			line = buf
			buf = nil
		} else {
			line = buf[:i]
			buf = buf[i+1:]
		}
		if line[0] != '#' {
			// not directive line
			continue
		}
		// skip #
		line = bytes.TrimSpace(line[1:])
		switch {
		case bytes.HasPrefix(line, []byte("include_next")):
			line = bytes.TrimPrefix(line, []byte("include_next"))
		case bytes.HasPrefix(line, []byte("include")):
			line = bytes.TrimPrefix(line, []byte("include"))
		case bytes.HasPrefix(line, []byte("import")):
			line = bytes.TrimPrefix(line, []byte("import"))
		default:
			// ignore other directives
			continue
		}
		if len(line) == 0 {
			continue
		}
		switch line[0] {
		case ' ', '\t', '"', '<':
		default:
			// e.g. #includefoo or #imported
			continue
		}
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			// no path for #include?
			continue
		}
		includes = addInclude(ctx, includes, line)
	}
	if dur := time.Since(started); dur > time.Second {
		clog.Infof(ctx, "slow cppScan %s %s", fname, dur)
	}
	return includes
}

func addInclude(ctx context.Context, paths []string, incpath []byte) []string {
	var delim byte
	switch incpath[0] {
	case '"':
		delim = '"'
	case '<':
		delim = '>'
	default:
		// macro include, e.g. #include FOO_H. not expanded.
		clog.Debugf(ctx, "skip macro include %q", incpath)
		return paths
	}
	i := bytes.IndexByte(incpath[1:], delim)
	if i < 0 {
		// unclosed path?
		clog.Debugf(ctx, "unclosed path? %q", incpath)
		return paths
	}
	incpath = incpath[:i+2] // include delim both side.
	if len(incpath) == 2 {
		return paths
	}
	return append(paths, strings.Clone(string(incpath)))
}

// includeName strips delimiters of an include path returned by CPPScan.
func includeName(inc string) string {
	if len(inc) < 2 {
		return inc
	}
	return inc[1 : len(inc)-1]
}
