// Copyright 2025 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package scandeps

import (
	"bytes"
	"context"
	"strings"

	"github.com/kilnbuild/kiln/o11y/clog"
)

const (
	binMarker    = "//@bin"
	libMarker    = "//@lib"
	importMarker = "//@import"
)

type annotation struct {
	role    Role
	name    string
	imports []string
}

// scanAnnotations scans link annotations in a translation unit.
// The first role marker wins, and only the first import list is used.
func scanAnnotations(ctx context.Context, fname string, buf []byte) annotation {
	var a annotation
	seenImport := false
	for len(buf) > 0 {
		var line []byte
		i := bytes.IndexByte(buf, '\n')
		if i < 0 {
			line, buf = buf, nil
		} else {
			line, buf = buf[:i], buf[i+1:]
		}
		line = bytes.TrimSpace(line)
		if !bytes.HasPrefix(line, []byte("//@")) {
			continue
		}
		s := string(line)
		switch {
		case hasMarker(s, importMarker):
			if seenImport {
				clog.Warningf(ctx, "%s: ignore extra import list %q", fname, s)
				continue
			}
			seenImport = true
			for _, lib := range strings.Split(markerArg(s, importMarker), ",") {
				lib = strings.TrimSpace(lib)
				if lib != "" {
					a.imports = append(a.imports, lib)
				}
			}
		case hasMarker(s, binMarker), hasMarker(s, libMarker):
			role, marker := RoleBinary, binMarker
			if hasMarker(s, libMarker) {
				role, marker = RoleLibrary, libMarker
			}
			if a.role != RoleNone {
				clog.Warningf(ctx, "%s: ignore extra role marker %q", fname, s)
				continue
			}
			a.role = role
			a.name = markerArg(s, marker)
		}
	}
	return a
}

// hasMarker reports whether line starts with marker as a whole word.
func hasMarker(line, marker string) bool {
	if !strings.HasPrefix(line, marker) {
		return false
	}
	rest := line[len(marker):]
	return rest == "" || rest[0] == ' ' || rest[0] == '\t'
}

func markerArg(line, marker string) string {
	return strings.TrimSpace(strings.TrimPrefix(line, marker))
}
