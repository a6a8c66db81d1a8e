// Copyright 2025 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package buildconfig

import (
	"fmt"
	"maps"
	"runtime"
	"slices"
	"strings"

	"github.com/klauspost/cpuid/v2"
)

// Capabilities describes the host used to select config overlays.
type Capabilities struct {
	// OS is GOOS, e.g. "linux".
	OS string
	// Family is "unix" or "windows".
	Family string
	// Arch is GOARCH, e.g. "amd64".
	Arch string
	// Features are lower-cased CPU feature names, e.g. "avx2".
	Features map[string]bool
}

// String returns a one-line summary for logs, with sorted features.
func (c Capabilities) String() string {
	var features []string
	for _, f := range slices.Sorted(maps.Keys(c.Features)) {
		if c.Features[f] {
			features = append(features, f)
		}
	}
	return fmt.Sprintf("os=%s family=%s arch=%s features=%s", c.OS, c.Family, c.Arch, strings.Join(features, ","))
}

// archAliases maps GOARCH to other common names of the arch.
var archAliases = map[string][]string{
	"amd64": {"x86_64"},
	"arm64": {"aarch64"},
	"386":   {"x86", "i386"},
	"arm":   {"armv7"},
}

// featureAliases maps cpuid feature names to names used by compilers.
var featureAliases = map[string]string{
	"sse42": "sse4.2",
	"sse4":  "sse4.1",
	"aesni": "aes",
	"asimd": "neon",
}

// DetectCapabilities detects capabilities of the running host.
func DetectCapabilities() Capabilities {
	features := make(map[string]bool)
	for _, f := range cpuid.CPU.FeatureSet() {
		name := strings.ToLower(f)
		features[name] = true
		if alias, ok := featureAliases[name]; ok {
			features[alias] = true
		}
	}
	return Capabilities{
		OS:       runtime.GOOS,
		Family:   family(runtime.GOOS),
		Arch:     runtime.GOARCH,
		Features: features,
	}
}

func family(goos string) string {
	switch goos {
	case "windows":
		return "windows"
	case "js", "wasip1", "plan9":
		return goos
	}
	return "unix"
}

// MatchOS reports whether name matches the host OS or OS family.
func (c Capabilities) MatchOS(name string) bool {
	name = strings.ToLower(name)
	return name == c.OS || name == c.Family || (name == "macos" && c.OS == "darwin")
}

// MatchArch reports whether name matches the host arch.
func (c Capabilities) MatchArch(name string) bool {
	name = strings.ToLower(name)
	if name == c.Arch {
		return true
	}
	for _, alias := range archAliases[c.Arch] {
		if name == alias {
			return true
		}
	}
	return false
}

// HasFeature reports whether the host CPU has the feature.
func (c Capabilities) HasFeature(name string) bool {
	return c.Features[strings.ToLower(name)]
}
