// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package buildconfig provides the project config for `kiln build`.
package buildconfig

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/kilnbuild/kiln/digest"
	"github.com/kilnbuild/kiln/o11y/clog"
	"github.com/kilnbuild/kiln/toolsupport/gccutil"
	"github.com/kilnbuild/kiln/toolsupport/shutil"
)

// Filenames are config filenames looked up in a project directory, in order.
var Filenames = []string{"kiln.toml", "kiln.yaml", "kiln.yml"}

// Default profile names.
const (
	Debug   = "debug"
	Release = "release"
)

var profileName = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Config is a project config.
type Config struct {
	Package      Package               `toml:"package" yaml:"package"`
	Profiles     map[string]Profile    `toml:"profile" yaml:"profile"`
	Libraries    map[string]Library    `toml:"libraries" yaml:"libraries"`
	Dependencies map[string]Dependency `toml:"dependencies" yaml:"dependencies"`

	// Overlays applied when the host matches the key.
	OS      map[string]Overlay `toml:"os" yaml:"os"`
	Arch    map[string]Overlay `toml:"arch" yaml:"arch"`
	Feature map[string]Overlay `toml:"feature" yaml:"feature"`

	// Path is the absolute path of the config file.
	Path string `toml:"-" yaml:"-"`
	// Dir is the absolute project directory.
	Dir string `toml:"-" yaml:"-"`
	// Digest identifies the config content, including environment
	// variables that affect command lines.
	Digest digest.Digest `toml:"-" yaml:"-"`
}

// Package is the package section of a config.
type Package struct {
	Name string `toml:"name" yaml:"name"`

	CC     string `toml:"cc" yaml:"cc"`
	CXX    string `toml:"cxx" yaml:"cxx"`
	Std    string `toml:"std" yaml:"std"`
	CXXStd string `toml:"cxx_std" yaml:"cxx_std"`

	// Sources are directories scanned for source files.
	Sources []string `toml:"sources" yaml:"sources"`
	// Includes are include search directories.
	Includes []string `toml:"includes" yaml:"includes"`

	Binaries string `toml:"binaries" yaml:"binaries"`
	Objects  string `toml:"objects" yaml:"objects"`
}

// Profile is a set of compile and link flags.
type Profile struct {
	CFlags  []string `toml:"cflags" yaml:"cflags"`
	LDFlags []string `toml:"ldflags" yaml:"ldflags"`
}

// Library is an external library that link roots may import by name.
type Library struct {
	Libs     []string `toml:"libs" yaml:"libs"`
	Dirs     []string `toml:"dirs" yaml:"dirs"`
	Includes []string `toml:"includes" yaml:"includes"`
	// PkgConfig maps pkg-config package names to version constraints,
	// e.g. ">=2.0", "=1.2.3", "1.0..2.0" or "".
	PkgConfig map[string]string `toml:"pkg_config" yaml:"pkg_config"`
}

// Dependency is a child project built before this project.
type Dependency struct {
	Path string `toml:"path" yaml:"path"`
}

// Overlay overrides package settings for a host.
// Scalar fields replace, list fields append.
type Overlay struct {
	CC        string             `toml:"cc" yaml:"cc"`
	CXX       string             `toml:"cxx" yaml:"cxx"`
	Binaries  string             `toml:"binaries" yaml:"binaries"`
	Objects   string             `toml:"objects" yaml:"objects"`
	Sources   []string           `toml:"sources" yaml:"sources"`
	Includes  []string           `toml:"includes" yaml:"includes"`
	CFlags    []string           `toml:"cflags" yaml:"cflags"`
	LDFlags   []string           `toml:"ldflags" yaml:"ldflags"`
	Libraries map[string]Library `toml:"libraries" yaml:"libraries"`
}

// Find returns the config file in dir.
func Find(dir string) (string, error) {
	for _, name := range Filenames {
		fname := filepath.Join(dir, name)
		if _, err := os.Stat(fname); err == nil {
			return fname, nil
		}
	}
	return "", fmt.Errorf("no config file (%s) in %s: %w", strings.Join(Filenames, ", "), dir, os.ErrNotExist)
}

// Load loads the config file fname for the host caps.
func Load(ctx context.Context, fname string, caps Capabilities) (*Config, error) {
	fname, err := filepath.Abs(fname)
	if err != nil {
		return nil, err
	}
	buf, err := os.ReadFile(fname)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", fname, err)
	}
	expanded := os.ExpandEnv(string(buf))
	c := &Config{}
	switch filepath.Ext(fname) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal([]byte(expanded), c)
	default:
		_, err = toml.Decode(expanded, c)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", fname, err)
	}
	c.Path = fname
	c.Dir = filepath.Dir(fname)

	c.setDefaults()
	c.applyOverlays(caps)
	c.expandTemplates(caps)
	err = c.Validate()
	if err != nil {
		return nil, fmt.Errorf("config validation failed %s: %w", fname, err)
	}
	err = c.applyEnvFlags()
	if err != nil {
		return nil, err
	}
	for _, name := range slices.Sorted(maps.Keys(c.Libraries)) {
		lib := c.Libraries[name]
		err := lib.resolvePkgConfig(ctx)
		if err != nil {
			clog.Warningf(ctx, "library %s: %v", name, err)
		}
		c.Libraries[name] = lib
	}

	var b bytes.Buffer
	b.WriteString(expanded)
	for _, name := range slices.Sorted(maps.Keys(c.Profiles)) {
		p := c.Profiles[name]
		fmt.Fprintf(&b, "\x00%s\x00%q\x00%q", name, p.CFlags, p.LDFlags)
	}
	c.Digest = digest.FromBytes(b.Bytes())
	clog.Infof(ctx, "config %s package=%q digest=%s", fname, c.Package.Name, c.Digest.Short())
	return c, nil
}

func (c *Config) setDefaults() {
	p := &c.Package
	if p.Name == "" {
		p.Name = filepath.Base(c.Dir)
	}
	if p.CC == "" {
		p.CC = "gcc"
	}
	if p.CXX == "" {
		p.CXX = "g++"
	}
	if p.Sources == nil {
		p.Sources = []string{"src"}
	}
	if p.Includes == nil {
		p.Includes = []string{"include"}
	}
	if p.Binaries == "" {
		p.Binaries = "bin"
	}
	if p.Objects == "" {
		p.Objects = "obj"
	}
	if c.Profiles == nil {
		c.Profiles = make(map[string]Profile)
	}
	if _, ok := c.Profiles[Debug]; !ok {
		c.Profiles[Debug] = Profile{CFlags: []string{"-O0", "-g", "-Wall"}}
	}
	if _, ok := c.Profiles[Release]; !ok {
		c.Profiles[Release] = Profile{CFlags: []string{"-O2"}, LDFlags: []string{"-s"}}
	}
	if c.Libraries == nil {
		c.Libraries = make(map[string]Library)
	}
}

// applyOverlays applies arch, feature and then os overlays.
func (c *Config) applyOverlays(caps Capabilities) {
	var overlays []Overlay
	for _, name := range slices.Sorted(maps.Keys(c.Arch)) {
		if caps.MatchArch(name) {
			overlays = append(overlays, c.Arch[name])
		}
	}
	for _, name := range slices.Sorted(maps.Keys(c.Feature)) {
		if caps.HasFeature(name) {
			overlays = append(overlays, c.Feature[name])
		}
	}
	for _, name := range slices.Sorted(maps.Keys(c.OS)) {
		if caps.MatchOS(name) {
			overlays = append(overlays, c.OS[name])
		}
	}
	p := &c.Package
	for _, o := range overlays {
		if o.CC != "" {
			p.CC = o.CC
		}
		if o.CXX != "" {
			p.CXX = o.CXX
		}
		if o.Binaries != "" {
			p.Binaries = o.Binaries
		}
		if o.Objects != "" {
			p.Objects = o.Objects
		}
		p.Sources = append(p.Sources, o.Sources...)
		p.Includes = append(p.Includes, o.Includes...)
		for name, prof := range c.Profiles {
			prof.CFlags = append(slices.Clone(prof.CFlags), o.CFlags...)
			prof.LDFlags = append(slices.Clone(prof.LDFlags), o.LDFlags...)
			c.Profiles[name] = prof
		}
		maps.Copy(c.Libraries, o.Libraries)
	}
}

func (c *Config) expandTemplates(caps Capabilities) {
	r := strings.NewReplacer(
		"{{os}}", caps.OS, "{{ os }}", caps.OS,
		"{{arch}}", caps.Arch, "{{ arch }}", caps.Arch,
		"{{family}}", caps.Family, "{{ family }}", caps.Family,
	)
	expand := func(paths []string) {
		for i := range paths {
			paths[i] = r.Replace(paths[i])
		}
	}
	p := &c.Package
	expand(p.Sources)
	expand(p.Includes)
	p.Binaries = r.Replace(p.Binaries)
	p.Objects = r.Replace(p.Objects)
	for name, lib := range c.Libraries {
		expand(lib.Dirs)
		expand(lib.Includes)
		c.Libraries[name] = lib
	}
}

// applyEnvFlags appends $CFLAGS and $LDFLAGS to every profile.
func (c *Config) applyEnvFlags() error {
	cflags, err := shutil.Split(os.Getenv("CFLAGS"))
	if err != nil {
		return fmt.Errorf("bad $CFLAGS: %w", err)
	}
	ldflags, err := shutil.Split(os.Getenv("LDFLAGS"))
	if err != nil {
		return fmt.Errorf("bad $LDFLAGS: %w", err)
	}
	if len(cflags) == 0 && len(ldflags) == 0 {
		return nil
	}
	for name, p := range c.Profiles {
		p.CFlags = append(slices.Clone(p.CFlags), cflags...)
		p.LDFlags = append(slices.Clone(p.LDFlags), ldflags...)
		c.Profiles[name] = p
	}
	return nil
}

// Validate validates the config.
func (c *Config) Validate() error {
	err := validation.ValidateStruct(&c.Package,
		validation.Field(&c.Package.Name, validation.Required),
		validation.Field(&c.Package.CC, validation.Required),
		validation.Field(&c.Package.CXX, validation.Required),
		validation.Field(&c.Package.Sources, validation.Required, validation.Each(validation.Required)),
		validation.Field(&c.Package.Includes, validation.Each(validation.Required)),
		validation.Field(&c.Package.Binaries, validation.Required),
		validation.Field(&c.Package.Objects, validation.Required),
	)
	if err != nil {
		return fmt.Errorf("package: %w", err)
	}
	for name := range c.Profiles {
		err := validation.Validate(name, validation.Match(profileName))
		if err != nil {
			return fmt.Errorf("profile %q: %w", name, err)
		}
	}
	for name, dep := range c.Dependencies {
		err := validation.ValidateStruct(&dep,
			validation.Field(&dep.Path, validation.Required),
		)
		if err != nil {
			return fmt.Errorf("dependencies.%s: %w", name, err)
		}
	}
	for name, lib := range c.Libraries {
		err := validation.ValidateStruct(&lib,
			validation.Field(&lib.Libs, validation.Each(validation.Required)),
			validation.Field(&lib.Dirs, validation.Each(validation.Required)),
			validation.Field(&lib.Includes, validation.Each(validation.Required)),
		)
		if err != nil {
			return fmt.Errorf("libraries.%s: %w", name, err)
		}
	}
	return nil
}

// Profile returns the named profile.
func (c *Config) Profile(name string) (Profile, error) {
	p, ok := c.Profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("unknown profile %q", name)
	}
	return p, nil
}

// Compiler returns the compiler for a source file.
func (c *Config) Compiler(fname string) string {
	if gccutil.IsCXX(fname) {
		return c.Package.CXX
	}
	return c.Package.CC
}

// Std returns the language standard for a source file.
func (c *Config) Std(fname string) string {
	if gccutil.IsCXX(fname) {
		return c.Package.CXXStd
	}
	return c.Package.Std
}

func (c *Config) abs(fname string) string {
	if filepath.IsAbs(fname) {
		return filepath.Clean(fname)
	}
	return filepath.Join(c.Dir, fname)
}

func (c *Config) absAll(fnames []string) []string {
	var dirs []string
	for _, fname := range fnames {
		dirs = append(dirs, c.abs(fname))
	}
	return dirs
}

// SourceDirs returns absolute source directories.
func (c *Config) SourceDirs() []string {
	return c.absAll(c.Package.Sources)
}

// PackageIncludeDirs returns absolute include directories of the package.
func (c *Config) PackageIncludeDirs() []string {
	return c.absAll(c.Package.Includes)
}

// IncludeDirs returns absolute include directories of the package
// and its libraries, in search order.
func (c *Config) IncludeDirs() []string {
	dirs := c.PackageIncludeDirs()
	for _, name := range slices.Sorted(maps.Keys(c.Libraries)) {
		dirs = append(dirs, c.absAll(c.Libraries[name].Includes)...)
	}
	return dirs
}

// BinariesDir returns the absolute output directory for a profile.
func (c *Config) BinariesDir(profile string) string {
	return filepath.Join(c.abs(c.Package.Binaries), profile)
}

// ObjectsDir returns the absolute object directory for a profile.
func (c *Config) ObjectsDir(profile string) string {
	return filepath.Join(c.abs(c.Package.Objects), profile)
}

// DependencyDir returns the absolute directory of a dependency.
func (c *Config) DependencyDir(name string) string {
	return c.abs(c.Dependencies[name].Path)
}

// LinkLibrary returns link arguments for the named library.
func (c *Config) LinkLibrary(name string) (gccutil.Library, bool) {
	lib, ok := c.Libraries[name]
	if !ok {
		return gccutil.Library{}, false
	}
	return gccutil.Library{
		Libs: lib.Libs,
		Dirs: c.absAll(lib.Dirs),
	}, true
}
