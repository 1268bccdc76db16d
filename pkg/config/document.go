package config

import (
	"path/filepath"

	"github.com/tidwall/gjson"

	"github.com/fonline/fodev/internal/errx"
)

// Entry is a named, typed location shown in the content or resource browser.
// Path is always absolute and OS-native.
type Entry struct {
	Label string
	Path  string
	Type  string
}

// ActionEntry is an action exactly as a document declares it. Env is nil when
// the document omits the "env" list.
type ActionEntry struct {
	Label   string
	Group   string
	Command string
	Env     []string
	Source  string
}

// Complete reports whether every field an action needs is present.
func (a ActionEntry) Complete() bool {
	return a.Label != "" && a.Group != "" && a.Command != "" && a.Env != nil
}

// Document is one parsed fonline*.json file.
type Document struct {
	Path      string
	Content   []Entry
	Resources []Entry
	Actions   []ActionEntry
}

// ParseDocument parses data read from path. Relative entry paths are resolved
// against the directory of path, which must be absolute.
func ParseDocument(path string, data []byte) (*Document, error) {
	if !gjson.ValidBytes(data) {
		return nil, errx.With(ErrMalformedConfig, ": %s", path)
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, errx.With(ErrMalformedConfig, ": %s: top level is not an object", path)
	}

	dir := filepath.Dir(path)
	doc := &Document{
		Path:      path,
		Content:   parseEntries(root.Get("content"), dir),
		Resources: parseEntries(root.Get("resources"), dir),
	}
	for _, a := range root.Get("actions").Array() {
		if !a.IsObject() {
			continue
		}
		doc.Actions = append(doc.Actions, ActionEntry{
			Label:   a.Get("label").String(),
			Group:   a.Get("group").String(),
			Command: a.Get("command").String(),
			Env:     parseEnv(a.Get("env")),
			Source:  path,
		})
	}
	return doc, nil
}

func parseEntries(list gjson.Result, dir string) []Entry {
	var entries []Entry
	for _, e := range list.Array() {
		if !e.IsObject() {
			continue
		}
		entries = append(entries, Entry{
			Label: e.Get("label").String(),
			Path:  resolvePath(dir, e.Get("path").String()),
			Type:  e.Get("type").String(),
		})
	}
	return entries
}

func parseEnv(v gjson.Result) []string {
	switch {
	case !v.Exists() || v.Type == gjson.Null:
		return nil
	case v.IsArray():
		env := []string{}
		for _, tag := range v.Array() {
			if s := tag.String(); s != "" {
				env = append(env, s)
			}
		}
		return env
	default:
		return []string{v.String()}
	}
}

func resolvePath(base, p string) string {
	p = filepath.FromSlash(p)
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(base, p)
}
