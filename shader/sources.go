package shader

import (
	"embed"
	"io/fs"
	"path"
	"strings"
)

//go:embed glsl/*
var builtinSources embed.FS

// StageFor derives the stage from a source name's extension.
func StageFor(name string) (Stage, bool) {
	switch path.Ext(name) {
	case ".vert":
		return Vertex, true
	case ".frag":
		return Fragment, true
	}
	return 0, false
}

// BuiltinSources lists the names of the embedded GLSL sources.
func BuiltinSources() []string {
	entries, err := fs.ReadDir(builtinSources, "glsl")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			names = append(names, e.Name())
		}
	}
	return names
}

func builtinSource(name string) ([]byte, bool) {
	src, err := builtinSources.ReadFile(path.Join("glsl", name))
	return src, err == nil
}
