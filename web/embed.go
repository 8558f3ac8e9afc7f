// Package web holds the assets compiled into the server binary.
package web

import (
	"embed"
	"io/fs"
)

//go:embed templates
var content embed.FS

// Template returns the source of the named template under templates/.
func Template(name string) (string, error) {
	src, err := fs.ReadFile(content, "templates/"+name)
	if err != nil {
		return "", err
	}
	return string(src), nil
}
