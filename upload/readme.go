package upload

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"
	"time"
)

//go:embed templates/*
var templateFiles embed.FS

const (
	readmeTemplate = "README.md.tmpl"
	ReadmePath     = "README.md"
	ReadmeMessage  = "Add auto-generated README.md"
)

var readmeNames = map[string]struct{}{
	"readme":     {},
	"readme.md":  {},
	"readme.txt": {},
}

// ReadmeData is the input of the generated README
type ReadmeData struct {
	ProjectName string
	Description string
	Topics      []string
	Owner       string
	Date        string
}

func parseReadmeTemplate() (*template.Template, error) {
	content, err := fs.ReadFile(templateFiles, "templates/"+readmeTemplate)
	if err != nil {
		return nil, err
	}
	return template.New(readmeTemplate).Parse(string(content))
}

var readme = template.Must(parseReadmeTemplate())

// HasReadme reports whether any top level path is a README
func HasReadme(paths []string) bool {
	for _, p := range paths {
		if _, ok := readmeNames[strings.ToLower(p)]; ok {
			return true
		}
	}
	return false
}

// RenderReadme renders the README committed when the archive has none
func RenderReadme(data ReadmeData, now time.Time) ([]byte, error) {
	if data.Owner == "" {
		data.Owner = "[username]"
	}
	data.Date = now.Format("2006-01-02")
	var buf bytes.Buffer
	if err := readme.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("[RenderReadme] %w", err)
	}
	return buf.Bytes(), nil
}
