// Package editor lets the command line edit a todo draft in $EDITOR.
package editor

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"text/template"

	"github.com/BurntSushi/toml"
	"github.com/Joseda-hg/lazytodo/internal/model"
	"golang.org/x/term"
)

var ErrAborted = errors.New("edit aborted: title left empty")

// IsInteractive reports whether stdin is a terminal.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

type draftData struct {
	Title       string
	Description string
	ID          int64
	Created     string
	Updated     string
}

var draftTemplate = template.Must(template.New("draft").Parse(`title = {{ printf "%q" .Title }}
{{- if .ID }}
# todo {{ .ID }}, created {{ .Created }}, updated {{ .Updated }}
{{- end }}
---
{{ .Description }}
`))

// Render writes the draft as a TOML header followed by the description.
func Render(draft model.Draft, source *model.Todo) (string, error) {
	data := draftData{Title: draft.Title, Description: draft.Description}
	if source != nil {
		data.ID = source.ID
		data.Created = model.FormatTimestamp(source.CreatedAt)
		data.Updated = model.FormatTimestamp(source.UpdatedAt)
	}
	var buf bytes.Buffer
	if err := draftTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render draft: %w", err)
	}
	return buf.String(), nil
}

type header struct {
	Title string `toml:"title"`
}

// Parse reads content produced by Render after the user edited it.
func Parse(content string) (model.Draft, error) {
	frontmatter, body := splitFrontmatter(content)

	var h header
	if _, err := toml.Decode(frontmatter, &h); err != nil {
		return model.Draft{}, fmt.Errorf("parse draft: %w", err)
	}
	draft := model.Draft{
		Title:       h.Title,
		Description: strings.TrimSpace(body),
	}.Trimmed()
	if draft.Title == "" {
		return model.Draft{}, ErrAborted
	}
	return draft, nil
}

func splitFrontmatter(content string) (string, string) {
	content = strings.TrimLeft(content, "\n")
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) == "---" {
			return strings.Join(lines[:i], "\n"), strings.Join(lines[i+1:], "\n")
		}
	}
	return content, ""
}

// Run opens path in $EDITOR, falling back to vi, and waits for it to exit.
func Run(path string) error {
	name := os.Getenv("EDITOR")
	if name == "" {
		name = "vi"
	}

	cmd := exec.Command(name, path)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("editor exited with status %d", exitErr.ExitCode())
		}
		return fmt.Errorf("run editor: %w", err)
	}
	return nil
}

// EditDraft renders draft into a temp file, opens the editor and parses the
// result. source is shown as context when editing an existing todo.
func EditDraft(draft model.Draft, source *model.Todo) (model.Draft, error) {
	content, err := Render(draft, source)
	if err != nil {
		return model.Draft{}, err
	}

	file, err := os.CreateTemp("", "lazytodo-*.toml")
	if err != nil {
		return model.Draft{}, fmt.Errorf("create temp file: %w", err)
	}
	path := file.Name()
	defer os.Remove(path)

	if _, err := file.WriteString(content); err != nil {
		file.Close()
		return model.Draft{}, fmt.Errorf("write temp file: %w", err)
	}
	if err := file.Close(); err != nil {
		return model.Draft{}, fmt.Errorf("close temp file: %w", err)
	}

	if err := Run(path); err != nil {
		return model.Draft{}, err
	}

	edited, err := os.ReadFile(path)
	if err != nil {
		return model.Draft{}, fmt.Errorf("read edited file: %w", err)
	}
	return Parse(string(edited))
}
