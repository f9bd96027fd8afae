package editor

import (
	"errors"
	"strings"
	"testing"

	"github.com/Joseda-hg/lazytodo/internal/model"
)

func TestRenderNewDraft(t *testing.T) {
	content, err := Render(model.Draft{}, nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.HasPrefix(content, `title = ""`) {
		t.Fatalf("expected empty title line, got %q", content)
	}
	if strings.Contains(content, "# todo") {
		t.Fatalf("new draft should not carry todo info: %q", content)
	}
	if !strings.Contains(content, "---") {
		t.Fatalf("expected separator in %q", content)
	}
}

func TestRenderExistingTodo(t *testing.T) {
	todo := model.Todo{ID: 12, Title: `Say "hi"`, Description: "line one\nline two"}
	content, err := Render(model.DraftFromTodo(todo), &todo)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(content, "# todo 12, created N/A, updated N/A") {
		t.Fatalf("expected todo info, got %q", content)
	}

	draft, err := Parse(content)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if draft.Title != `Say "hi"` || draft.Description != "line one\nline two" {
		t.Fatalf("unexpected round trip %+v", draft)
	}
}

func TestParseTrims(t *testing.T) {
	draft, err := Parse("\ntitle = \"  Buy milk \"\n---\n\n  two litres \n\n")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if draft.Title != "Buy milk" || draft.Description != "two litres" {
		t.Fatalf("unexpected draft %+v", draft)
	}
}

func TestParseEmptyTitleAborts(t *testing.T) {
	_, err := Parse("title = \"\"\n---\nsomething\n")
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
}

func TestParseBadTOML(t *testing.T) {
	if _, err := Parse("title = \n---\n"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestParseWithoutSeparator(t *testing.T) {
	draft, err := Parse(`title = "only title"`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if draft.Title != "only title" || draft.Description != "" {
		t.Fatalf("unexpected draft %+v", draft)
	}
}
