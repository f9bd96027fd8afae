package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/Joseda-hg/lazytodo/internal/api"
	"github.com/Joseda-hg/lazytodo/internal/model"
	"github.com/Joseda-hg/lazytodo/internal/theme"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/spf13/cobra"
)

const markdownWidth = 80

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one todo with its description rendered as markdown",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

// renderers is keyed by wrap width; building a glamour renderer is slow.
var renderers, _ = lru.New[int, *glamour.TermRenderer](4)

func markdownRenderer(width int) *glamour.TermRenderer {
	if cached, ok := renderers.Get(width); ok {
		return cached
	}
	style := styles.ASCIIStyleConfig
	style.Item.BlockPrefix = "- "
	created, err := glamour.NewTermRenderer(
		glamour.WithStyles(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	renderers.Add(width, created)
	return created
}

func renderMarkdown(value string, width int) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	renderer := markdownRenderer(width)
	if renderer == nil {
		return value
	}
	formatted, err := renderer.Render(value)
	if err != nil {
		return value
	}
	return strings.TrimRight(formatted, "\n")
}

func renderTodo(w io.Writer, styles theme.Styles, todo model.Todo) {
	status := "open"
	title := styles.Title.Render(todo.Title)
	if todo.Completed {
		status = "completed"
		title = styles.Done.Render(todo.Title)
	}
	fmt.Fprintf(w, "%s %s\n", styles.Accent.Render(fmt.Sprintf("#%d", todo.ID)), title)
	fmt.Fprintln(w, styles.Muted.Render("Status:     "+status))
	fmt.Fprintln(w, styles.Muted.Render("Created at: "+model.FormatTimestamp(todo.CreatedAt)))
	fmt.Fprintln(w, styles.Muted.Render("Updated at: "+model.FormatTimestamp(todo.UpdatedAt)))

	description := renderMarkdown(todo.Description, markdownWidth)
	if description == "" {
		description = styles.Muted.Render("No description")
	}
	fmt.Fprintf(w, "\n%s\n", description)
}

func runShow(cmd *cobra.Command, args []string) error {
	id, err := api.ParseID(args[0])
	if err != nil {
		return err
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := commandContext(cmd)
	auth, err := a.requireAuth(ctx)
	if err != nil {
		return err
	}
	dark, err := theme.Load(ctx, a.storage)
	if err != nil {
		return err
	}

	ws := a.newWorkspace(auth)
	todo, err := findTodo(cmd, ws, id)
	if err != nil {
		return err
	}
	renderTodo(cmd.OutOrStdout(), theme.NewStyles(dark), todo)
	return nil
}
