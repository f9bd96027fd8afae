package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/Joseda-hg/lazytodo/internal/api"
	"github.com/Joseda-hg/lazytodo/internal/editor"
	"github.com/Joseda-hg/lazytodo/internal/listview"
	"github.com/Joseda-hg/lazytodo/internal/modal"
	"github.com/Joseda-hg/lazytodo/internal/model"
	"github.com/Joseda-hg/lazytodo/internal/theme"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "Print one page of your todos",
	Long: `Print one page of your todos.

The list is fetched once and filtered, sorted and paginated locally, the
same way the full-screen view does it. With --remote the backend does the
sorting and paging instead.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

var (
	listQuery    string
	listPage     int
	listPageSize int
	listSort     string
	listRemote   bool
)

var addCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Add a todo",
	Long: `Add a todo.

Without a title, opens $EDITOR on a TOML draft when running interactively.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAdd,
}

var (
	addTitle       string
	addDescription string
	addEdit        bool
)

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit a todo's title or description",
	Long: `Edit a todo's title or description.

Without --title or --description, opens $EDITOR on a TOML draft when running
interactively.`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

var (
	editTitle       string
	editDescription string
)

var rmCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"delete"},
	Short:   "Remove a todo",
	Args:    cobra.ExactArgs(1),
	RunE:    runRemove,
}

var rmYes bool

var toggleCmd = &cobra.Command{
	Use:   "toggle <id>",
	Short: "Mark a todo completed or incomplete",
	Args:  cobra.ExactArgs(1),
	RunE:  runToggle,
}

func init() {
	rootCmd.AddCommand(listCmd, addCmd, editCmd, rmCmd, toggleCmd)

	listCmd.Flags().StringVarP(&listQuery, "query", "q", "", "Only todos whose title contains this text")
	listCmd.Flags().IntVar(&listPage, "page", 1, "Page number")
	listCmd.Flags().IntVar(&listPageSize, "page-size", 0, "Todos per page (10, 25, 50 or 100)")
	listCmd.Flags().StringVar(&listSort, "sort", "", "Sort order (desc, asc or completed)")
	listCmd.Flags().BoolVar(&listRemote, "remote", false, "Let the backend sort and paginate")

	addCmd.Flags().StringVar(&addTitle, "title", "", "Title")
	addCmd.Flags().StringVarP(&addDescription, "description", "d", "", "Description")
	addCmd.Flags().BoolVarP(&addEdit, "edit", "e", false, "Open $EDITOR even when a title is given")

	editCmd.Flags().StringVar(&editTitle, "title", "", "New title")
	editCmd.Flags().StringVarP(&editDescription, "description", "d", "", "New description")

	rmCmd.Flags().BoolVarP(&rmYes, "yes", "y", false, "Do not ask for confirmation")
}

// listState merges the list flags over the configured defaults.
func listState(cmd *cobra.Command, defaults model.ViewState) (model.ViewState, error) {
	state := defaults
	state.Query = listQuery
	state.Page = listPage
	if cmd.Flags().Changed("page-size") {
		if !model.ValidPageSize(listPageSize) {
			return state, fmt.Errorf("invalid page size %d (want 10, 25, 50 or 100)", listPageSize)
		}
		state.PageSize = listPageSize
	}
	if cmd.Flags().Changed("sort") {
		order, err := model.ParseSortOrder(listSort)
		if err != nil {
			return state, err
		}
		state.Sort = order
	}
	return state, nil
}

func runList(cmd *cobra.Command, args []string) error {
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
	state, err := listState(cmd, a.cfg.ViewState())
	if err != nil {
		return err
	}
	dark, err := theme.Load(ctx, a.storage)
	if err != nil {
		return err
	}
	styles := theme.NewStyles(dark)

	if listRemote {
		if state.Query != "" {
			return errors.New("--query cannot be combined with --remote")
		}
		page, err := a.client.ListTodos(ctx, auth, api.PageQuery{Page: state.Page, PageSize: state.PageSize, Sort: state.Sort})
		if err != nil {
			return userError(err)
		}
		renderList(cmd.OutOrStdout(), styles, remoteResult(page), state, time.Now())
		return nil
	}

	ws := a.newWorkspace(auth)
	if err := ws.engine.Refresh(ctx); err != nil {
		return userError(err)
	}
	result := ws.engine.SetState(state)
	renderList(cmd.OutOrStdout(), styles, result, state, time.Now())
	return nil
}

// remoteResult adapts the backend's pagination meta to a derived page.
func remoteResult(page api.TodoPage) listview.Result {
	p := page.Pagination
	return listview.Result{
		Items:      page.Todos,
		Total:      p.Total,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: p.PageCount,
		HasPrev:    p.Page > 1,
		HasNext:    p.Page < p.PageCount,
	}
}

func renderList(w io.Writer, styles theme.Styles, result listview.Result, state model.ViewState, now time.Time) {
	header := fmt.Sprintf("Todos (%s, %d per page)", state.Sort.Label(), result.PageSize)
	if state.Query != "" {
		header += fmt.Sprintf(" matching %q", state.Query)
	}
	fmt.Fprintln(w, styles.Title.Render(header))

	if len(result.Items) == 0 {
		if result.Total == 0 && state.Query == "" && state.Sort != model.SortCompleted {
			fmt.Fprintln(w, styles.Muted.Render("No todos yet!"))
		} else {
			fmt.Fprintln(w, styles.Muted.Render("No todos match the current filters."))
		}
		return
	}

	idWidth := 0
	for _, todo := range result.Items {
		if n := len(strconv.FormatInt(todo.ID, 10)); n > idWidth {
			idWidth = n
		}
	}

	for _, todo := range result.Items {
		mark := "[ ]"
		title := styles.Row.Render(todo.Title)
		if todo.Completed {
			mark = "[x]"
			title = styles.Done.Render(todo.Title)
		}
		age := "unknown"
		if todo.CreatedAt != nil && !todo.CreatedAt.IsZero() {
			age = humanize.RelTime(*todo.CreatedAt, now, "ago", "from now")
		}
		id := styles.Accent.Render(fmt.Sprintf("%*d", idWidth, todo.ID))
		fmt.Fprintf(w, "%s %s %s  %s\n", id, mark, title, styles.Muted.Render("created "+age))
	}

	footer := []string{
		styles.PageBadge.Render(fmt.Sprintf("Page %d/%d", result.Page, max(result.TotalPages, 1))),
		styles.Muted.Render(fmt.Sprintf("Showing %d to %d of %s records", result.Start(), result.End(), humanize.Comma(int64(result.Total)))),
	}
	fmt.Fprintln(w, lipgloss.JoinHorizontal(lipgloss.Top, footer[0], " ", footer[1]))
}

// chooseDraft decides between the flags and $EDITOR.
func chooseDraft(draft model.Draft, source *model.Todo, forceEditor, haveFlags bool) (model.Draft, error) {
	if forceEditor || (!haveFlags && editor.IsInteractive()) {
		return editor.EditDraft(draft, source)
	}
	return draft, nil
}

func runAdd(cmd *cobra.Command, args []string) error {
	draft := model.Draft{Title: addTitle, Description: addDescription}
	if len(args) > 0 && draft.Title == "" {
		draft.Title = args[0]
	}
	draft, err := chooseDraft(draft, nil, addEdit, draft.Title != "")
	if errors.Is(err, editor.ErrAborted) {
		printf(cmd, "Aborted: empty title\n")
		return nil
	}
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
	ws := a.newWorkspace(auth)
	return submitDialog(cmd, ws, modal.KindAdd, nil, &draft)
}

func runEdit(cmd *cobra.Command, args []string) error {
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
	ws := a.newWorkspace(auth)
	todo, err := findTodo(cmd, ws, id)
	if err != nil {
		return err
	}

	draft := model.DraftFromTodo(todo)
	haveFlags := cmd.Flags().Changed("title") || cmd.Flags().Changed("description")
	if cmd.Flags().Changed("title") {
		draft.Title = editTitle
	}
	if cmd.Flags().Changed("description") {
		draft.Description = editDescription
	}
	draft, err = chooseDraft(draft, &todo, false, haveFlags)
	if errors.Is(err, editor.ErrAborted) {
		printf(cmd, "Aborted: empty title\n")
		return nil
	}
	if err != nil {
		return err
	}
	if !haveFlags && draft == model.DraftFromTodo(todo) {
		printf(cmd, "Nothing to change\n")
		return nil
	}
	return submitDialog(cmd, ws, modal.KindEdit, &todo, &draft)
}

func runRemove(cmd *cobra.Command, args []string) error {
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
	ws := a.newWorkspace(auth)
	todo, err := findTodo(cmd, ws, id)
	if err != nil {
		return err
	}

	if !rmYes {
		p := newPrompter(cmd)
		fmt.Fprintf(p.out, "%s\n%q\n%s\n", modal.KindDelete.Title(), todo.Title, modal.DeleteWarning)
		answer, err := p.value("", "Delete? [y/N]")
		if err != nil {
			return err
		}
		if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
			printf(cmd, "Cancelled\n")
			return nil
		}
	}
	return submitDialog(cmd, ws, modal.KindDelete, &todo, nil)
}

func runToggle(cmd *cobra.Command, args []string) error {
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
	ws := a.newWorkspace(auth)
	if _, err := findTodo(cmd, ws, id); err != nil {
		return err
	}
	if err := ws.engine.Toggle(ctx, id); err != nil {
		return userError(err)
	}
	printNotices(cmd, ws)
	return nil
}

// findTodo loads the list and looks id up in it.
func findTodo(cmd *cobra.Command, ws *workspace, id int64) (model.Todo, error) {
	if err := ws.engine.Refresh(commandContext(cmd)); err != nil {
		return model.Todo{}, userError(err)
	}
	todo, ok := ws.engine.Find(id)
	if !ok {
		return model.Todo{}, fmt.Errorf("todo %d not found", id)
	}
	return todo, nil
}

// submitDialog drives one modal the way the list screen does: open, fill,
// submit.
func submitDialog(cmd *cobra.Command, ws *workspace, kind modal.Kind, target *model.Todo, draft *model.Draft) error {
	controller := ws.modals.Get(kind)
	if err := controller.Open(target); err != nil {
		return err
	}
	if draft != nil {
		controller.SetDraft(*draft)
	}
	if err := controller.Submit(commandContext(cmd)); err != nil {
		return userError(err)
	}
	printNotices(cmd, ws)
	return nil
}

func printNotices(cmd *cobra.Command, ws *workspace) {
	toasts := ws.notices.Active(time.Now())
	for i := len(toasts) - 1; i >= 0; i-- {
		printf(cmd, "%s\n", toasts[i].Message)
	}
}
