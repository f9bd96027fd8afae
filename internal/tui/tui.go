package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Joseda-hg/lazytodo/internal/listview"
	"github.com/Joseda-hg/lazytodo/internal/logging"
	"github.com/Joseda-hg/lazytodo/internal/modal"
	"github.com/Joseda-hg/lazytodo/internal/model"
	"github.com/Joseda-hg/lazytodo/internal/notify"
	"github.com/Joseda-hg/lazytodo/internal/theme"
	goerrors "github.com/go-errors/errors"
	"github.com/jesseduffield/gocui"
)

const (
	viewHeader  = "header"
	viewList    = "list"
	viewFooter  = "footer"
	viewToast   = "toast"
	viewSearch  = "search"
	viewForm    = "form"
	viewConfirm = "confirm"
	viewHelp    = "help"
)

const toastTick = 500 * time.Millisecond

// Deps is everything the screen works with. Engine and Modals must share the
// same notifier as Notices for toasts to show up.
type Deps struct {
	Engine  *listview.Engine
	Modals  *modal.Set
	Notices *notify.Center
	Storage theme.Storage
	User    model.User
	Dark    bool
	Logger  *logging.Logger
}

type UI struct {
	engine  *listview.Engine
	modals  *modal.Set
	notices *notify.Center
	storage theme.Storage
	logger  *logging.Logger
	user    model.User
	gui     *gocui.Gui
	ctx     context.Context

	palette      theme.Palette
	selected     int
	form         *formState
	formEditor   *formEditor
	searchActive bool
	helpActive   bool
	status       string
	now          func() time.Time
}

func newUI(ctx context.Context, deps Deps) *UI {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	ui := &UI{
		engine:  deps.Engine,
		modals:  deps.Modals,
		notices: deps.Notices,
		storage: deps.Storage,
		logger:  logger,
		user:    deps.User,
		ctx:     ctx,
		palette: theme.NewPalette(deps.Dark),
		now:     time.Now,
	}
	ui.formEditor = &formEditor{ui: ui}
	return ui
}

func Run(ctx context.Context, deps Deps) error {
	gui, err := gocui.NewGui(gocui.NewGuiOpts{OutputMode: gocui.OutputNormal})
	if err != nil {
		return err
	}
	defer gui.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ui := newUI(ctx, deps)
	ui.gui = gui
	gui.Mouse = true

	redraw := func() { gui.Update(func(*gocui.Gui) error { return nil }) }
	ui.engine.OnChange(redraw)
	if ui.notices != nil {
		ui.notices.OnChange(redraw)
		go ui.expireToasts(ctx)
	}

	gui.SetManagerFunc(ui.layout)
	if err := ui.bindKeys(gui); err != nil {
		return err
	}
	ui.run(func() error { return ui.engine.Refresh(ctx) })

	if err := gui.MainLoop(); err != nil && !goerrors.Is(err, gocui.ErrQuit) {
		return err
	}
	return nil
}

// run executes fn off the UI goroutine and redraws when it returns. Without
// a gui (tests) it runs inline.
func (u *UI) run(fn func() error) {
	if u.gui == nil {
		if err := fn(); err != nil {
			u.logger.Debugf("action: %v", err)
		}
		return
	}
	go func() {
		if err := fn(); err != nil {
			u.logger.Debugf("action: %v", err)
		}
		u.gui.Update(func(*gocui.Gui) error { return nil })
	}()
}

func (u *UI) expireToasts(ctx context.Context) {
	ticker := time.NewTicker(toastTick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if u.notices.Prune(now) > 0 {
				u.gui.Update(func(*gocui.Gui) error { return nil })
			}
		}
	}
}

func (u *UI) bindKeys(gui *gocui.Gui) error {
	type binding struct {
		view    string
		key     any
		handler func(*gocui.Gui, *gocui.View) error
	}
	bindings := []binding{
		{"", gocui.KeyCtrlC, u.forceQuit},
		{"", 'q', u.quit},
		{"", 'r', u.reload},
		{"", 'a', u.openAdd},
		{"", 'e', u.openEdit},
		{"", 'd', u.openDelete},
		{"", 'x', u.toggleCompleted},
		{"", gocui.KeySpace, u.toggleCompleted},
		{"", '/', u.startSearch},
		{"", 's', u.cycleSort},
		{"", 'p', u.cyclePageSize},
		{"", 'l', u.nextPage},
		{"", ']', u.nextPage},
		{"", gocui.KeyArrowRight, u.nextPage},
		{"", 'h', u.prevPage},
		{"", '[', u.prevPage},
		{"", gocui.KeyArrowLeft, u.prevPage},
		{"", 't', u.toggleTheme},
		{"", '?', u.toggleHelp},
		{viewList, gocui.KeyArrowDown, u.moveDown},
		{viewList, 'j', u.moveDown},
		{viewList, gocui.KeyArrowUp, u.moveUp},
		{viewList, 'k', u.moveUp},
		{viewList, gocui.KeyEnter, u.openEdit},
		{viewSearch, gocui.KeyEnter, u.submitSearch},
		{viewSearch, gocui.KeyEsc, u.cancelSearch},
		{viewForm, gocui.KeyEnter, u.submitForm},
		{viewForm, gocui.KeyTab, u.nextFormField},
		{viewForm, gocui.KeyBacktab, u.prevFormField},
		{viewForm, gocui.KeyArrowDown, u.nextFormField},
		{viewForm, gocui.KeyArrowUp, u.prevFormField},
		{viewForm, gocui.KeyEsc, u.cancelForm},
		{viewConfirm, 'y', u.confirmDelete},
		{viewConfirm, gocui.KeyEnter, u.confirmDelete},
		{viewConfirm, 'n', u.cancelDelete},
		{viewConfirm, gocui.KeyEsc, u.cancelDelete},
		{viewHelp, gocui.KeyEsc, u.closeHelp},
	}
	for _, b := range bindings {
		if err := gui.SetKeybinding(b.view, b.key, gocui.ModNone, b.handler); err != nil {
			return err
		}
	}
	if err := gui.SetViewClickBinding(&gocui.ViewMouseBinding{ViewName: viewList, Key: gocui.MouseLeft, Handler: func(opts gocui.ViewMouseBindingOpts) error {
		return u.onListClick(gui, opts)
	}}); err != nil {
		return err
	}
	return nil
}

func (u *UI) layout(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	if maxX <= 0 || maxY <= 0 {
		return nil
	}
	gui.FgColor = u.palette.Fg
	gui.BgColor = u.palette.Bg
	gui.SelFrameColor = u.palette.Frame

	result := u.engine.View()
	u.clampSelection(result)

	headerView, err := gui.SetView(viewHeader, 0, 0, maxX-1, 1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	headerView.Frame = false
	headerView.FgColor = u.palette.Accent
	headerView.BgColor = u.palette.Bg
	headerView.Clear()
	fmt.Fprint(headerView, u.headerText())

	footerY1 := maxY - 1
	footerY0 := max(footerY1-3, 2)
	listY1 := footerY0 - 1
	if listY1 <= 2 {
		return nil
	}

	listView, err := gui.SetView(viewList, 0, 2, maxX-1, listY1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		_, _ = gui.SetCurrentView(viewList)
	}
	listView.Title = fmt.Sprintf("Todos (%d)", result.Total)
	u.applyListStyle(listView)
	listView.Clear()
	fmt.Fprint(listView, strings.Join(u.listLines(result, maxX-2), "\n"))
	if len(result.Items) > 0 {
		listView.SetCursor(0, u.selected)
	}

	footerView, err := gui.SetView(viewFooter, 0, footerY0, maxX-1, footerY1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	footerView.Frame = false
	footerView.FgColor = u.palette.Fg | gocui.AttrDim
	footerView.BgColor = u.palette.Bg
	footerView.Clear()
	fmt.Fprint(footerView, strings.Join(u.footerLines(result), "\n"))

	if err := u.layoutToasts(gui, maxX); err != nil {
		return err
	}

	if err := u.layoutOverlays(gui); err != nil {
		return err
	}

	gui.Cursor = u.searchActive || u.activeForm() != nil
	return nil
}

func (u *UI) layoutToasts(gui *gocui.Gui, maxX int) error {
	if u.notices == nil {
		return nil
	}
	toasts := u.notices.Active(u.now())
	if len(toasts) == 0 {
		_ = gui.DeleteView(viewToast)
		return nil
	}

	lines := make([]string, 0, len(toasts))
	width := 20
	for _, toast := range toasts {
		line := formatToast(toast)
		lines = append(lines, line)
		width = max(width, len([]rune(line))+2)
	}
	width = min(width, maxX-2)

	view, err := gui.SetView(viewToast, maxX-width-1, 2, maxX-1, 3+len(lines), 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	view.Frame = true
	view.Wrap = false
	view.BgColor = u.palette.Bg
	view.FgColor = u.palette.SuccessFg
	view.FrameColor = u.palette.SuccessFg
	if toasts[0].Level == notify.LevelError {
		view.FgColor = u.palette.ErrorFg
		view.FrameColor = u.palette.ErrorFg
	}
	view.Clear()
	fmt.Fprint(view, strings.Join(lines, "\n"))
	_, _ = gui.SetViewOnTop(viewToast)
	return nil
}

func (u *UI) layoutOverlays(gui *gocui.Gui) error {
	if u.searchActive {
		if err := u.showSearch(gui); err != nil {
			return err
		}
	} else {
		_ = gui.DeleteView(viewSearch)
	}

	if u.activeForm() != nil {
		if err := u.showForm(gui); err != nil {
			return err
		}
	} else {
		u.form = nil
		if err := gui.DeleteView(viewForm); err == nil {
			_, _ = gui.SetCurrentView(viewList)
		}
	}

	if u.modals.Delete.IsOpen() {
		if err := u.showDelete(gui); err != nil {
			return err
		}
	} else if err := gui.DeleteView(viewConfirm); err == nil {
		_, _ = gui.SetCurrentView(viewList)
	}

	if u.helpActive {
		if err := u.showHelp(gui); err != nil {
			return err
		}
	} else {
		_ = gui.DeleteView(viewHelp)
	}

	if gui.CurrentView() == nil {
		_, _ = gui.SetCurrentView(viewList)
	}
	return nil
}

func (u *UI) headerText() string {
	query := strings.TrimSpace(u.engine.State().Query)
	if query == "" {
		query = "type / to search"
	}
	state := u.engine.State()
	mode := "light"
	if u.palette.Dark {
		mode = "dark"
	}
	loading := ""
	if u.engine.Loading() {
		loading = " | loading..."
	}
	user := u.user.Username
	if user == "" {
		user = u.user.Email
	}
	return fmt.Sprintf("lazytodo | %s | Search: %s | Sort: %s | Page size: %d | Theme: %s%s",
		user, query, state.Sort.Label(), state.PageSize, mode, loading)
}

func (u *UI) listLines(result listview.Result, width int) []string {
	if !u.engine.Loaded() {
		if u.engine.Loading() {
			return []string{"", "  Loading todos..."}
		}
		return []string{"", "  Could not load todos. Press r to retry."}
	}
	if len(result.Items) == 0 {
		if strings.TrimSpace(u.engine.State().Query) != "" || u.engine.State().Sort == model.SortCompleted {
			return []string{"", "  No todos match the current filters."}
		}
		return []string{"", "  No todos yet!", "  Press a to add your first todo."}
	}

	now := u.now()
	lines := make([]string, 0, len(result.Items))
	for i, todo := range result.Items {
		prefix := " "
		if i == u.selected {
			prefix = ">"
		}
		if u.engine.Toggling(todo.ID) {
			prefix = "~"
		}
		lines = append(lines, prefix+" "+formatTodoRow(todo, now, width-2))
	}
	return lines
}

func (u *UI) footerLines(result listview.Result) []string {
	lines := []string{}
	if paginator := formatPaginator(result); paginator != "" {
		lines = append(lines, paginator+"   "+formatRange(result))
	} else {
		lines = append(lines, formatRange(result))
	}
	lines = append(lines, "a add | e edit | d delete | space toggle | / search | s sort | p page size | h/l page | t theme | ? help | q quit")
	if u.status != "" {
		lines = append(lines, u.status)
	}
	return lines
}

func (u *UI) applyListStyle(view *gocui.View) {
	view.Frame = true
	view.Highlight = true
	view.HighlightInactive = false
	view.FgColor = u.palette.Fg
	view.BgColor = u.palette.Bg
	view.SelFgColor = u.palette.SelFg
	view.SelBgColor = u.palette.SelBg
	view.FrameColor = u.palette.Frame
	view.TitleColor = u.palette.Accent
}

func (u *UI) styleOverlay(view *gocui.View) {
	view.FgColor = u.palette.Fg
	view.BgColor = u.palette.Bg
	view.FrameColor = u.palette.Accent
	view.TitleColor = u.palette.Accent
}

func (u *UI) clampSelection(result listview.Result) {
	if u.selected >= len(result.Items) {
		u.selected = max(len(result.Items)-1, 0)
	}
	if u.selected < 0 {
		u.selected = 0
	}
}

func (u *UI) selectedTodo() (model.Todo, bool) {
	result := u.engine.View()
	u.clampSelection(result)
	if len(result.Items) == 0 {
		return model.Todo{}, false
	}
	return result.Items[u.selected], true
}

func (u *UI) onListClick(gui *gocui.Gui, opts gocui.ViewMouseBindingOpts) error {
	if u.inputActive() {
		return nil
	}
	view, err := gui.View(viewList)
	if err != nil {
		return nil
	}

	_, y0, _, _ := view.Dimensions()
	_, oy := view.Origin()
	u.selected = max(opts.Y-y0-1+oy, 0)
	u.clampSelection(u.engine.View())
	_, _ = gui.SetCurrentView(viewList)
	return nil
}

func (u *UI) moveDown(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	if u.selected < len(u.engine.View().Items)-1 {
		u.selected++
	}
	return nil
}

func (u *UI) moveUp(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	if u.selected > 0 {
		u.selected--
	}
	return nil
}

func (u *UI) reload(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.status = ""
	u.run(func() error { return u.engine.Refresh(u.ctx) })
	return nil
}

func (u *UI) toggleCompleted(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	selected, ok := u.selectedTodo()
	if !ok {
		return nil
	}
	if u.engine.Toggling(selected.ID) {
		u.status = "Still updating " + selected.Title
		return nil
	}
	u.status = ""
	u.run(func() error {
		err := u.engine.Toggle(u.ctx, selected.ID)
		if errors.Is(err, listview.ErrBusy) {
			return nil
		}
		return err
	})
	return nil
}

func (u *UI) cycleSort(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.engine.CycleSort()
	u.selected = 0
	return nil
}

func (u *UI) cyclePageSize(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.engine.CyclePageSize()
	u.selected = 0
	return nil
}

func (u *UI) nextPage(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	before := u.engine.State().Page
	if u.engine.NextPage().Page != before {
		u.selected = 0
	}
	return nil
}

func (u *UI) prevPage(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	before := u.engine.State().Page
	if u.engine.PrevPage().Page != before {
		u.selected = 0
	}
	return nil
}

func (u *UI) toggleTheme(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() || u.storage == nil {
		return nil
	}
	dark, err := theme.Toggle(u.ctx, u.storage)
	if err != nil {
		u.logger.Errorf("toggle theme: %v", err)
		u.status = "Could not save the theme: " + err.Error()
		return nil
	}
	u.palette = theme.NewPalette(dark)
	return nil
}

func (u *UI) startSearch(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.searchActive = true
	return nil
}

func (u *UI) showSearch(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	width := max(30, maxX/2)
	height := 2
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2

	view, err := gui.SetView(viewSearch, x0, y0, x0+width, y0+height, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		view.Title = "Search todos"
		view.Wrap = true
		view.Clear()
		query := u.engine.State().Query
		fmt.Fprint(view, query)
		view.SetCursor(len([]rune(query)), 0)
	}
	view.Editable = true
	view.Editor = gocui.DefaultEditor
	u.styleOverlay(view)
	_, _ = gui.SetCurrentView(viewSearch)
	return nil
}

func (u *UI) submitSearch(gui *gocui.Gui, view *gocui.View) error {
	value := ""
	if view != nil {
		value = view.Buffer()
	}
	u.applySearch(value)
	if gui != nil {
		_ = gui.DeleteView(viewSearch)
		_, _ = gui.SetCurrentView(viewList)
	}
	return nil
}

func (u *UI) applySearch(value string) {
	u.engine.SetQuery(strings.TrimRight(value, "\r\n"))
	u.searchActive = false
	u.selected = 0
	u.status = ""
}

func (u *UI) cancelSearch(gui *gocui.Gui, _ *gocui.View) error {
	u.searchActive = false
	if gui != nil {
		_ = gui.DeleteView(viewSearch)
		_, _ = gui.SetCurrentView(viewList)
	}
	return nil
}

func (u *UI) toggleHelp(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() && !u.helpActive {
		return nil
	}
	u.helpActive = !u.helpActive
	return nil
}

func (u *UI) closeHelp(gui *gocui.Gui, _ *gocui.View) error {
	u.helpActive = false
	if gui != nil {
		_ = gui.DeleteView(viewHelp)
		_, _ = gui.SetCurrentView(viewList)
	}
	return nil
}

func (u *UI) showHelp(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	width := max(60, maxX/2)
	height := 16
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2

	view, err := gui.SetView(viewHelp, x0, y0, x0+width, y0+height, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		view.Title = "Help"
		view.Wrap = true
	}
	u.styleOverlay(view)
	view.Clear()
	fmt.Fprint(view, helpText())
	_, _ = gui.SetCurrentView(viewHelp)
	return nil
}

func (u *UI) inputActive() bool {
	return u.searchActive || u.helpActive || u.activeForm() != nil || u.modals.Delete.IsOpen()
}

func (u *UI) quit(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	return gocui.ErrQuit
}

func (u *UI) forceQuit(_ *gocui.Gui, _ *gocui.View) error {
	return gocui.ErrQuit
}

func helpText() string {
	return strings.Join([]string{
		"List:",
		"  j/k or arrows move selection",
		"  space or x toggle completed",
		"  h/l, [/] or left/right change page",
		"",
		"Todos:",
		"  a add | e or enter edit | d delete",
		"  enter save (form) | tab next field | esc cancel",
		"",
		"View:",
		"  / search titles | s cycle sort (latest/oldest/completed)",
		"  p cycle page size (10/25/50/100) | t dark mode",
		"",
		"Other:",
		"  r reload | ? help | esc close help | q or ctrl+c quit",
	}, "\n")
}
