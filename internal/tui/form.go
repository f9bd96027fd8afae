package tui

import (
	"fmt"
	"strings"

	"github.com/Joseda-hg/lazytodo/internal/modal"
	"github.com/Joseda-hg/lazytodo/internal/model"
	goerrors "github.com/go-errors/errors"
	"github.com/jesseduffield/gocui"
)

const (
	fieldTitle = iota
	fieldDescription
)

var formLabels = []string{"Title", "Description"}

// formState tracks which field of the open add or edit dialog has focus.
// The draft itself lives in the modal controller.
type formState struct {
	kind  modal.Kind
	index int
}

type formEditor struct {
	ui *UI
}

func (u *UI) activeForm() *modal.Controller {
	if u.form == nil {
		return nil
	}
	controller := u.modals.Get(u.form.kind)
	if !controller.IsOpen() {
		return nil
	}
	return controller
}

func fieldValue(draft model.Draft, index int) string {
	if index == fieldDescription {
		return draft.Description
	}
	return draft.Title
}

func setFieldValue(controller *modal.Controller, index int, value string) {
	if index == fieldDescription {
		controller.SetDescription(value)
		return
	}
	controller.SetTitle(value)
}

// formLines is the body of the add/edit dialog. The second return value is
// the line holding the focused field.
func (u *UI) formLines() ([]string, int) {
	controller := u.activeForm()
	if controller == nil {
		return nil, 0
	}
	draft := controller.Draft()

	lines := make([]string, 0, 8)
	for index, label := range formLabels {
		prefix := "  "
		if index == u.form.index {
			prefix = "> "
		}
		lines = append(lines, fmt.Sprintf("%s%s: %s", prefix, label, fieldValue(draft, index)))
	}

	if target, ok := controller.Target(); ok && controller.Kind() == modal.KindEdit {
		lines = append(lines,
			"",
			"  Created at: "+model.FormatTimestamp(target.CreatedAt),
			"  Updated at: "+model.FormatTimestamp(target.UpdatedAt),
		)
	}

	lines = append(lines, "")
	if controller.Busy() {
		lines = append(lines, "  Saving...")
	} else if controller.Kind() == modal.KindEdit {
		lines = append(lines, "  enter update | tab next field | esc cancel")
	} else {
		lines = append(lines, "  enter add | tab next field | esc cancel")
	}
	return lines, u.form.index
}

func (u *UI) renderForm(view *gocui.View) {
	if view == nil {
		return
	}
	lines, focused := u.formLines()
	if lines == nil {
		return
	}
	view.Clear()
	fmt.Fprint(view, strings.Join(lines, "\n"))

	prefixLen := len([]rune("> " + formLabels[focused] + ": "))
	valueLen := len([]rune(fieldValue(u.activeForm().Draft(), focused)))
	view.SetCursor(prefixLen+valueLen, focused)
}

func (e *formEditor) Edit(view *gocui.View, key gocui.Key, ch rune, mod gocui.Modifier) bool {
	ui := e.ui
	if ui == nil {
		return false
	}
	controller := ui.activeForm()
	if controller == nil || controller.Busy() {
		return false
	}

	value := fieldValue(controller.Draft(), ui.form.index)
	switch key {
	case gocui.KeyBackspace, gocui.KeyBackspace2:
		runes := []rune(value)
		if len(runes) > 0 {
			value = string(runes[:len(runes)-1])
		}
	case gocui.KeySpace:
		value += " "
	case gocui.KeyCtrlU:
		value = ""
	}

	if ch != 0 && ch != '\n' && ch != '\r' && mod == 0 {
		value += string(ch)
	}

	setFieldValue(controller, ui.form.index, value)
	ui.renderForm(view)
	return true
}

func (u *UI) openAdd(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	if err := u.modals.Add.Open(nil); err != nil {
		return nil
	}
	u.form = &formState{kind: modal.KindAdd}
	return nil
}

func (u *UI) openEdit(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	selected, ok := u.selectedTodo()
	if !ok {
		return nil
	}
	if err := u.modals.Edit.Open(&selected); err != nil {
		return nil
	}
	u.form = &formState{kind: modal.KindEdit}
	return nil
}

func (u *UI) submitForm(gui *gocui.Gui, _ *gocui.View) error {
	controller := u.activeForm()
	if controller == nil || controller.Busy() {
		return nil
	}
	u.run(func() error {
		return controller.Submit(u.ctx)
	})
	return nil
}

func (u *UI) cancelForm(gui *gocui.Gui, _ *gocui.View) error {
	if controller := u.activeForm(); controller != nil {
		controller.Close()
	}
	u.form = nil
	if gui != nil {
		_ = gui.DeleteView(viewForm)
		_, _ = gui.SetCurrentView(viewList)
	}
	return nil
}

func (u *UI) nextFormField(gui *gocui.Gui, view *gocui.View) error {
	if u.form == nil {
		return nil
	}
	u.form.index = (u.form.index + 1) % len(formLabels)
	u.renderForm(view)
	return nil
}

func (u *UI) prevFormField(gui *gocui.Gui, view *gocui.View) error {
	if u.form == nil {
		return nil
	}
	u.form.index = (u.form.index + len(formLabels) - 1) % len(formLabels)
	u.renderForm(view)
	return nil
}

func (u *UI) showForm(gui *gocui.Gui) error {
	controller := u.activeForm()
	if controller == nil {
		return nil
	}

	maxX, maxY := gui.Size()
	width := max(60, maxX/2)
	height := 9
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2

	view, err := gui.SetView(viewForm, x0, y0, x0+width, y0+height, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		view.Wrap = true
	}
	view.Title = controller.Kind().Title()
	view.Editable = true
	view.KeybindOnEdit = true
	view.Editor = u.formEditor
	u.styleOverlay(view)
	u.renderForm(view)
	_, _ = gui.SetCurrentView(viewForm)
	return nil
}

// deleteLines is the body of the delete confirmation.
func (u *UI) deleteLines() []string {
	target, ok := u.modals.Delete.Target()
	if !ok {
		return nil
	}
	action := "y delete | n/esc cancel"
	if u.modals.Delete.Busy() {
		action = "Deleting..."
	}
	return []string{
		fmt.Sprintf("%q", target.Title),
		"",
		modal.DeleteWarning,
		"",
		action,
	}
}

func (u *UI) openDelete(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	selected, ok := u.selectedTodo()
	if !ok {
		return nil
	}
	_ = u.modals.Delete.Open(&selected)
	return nil
}

func (u *UI) confirmDelete(gui *gocui.Gui, _ *gocui.View) error {
	controller := u.modals.Delete
	if !controller.IsOpen() || controller.Busy() {
		return nil
	}
	u.run(func() error {
		return controller.Submit(u.ctx)
	})
	return nil
}

func (u *UI) cancelDelete(gui *gocui.Gui, _ *gocui.View) error {
	if u.modals.Delete.Busy() {
		return nil
	}
	u.modals.Delete.Close()
	if gui != nil {
		_ = gui.DeleteView(viewConfirm)
		_, _ = gui.SetCurrentView(viewList)
	}
	return nil
}

func (u *UI) showDelete(gui *gocui.Gui) error {
	lines := u.deleteLines()
	if lines == nil {
		return nil
	}

	maxX, maxY := gui.Size()
	width := max(60, maxX/2)
	height := 10
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2

	view, err := gui.SetView(viewConfirm, x0, y0, x0+width, y0+height, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	view.Title = modal.KindDelete.Title()
	view.Wrap = true
	u.styleOverlay(view)
	view.Clear()
	fmt.Fprint(view, strings.Join(lines, "\n"))
	_, _ = gui.SetCurrentView(viewConfirm)
	return nil
}
