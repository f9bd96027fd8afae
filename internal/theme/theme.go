package theme

import (
	"context"
	"errors"
	"strconv"

	"github.com/Joseda-hg/lazytodo/internal/db"
	"github.com/charmbracelet/lipgloss"
	"github.com/jesseduffield/gocui"
)

// StorageKey holds "true" or "false".
const StorageKey = "darkMode"

type Storage interface {
	GetItem(ctx context.Context, key string) (db.Item, error)
	SetItem(ctx context.Context, key, value string) error
}

func Load(ctx context.Context, storage Storage) (bool, error) {
	item, err := storage.GetItem(ctx, StorageKey)
	if errors.Is(err, db.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return item.Value == "true", nil
}

func Set(ctx context.Context, storage Storage, dark bool) error {
	return storage.SetItem(ctx, StorageKey, strconv.FormatBool(dark))
}

func Toggle(ctx context.Context, storage Storage) (bool, error) {
	dark, err := Load(ctx, storage)
	if err != nil {
		return false, err
	}
	if err := Set(ctx, storage, !dark); err != nil {
		return dark, err
	}
	return !dark, nil
}

type Palette struct {
	Dark bool

	Fg        gocui.Attribute
	Bg        gocui.Attribute
	Accent    gocui.Attribute
	Done      gocui.Attribute
	Frame     gocui.Attribute
	SelFg     gocui.Attribute
	SelBg     gocui.Attribute
	ErrorFg   gocui.Attribute
	SuccessFg gocui.Attribute
}

func NewPalette(dark bool) Palette {
	if dark {
		return Palette{
			Dark:      true,
			Fg:        gocui.ColorWhite,
			Bg:        gocui.ColorBlack,
			Accent:    gocui.ColorMagenta,
			Done:      gocui.ColorWhite | gocui.AttrDim,
			Frame:     gocui.ColorMagenta,
			SelFg:     gocui.ColorBlack,
			SelBg:     gocui.ColorMagenta,
			ErrorFg:   gocui.ColorRed,
			SuccessFg: gocui.ColorGreen,
		}
	}
	return Palette{
		Fg:        gocui.ColorDefault,
		Bg:        gocui.ColorDefault,
		Accent:    gocui.ColorBlue,
		Done:      gocui.ColorDefault | gocui.AttrDim,
		Frame:     gocui.ColorCyan,
		SelFg:     gocui.ColorBlack,
		SelBg:     gocui.ColorBlue,
		ErrorFg:   gocui.ColorRed,
		SuccessFg: gocui.ColorGreen,
	}
}

// Styles is the lipgloss counterpart of Palette for plain CLI output.
type Styles struct {
	Title     lipgloss.Style
	Row       lipgloss.Style
	Done      lipgloss.Style
	Muted     lipgloss.Style
	Accent    lipgloss.Style
	Error     lipgloss.Style
	Success   lipgloss.Style
	PageBadge lipgloss.Style
}

func NewStyles(dark bool) Styles {
	accent := lipgloss.Color("#4F46E5")
	text := lipgloss.Color("#1F2937")
	muted := lipgloss.Color("#6B7280")
	if dark {
		accent = lipgloss.Color("#818CF8")
		text = lipgloss.Color("#E5E7EB")
		muted = lipgloss.Color("#9CA3AF")
	}

	return Styles{
		Title:     lipgloss.NewStyle().Bold(true).Foreground(accent),
		Row:       lipgloss.NewStyle().Foreground(text),
		Done:      lipgloss.NewStyle().Foreground(muted).Strikethrough(true),
		Muted:     lipgloss.NewStyle().Foreground(muted),
		Accent:    lipgloss.NewStyle().Foreground(accent),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("#DC2626")).Bold(true),
		Success:   lipgloss.NewStyle().Foreground(lipgloss.Color("#16A34A")),
		PageBadge: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(accent).Padding(0, 1),
	}
}
