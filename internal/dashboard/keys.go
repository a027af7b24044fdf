package dashboard

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

type keyMap struct {
	Quit       key.Binding
	Next       key.Binding
	Prev       key.Binding
	Submit     key.Binding
	NextTab    key.Binding
	PrevTab    key.Binding
	Tab1       key.Binding
	Tab2       key.Binding
	Tab3       key.Binding
	Left       key.Binding
	Right      key.Binding
	Up         key.Binding
	Down       key.Binding
	Toggle     key.Binding
	ScrollUp   key.Binding
	ScrollDown key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit:       key.NewBinding(key.WithKeys("ctrl+c", "esc"), key.WithHelp("esc", "quit")),
		Next:       key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
		Prev:       key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous field")),
		Submit:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
		NextTab:    key.NewBinding(key.WithKeys("ctrl+right"), key.WithHelp("ctrl+→", "next tab")),
		PrevTab:    key.NewBinding(key.WithKeys("ctrl+left"), key.WithHelp("ctrl+←", "previous tab")),
		Tab1:       key.NewBinding(key.WithKeys("f1"), key.WithHelp("f1", "comparison")),
		Tab2:       key.NewBinding(key.WithKeys("f2"), key.WithHelp("f2", "single stock")),
		Tab3:       key.NewBinding(key.WithKeys("f3"), key.WithHelp("f3", "insights")),
		Left:       key.NewBinding(key.WithKeys("left")),
		Right:      key.NewBinding(key.WithKeys("right")),
		Up:         key.NewBinding(key.WithKeys("up")),
		Down:       key.NewBinding(key.WithKeys("down")),
		Toggle:     key.NewBinding(key.WithKeys(" ", "space")),
		ScrollUp:   key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "scroll up")),
		ScrollDown: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "scroll down")),
	}
}

func (k keyMap) helpLine(verified bool) string {
	bindings := []key.Binding{k.Next, k.Submit}
	if verified {
		bindings = append(bindings, k.Tab1, k.Tab2, k.Tab3, k.ScrollUp, k.ScrollDown)
	}
	bindings = append(bindings, k.Quit)

	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " • ")
}
