// Copyright (c) 2025 BVK Chaitanya

package tui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Top    key.Binding
	Bottom key.Binding

	Select   key.Binding
	Deselect key.Binding

	ChangeMarket key.Binding
	ClearMarket  key.Binding
	DeleteRow    key.Binding
	InsertAbove  key.Binding
	InsertBelow  key.Binding

	ToggleColumn key.Binding

	Save key.Binding
	Help key.Binding
	Quit key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Top: key.NewBinding(
			key.WithKeys("home", "g"),
			key.WithHelp("g", "top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("end", "G"),
			key.WithHelp("G", "bottom"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "select"),
		),
		Deselect: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "deselect"),
		),
		ChangeMarket: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "change market"),
		),
		ClearMarket: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear market"),
		),
		DeleteRow: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete row"),
		),
		InsertAbove: key.NewBinding(
			key.WithKeys("O"),
			key.WithHelp("O", "insert row above"),
		),
		InsertBelow: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "insert row below"),
		),
		ToggleColumn: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"),
			key.WithHelp("1-9", "toggle column"),
		),
		Save: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "save"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.ChangeMarket, k.Select, k.Save, k.Quit, k.Help}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Top, k.Bottom},
		{k.Select, k.Deselect, k.ChangeMarket, k.ClearMarket},
		{k.InsertAbove, k.InsertBelow, k.DeleteRow, k.ToggleColumn},
		{k.Save, k.Help, k.Quit},
	}
}
