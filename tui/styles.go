// Copyright (c) 2025 BVK Chaitanya

package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorAccent = lipgloss.AdaptiveColor{Light: "#0366d6", Dark: "#59c2ff"}
	colorDim    = lipgloss.AdaptiveColor{Light: "#6a737d", Dark: "#5c6773"}
	colorBid    = lipgloss.AdaptiveColor{Light: "#22863a", Dark: "#aad94c"}
	colorAsk    = lipgloss.AdaptiveColor{Light: "#cb2431", Dark: "#f07178"}
	colorError  = lipgloss.AdaptiveColor{Light: "#cb2431", Dark: "#ff3333"}
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Underline(true)

	cursorStyle = lipgloss.NewStyle().
			Reverse(true)

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent)

	separatorStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	bidStyle = lipgloss.NewStyle().Foreground(colorBid)
	askStyle = lipgloss.NewStyle().Foreground(colorAsk)

	statusStyle = lipgloss.NewStyle().Foreground(colorDim)
	errorStyle  = lipgloss.NewStyle().Foreground(colorError)
)
