package main

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	speakerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	originalStyle   = lipgloss.NewStyle()
	translatedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).PaddingLeft(2)
	partialStyle    = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("8"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helpStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)
