// Package render formats cmdsieve results for terminals.
package render

import (
	"github.com/charmbracelet/lipgloss"
)

const (
	ColorCyan  = lipgloss.Color("12") // Names and headers
	ColorGreen = lipgloss.Color("10") // Success indicator
	ColorRed   = lipgloss.Color("9")  // Failure indicator
	ColorGray  = lipgloss.Color("8")  // Dim/secondary (timing, meta info)
)

const (
	SymbolSuccess = "✓"
	SymbolError   = "✗"
)

var (
	// HeaderStyle is used for template and command names
	HeaderStyle = lipgloss.NewStyle().Foreground(ColorCyan).Bold(true)

	// SuccessStyle is used for success indicators
	SuccessStyle = lipgloss.NewStyle().Foreground(ColorGreen)

	// ErrorStyle is used for failure indicators
	ErrorStyle = lipgloss.NewStyle().Foreground(ColorRed)

	// DimStyle is used for secondary information like timing
	DimStyle = lipgloss.NewStyle().Foreground(ColorGray)
)

// StatusSymbol returns the styled success or failure symbol.
func StatusSymbol(success bool) string {
	if success {
		return SuccessStyle.Render(SymbolSuccess)
	}
	return ErrorStyle.Render(SymbolError)
}
