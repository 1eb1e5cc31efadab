package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles used throughout the TUI.
var (
	styleStatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Bold(true)

	styleInputPrompt = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleNarration = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	styleCorrect = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	styleWrong = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203"))

	styleReward = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")).
			Bold(true)

	styleDanger = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	styleSystem = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	styleError = lipgloss.NewStyle().
			Foreground(lipgloss.Color("208"))

	stylePlayerInput = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleTrace = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	stylePanel = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	styleLabel = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	styleSurface = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("231")).
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("99")).
			Padding(0, 2)

	styleKanaPreview = lipgloss.NewStyle().
				Foreground(lipgloss.Color("117"))

	styleBarEmpty = lipgloss.NewStyle().
			Foreground(lipgloss.Color("238"))
)

// Map glyph styles.
var (
	styleWall   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	styleFloor  = lipgloss.NewStyle().Foreground(lipgloss.Color("237"))
	styleExit   = lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true)
	styleHerb   = lipgloss.NewStyle().Foreground(lipgloss.Color("34")).Bold(true)
	stylePotion = lipgloss.NewStyle().Foreground(lipgloss.Color("171")).Bold(true)
	stylePlayer = lipgloss.NewStyle().Foreground(lipgloss.Color("51")).Bold(true)

	// styleEnemyTier is indexed by tier-1; higher tiers reuse the last.
	styleEnemyTier = []lipgloss.Style{
		lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true),
		lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	}
)

func enemyStyle(tier int) lipgloss.Style {
	switch {
	case tier < 1:
		return styleEnemyTier[0]
	case tier > len(styleEnemyTier):
		return styleEnemyTier[len(styleEnemyTier)-1]
	}
	return styleEnemyTier[tier-1]
}

// glyphStyle returns the style of a non-entity map glyph.
func glyphStyle(r rune) lipgloss.Style {
	switch r {
	case '#':
		return styleWall
	case '.':
		return styleFloor
	case '>':
		return styleExit
	case '!':
		return styleHerb
	case '+':
		return stylePotion
	case '@':
		return stylePlayer
	}
	return lipgloss.NewStyle()
}

// lineKind identifies the type of an output line for styling.
type lineKind int

const (
	kindNarration lineKind = iota
	kindCorrect
	kindWrong
	kindReward
	kindDanger
	kindSystem
	kindError
	kindTrace
)

// classifyLine determines what kind of output line this is.
func classifyLine(line string) lineKind {
	switch {
	case strings.HasPrefix(line, "[trace]"):
		return kindTrace
	case strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"):
		return kindSystem
	case strings.HasPrefix(line, "Correct!"):
		return kindCorrect
	case strings.HasPrefix(line, "Wrong."), line == "So close!":
		return kindWrong
	case strings.HasPrefix(line, "Level up!"),
		strings.HasPrefix(line, "Harder words"),
		strings.Contains(line, "is defeated!"),
		strings.HasPrefix(line, "The floor is clear"):
		return kindReward
	case strings.Contains(line, "blocks your way"),
		strings.HasPrefix(line, "You collapse"):
		return kindDanger
	default:
		return kindNarration
	}
}

// renderLineKind applies the style for a given lineKind.
func renderLineKind(line string, kind lineKind) string {
	switch kind {
	case kindCorrect:
		return styleCorrect.Render(line)
	case kindWrong:
		return styleWrong.Render(line)
	case kindReward:
		return styleReward.Render(line)
	case kindDanger:
		return styleDanger.Render(line)
	case kindSystem:
		return styleSystem.Render(line)
	case kindError:
		return styleError.Render(line)
	case kindTrace:
		return styleTrace.Render(line)
	default:
		return styleNarration.Render(line)
	}
}

// styledSystemMsg renders a system message in gray with brackets.
func styledSystemMsg(text string) string {
	return styleSystem.Render("[" + text + "]")
}

// bar draws a gauge of width cells filled in proportion to cur/max.
func bar(cur, max, width int, fill lipgloss.Style) string {
	if width < 1 {
		return ""
	}
	filled := 0
	if max > 0 && cur > 0 {
		filled = (cur*width + max - 1) / max
		if filled > width {
			filled = width
		}
	}
	return fill.Render(strings.Repeat("█", filled)) + styleBarEmpty.Render(strings.Repeat("░", width-filled))
}

// hpBar colours the gauge by how much health is left.
func hpBar(cur, max, width int) string {
	fill := styleCorrect
	switch {
	case max > 0 && cur*4 <= max:
		fill = styleDanger
	case max > 0 && cur*2 <= max:
		fill = styleReward
	}
	return bar(cur, max, width, fill)
}
