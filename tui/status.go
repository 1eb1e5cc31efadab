package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nathoo/kanjicrawl/engine"
	"github.com/nathoo/kanjicrawl/kana"
	"github.com/nathoo/kanjicrawl/types"
)

const barWidth = 12

// renderMap draws the floor with a style per glyph. Runs of equal glyphs
// are rendered together.
func renderMap(v types.View) string {
	tiers := map[rune]int{}
	for _, en := range v.Enemies {
		tiers[engine.EnemyGlyph(en)] = max(tiers[engine.EnemyGlyph(en)], en.Tier)
	}
	styleOf := func(r rune) lipgloss.Style {
		if t, ok := tiers[r]; ok && r != '@' {
			return enemyStyle(t)
		}
		return glyphStyle(r)
	}

	rows := engine.MapRows(v)
	out := make([]string, len(rows))
	for i, row := range rows {
		var b strings.Builder
		runes := []rune(row)
		for j := 0; j < len(runes); {
			k := j
			for k < len(runes) && runes[k] == runes[j] {
				k++
			}
			b.WriteString(styleOf(runes[j]).Render(string(runes[j:k])))
			j = k
		}
		out[i] = b.String()
	}
	return strings.Join(out, "\n")
}

// renderSidePanel shows the player's stats next to the map.
func renderSidePanel(v types.View) string {
	p := v.Player
	xpInto := p.XP - v.LevelXP
	xpSpan := v.NextLevelXP - v.LevelXP
	lines := []string{
		styleLabel.Render("HP ") + hpBar(p.HP, p.MaxHP, barWidth) + fmt.Sprintf(" %d/%d", p.HP, p.MaxHP),
		styleLabel.Render("XP ") + bar(xpInto, xpSpan, barWidth, styleReward) + fmt.Sprintf(" %d/%d", p.XP, v.NextLevelXP),
		fmt.Sprintf("%s %d   %s %d", styleLabel.Render("Level"), p.Level, styleLabel.Render("Attack"), p.Attack),
		fmt.Sprintf("%s %d   %s %d", styleLabel.Render("Potions"), p.Potions, styleLabel.Render("Streak"), p.Streak),
		fmt.Sprintf("%s %d   %s %d", styleLabel.Render("Floor"), v.Floor, styleLabel.Render("Tier"), v.MaxTier),
		fmt.Sprintf("%s %d", styleLabel.Render("Enemies left"), len(v.Enemies)),
	}
	return stylePanel.Render(strings.Join(lines, "\n"))
}

// renderEncounter shows the enemy, the word to read and the answer input
// with a live kana preview of typed.
func renderEncounter(enc types.EncounterView, input, typed string) string {
	head := fmt.Sprintf("%s %s %d/%d",
		enemyStyle(enc.EnemyTier).Render(fmt.Sprintf("%s (tier %d)", enc.EnemyName, enc.EnemyTier)),
		hpBar(enc.EnemyHP, enc.EnemyMaxHP, barWidth), enc.EnemyHP, enc.EnemyMaxHP)

	lines := []string{head, styleSurface.Render(enc.Surface)}
	switch enc.State {
	case types.EncounterAwaiting:
		lines = append(lines, input)
		if preview := kanaPreview(typed); preview != "" {
			lines = append(lines, styleKanaPreview.Render("  = "+preview))
		}
	case types.EncounterResolved:
		verdict := styleCorrect.Render(fmt.Sprintf("Correct! You dealt %d.", enc.DamageDealt))
		if enc.Result == types.OutcomeIncorrect {
			verdict = styleWrong.Render(fmt.Sprintf("Wrong, you took %d.", enc.DamageTaken))
			if enc.NearMiss {
				verdict += styleWrong.Render(" So close!")
			}
		}
		lines = append(lines,
			verdict,
			fmt.Sprintf("%s %s (%s)", enc.Surface, strings.Join(enc.Readings, " / "), enc.Gloss),
			styleSystem.Render("Enter: next question"),
		)
	}
	return stylePanel.Render(strings.Join(lines, "\n"))
}

// kanaPreview shows how the typed answer will be read, or "" when it
// already is kana or is not readable yet.
func kanaPreview(typed string) string {
	raw := strings.TrimSpace(typed)
	if raw == "" || strings.HasPrefix(raw, "/") {
		return ""
	}
	k := kana.Normalize(raw)
	if k == raw {
		return ""
	}
	return k
}

// renderStatusBar produces a full-width inverted status line with the turn
// counter and the keys that apply to the current phase.
func (m Model) renderStatusBar() string {
	v := m.view
	title := m.engine.Info.Title
	if title == "" {
		title = "kanjicrawl"
	}
	left := fmt.Sprintf(" %s | Floor %d | T:%d", title, v.Floor, v.Turn)

	var right string
	switch {
	case m.command:
		right = "Enter: run  Esc: cancel "
	case v.Phase == types.PhaseEncounter:
		right = "Enter: answer  Ctrl+F: flee  Ctrl+P: potion "
	case v.Phase == types.PhaseGameOver:
		right = "/load  /quit "
	default:
		right = "hjkl/arrows: move  .: wait  p: potion  /: command  q: quit "
	}
	if lipgloss.Width(left)+lipgloss.Width(right)+2 > m.width {
		right = fmt.Sprintf("HP %d/%d ", v.Player.HP, v.Player.MaxHP)
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	line := left + strings.Repeat(" ", gap) + right
	return styleStatusBar.Width(m.width).Render(line)
}
