package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nathoo/kanjicrawl/engine"
	"github.com/nathoo/kanjicrawl/engine/parser"
	"github.com/nathoo/kanjicrawl/engine/save"
	"github.com/nathoo/kanjicrawl/types"
)

// rawLine stores an unstyled output line with its classification,
// so we can re-wrap and re-style when the terminal is resized.
type rawLine struct {
	text     string
	kind     lineKind
	isInput  bool // true for echoed player input
	isSystem bool // true for system messages
}

// keyMap holds the single-key bindings used while exploring and the
// control keys that work while an answer is being typed.
type keyMap struct {
	Up, Down, Left, Right key.Binding
	Wait, Potion, Quit    key.Binding
	Command               key.Binding
	Flee, FightPotion     key.Binding
}

var keys = keyMap{
	Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "move up")),
	Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "move down")),
	Left:        key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "move left")),
	Right:       key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "move right")),
	Wait:        key.NewBinding(key.WithKeys(".", "z"), key.WithHelp("./z", "wait")),
	Potion:      key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "drink a potion")),
	Quit:        key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "end the run")),
	Command:     key.NewBinding(key.WithKeys("/", ":"), key.WithHelp("/", "type a command")),
	Flee:        key.NewBinding(key.WithKeys("ctrl+f"), key.WithHelp("ctrl+f", "flee a fight")),
	FightPotion: key.NewBinding(key.WithKeys("ctrl+p"), key.WithHelp("ctrl+p", "potion during a fight")),
}

// moveKeys maps exploration bindings to the actions they send.
var moveKeys = []struct {
	binding *key.Binding
	kind    types.ActionKind
}{
	{&keys.Up, types.ActionMoveUp},
	{&keys.Down, types.ActionMoveDown},
	{&keys.Left, types.ActionMoveLeft},
	{&keys.Right, types.ActionMoveRight},
	{&keys.Wait, types.ActionWait},
	{&keys.Potion, types.ActionUsePotion},
	{&keys.Quit, types.ActionQuit},
}

// Model is the Bubble Tea model for the kanjicrawl TUI.
type Model struct {
	engine *engine.Engine
	ctx    context.Context

	viewport viewport.Model
	input    textinput.Model
	history  *History

	rawLines []rawLine // accumulated message lines (unstyled, for re-wrapping)
	view     types.View

	width    int
	height   int
	ready    bool
	trace    bool
	quitting bool
	command  bool // the command line is open while exploring
	saveDir  string
}

// gameOutputMsg carries output into the Update loop.
type gameOutputMsg struct {
	input    string   // echoed player input (empty for keys and the intro)
	lines    []string // output lines
	isSystem bool     // true for meta-command output
	isError  bool     // true when the engine refused the action
}

// New creates a TUI model wired to the given engine.
func New(ctx context.Context, eng *engine.Engine, saveDir string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 64
	ti.PromptStyle = styleInputPrompt

	m := Model{
		engine:  eng,
		ctx:     ctx,
		input:   ti,
		history: NewHistory(100),
		view:    eng.Snapshot(),
		saveDir: saveDir,
	}
	m.syncFocus()
	return m
}

// Run starts the Bubble Tea program.
func Run(ctx context.Context, eng *engine.Engine, saveDir string) error {
	m := New(ctx, eng, saveDir)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		// Interrupted by a signal: not a failure.
		return nil
	}
	return err
}

// Init returns the initial command that produces the intro text.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.initialOutput())
}

func (m Model) initialOutput() tea.Cmd {
	info := m.engine.Info
	return func() tea.Msg {
		var lines []string
		title := info.Title
		if info.Version != "" {
			title += " v" + info.Version
		}
		if info.Author != "" {
			title += " by " + info.Author
		}
		lines = append(lines, title)
		if info.Intro != "" {
			lines = append(lines, info.Intro)
		}
		lines = append(lines, "Walk into an enemy to fight it by reading its word. Type / for commands, /help for keys.")
		return gameOutputMsg{lines: lines}
	}
}

// Update handles messages (key presses, window resize, game output).
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New(m.width, 1)
			m.viewport.KeyMap = viewportKeyMap()
			m.ready = true
		}
		m.viewport.Width = m.width
		m.layout()
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		if m.command || m.view.Phase == types.PhaseEncounter {
			return m.updateInput(msg)
		}
		return m.updateExplore(msg)

	case gameOutputMsg:
		m = m.appendOutput(msg)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// updateExplore maps single keys to engine actions.
func (m Model) updateExplore(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "pgup", "pgdown":
		var vpCmd tea.Cmd
		m.viewport, vpCmd = m.viewport.Update(msg)
		return m, vpCmd
	}

	if key.Matches(msg, keys.Command) {
		m.command = true
		m.input.SetValue("/")
		m.input.CursorEnd()
		m.layout()
		cmd := m.input.Focus()
		return m, cmd
	}

	if m.view.Phase == types.PhaseGameOver {
		if key.Matches(msg, keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	for _, mk := range moveKeys {
		if key.Matches(msg, *mk.binding) {
			return m.act(types.Action{Kind: mk.kind}, "")
		}
	}
	return m, nil
}

// updateInput handles keys while the text input is focused: answers
// during a fight, or the command line.
func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		return m.handleEnter()

	case "esc":
		if m.command {
			m.command = false
			m.input.SetValue("")
			m.history.ResetCursor()
			m.layout()
			cmd := m.syncFocus()
			return m, cmd
		}
		return m, nil

	case "up":
		if prev, ok := m.history.Prev(); ok {
			m.input.SetValue(prev)
			m.input.CursorEnd()
		}
		return m, nil

	case "down":
		if next, ok := m.history.Next(); ok {
			m.input.SetValue(next)
			m.input.CursorEnd()
		} else {
			m.input.SetValue("")
			m.history.ResetCursor()
		}
		return m, nil

	case "pgup", "pgdown":
		var vpCmd tea.Cmd
		m.viewport, vpCmd = m.viewport.Update(msg)
		return m, vpCmd
	}

	if m.view.Phase == types.PhaseEncounter {
		switch {
		case key.Matches(msg, keys.Flee):
			return m.act(types.Action{Kind: types.ActionFlee}, "")
		case key.Matches(msg, keys.FightPotion):
			return m.act(types.Action{Kind: types.ActionUsePotion}, "")
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleEnter processes the submitted input line.
func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")
	wasCommand := m.command
	m.command = false

	m.history.Push(input)
	m.history.ResetCursor()

	if isMeta(input) {
		output, quit := m.handleMeta(input)
		m = m.appendOutput(gameOutputMsg{input: input, lines: output, isSystem: true})
		if quit {
			m.quitting = true
			return m, tea.Quit
		}
		m.layout()
		cmd := m.syncFocus()
		return m, cmd
	}
	if wasCommand && strings.TrimPrefix(input, "/") == "" {
		m.layout()
		cmd := m.syncFocus()
		return m, cmd
	}

	a := parser.Parse(input, m.view.Phase)
	if a.Kind == types.ActionNone {
		m = m.appendOutput(gameOutputMsg{
			input: input, lines: []string{"I don't understand that. Type /help for commands."}, isSystem: true,
		})
		m.layout()
		cmd := m.syncFocus()
		return m, cmd
	}
	return m.act(a, input)
}

// act sends one action to the engine and shows the result.
func (m Model) act(a types.Action, echo string) (tea.Model, tea.Cmd) {
	res := m.engine.Step(m.ctx, a)
	m.view = res.View

	out := res.Output
	if m.trace {
		out = append(out, formatTrace(res)...)
	}
	m = m.appendOutput(gameOutputMsg{input: echo, lines: out, isError: errors.Is(res.Err, types.ErrInvalidAction)})
	if res.Err != nil && !errors.Is(res.Err, types.ErrInvalidAction) {
		m = m.appendOutput(gameOutputMsg{lines: []string{"Error: " + res.Err.Error()}, isSystem: true})
	}

	if res.View.Phase == types.PhaseGameOver {
		if res.View.EndReason == "quit" {
			m.quitting = true
			return m, tea.Quit
		}
		m = m.appendOutput(gameOutputMsg{lines: []string{"The run is over. /load a save, or q to leave."}, isSystem: true})
	}
	m.layout()
	cmd := m.syncFocus()
	return m, cmd
}

// syncFocus focuses the input while it is needed and blurs it otherwise.
func (m *Model) syncFocus() tea.Cmd {
	if m.command || m.view.Phase == types.PhaseEncounter {
		return m.input.Focus()
	}
	m.input.Blur()
	return nil
}

// appendOutput adds lines to the message log and refreshes the viewport.
func (m Model) appendOutput(msg gameOutputMsg) Model {
	if msg.input == "" && len(msg.lines) == 0 {
		return m
	}
	if msg.input != "" {
		m.rawLines = append(m.rawLines, rawLine{
			text: "> " + msg.input, isInput: true,
		})
	}

	for _, line := range msg.lines {
		rl := rawLine{text: line, isSystem: msg.isSystem}
		switch {
		case msg.isError:
			rl.kind = kindError
		case !msg.isSystem:
			rl.kind = classifyLine(line)
		}
		m.rawLines = append(m.rawLines, rl)
	}

	m.refreshViewport()

	return m
}

// layout gives the message log whatever height the map, panels and status
// bar leave free.
func (m *Model) layout() {
	if !m.ready {
		return
	}
	used := lipgloss.Height(m.renderTop()) + 1 // status bar
	if p := m.renderFight(); p != "" {
		used += lipgloss.Height(p)
	}
	if m.command {
		used++
	}
	h := m.height - used
	if h < 3 {
		h = 3
	}
	m.viewport.Height = h
	m.refreshViewport()
}

// refreshViewport re-wraps and re-styles all raw lines at the current width
// and updates the viewport content.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}

	width := m.width
	if width < 10 {
		width = 10
	}

	var styled []string
	for _, rl := range m.rawLines {
		if rl.text == "" {
			styled = append(styled, "")
			continue
		}

		wrapped := wordWrap(rl.text, width)

		switch {
		case rl.isInput:
			styled = append(styled, stylePlayerInput.Render(wrapped))
		case rl.isSystem:
			styled = append(styled, styledSystemMsg(wrapped))
		default:
			styled = append(styled, renderLineKind(wrapped, rl.kind))
		}
	}

	m.viewport.SetContent(strings.Join(styled, "\n"))
	m.viewport.GotoBottom()
}

// wordWrap wraps text to fit within the given width in terminal cells,
// breaking at spaces. Japanese text has no spaces, so a long unbroken word
// is left to the terminal.
func wordWrap(text string, width int) string {
	if width <= 0 || lipgloss.Width(text) <= width {
		return text
	}

	var result strings.Builder
	words := strings.Fields(text)
	lineLen := 0

	for i, word := range words {
		wLen := lipgloss.Width(word)

		if i == 0 {
			result.WriteString(word)
			lineLen = wLen
			continue
		}

		if lineLen+1+wLen > width {
			result.WriteString("\n")
			result.WriteString(word)
			lineLen = wLen
		} else {
			result.WriteString(" ")
			result.WriteString(word)
			lineLen += 1 + wLen
		}
	}

	return result.String()
}

// renderTop places the map and the stat panel side by side.
func (m Model) renderTop() string {
	return lipgloss.JoinHorizontal(lipgloss.Top,
		stylePanel.Render(renderMap(m.view)), " ", renderSidePanel(m.view))
}

// renderFight returns the fight panel, or "" outside a fight.
func (m Model) renderFight() string {
	enc := m.view.Encounter
	if enc == nil || m.view.Phase != types.PhaseEncounter {
		return ""
	}
	return renderEncounter(*enc, m.input.View(), m.input.Value())
}

// View renders the full TUI layout: map and stats, fight panel, message
// log, status bar and the command line when it is open.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}

	parts := []string{m.renderTop()}
	if p := m.renderFight(); p != "" {
		parts = append(parts, p)
	}
	parts = append(parts, m.viewport.View(), m.renderStatusBar())
	if m.command {
		parts = append(parts, m.input.View())
	}
	return strings.Join(parts, "\n")
}

var metaCommands = map[string]bool{
	"/quit": true, "/exit": true, "/save": true, "/load": true,
	"/help": true, "/state": true, "/trace": true,
}

// isMeta reports whether input is a slash command handled by the TUI
// rather than the engine.
func isMeta(input string) bool {
	if !strings.HasPrefix(input, "/") || len(input) < 2 {
		return false
	}
	return metaCommands[strings.ToLower(strings.Fields(input)[0])]
}

// handleMeta dispatches meta-commands. Returns output lines and quit flag.
func (m *Model) handleMeta(input string) ([]string, bool) {
	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	var arg string
	if len(parts) > 1 {
		arg = parts[1]
	}

	switch cmd {
	case "/quit", "/exit":
		return []string{"Goodbye."}, true

	case "/save":
		return m.cmdSave(arg), false

	case "/load":
		return m.cmdLoad(arg), false

	case "/help":
		return m.cmdHelp(), false

	case "/state":
		return m.engine.DebugLines(), false

	case "/trace":
		m.trace = !m.trace
		if m.trace {
			return []string{"Trace output enabled."}, false
		}
		return []string{"Trace output disabled."}, false

	default:
		return []string{fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd)}, false
	}
}

func (m *Model) cmdSave(name string) []string {
	data, err := m.engine.Save()
	if err != nil {
		return []string{fmt.Sprintf("Save failed: %v", err)}
	}
	if _, err := save.WriteSlot(m.saveDir, name, data); err != nil {
		return []string{fmt.Sprintf("Save failed: %v", err)}
	}
	if name == "" {
		name = save.DefaultSlot
	}
	return []string{fmt.Sprintf("Game saved to %s.", name)}
}

func (m *Model) cmdLoad(name string) []string {
	data, err := save.ReadSlot(m.saveDir, name)
	if err != nil {
		return []string{fmt.Sprintf("Load failed: %v", err)}
	}
	sd, err := m.engine.Load(data)
	if err != nil {
		return []string{fmt.Sprintf("Load failed: %v", err)}
	}
	m.view = m.engine.Snapshot()
	if name == "" {
		name = save.DefaultSlot
	}
	return []string{fmt.Sprintf("Game loaded from %s (turn %d, floor %d).", name, sd.Turn, sd.Floor)}
}

func (m *Model) cmdHelp() []string {
	lines := []string{"Exploring:"}
	for _, b := range []key.Binding{keys.Up, keys.Down, keys.Left, keys.Right, keys.Wait, keys.Potion, keys.Quit, keys.Command} {
		lines = append(lines, fmt.Sprintf("  %-8s %s", b.Help().Key, b.Help().Desc))
	}
	lines = append(lines,
		"Fighting:",
		"  Type the reading in hiragana, katakana or romaji and press Enter.",
		"  Enter on an empty line moves on to the next question.",
	)
	for _, b := range []key.Binding{keys.Flee, keys.FightPotion} {
		lines = append(lines, fmt.Sprintf("  %-8s %s", b.Help().Key, b.Help().Desc))
	}
	lines = append(lines,
		"Commands:",
		"  /save [name]  Save game (default: quicksave)",
		"  /load [name]  Load game (default: quicksave)",
		"  /state        Debug: dump current state",
		"  /trace        Toggle debug trace output",
		"  /quit         Exit game",
		"Map: @ you, > stairs down, ! herb, + potion, letters are enemies.",
		"PgUp/PgDn scroll the log, Up/Down recall typed lines.",
	)
	return lines
}

func formatTrace(result types.Result) []string {
	var lines []string
	if result.Err != nil {
		lines = append(lines, fmt.Sprintf("[trace] Error: %v", result.Err))
	}
	if len(result.Events) > 0 {
		lines = append(lines, fmt.Sprintf("[trace] Events: %d", len(result.Events)))
		for _, e := range result.Events {
			lines = append(lines, fmt.Sprintf("[trace]   %s %v", e.Type, e.Data))
		}
	}
	return lines
}

// viewportKeyMap returns a viewport keymap with Up/Down disabled
// (we use those for movement and input history).
func viewportKeyMap() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		Up:           key.NewBinding(key.WithDisabled()),
		Down:         key.NewBinding(key.WithDisabled()),
	}
}
