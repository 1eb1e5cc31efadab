// Package cli provides the plain line-mode front end: terminal I/O, output
// formatting, meta-command dispatch and script playback.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nathoo/kanjicrawl/engine"
	"github.com/nathoo/kanjicrawl/engine/parser"
	"github.com/nathoo/kanjicrawl/engine/save"
	"github.com/nathoo/kanjicrawl/kana"
	"github.com/nathoo/kanjicrawl/types"
)

// CLI handles terminal interaction with the player.
type CLI struct {
	Engine    *engine.Engine
	In        io.Reader
	Out       io.Writer
	SaveDir   string
	Trace     bool
	EchoInput bool   // echo each input line after the prompt (for script playback)
	lastCmd   string // for "again"/"g" repeat
}

// New creates a CLI wired to the given engine.
func New(eng *engine.Engine, saveDir string) *CLI {
	return &CLI{
		Engine:  eng,
		In:      os.Stdin,
		Out:     os.Stdout,
		SaveDir: saveDir,
	}
}

// Run starts the game loop. It shows the intro and the first floor, then
// loops: prompt, input, dispatch, output. It returns when the input ends or
// the player quits.
func (c *CLI) Run(ctx context.Context) {
	info := c.Engine.Info
	if info.Intro != "" {
		c.printLine(info.Intro)
		c.printLine("")
	}
	c.printView(c.Engine.Snapshot())

	scanner := bufio.NewScanner(c.In)
	for {
		if ctx.Err() != nil {
			return
		}
		c.print(c.prompt())
		if !scanner.Scan() {
			break
		}
		raw := scanner.Text()
		input := strings.TrimSpace(raw)
		// Skip comment lines (for script files).
		if strings.HasPrefix(input, "#") {
			continue
		}
		phase := c.Engine.State.Phase
		if c.EchoInput {
			c.printLine(echoLine(input, phase))
		}
		if input == "" && phase != types.PhaseEncounter {
			continue
		}

		if isMeta(input) {
			if c.handleMeta(input) {
				return // /quit
			}
			continue
		}

		// "again" / "g" repeats the last command outside of fights, where
		// "g" would otherwise be an answer.
		lower := strings.ToLower(input)
		if phase != types.PhaseEncounter && (lower == "again" || lower == "g") {
			if c.lastCmd == "" {
				c.printLine("Nothing to repeat.")
				continue
			}
			input = c.lastCmd
		} else if input != "" {
			c.lastCmd = input
		}

		a := parser.Parse(input, phase)
		if a.Kind == types.ActionNone {
			c.printLine("I don't understand that. Type /help for commands.")
			continue
		}

		result := c.Engine.Step(ctx, a)
		c.printResult(result)
		if c.Trace {
			c.printTrace(result)
		}

		if result.View.Phase == types.PhaseGameOver {
			if result.View.EndReason == "quit" {
				return
			}
			c.printSystem("The run is over. /load a save or /quit.")
		}
	}
}

// metaCommands are the slash commands handled outside the engine. Other
// slash-prefixed words ("/flee") go to the parser.
var metaCommands = map[string]bool{
	"/quit": true, "/exit": true, "/save": true, "/load": true,
	"/help": true, "/state": true, "/trace": true, "/map": true,
}

func isMeta(input string) bool {
	if !strings.HasPrefix(input, "/") {
		return false
	}
	return metaCommands[strings.ToLower(strings.Fields(input)[0])]
}

// handleMeta dispatches meta-commands. Returns true if the game should exit.
func (c *CLI) handleMeta(input string) bool {
	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	var arg string
	if len(parts) > 1 {
		arg = parts[1]
	}

	switch cmd {
	case "/quit", "/exit":
		c.printSystem("Goodbye.")
		return true

	case "/save":
		c.cmdSave(arg)

	case "/load":
		c.cmdLoad(arg)

	case "/help":
		c.cmdHelp()

	case "/state":
		c.cmdState()

	case "/map":
		c.printView(c.Engine.Snapshot())

	case "/trace":
		c.Trace = !c.Trace
		if c.Trace {
			c.printSystem("Trace output enabled.")
		} else {
			c.printSystem("Trace output disabled.")
		}
	}

	return false
}

func (c *CLI) cmdSave(name string) {
	data, err := c.Engine.Save()
	if err != nil {
		c.printSystem(fmt.Sprintf("Save failed: %v", err))
		return
	}
	if _, err := save.WriteSlot(c.SaveDir, name, data); err != nil {
		c.printSystem(fmt.Sprintf("Save failed: %v", err))
		return
	}
	c.printSystem(fmt.Sprintf("Game saved to %s.", slotName(name)))
}

func (c *CLI) cmdLoad(name string) {
	data, err := save.ReadSlot(c.SaveDir, name)
	if err != nil {
		c.printSystem(fmt.Sprintf("Load failed: %v", err))
		return
	}
	sd, err := c.Engine.Load(data)
	if err != nil {
		c.printSystem(fmt.Sprintf("Load failed: %v", err))
		return
	}
	c.printSystem(fmt.Sprintf("Game loaded from %s (turn %d, floor %d).", slotName(name), sd.Turn, sd.Floor))
	c.printView(c.Engine.Snapshot())
}

func slotName(name string) string {
	if strings.TrimSpace(name) == "" {
		return save.DefaultSlot
	}
	return name
}

func (c *CLI) cmdHelp() {
	help := []string{
		"System:",
		"  /save [name]  Save game (default: quicksave)",
		"  /load [name]  Load game (default: quicksave)",
		"  /quit         Exit game",
		"  /help         Show this help",
		"  /map          Show the map again",
		"  /state        Debug: dump current state",
		"  /trace        Toggle debug trace output",
		"",
		"Exploring:",
		"  n/s/e/w, h/j/k/l, go <dir>  Move (walk into an enemy to fight)",
		"  wait (z)                    Let the enemies move",
		"  potion (p)                  Drink a potion",
		"  again (g)                   Repeat your last command",
		"  quit (q)                    End the run",
		"",
		"Fighting:",
		"  <reading>     Answer in hiragana, katakana or romaji",
		"  (empty line)  Continue to the next question",
		"  flee          Run away",
		"  /quit         End the run (q alone is taken as an answer)",
		"  potion        Drink a potion (does not cost a question)",
		"",
		"Map: @ you, > stairs down, ! herb, + potion, letters are enemies.",
	}
	for _, line := range help {
		c.printLine(line)
	}
}

func (c *CLI) cmdState() {
	for _, line := range c.Engine.DebugLines() {
		c.printSystem(line)
	}
}

func (c *CLI) printTrace(result types.Result) {
	if result.Err != nil {
		c.printSystem(fmt.Sprintf("[trace] Error: %v", result.Err))
	}
	if len(result.Events) > 0 {
		c.printSystem(fmt.Sprintf("[trace] Events: %d", len(result.Events)))
		for _, e := range result.Events {
			c.printSystem(fmt.Sprintf("[trace]   %s %v", e.Type, e.Data))
		}
	}
}

func (c *CLI) printResult(result types.Result) {
	for _, line := range result.Output {
		c.printLine(line)
	}
	if result.Err != nil && !errors.Is(result.Err, types.ErrInvalidAction) {
		c.printSystem(fmt.Sprintf("Error: %v", result.Err))
	}
	if result.Err == nil {
		c.printView(result.View)
	}
}

// printView shows the map while exploring and the question while fighting.
func (c *CLI) printView(v types.View) {
	switch v.Phase {
	case types.PhasePlayerTurn:
		for _, row := range engine.MapRows(v) {
			c.printLine(row)
		}
		c.printLine(statusLine(v))
	case types.PhaseEncounter:
		if enc := v.Encounter; enc != nil {
			c.printLine(encounterLine(*enc))
		}
	}
}

// statusLine summarises the player between moves.
func statusLine(v types.View) string {
	p := v.Player
	return fmt.Sprintf("HP %d/%d | Lv %d (XP %d/%d) | Atk %d | Potions %d | Floor %d | Turn %d",
		p.HP, p.MaxHP, p.Level, p.XP, v.NextLevelXP, p.Attack, p.Potions, v.Floor, v.Turn)
}

// encounterLine shows the enemy and what the player must do next.
func encounterLine(enc types.EncounterView) string {
	head := fmt.Sprintf("%s HP %d/%d", enc.EnemyName, enc.EnemyHP, enc.EnemyMaxHP)
	if enc.State == types.EncounterResolved {
		return head + " | press Enter for the next question"
	}
	return fmt.Sprintf("%s | read: %s", head, enc.Surface)
}

// prompt shows the kana-mode marker during a fight.
func (c *CLI) prompt() string {
	if c.Engine.State.Phase == types.PhaseEncounter {
		return "よみ> "
	}
	return "> "
}

// echoLine is what script playback prints for an input line. Answers typed
// in romaji are shown with the kana they were read as.
func echoLine(input string, phase types.Phase) string {
	if phase != types.PhaseEncounter || isMeta(input) {
		return input
	}
	if k := kana.Normalize(input); k != "" && k != input && kana.IsKana(k) {
		return input + " (" + k + ")"
	}
	return input
}

func (c *CLI) printLine(text string) {
	fmt.Fprintln(c.Out, text)
}

func (c *CLI) print(text string) {
	fmt.Fprint(c.Out, text)
}

func (c *CLI) printSystem(text string) {
	fmt.Fprintf(c.Out, "[%s]\n", text)
}
