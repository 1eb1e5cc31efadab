// Package parser converts typed command lines into engine actions.
// Intentionally dumb: no NLP, just table lookups.
package parser

import (
	"strings"

	"github.com/nathoo/kanjicrawl/types"
)

var directionExpansions = map[string]types.ActionKind{
	"n":     types.ActionMoveUp,
	"north": types.ActionMoveUp,
	"up":    types.ActionMoveUp,
	"k":     types.ActionMoveUp,
	"s":     types.ActionMoveDown,
	"south": types.ActionMoveDown,
	"down":  types.ActionMoveDown,
	"j":     types.ActionMoveDown,
	"w":     types.ActionMoveLeft,
	"west":  types.ActionMoveLeft,
	"left":  types.ActionMoveLeft,
	"h":     types.ActionMoveLeft,
	"e":     types.ActionMoveRight,
	"east":  types.ActionMoveRight,
	"right": types.ActionMoveRight,
	"l":     types.ActionMoveRight,
}

var verbAliases = map[string]string{
	// Movement
	"go":   "go",
	"walk": "go",
	"move": "go",

	// Waiting
	"wait": "wait",
	"z":    "wait",
	"rest": "wait",

	// Potions
	"potion": "potion",
	"drink":  "potion",
	"quaff":  "potion",
	"use":    "potion",
	"p":      "potion",

	// Leaving a fight
	"flee":    "flee",
	"escape":  "flee",
	"retreat": "flee",

	// Answering explicitly
	"answer": "answer",
	"a":      "answer",

	// Ending the run
	"quit": "quit",
	"q":    "quit",
	"exit": "quit",
}

// Parse converts a raw command line into an Action for the given phase.
//
// During an encounter any line that is not a known command is taken as the
// answer, and an empty line confirms the resolved question. Outside an
// encounter unknown lines parse to ActionNone. Quitting from an encounter
// needs the slash form so a typed answer can never end the run.
func Parse(input string, phase types.Phase) types.Action {
	input = strings.TrimSpace(input)
	encounter := phase == types.PhaseEncounter
	if input == "" {
		if encounter {
			return types.Action{Kind: types.ActionConfirm}
		}
		return types.Action{}
	}

	words := strings.Fields(strings.ToLower(input))
	verb := strings.TrimPrefix(words[0], "/")

	if len(words) == 1 {
		if dir, ok := directionExpansions[verb]; ok && !encounter {
			return types.Action{Kind: dir}
		}
	}

	switch verbAliases[verb] {
	case "go":
		if len(words) == 2 {
			if dir, ok := directionExpansions[words[1]]; ok && !encounter {
				return types.Action{Kind: dir}
			}
		}
	case "wait":
		if len(words) == 1 && !encounter {
			return types.Action{Kind: types.ActionWait}
		}
	case "potion":
		if len(words) == 1 || (len(words) == 2 && words[1] == "potion") {
			return types.Action{Kind: types.ActionUsePotion}
		}
	case "flee":
		if len(words) == 1 {
			return types.Action{Kind: types.ActionFlee}
		}
	case "answer":
		if len(words) > 1 {
			return types.Action{Kind: types.ActionSubmitText, Text: strings.Join(strings.Fields(input)[1:], " ")}
		}
	case "quit":
		// Mid-fight a bare "q" or "quit" is a (wrong) answer; only /quit ends the run.
		if len(words) == 1 && (!encounter || strings.HasPrefix(words[0], "/")) {
			return types.Action{Kind: types.ActionQuit}
		}
	}

	if encounter {
		return types.Action{Kind: types.ActionSubmitText, Text: input}
	}
	return types.Action{}
}
