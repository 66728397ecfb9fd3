package tui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/verte-zerg/typerush/internal/model"
)

type keyMap struct {
	Start      key.Binding
	Pause      key.Binding
	Resume     key.Binding
	End        key.Binding
	Restart    key.Binding
	Backspace  key.Binding
	Difficulty key.Binding
	Cycle      key.Binding
	PowerUps   [model.PowerUpCount]key.Binding
	Quit       key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Start:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "start")),
		Pause:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "pause")),
		Resume:     key.NewBinding(key.WithKeys("esc", "enter"), key.WithHelp("esc", "resume")),
		End:        key.NewBinding(key.WithKeys("ctrl+e"), key.WithHelp("ctrl+e", "end")),
		Restart:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "menu")),
		Backspace:  key.NewBinding(key.WithKeys("backspace", "ctrl+h")),
		Difficulty: key.NewBinding(key.WithKeys("1", "2", "3"), key.WithHelp("1/2/3", "difficulty")),
		Cycle:      key.NewBinding(key.WithKeys("left", "right"), key.WithHelp("←/→", "difficulty")),
		PowerUps: [model.PowerUpCount]key.Binding{
			model.TimeFreeze:    key.NewBinding(key.WithKeys("alt+1", "f1"), key.WithHelp("f1", model.TimeFreeze.Label())),
			model.DoubleScore:   key.NewBinding(key.WithKeys("alt+2", "f2"), key.WithHelp("f2", model.DoubleScore.Label())),
			model.ErrorImmunity: key.NewBinding(key.WithKeys("alt+3", "f3"), key.WithHelp("f3", model.ErrorImmunity.Label())),
		},
		Quit: key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
	}
}

// idleHelp and friends feed help.Model.ShortHelpView per session phase.
func (k keyMap) idleHelp() []key.Binding {
	return []key.Binding{k.Start, k.Difficulty, k.Cycle, k.Quit}
}

func (k keyMap) playingHelp() []key.Binding {
	return []key.Binding{k.PowerUps[0], k.PowerUps[1], k.PowerUps[2], k.Pause, k.End, k.Restart}
}

func (k keyMap) pausedHelp() []key.Binding {
	return []key.Binding{k.Resume, k.End, k.Restart}
}

func (k keyMap) finishedHelp() []key.Binding {
	return []key.Binding{withHelp(k.Start, "enter", "play again"), k.Difficulty, k.Restart, k.Quit}
}

func withHelp(b key.Binding, keyLabel, desc string) key.Binding {
	b.SetHelp(keyLabel, desc)
	return b
}
