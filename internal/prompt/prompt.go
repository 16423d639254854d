// Package prompt collects interactive answers on the terminal, with tab
// completion over a fixed suggestion set.
package prompt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// ErrAborted is returned when the user cancels with Esc or Ctrl-C.
var ErrAborted = errors.New("prompt aborted")

// Question is one value to collect. Suggestions feed the input's tab
// completion; Default is used when the answer is left empty.
type Question struct {
	Key         string
	Prompt      string
	Default     string
	Suggestions []string
}

// Ask runs the questions in sequence and returns the answers keyed by
// Question.Key.
func Ask(questions []Question) (map[string]string, error) {
	if len(questions) == 0 {
		return map[string]string{}, nil
	}
	m := newModel(questions)
	final, err := tea.NewProgram(m).Run()
	if err != nil {
		return nil, fmt.Errorf("prompt: %w", err)
	}
	fm, ok := final.(model)
	if !ok || !fm.done {
		return nil, ErrAborted
	}

	answers := make(map[string]string, len(questions))
	for i, q := range questions {
		val := strings.TrimSpace(fm.inputs[i].Value())
		if val == "" {
			val = q.Default
		}
		answers[q.Key] = val
	}
	return answers, nil
}

type model struct {
	questions []Question
	inputs    []textinput.Model
	idx       int
	done      bool
}

func newModel(questions []Question) model {
	inputs := make([]textinput.Model, len(questions))
	for i, q := range questions {
		ti := textinput.New()
		ti.Placeholder = q.Default
		ti.CharLimit = 256
		if len(q.Suggestions) > 0 {
			ti.ShowSuggestions = true
			ti.SetSuggestions(q.Suggestions)
		}
		inputs[i] = ti
	}
	m := model{questions: questions, inputs: inputs}
	m.inputs[0].Focus()
	return m
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if m.idx < len(m.inputs)-1 {
				m.inputs[m.idx].Blur()
				m.idx++
				m.inputs[m.idx].Focus()
				return m, textinput.Blink
			}
			m.done = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.inputs[m.idx], cmd = m.inputs[m.idx].Update(msg)
	return m, cmd
}

func (m model) View() string {
	if m.done {
		return ""
	}
	return fmt.Sprintf("%s: %s\n", m.questions[m.idx].Prompt, m.inputs[m.idx].View())
}
