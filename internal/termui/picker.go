package termui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"golang.org/x/term"
)

var (
	// ErrCanceled is returned when the user leaves the picker with Esc or
	// Ctrl-C.
	ErrCanceled = errors.New("selection canceled")
	// ErrNotTerminal is returned when stdin is not an interactive terminal.
	ErrNotTerminal = errors.New("not a terminal")
)

type key int

const (
	keyOther key = iota
	keyUp
	keyDown
	keyToggle
	keyAll
	keyEnter
	keyQuit
)

// readKey decodes one key press. Arrow keys arrive as ESC [ A/B, or as a
// 0/224 prefix on Windows consoles.
func readKey(r *bufio.Reader) (key, error) {
	b, err := r.ReadByte()
	if err != nil {
		return keyOther, err
	}

	switch b {
	case 0, 224:
		b2, err := r.ReadByte()
		if err != nil {
			return keyOther, err
		}
		switch b2 {
		case 72:
			return keyUp, nil
		case 80:
			return keyDown, nil
		}
		return keyOther, nil
	case 27:
		if r.Buffered() == 0 {
			return keyQuit, nil
		}
		if b2, _ := r.ReadByte(); b2 != '[' || r.Buffered() == 0 {
			return keyOther, nil
		}
		switch b3, _ := r.ReadByte(); b3 {
		case 'A':
			return keyUp, nil
		case 'B':
			return keyDown, nil
		}
		return keyOther, nil
	case 'k':
		return keyUp, nil
	case 'j':
		return keyDown, nil
	case ' ', 'x':
		return keyToggle, nil
	case 'a':
		return keyAll, nil
	case '\r', '\n':
		return keyEnter, nil
	case 3, 'q':
		return keyQuit, nil
	}
	return keyOther, nil
}

// picker is the selection state, separate from terminal handling.
type picker struct {
	lines    []string
	cursor   int
	selected map[int]bool
}

func newPicker(lines []string) *picker {
	return &picker{lines: lines, selected: make(map[int]bool)}
}

// apply handles a key and reports whether the picker is finished.
func (p *picker) apply(k key) (done bool, err error) {
	switch k {
	case keyUp:
		if p.cursor > 0 {
			p.cursor--
		}
	case keyDown:
		if p.cursor < len(p.lines)-1 {
			p.cursor++
		}
	case keyToggle:
		p.selected[p.cursor] = !p.selected[p.cursor]
	case keyAll:
		all := len(p.indexes()) == len(p.lines)
		for i := range p.lines {
			p.selected[i] = !all
		}
	case keyEnter:
		return true, nil
	case keyQuit:
		return true, ErrCanceled
	}
	return false, nil
}

func (p *picker) indexes() []int {
	out := make([]int, 0, len(p.selected))
	for i, on := range p.selected {
		if on {
			out = append(out, i)
		}
	}
	sort.Ints(out)
	return out
}

func (p *picker) render(w io.Writer) {
	fmt.Fprint(w, "\033[H\033[2J")
	for i, l := range p.lines {
		cursor := "  "
		if i == p.cursor {
			cursor = "> "
		}
		mark := "[ ]"
		if p.selected[i] {
			mark = "[x]"
		}
		fmt.Fprintf(w, "%s%s %s\r\n", cursor, mark, l)
	}
	fmt.Fprint(w, "(↑/↓ mover, espaço marcar, a todos, Enter confirmar, Esc sair)\r\n")
}

// run drives the picker from a key stream.
func (p *picker) run(r *bufio.Reader, w io.Writer) ([]int, error) {
	p.render(w)
	for {
		k, err := readKey(r)
		if err != nil {
			return nil, err
		}
		done, err := p.apply(k)
		if err != nil {
			return nil, err
		}
		if done {
			return p.indexes(), nil
		}
		p.render(w)
	}
}

// Pick shows lines on the terminal and returns the indexes the user marked,
// in ascending order. An empty selection is valid.
func Pick(in *os.File, out io.Writer, lines []string) ([]int, error) {
	if len(lines) == 0 {
		return nil, nil
	}

	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return nil, ErrNotTerminal
	}
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("enter raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	return newPicker(lines).run(bufio.NewReader(in), out)
}
