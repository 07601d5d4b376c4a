package termui

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableAlignsAccentedText(t *testing.T) {
	var buf bytes.Buffer
	err := Table(&buf, []string{"Logradouro", "Nº"}, [][]string{
		{"RUA SÃO BENTO", "10"},
		{"AV A", "1200"},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Logradouro     Nº", lines[0])
	assert.Equal(t, "-------------  ----", lines[1])
	assert.Equal(t, "RUA SÃO BENTO  10", lines[2])
	assert.Equal(t, "AV A           1200", lines[3])
}

func TestLines(t *testing.T) {
	got := Lines([][]string{{"RUA A", "10"}, {"AVENIDA B", "2"}})
	assert.Equal(t, []string{"RUA A      10", "AVENIDA B  2"}, got)
}

func TestPickerKeys(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []int
		wantErr error
	}{
		{"enter without marks", "\r", []int{}, nil},
		{"toggle first and third", " jj \r", []int{0, 2}, nil},
		{"arrow keys", "\x1b[B \x1b[A\r", []int{1}, nil},
		{"windows arrows", "\xe0P \r", []int{1}, nil},
		{"toggle off", "  \r", []int{}, nil},
		{"select all", "a\r", []int{0, 1, 2}, nil},
		{"all twice clears", "aa\r", []int{}, nil},
		{"cursor stays in bounds", "kkk jjjjjj \r", []int{0, 2}, nil},
		{"quit", "q", nil, ErrCanceled},
		{"ctrl-c", " \x03", nil, ErrCanceled},
		{"eof", " ", nil, io.EOF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPicker([]string{"a", "b", "c"})
			got, err := p.run(bufio.NewReader(strings.NewReader(tt.input)), io.Discard)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPickerRender(t *testing.T) {
	p := newPicker([]string{"RUA A", "RUA B"})
	p.selected[1] = true

	var buf bytes.Buffer
	p.render(&buf)
	assert.Contains(t, buf.String(), "> [ ] RUA A")
	assert.Contains(t, buf.String(), "  [x] RUA B")
}

func TestPickRequiresTerminal(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "stdin")
	require.NoError(t, err)
	defer f.Close()

	_, err = Pick(f, io.Discard, []string{"a"})
	assert.ErrorIs(t, err, ErrNotTerminal)

	got, err := Pick(f, io.Discard, nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}
