package prompt

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaderPrompterAsk(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	p := NewReader(strings.NewReader("  script.py \nout.json\n"), &out)

	first, err := p.Ask("input? ")
	require.NoError(t, err)
	assert.Equal(t, "script.py", first)

	second, err := p.Ask("output? ")
	require.NoError(t, err)
	assert.Equal(t, "out.json", second)

	assert.Equal(t, "input? output? ", out.String())
	assert.NoError(t, p.Close())
}

func TestReaderPrompterEOF(t *testing.T) {
	t.Parallel()

	p := NewReader(strings.NewReader(""), &bytes.Buffer{})
	_, err := p.Ask("input? ")
	assert.True(t, errors.Is(err, ErrAborted))
}

func TestRequiredSkipsBlankAnswers(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	p := NewReader(strings.NewReader("\n   \nmain.py\n"), &out)

	answer, err := Required(p, "file: ")
	require.NoError(t, err)
	assert.Equal(t, "main.py", answer)
	assert.Equal(t, 3, strings.Count(out.String(), "file: "))
}

func TestRequiredAborts(t *testing.T) {
	t.Parallel()

	p := NewReader(strings.NewReader("\n"), &bytes.Buffer{})
	_, err := Required(p, "file: ")
	assert.ErrorIs(t, err, ErrAborted)
}

func TestNewNonTerminal(t *testing.T) {
	t.Parallel()

	p := New(strings.NewReader("x\n"), &bytes.Buffer{})
	_, ok := p.(*ReaderPrompter)
	assert.True(t, ok)
}
