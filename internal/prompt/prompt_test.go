package prompt

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTerminalConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"yes\n", true},
		{"  YES \n", true},
		{"n\n", false},
		{"\n", false},
		{"maybe\n", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var out bytes.Buffer
			term := NewTerminal(strings.NewReader(tt.input), &out)
			assert.Equal(t, tt.want, term.Confirm("Delete it?", "Delete scene"))
			assert.True(t, strings.HasPrefix(out.String(), "Delete scene: Delete it? [y/N] "))
		})
	}
}

func TestTerminalReadsSuccessiveAnswers(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminal(strings.NewReader("y\nn\n"), &out)

	assert.True(t, term.Confirm("first", "t"))
	assert.False(t, term.Confirm("second", "t"))
	assert.False(t, term.Confirm("third", "t"))
}

func TestFixed(t *testing.T) {
	assert.True(t, Fixed(true).Confirm("m", "t"))
	assert.False(t, Fixed(false).Confirm("m", "t"))
}
