package console

import (
	"bytes"
	"os"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestOutput(t *testing.T) {
	color.NoColor = true
	var out, errOut bytes.Buffer
	SetOutput(&out, &errOut)
	defer SetOutput(os.Stdout, os.Stderr)

	PInfof(PictoCompass, "Heading: %s", White("45° 0'"))
	Printf("Axis X: %s\n", Yellow("none"))
	Warnf("axis overflow")

	assert.Equal(t, "🧭 Heading: 45° 0'\nAxis X: none\n", out.String())
	assert.Equal(t, "WARN: axis overflow\n", errOut.String())
}

func TestExit(t *testing.T) {
	err := Exit(2, "read error: %s", "nack")
	assert.Equal(t, 2, err.ExitCode())
	assert.Equal(t, "read error: nack", err.Error())
}
