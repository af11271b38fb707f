package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestStyles_NoColor(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = prev }()

	if got := PhaseLabel("Design"); got != "[Design]" {
		t.Errorf("PhaseLabel = %q", got)
	}
	if got := PhaseLabel(""); got != "[-]" {
		t.Errorf("PhaseLabel(empty) = %q", got)
	}
	if got := SlackLabel(3); got != "3" {
		t.Errorf("SlackLabel = %q", got)
	}
	if got := CriticalMarker(false); got != " " {
		t.Errorf("CriticalMarker(false) = %q", got)
	}
	if got := ModeBadge(true); got != "degraded" {
		t.Errorf("ModeBadge(true) = %q", got)
	}

	var buf bytes.Buffer
	PrintBanner(&buf)
	if !strings.Contains(buf.String(), "G A N T T") {
		t.Errorf("banner missing brand: %q", buf.String())
	}
}

func TestPhaseColorIndex_Stable(t *testing.T) {
	a := phaseColorIndex("build")
	for i := 0; i < 5; i++ {
		if phaseColorIndex("build") != a {
			t.Fatal("expected stable color index")
		}
	}
	if a < 0 || a >= len(phaseColors) {
		t.Errorf("index %d out of range", a)
	}
}
