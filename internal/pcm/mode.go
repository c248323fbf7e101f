// SPDX-License-Identifier: MIT
package pcm

import (
	"fmt"
	"strings"
)

type modeKind uint8

const (
	modeSolo modeKind = iota
	modeMix
	modeIQ
)

// Mode selects how the samples of one frame are folded into a single
// complex value. Exactly one of solo, mix or iq is active; the zero Mode
// is Solo(0).
type Mode struct {
	kind    modeKind
	channel int
}

// Solo passes channel ch through as the real part.
func Solo(ch int) Mode { return Mode{kind: modeSolo, channel: ch} }

// Mix averages all channels into the real part.
func Mix() Mode { return Mode{kind: modeMix} }

// IQ takes channel 0 as the real part and channel 1 as the imaginary part.
func IQ() Mode { return Mode{kind: modeIQ} }

func (m Mode) IsSolo() bool { return m.kind == modeSolo }
func (m Mode) IsMix() bool  { return m.kind == modeMix }
func (m Mode) IsIQ() bool   { return m.kind == modeIQ }

// SoloChannel returns the selected channel. Only meaningful when IsSolo.
func (m Mode) SoloChannel() int { return m.channel }

func (m Mode) String() string {
	switch m.kind {
	case modeMix:
		return "mix"
	case modeIQ:
		return "iq"
	default:
		return fmt.Sprintf("solo(%d)", m.channel)
	}
}

// ParseMode maps "mix", "iq" or "solo" to a Mode. soloChannel is used
// only for "solo".
func ParseMode(name string, soloChannel int) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mix":
		return Mix(), nil
	case "iq":
		return IQ(), nil
	case "solo", "":
		return Solo(soloChannel), nil
	default:
		return Mode{}, fmt.Errorf("%w: %q", ErrMode, name)
	}
}
