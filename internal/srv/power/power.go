// Package power classifies button presses and drives the Active/Asleep state machine.
package power

import (
	"time"

	"github.com/sirupsen/logrus"
)

type State int

const (
	Active State = iota
	Asleep
)

func (s State) String() string {
	if s == Asleep {
		return "asleep"
	}
	return "active"
}

type Action int

const (
	NoAction Action = iota
	Sleep
)

type Phase int

const (
	Idle Phase = iota
	Pressed
)

// ButtonState is owned by the caller and passed to every Sample call.
type ButtonState struct {
	Phase          Phase
	PressStartedAt time.Time
	// LastPressed is the previous raw sample, used for edge detection.
	LastPressed bool
}

const (
	DefaultShortPress = 1000 * time.Millisecond
	DefaultLongPress  = 3000 * time.Millisecond
)

// Classifier turns raw button samples into power actions.
type Classifier struct {
	ShortPress time.Duration
	LongPress  time.Duration
}

func NewClassifier(shortPress, longPress time.Duration) Classifier {
	if shortPress <= 0 {
		shortPress = DefaultShortPress
	}
	if longPress <= shortPress {
		longPress = DefaultLongPress
	}
	return Classifier{ShortPress: shortPress, LongPress: longPress}
}

// Sample classifies one raw sample taken at now.
// Short and long presses both request sleep; medium presses are ignored.
func (c Classifier) Sample(st *ButtonState, now time.Time, pressed bool) Action {
	rising := pressed && !st.LastPressed
	st.LastPressed = pressed

	switch st.Phase {
	case Idle:
		if rising {
			st.Phase = Pressed
			st.PressStartedAt = now
		}
		return NoAction
	case Pressed:
		held := now.Sub(st.PressStartedAt)
		if pressed {
			if held >= c.LongPress {
				logrus.Debugf("Long press (%v)", held)
				st.reset()
				return Sleep
			}
			return NoAction
		}
		st.reset()
		switch {
		case held < c.ShortPress:
			logrus.Debugf("Short press (%v)", held)
			return Sleep
		case held >= c.LongPress:
			logrus.Debugf("Long press released (%v)", held)
			return Sleep
		default:
			logrus.Debugf("Ignore medium press (%v)", held)
			return NoAction
		}
	}
	return NoAction
}

func (st *ButtonState) reset() {
	st.Phase = Idle
	st.PressStartedAt = time.Time{}
}
