package audio

import (
	"fmt"
	"strings"
)

// Window is the shape of the analysis/synthesis window.
type Window uint

const (
	WindowUndefined = Window(iota)
	WindowHann
	WindowHamming
	WindowRectangular
	endOfWindow
)

func (w Window) String() string {
	switch w {
	case WindowUndefined:
		return "undefined"
	case WindowHann:
		return "hann"
	case WindowHamming:
		return "hamming"
	case WindowRectangular:
		return "rectangular"
	default:
		return fmt.Sprintf("unknown_window_%d", uint(w))
	}
}

func ParseWindow(s string) (Window, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for w := WindowHann; w < endOfWindow; w++ {
		if w.String() == s {
			return w, nil
		}
	}
	return WindowUndefined, NewError(KindConfiguration, "ParseWindow", fmt.Errorf("unknown window %q", s))
}

func (w Window) MarshalText() ([]byte, error) {
	return []byte(w.String()), nil
}

func (w *Window) UnmarshalText(b []byte) error {
	v, err := ParseWindow(string(b))
	if err != nil {
		return err
	}
	*w = v
	return nil
}
