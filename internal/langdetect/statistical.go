package langdetect

import (
	"context"
	"strings"

	"github.com/abadojack/whatlanggo"
)

// Statistical detects languages offline from trigram profiles
type Statistical struct{}

func NewStatistical() *Statistical {
	return &Statistical{}
}

func (s *Statistical) Name() string {
	return "statistical"
}

// Detect fails with ErrUndetermined for unreliable guesses
func (s *Statistical) Detect(_ context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrUndetermined
	}

	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return "", ErrUndetermined
	}

	code := info.Lang.Iso6391()
	if code == "" {
		return "", ErrUndetermined
	}
	return code, nil
}
