// Package langdetect guesses the language of a work title for item labels.
package langdetect

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ppiankov/openalexbot/internal/model"
)

// ErrUndetermined means no language could be detected with confidence
var ErrUndetermined = errors.New("language undetermined")

// Detector returns an ISO 639-1 code for text
type Detector interface {
	Name() string
	Detect(ctx context.Context, text string) (string, error)
}

// New creates the detector selected by configuration
func New(cfg model.LanguageConfig) (Detector, error) {
	switch strings.ToLower(cfg.Detector) {
	case model.DetectorStatistical, "":
		return NewStatistical(), nil
	case model.DetectorOpenAI:
		return NewOpenAI(cfg)
	default:
		return nil, fmt.Errorf("%w: unknown language detector %q (supported: statistical, openai)", model.ErrInvalidInput, cfg.Detector)
	}
}
