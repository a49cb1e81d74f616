package upload

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Sniffer determines the MIME type of a file from its content.
type Sniffer interface {
	Sniff(path string) (string, error)
}

// ContentSniffer inspects file headers with the mimetype detector.
type ContentSniffer struct{}

func (ContentSniffer) Sniff(path string) (string, error) {
	detected, err := mimetype.DetectFile(path)
	if err != nil {
		return "", err
	}
	m, _, _ := strings.Cut(detected.String(), ";")
	return strings.TrimSpace(m), nil
}

// SnifferFunc adapts a function to the Sniffer interface.
type SnifferFunc func(path string) (string, error)

func (f SnifferFunc) Sniff(path string) (string, error) {
	return f(path)
}
