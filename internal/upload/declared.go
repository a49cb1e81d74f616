package upload

import (
	"fmt"
	"strings"
)

// DeclaredType is the content type the uploader says the batch contains.
type DeclaredType string

const (
	DeclaredAuto DeclaredType = "auto"
	DeclaredJPEG DeclaredType = "jpeg"
	DeclaredPNG  DeclaredType = "png"
	DeclaredWebP DeclaredType = "webp"
)

// Canonical MIME types accepted for ingestion.
const (
	MIMEJPEG = "image/jpeg"
	MIMEPNG  = "image/png"
	MIMEWebP = "image/webp"
)

// ParseDeclaredType normalizes a declared type. An empty value means auto.
func ParseDeclaredType(value string) (DeclaredType, error) {
	switch DeclaredType(strings.ToLower(strings.TrimSpace(value))) {
	case "", DeclaredAuto:
		return DeclaredAuto, nil
	case DeclaredJPEG:
		return DeclaredJPEG, nil
	case DeclaredPNG:
		return DeclaredPNG, nil
	case DeclaredWebP:
		return DeclaredWebP, nil
	}
	return "", &ValidationError{
		Field:   "declared_type",
		Message: fmt.Sprintf("unsupported value %q (want auto, jpeg, png, or webp)", value),
	}
}

// MIME returns the canonical MIME type for the declared type, or "" for auto.
func (d DeclaredType) MIME() string {
	switch d {
	case DeclaredJPEG:
		return MIMEJPEG
	case DeclaredPNG:
		return MIMEPNG
	case DeclaredWebP:
		return MIMEWebP
	}
	return ""
}

func (d DeclaredType) String() string {
	return string(d)
}

func isAllowedMIME(m string) bool {
	switch m {
	case MIMEJPEG, MIMEPNG, MIMEWebP:
		return true
	}
	return false
}

func extFromMIME(m string) string {
	switch m {
	case MIMEPNG:
		return "png"
	case MIMEWebP:
		return "webp"
	}
	return "jpg"
}
