package upload

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
)

// Kind is a detected file type.
type Kind string

const (
	KindPNG     Kind = "image/png"
	KindJPEG    Kind = "image/jpeg"
	KindWebP    Kind = "image/webp"
	KindPDF     Kind = "application/pdf"
	KindUnknown Kind = ""
)

// SniffLen is how many leading bytes Sniff needs to classify every supported type.
const SniffLen = 16

// ErrUnsupportedType indicates the payload does not start with any allowed signature.
var ErrUnsupportedType = errors.New("unsupported file type")

var (
	pngMagic  = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	jpegMagic = []byte{0xFF, 0xD8, 0xFF}
	pdfMagic  = []byte("%PDF-")
	riffMagic = []byte("RIFF")
	webpTag   = []byte("WEBP")
)

// Sniff classifies a payload by its magic bytes. The declared Content-Type of
// an upload is attacker-controlled; the signature is not.
func Sniff(prefix []byte) Kind {
	switch {
	case bytes.HasPrefix(prefix, pngMagic):
		return KindPNG
	case bytes.HasPrefix(prefix, jpegMagic):
		return KindJPEG
	case bytes.HasPrefix(prefix, pdfMagic):
		return KindPDF
	case len(prefix) >= 12 && bytes.Equal(prefix[:4], riffMagic) && bytes.Equal(prefix[8:12], webpTag):
		return KindWebP
	default:
		return KindUnknown
	}
}

// Validate checks the payload's signature against the declared content type.
// Both an unknown signature and a signature/declaration mismatch fail: a file
// claiming to be a PNG must actually start like one. The declared value is a
// full media type header, so parameters and casing are normalized away before
// the comparison.
func Validate(declared string, prefix []byte) (Kind, error) {
	kind := Sniff(prefix)
	if kind == KindUnknown {
		return KindUnknown, ErrUnsupportedType
	}
	if declared != "" {
		mediaType, _, err := mime.ParseMediaType(declared)
		if err != nil {
			return KindUnknown, fmt.Errorf("parse declared type %q: %w", declared, err)
		}
		if mediaType != string(kind) {
			return KindUnknown, fmt.Errorf("declared type %q does not match detected %q", mediaType, kind)
		}
	}
	return kind, nil
}
