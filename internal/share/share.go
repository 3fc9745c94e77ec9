// Package share builds links that reproduce a set of game options.
package share

import (
	"fmt"
	"net/url"

	"github.com/atotto/clipboard"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/verte-zerg/sharpie/internal/quiz"
)

// DefaultBaseURL points at a locally running `sharpie serve`.
const DefaultBaseURL = "http://localhost:8080/play"

// Link returns base with the encoded options as its query.
func Link(base string, opts quiz.Options) (string, error) {
	if base == "" {
		base = DefaultBaseURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base url %q: %w", base, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("base url %q must be absolute", base)
	}
	u.RawQuery = opts.Encode()
	u.Fragment = ""
	return u.String(), nil
}

// QR renders text as a QR code using half-block characters.
func QR(text string) (string, error) {
	code, err := qrcode.New(text, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("failed to encode qr code: %w", err)
	}
	return code.ToSmallString(false), nil
}

// Copy places text on the system clipboard.
func Copy(text string) error {
	if clipboard.Unsupported {
		return fmt.Errorf("clipboard is not available on this system")
	}
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("failed to copy to clipboard: %w", err)
	}
	return nil
}
