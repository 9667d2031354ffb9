package pdftext

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/unidoc/unipdf/v3/common/license"
)

// ErrUnlicensed is returned by Open before any license key was registered;
// unipdf refuses text extraction without one
var ErrUnlicensed = errors.New("unidoc license key not set")

var licensed atomic.Bool

// SetLicense registers a UniDoc metered API key for text extraction
func SetLicense(apiKey string) error {
	if apiKey == "" {
		return ErrUnlicensed
	}
	if err := license.SetMeteredKey(apiKey); err != nil {
		return fmt.Errorf("set unidoc license: %w", err)
	}
	licensed.Store(true)
	return nil
}

// Licensed reports whether SetLicense succeeded in this process
func Licensed() bool {
	return licensed.Load()
}
