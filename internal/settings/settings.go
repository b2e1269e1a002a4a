// Package settings reads the operator-editable settings file.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

var ErrMalformed = errors.New("settings file is malformed")

type File struct {
	Payment *PaymentSettings `json:"payment"`
}

type PaymentSettings struct {
	Mode string `json:"mode"`
}

// Reader re-reads the file on every call so edits apply without a restart.
type Reader struct {
	Path string
}

func NewReader(path string) *Reader {
	return &Reader{Path: path}
}

func (r *Reader) Load() (*File, error) {
	data, err := os.ReadFile(r.Path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", r.Path, err)
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return &f, nil
}

// PaymentMode returns payment.mode. A file without a payment section is
// malformed; an empty mode is returned as is.
func (r *Reader) PaymentMode() (string, error) {
	f, err := r.Load()
	if err != nil {
		return "", err
	}
	if f.Payment == nil {
		return "", fmt.Errorf("%w: no payment section", ErrMalformed)
	}
	return f.Payment.Mode, nil
}
