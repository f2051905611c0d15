//go:build !tesseract

package main

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/receipt-ocr/internal/config"
	"github.com/zombor/receipt-ocr/internal/scanning"
)

var _ = Describe("newScanner without tesseract", func() {
	It("returns the unavailable error", func() {
		cfg := &config.Config{Scanner: config.ScannerTesseract, TesseractLanguages: []string{"fra"}}
		_, err := newScanner(context.Background(), cfg)
		Expect(err).To(MatchError(scanning.ErrTesseractUnavailable))
	})
})
