package render

import (
	"bytes"
	"context"
	"testing"

	"github.com/refgraph/refgraph/pkg/errors"
)

const tinySVG = `<svg xmlns="http://www.w3.org/2000/svg" width="4" height="4"><rect width="4" height="4"/></svg>`

func TestConvertWithoutConverter(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	if ConverterAvailable() {
		t.Fatal("converter should not be found on an empty PATH")
	}
	_, err := ToPDF(context.Background(), []byte(tinySVG))
	if !errors.Is(err, errors.ErrCodeUnavailable) {
		t.Errorf("ToPDF() error = %v, want UNAVAILABLE", err)
	}
}

func TestToPNG(t *testing.T) {
	if !ConverterAvailable() {
		t.Skip(Converter + " not installed")
	}
	png, err := ToPNG(context.Background(), []byte(tinySVG), 2)
	if err != nil {
		t.Fatalf("ToPNG() error = %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Error("ToPNG() did not return a PNG")
	}
}
