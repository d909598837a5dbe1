package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

// testPNG produces an in-memory PNG of the given dimensions.
func testPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode test png: %v", err)
	}
	return buf.Bytes()
}

func TestGenerateVariants(t *testing.T) {
	src := testPNG(t, 1200, 800)

	variants, err := GenerateVariants(src, nil)
	if err != nil {
		t.Fatalf("GenerateVariants: %v", err)
	}

	// 1200px wide source: thumb, sm, md generated at full breakpoint
	// width, lg capped at 1200, then generation stops.
	if len(variants) != 4 {
		t.Fatalf("expected 4 variants, got %d", len(variants))
	}

	wantWidths := map[string]int{"thumb": 320, "sm": 640, "md": 1024, "lg": 1200}
	for _, v := range variants {
		want, ok := wantWidths[v.Name]
		if !ok {
			t.Errorf("unexpected variant %q", v.Name)
			continue
		}
		if v.Width != want {
			t.Errorf("%s width = %d, want %d", v.Name, v.Width, want)
		}
		if v.ContentType != "image/jpeg" {
			t.Errorf("%s content type = %q", v.Name, v.ContentType)
		}
		if len(v.Data) == 0 {
			t.Errorf("%s has empty data", v.Name)
		}
		// Aspect ratio preserved.
		wantHeight := 800 * v.Width / 1200
		if v.Height != wantHeight {
			t.Errorf("%s height = %d, want %d", v.Name, v.Height, wantHeight)
		}
	}
}

func TestGenerateVariantsNoUpscale(t *testing.T) {
	src := testPNG(t, 200, 100)

	variants, err := GenerateVariants(src, nil)
	if err != nil {
		t.Fatalf("GenerateVariants: %v", err)
	}

	// Source narrower than the smallest breakpoint: one capped variant.
	if len(variants) != 1 {
		t.Fatalf("expected 1 variant, got %d", len(variants))
	}
	if variants[0].Width != 200 {
		t.Errorf("width = %d, want 200 (no upscaling)", variants[0].Width)
	}
}

func TestGenerateVariantsBadInput(t *testing.T) {
	_, err := GenerateVariants([]byte("not an image"), nil)
	if err == nil {
		t.Error("expected error for undecodable input")
	}
}

func TestGenerateVariantsCustom(t *testing.T) {
	src := testPNG(t, 500, 500)

	variants, err := GenerateVariants(src, []Variant{{Name: "square", Width: 100, Quality: 70}})
	if err != nil {
		t.Fatalf("GenerateVariants: %v", err)
	}
	if len(variants) != 1 {
		t.Fatalf("expected 1 variant, got %d", len(variants))
	}
	if variants[0].Name != "square" || variants[0].Width != 100 || variants[0].Height != 100 {
		t.Errorf("unexpected variant: %+v", variants[0])
	}
}
