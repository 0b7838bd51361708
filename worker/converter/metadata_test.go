package converter

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
)

func writeTestPPTX(t *testing.T, path string, slides map[string]string) {
	t.Helper()

	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create test pptx: %v", err)
	}
	defer file.Close()

	w := zip.NewWriter(file)
	defer w.Close()

	entries := map[string]string{
		"[Content_Types].xml":     `<?xml version="1.0"?><Types/>`,
		"ppt/presentation.xml":    `<?xml version="1.0"?><p:presentation/>`,
		"ppt/slides/_rels/s.rels": `<?xml version="1.0"?><Relationships/>`,
	}
	for name, content := range slides {
		entries["ppt/slides/"+name] = content
	}

	for name, content := range entries {
		entry, err := w.Create(name)
		if err != nil {
			t.Fatalf("Failed to add %s: %v", name, err)
		}
		if _, err := entry.Write([]byte(content)); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
}

func TestSlideCount_CountsSlideParts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deck.pptx")
	writeTestPPTX(t, path, map[string]string{
		"slide1.xml": `<p:sld><p:cSld/></p:sld>`,
		"slide2.xml": `<p:sld><p:cSld/></p:sld>`,
		"slide3.xml": `<p:sld><p:cSld/></p:sld>`,
	})

	if got := SlideCount(path); got != 3 {
		t.Errorf("Expected 3 slides, got %d", got)
	}
}

func TestSlideCount_ExcludesHiddenSlides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deck.pptx")
	writeTestPPTX(t, path, map[string]string{
		"slide1.xml": `<p:sld><p:cSld/></p:sld>`,
		"slide2.xml": `<p:sld show="0"><p:cSld/></p:sld>`,
		"slide3.xml": `<p:sld show="false"><p:cSld/></p:sld>`,
	})

	if got := SlideCount(path); got != 1 {
		t.Errorf("Expected 1 visible slide, got %d", got)
	}
}

func TestSlideCount_IgnoresNonSlideParts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deck.pptx")
	writeTestPPTX(t, path, map[string]string{
		"slide1.xml": `<p:sld/>`,
	})

	// _rels and presentation.xml entries must not count as slides.
	if got := SlideCount(path); got != 1 {
		t.Errorf("Expected 1 slide, got %d", got)
	}
}

func TestSlideCount_BestEffortFallbacks(t *testing.T) {
	dir := t.TempDir()

	legacy := filepath.Join(dir, "deck.ppt")
	if err := os.WriteFile(legacy, []byte{0xD0, 0xCF, 0x11, 0xE0}, 0o644); err != nil {
		t.Fatalf("Failed to write legacy file: %v", err)
	}
	if got := SlideCount(legacy); got != 0 {
		t.Errorf("Expected 0 for legacy .ppt, got %d", got)
	}

	garbage := filepath.Join(dir, "broken.pptx")
	if err := os.WriteFile(garbage, []byte("not a zip archive"), 0o644); err != nil {
		t.Fatalf("Failed to write garbage file: %v", err)
	}
	if got := SlideCount(garbage); got != 0 {
		t.Errorf("Expected 0 for unreadable archive, got %d", got)
	}

	if got := SlideCount(filepath.Join(dir, "missing.pptx")); got != 0 {
		t.Errorf("Expected 0 for missing file, got %d", got)
	}
}
