package validation

import (
	"bytes"
	"errors"
	"testing"
)

func TestDetectContainer_Zip(t *testing.T) {
	payload := append([]byte{0x50, 0x4B, 0x03, 0x04}, make([]byte, 64)...)
	r := bytes.NewReader(payload)

	container, err := DetectContainer(r)
	if err != nil {
		t.Fatalf("DetectContainer failed: %v", err)
	}
	if container != ContainerZip {
		t.Errorf("Expected zip container, got %s", container)
	}

	// The reader must be rewound for the subsequent copy.
	if pos, _ := r.Seek(0, 1); pos != 0 {
		t.Errorf("Expected reader rewound to 0, at %d", pos)
	}
}

func TestDetectContainer_OLE(t *testing.T) {
	payload := append([]byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}, make([]byte, 64)...)

	container, err := DetectContainer(bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("DetectContainer failed: %v", err)
	}
	if container != ContainerOLE {
		t.Errorf("Expected ole container, got %s", container)
	}
}

func TestDetectContainer_Unknown(t *testing.T) {
	_, err := DetectContainer(bytes.NewReader([]byte("plain text, not a document")))
	if !errors.Is(err, ErrUnknownContainer) {
		t.Errorf("Expected ErrUnknownContainer, got %v", err)
	}
}

func TestMatchesExtension(t *testing.T) {
	if !MatchesExtension(ContainerZip, "Deck.PPTX") {
		t.Error("zip container should match .pptx")
	}
	if !MatchesExtension(ContainerOLE, "deck.ppt") {
		t.Error("ole container should match .ppt")
	}
	if MatchesExtension(ContainerZip, "deck.ppt") {
		t.Error("zip container must not match .ppt")
	}
	if MatchesExtension(ContainerOLE, "deck.pptx") {
		t.Error("ole container must not match .pptx")
	}
}
