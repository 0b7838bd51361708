package validation

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"
)

// Container is the on-disk envelope of an uploaded document. Modern .pptx
// files are zip archives; legacy .ppt files are OLE compound documents.
type Container string

const (
	ContainerZip Container = "zip"
	ContainerOLE Container = "ole"
)

var magicBytes = map[Container][]byte{
	ContainerZip: {0x50, 0x4B, 0x03, 0x04},
	ContainerOLE: {0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1},
}

// DetectContainer sniffs the leading bytes of an upload and seeks back to the
// start. Detection is advisory: the API rejects uploads on extension only,
// and a mismatch here is merely logged by the caller.
func DetectContainer(file io.ReadSeeker) (Container, error) {
	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return "", err
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	for container, signature := range magicBytes {
		if bytes.HasPrefix(buffer[:n], signature) {
			return container, nil
		}
	}

	return "", ErrUnknownContainer
}

// MatchesExtension reports whether the detected container is the one the
// filename's extension promises.
func MatchesExtension(container Container, filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	switch container {
	case ContainerZip:
		return ext == ".pptx"
	case ContainerOLE:
		return ext == ".ppt"
	default:
		return false
	}
}
