package converter

import (
	"archive/zip"
	"bytes"
	"io"
	"path/filepath"
	"regexp"
	"strings"
)

var slidePartRe = regexp.MustCompile(`^ppt/slides/slide\d+\.xml$`)

// SlideCount estimates the number of visible slides by listing the slide
// parts inside a .pptx zip container. Slides whose markup carries a
// show="0" marker are hidden by the authoring tool and excluded.
//
// Best effort only: legacy .ppt files and unreadable archives yield 0, and
// the estimate is always reconciled against the converter's actual output.
func SlideCount(path string) int {
	if strings.ToLower(filepath.Ext(path)) != ".pptx" {
		return 0
	}

	r, err := zip.OpenReader(path)
	if err != nil {
		return 0
	}
	defer r.Close()

	total, hidden := 0, 0
	for _, f := range r.File {
		if !slidePartRe.MatchString(f.Name) {
			continue
		}
		total++
		if slideHidden(f) {
			hidden++
		}
	}
	return total - hidden
}

func slideHidden(f *zip.File) bool {
	rc, err := f.Open()
	if err != nil {
		return false
	}
	defer rc.Close()

	// The show attribute sits on the root element; a bounded read is plenty.
	data, err := io.ReadAll(io.LimitReader(rc, 1<<20))
	if err != nil {
		return false
	}
	return bytes.Contains(data, []byte(`show="0"`)) ||
		bytes.Contains(data, []byte(`show="false"`))
}
