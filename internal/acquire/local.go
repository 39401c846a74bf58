package acquire

import (
	"fmt"
	"image"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"
)

var imageExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true}

// IsImageFile reports whether name has a jpg, jpeg or png extension.
func IsImageFile(name string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(name))]
}

// ImageFiles walks dir recursively and yields image file paths. The walk is
// lazy and each range over the sequence starts a new walk. Unreadable
// subdirectories are skipped.
func ImageFiles(dir string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if d != nil && d.IsDir() && path != dir {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() || !IsImageFile(d.Name()) {
				return nil
			}
			if !yield(path) {
				return fs.SkipAll
			}
			return nil
		})
	}
}

// pickUniform selects one element of seq uniformly at random using
// reservoir sampling. It returns false for an empty sequence.
func pickUniform(seq iter.Seq[string], intN func(int) int) (string, bool) {
	var chosen string
	n := 0
	for path := range seq {
		n++
		if intN(n) == 0 {
			chosen = path
		}
	}
	return chosen, n > 0
}

// PickLocal decodes a random image from dir.
func (a *Acquirer) PickLocal(dir string) Result {
	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		if err == nil {
			err = fmt.Errorf("%s is not a directory", dir)
		}
		return Result{
			Status: fmt.Sprintf("Folder not found: %s", dir),
			Err:    fmt.Errorf("%w: %v", ErrLocalSourceMissing, err),
		}
	}

	path, ok := pickUniform(ImageFiles(dir), a.intN)
	if !ok {
		return Result{
			Status: fmt.Sprintf("No images found in %s", dir),
			Err:    fmt.Errorf("%w: %s", ErrLocalSourceEmpty, dir),
		}
	}

	img, err := decodeFile(path)
	if err != nil {
		return Result{
			Status: fmt.Sprintf("Decode error: %v", err),
			Err:    fmt.Errorf("%w: %s: %v", ErrDecode, path, err),
		}
	}
	tex := a.prepare(img)
	if tex == nil {
		return Result{
			Status: "Decode error: image cannot be displayed",
			Err:    fmt.Errorf("%w: %s: empty image", ErrDecode, path),
		}
	}
	return Result{Image: tex, Status: "Local: " + filepath.Base(path)}
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	return img, err
}
