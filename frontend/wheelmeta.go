package frontend

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/petrel-io/pybuild/iox"
	"github.com/petrel-io/pybuild/types"
)

// metadataFromBuiltWheel produces wheel metadata for backends without a
// dedicated prepare hook: build a full wheel into a scratch directory,
// then extract its .dist-info subtree into metadataDirectory.
//
// The scratch directory is removed on every exit path. A missing wheel
// file or a wheel without a .dist-info entry is an integrity violation of
// the backend contract, not a BackendError: the backend claimed success.
func (f *Frontend) metadataFromBuiltWheel(ctx context.Context, settings types.ConfigSettings, metadataDirectory string) (basename, out, errText string, err error) {
	scratch, err := os.MkdirTemp("", "pybuild-wheel-")
	if err != nil {
		return "", "", "", fmt.Errorf("create scratch wheel directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(scratch) }()

	wheelResult, err := f.BuildWheel(ctx, scratch, settings, metadataDirectory)
	if err != nil {
		return "", "", "", err
	}
	if _, statErr := os.Stat(wheelResult.Wheel); statErr != nil {
		if os.IsNotExist(statErr) {
			return "", "", "", fmt.Errorf("%w: %s", ErrWheelMissing, wheelResult.Wheel)
		}
		return "", "", "", fmt.Errorf("stat wheel %s: %w", wheelResult.Wheel, statErr)
	}

	basename, err = extractDistInfo(wheelResult.Wheel, metadataDirectory)
	if err != nil {
		return "", "", "", err
	}

	// The captured streams come from the wheel build, the one invocation
	// that actually produced the metadata.
	return basename, wheelResult.Out, wheelResult.Err, nil
}

// extractDistInfo extracts the single top-level *.dist-info subtree of the
// wheel archive into dest and returns its basename.
func extractDistInfo(wheelPath, dest string) (string, error) {
	archive, err := zip.OpenReader(wheelPath)
	if err != nil {
		return "", fmt.Errorf("open wheel %s: %w", wheelPath, err)
	}
	defer iox.DiscardClose(archive)

	basename := ""
	for _, file := range archive.File {
		top := topLevel(file.Name)
		if !strings.HasSuffix(top, ".dist-info") {
			continue
		}
		basename = top
		if err := extractEntry(file, dest); err != nil {
			return "", err
		}
	}
	if basename == "" {
		return "", fmt.Errorf("%w: %s", ErrNoDistInfo, wheelPath)
	}
	return basename, nil
}

// topLevel returns the first path element of an archive entry name.
func topLevel(name string) string {
	name = path.Clean(name)
	if i := strings.IndexByte(name, '/'); i >= 0 {
		return name[:i]
	}
	return name
}

// extractEntry writes one archive entry under dest, preserving its
// relative path. Entries escaping dest are rejected.
func extractEntry(file *zip.File, dest string) error {
	rel := filepath.FromSlash(path.Clean(file.Name))
	target := filepath.Join(dest, rel)
	if !strings.HasPrefix(target, filepath.Clean(dest)+string(os.PathSeparator)) {
		return fmt.Errorf("wheel entry %q escapes extraction directory", file.Name)
	}

	if file.FileInfo().IsDir() {
		return os.MkdirAll(target, 0o755)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(target), err)
	}

	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("open wheel entry %s: %w", file.Name, err)
	}
	defer iox.DiscardClose(src)

	dst, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", target, err)
	}
	defer iox.DiscardClose(dst)

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("extract %s: %w", file.Name, err)
	}
	return nil
}
