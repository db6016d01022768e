package assemble

import (
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/promptkit/internal/foundation/errors"
)

// FileName expands the {variant} and {mode} tokens of pattern for r.
func FileName(pattern string, r *Result) string {
	return strings.NewReplacer("{variant}", r.Variant, "{mode}", string(r.Mode)).Replace(pattern)
}

// Write stores r under dir using the naming pattern and returns the written path.
func Write(dir, pattern string, r *Result) (string, error) {
	target := filepath.Join(dir, filepath.FromSlash(FileName(pattern, r)))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", errors.WrapError(err, errors.CategoryFileSystem, "failed to create output directory").
			WithContext("path", filepath.Dir(target)).Build()
	}
	if err := os.WriteFile(target, []byte(r.Content), 0o644); err != nil {
		return "", errors.WrapError(err, errors.CategoryFileSystem, "failed to write artifact").
			WithContext("path", target).Build()
	}
	return target, nil
}
