// Package gitref resolves the repository ref used in online document links.
package gitref

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"git.home.luguber.info/inful/promptkit/internal/config"
	"git.home.luguber.info/inful/promptkit/internal/logfields"
)

// Auto is the configured ref value that requests HEAD resolution.
const Auto = "auto"

// Resolve returns configured unchanged unless it is Auto, in which case the HEAD
// commit of the repository containing dir is returned. When dir is not inside a git
// repository the default ref is used.
func Resolve(dir, configured string) string {
	if configured != Auto {
		return configured
	}

	hash, err := Head(dir)
	if err != nil {
		slog.Warn("Could not resolve repository HEAD, using default ref",
			logfields.Path(dir), slog.String("ref", config.DefaultRef), logfields.Error(err))
		return config.DefaultRef
	}
	return hash
}

// Head returns the commit hash HEAD points at for the repository containing dir.
func Head(dir string) (string, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("open repository: %w", err)
	}
	ref, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}
	if ref.Hash() == plumbing.ZeroHash {
		return "", errors.New("HEAD has no commit")
	}
	return ref.Hash().String(), nil
}
