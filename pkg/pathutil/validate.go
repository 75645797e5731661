// Package pathutil classifies rename targets and validates computed names.
package pathutil

import (
	"os"
	"strings"

	"github.com/filechanger/filechanger/pkg/errclass"
)

// RequireFile returns the FileInfo of path if it is a regular file.
func RequireFile(path string) (os.FileInfo, error) {
	info, err := stat(path, "file")
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, errclass.ErrWrongKind.WithMessagef("%s is not a file", path)
	}
	return info, nil
}

// RequireDir returns the FileInfo of path if it is a directory.
func RequireDir(path string) (os.FileInfo, error) {
	info, err := stat(path, "directory")
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, errclass.ErrWrongKind.WithMessagef("%s is not a directory", path)
	}
	return info, nil
}

func stat(path, kind string) (os.FileInfo, error) {
	if path == "" {
		return nil, errclass.ErrTargetNotFound.WithMessagef("no %s given", kind)
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, errclass.ErrTargetNotFound.WithMessagef("the %s %s does not exist", kind, path)
	}
	if err != nil {
		return nil, errclass.ErrTargetNotFound.Wrap(err, "stat "+path)
	}
	return info, nil
}

// ValidateBaseName checks that name can be used as a single path element.
// Only the platform's separators are refused; a backslash is an ordinary
// name character where it is not a separator.
func ValidateBaseName(name string) error {
	if name == "" || name == "." || name == ".." {
		return errclass.ErrRenameFailed.WithMessagef("invalid target name %q", name)
	}
	if strings.ContainsRune(name, '/') || strings.ContainsRune(name, os.PathSeparator) || strings.ContainsRune(name, 0) {
		return errclass.ErrRenameFailed.WithMessagef("target name must not contain separators: %q", name)
	}
	return nil
}
