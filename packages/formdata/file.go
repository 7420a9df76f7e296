package formdata

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// OpenFile reads a file into a File part. Relative paths are resolved against
// baseDir, and the result must stay inside baseDir when baseDir is set.
func OpenFile(path, baseDir string) (*File, error) {
	filePath := path
	if !filepath.IsAbs(filePath) && baseDir != "" {
		filePath = filepath.Join(baseDir, filePath)
	}

	// Validate path doesn't escape base directory (prevent path traversal)
	if err := validatePathWithinBase(filePath, baseDir); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	return &File{
		Name:        filepath.Base(filePath),
		ContentType: mime.TypeByExtension(filepath.Ext(filePath)),
		Data:        data,
	}, nil
}

// AddField adds a curl-style field: "name=value", "name=@path" or
// "name=@path;type=media/type". File paths are read with OpenFile.
func (f *Form) AddField(spec, baseDir string) error {
	name, value, found := strings.Cut(spec, "=")
	if !found || name == "" {
		return fmt.Errorf("invalid form field %q: expected key=value", spec)
	}

	path, ok := strings.CutPrefix(value, "@")
	if !ok {
		f.Add(name, value)
		return nil
	}

	path, contentType, _ := strings.Cut(path, ";type=")
	file, err := OpenFile(path, baseDir)
	if err != nil {
		return fmt.Errorf("form field %s: %w", name, err)
	}
	if contentType != "" {
		file.ContentType = contentType
	}
	f.AddFile(name, file)
	return nil
}

// validatePathWithinBase checks that the resolved path stays within the base directory
// to prevent path traversal attacks
func validatePathWithinBase(path, baseDir string) error {
	if baseDir == "" {
		return nil
	}

	// Clean and resolve both paths
	cleanBase, err := filepath.Abs(baseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve base directory: %v", err)
	}

	cleanPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %v", err)
	}

	// Ensure the path starts with the base directory
	if !strings.HasPrefix(cleanPath, cleanBase+string(filepath.Separator)) && cleanPath != cleanBase {
		return fmt.Errorf("path traversal detected: %s is outside allowed directory %s", path, baseDir)
	}

	return nil
}
