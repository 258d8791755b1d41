package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var pageExts = []string{"jpg", "jpeg", "png", "webp"}

// EnsureDir creates a directory if it doesn't exist
func EnsureDir(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}

// GetFileExtension returns the file extension without the dot
func GetFileExtension(filename string) string {
	ext := filepath.Ext(filename)
	if len(ext) > 0 {
		return strings.ToLower(ext[1:])
	}
	return ""
}

// IsPageImage checks if a file has a page bitmap extension
func IsPageImage(filename string) bool {
	ext := GetFileExtension(filename)
	for _, pageExt := range pageExts {
		if ext == pageExt {
			return true
		}
	}
	return false
}

// ListPageFiles lists the page bitmaps directly inside dir in name order
func ListPageFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && IsPageImage(e.Name()) {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// ExpandPages turns a comma separated list of files, directories and URLs
// into an ordered list of page sources
func ExpandPages(list string) ([]string, error) {
	var pages []string
	for _, item := range strings.Split(list, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if strings.HasPrefix(item, "http://") || strings.HasPrefix(item, "https://") {
			pages = append(pages, item)
			continue
		}
		if DirExists(item) {
			files, err := ListPageFiles(item)
			if err != nil {
				return nil, fmt.Errorf("failed to list %s: %w", item, err)
			}
			pages = append(pages, files...)
			continue
		}
		if !FileExists(item) {
			return nil, fmt.Errorf("page not found: %s", item)
		}
		pages = append(pages, item)
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("no pages in %q", list)
	}
	return pages, nil
}

// GenerateOutputFilename builds a file name in outputDir from a base name
// and format
func GenerateOutputFilename(baseName, outputDir, suffix, format string) string {
	nameWithoutExt := strings.TrimSuffix(filepath.Base(baseName), filepath.Ext(baseName))
	if format == "" {
		format = "png"
	}
	outputName := fmt.Sprintf("%s%s.%s", SanitizeFilename(nameWithoutExt), suffix, format)
	return filepath.Join(outputDir, outputName)
}

// FileExists checks if a file exists and is not a directory
func FileExists(filename string) bool {
	info, err := os.Stat(filename)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// DirExists checks if a directory exists
func DirExists(dirname string) bool {
	info, err := os.Stat(dirname)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// SanitizeFilename removes or replaces invalid characters in filenames
func SanitizeFilename(filename string) string {
	invalid := []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|"}
	result := filename

	for _, char := range invalid {
		result = strings.ReplaceAll(result, char, "_")
	}

	return strings.Trim(result, " .")
}

// FormatFileSize formats file size in human-readable format
func FormatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}

	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
