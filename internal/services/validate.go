package services

import (
	"fmt"
	"path/filepath"
	"strings"
)

// MaxFileSize caps upload payloads at 200 MB.
const MaxFileSize = 200 * 1024 * 1024

var approvedFileExtensions = map[string]struct{}{
	".eml":  {},
	".html": {},
	".json": {},
	".md":   {},
	".msg":  {},
	".rst":  {},
	".rtf":  {},
	".txt":  {},
	".xml":  {},
	".csv":  {},
	".doc":  {},
	".docx": {},
	".epub": {},
	".odt":  {},
	".pdf":  {},
	".ppt":  {},
	".pptx": {},
	".tsv":  {},
	".xlsx": {},
	".htm":  {},
}

// ValidationError rejects an upload before anything is written. It carries
// every problem found, not just the first.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid upload: " + strings.Join(e.Problems, "; ")
}

func validateUpload(name, contentType string, size int64) error {
	var problems []string
	if strings.TrimSpace(name) == "" {
		problems = append(problems, "file has no name")
	}
	if strings.TrimSpace(contentType) == "" {
		problems = append(problems, "file has no content-type")
	}
	if size > MaxFileSize {
		problems = append(problems, "file is larger than 200MB")
	}
	if name != "" {
		ext := strings.ToLower(filepath.Ext(name))
		if _, ok := approvedFileExtensions[ext]; !ok {
			problems = append(problems, fmt.Sprintf("file type %q not supported", ext))
		}
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
