package storage

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"unicode"

	"freightdesk/pkg/apierror"
)

// PathValidator maps document keys onto the filesystem and refuses any key
// that would escape the document root.
type PathValidator struct {
	rootAbs string
}

func NewPathValidator(root string) (*PathValidator, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("document root cannot be empty")
	}

	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve document root: %w", err)
	}

	return &PathValidator{rootAbs: rootAbs}, nil
}

func (v *PathValidator) RootAbs() string {
	return v.rootAbs
}

func (v *PathValidator) Resolve(key string) (string, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(key), `\`, "/")
	if normalized == "" || normalized == "/" {
		return "", apierror.New("INVALID_PATH", "document key is empty", key, http.StatusBadRequest)
	}

	if strings.Contains(normalized, "\x00") || hasControlCharacters(normalized) {
		return "", apierror.New("INVALID_PATH", "document key contains invalid characters", key, http.StatusBadRequest)
	}

	for _, segment := range strings.Split(normalized, "/") {
		if segment == ".." {
			return "", apierror.New("PATH_TRAVERSAL", "path traversal attempt detected", key, http.StatusForbidden)
		}
	}

	cleanRel := filepath.Clean(strings.TrimPrefix(normalized, "/"))
	resolved, err := filepath.Abs(filepath.Join(v.rootAbs, cleanRel))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path: %w", err)
	}

	if !isWithinRoot(v.rootAbs, resolved) || resolved == v.rootAbs {
		return "", apierror.New("PATH_TRAVERSAL", "resolved path is outside document root", key, http.StatusForbidden)
	}

	return resolved, nil
}

func hasControlCharacters(value string) bool {
	for _, char := range value {
		if unicode.IsControl(char) {
			return true
		}
	}

	return false
}

func isWithinRoot(rootAbs string, candidateAbs string) bool {
	if candidateAbs == rootAbs {
		return true
	}

	return strings.HasPrefix(candidateAbs, rootAbs+string(filepath.Separator))
}
