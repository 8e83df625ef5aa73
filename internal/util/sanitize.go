package util

import (
	"regexp"
	"strings"
	"unicode"

	"freightdesk/pkg/apierror"
)

const maxFilenameRunes = 200

var invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*]`)

var reservedNames = map[string]struct{}{
	"CON": {}, "PRN": {}, "AUX": {}, "NUL": {},
	"COM1": {}, "COM2": {}, "COM3": {}, "COM4": {}, "COM5": {}, "COM6": {}, "COM7": {}, "COM8": {}, "COM9": {},
	"LPT1": {}, "LPT2": {}, "LPT3": {}, "LPT4": {}, "LPT5": {}, "LPT6": {}, "LPT7": {}, "LPT8": {}, "LPT9": {},
}

func invalidName(message string, details string) *apierror.APIError {
	return apierror.New("INVALID_FILENAME", message, details, 400)
}

// SanitizeFilename turns an uploaded document name into a safe single path
// segment. Leading dots are stripped so stored documents are never hidden.
func SanitizeFilename(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", invalidName("Filename cannot be empty", "")
	}

	if strings.Contains(trimmed, "\x00") {
		return "", invalidName("Filename contains null bytes", trimmed)
	}

	// Browsers on Windows may send the full client path.
	if idx := strings.LastIndexAny(trimmed, `/\`); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}

	var builder strings.Builder
	builder.Grow(len(trimmed))
	for _, char := range trimmed {
		if unicode.IsControl(char) || unicode.Is(unicode.Cf, char) {
			continue
		}
		builder.WriteRune(char)
	}

	cleaned := invalidFilenameChars.ReplaceAllString(builder.String(), "_")
	cleaned = strings.TrimSpace(strings.TrimLeft(cleaned, "."))
	if cleaned == "" {
		return "", invalidName("Filename is invalid after sanitization", trimmed)
	}

	runes := []rune(cleaned)
	if len(runes) > maxFilenameRunes {
		ext := []rune(extension(cleaned))
		if len(ext) >= maxFilenameRunes {
			ext = nil
		}
		runes = append(runes[:maxFilenameRunes-len(ext)], ext...)
	}
	cleaned = string(runes)

	stem := cleaned
	if idx := strings.Index(cleaned, "."); idx >= 0 {
		stem = cleaned[:idx]
	}
	if _, reserved := reservedNames[strings.ToUpper(stem)]; reserved {
		return "", invalidName("Reserved filename is not allowed", cleaned)
	}

	return cleaned, nil
}

func extension(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx <= 0 {
		return ""
	}
	return name[idx:]
}
