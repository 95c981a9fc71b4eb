package utils

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var validRoles = []string{"owner", "admin", "editor", "viewer", "student"}

// IsValidRole checks if a role is valid
func IsValidRole(role string) bool {
	for _, validRole := range validRoles {
		if role == validRole {
			return true
		}
	}
	return false
}

// FileExtension returns the lower-case extension without the dot.
func FileExtension(filename string) string {
	ext := filepath.Ext(filename)
	if len(ext) < 2 {
		return ""
	}
	return strings.ToLower(ext[1:])
}

// IsValidFileExtension checks if file extension is allowed
func IsValidFileExtension(filename string, allowedExtensions []string) bool {
	ext := FileExtension(filename)
	if ext == "" {
		return false
	}
	for _, allowedExt := range allowedExtensions {
		if ext == strings.ToLower(allowedExt) {
			return true
		}
	}
	return false
}

// SanitizeString removes dangerous characters from string
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")
	return strings.TrimSpace(input)
}

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeFilename makes a name safe for a Content-Disposition header.
func SanitizeFilename(name string) string {
	name = unsafeFilename.ReplaceAllString(strings.TrimSpace(name), "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return "download"
	}
	return name
}

// ParsePositiveInt returns def for blank, malformed or non-positive input.
func ParsePositiveInt(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return def
	}
	return n
}

// ParseBoolFlag reads query flags such as dry_run=1 or dry_run=true.
func ParseBoolFlag(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
