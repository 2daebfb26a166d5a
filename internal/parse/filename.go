package parse

import (
	"path/filepath"
	"strings"
)

// ExportExt is the extension of per-user export files.
const ExportExt = ".csv"

// IsExportFile reports whether name carries the export extension.
func IsExportFile(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ExportExt)
}

// UserIDFromFilename returns the text preceding the first '.' of the file's
// base name, e.g. "42.csv" -> "42". It returns false when that text is empty.
func UserIDFromFilename(name string) (string, bool) {
	base := filepath.Base(name)
	userID, _, _ := strings.Cut(base, ".")
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", false
	}
	return userID, true
}
