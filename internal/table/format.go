package table

import (
	"errors"
	"path/filepath"
	"strings"
)

// Format is a supported upload format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
)

// ErrUnsupportedFormat is returned for extensions other than csv, xlsx and xls.
var ErrUnsupportedFormat = errors.New("unsupported file type")

// ExtensionOf returns the part of a file name after its last dot, or the
// whole name when there is none.
func ExtensionOf(fileName string) string {
	ext := filepath.Ext(fileName)
	if ext == "" {
		return fileName
	}
	return ext[1:]
}

// ParseFormat maps an extension hint to a Format, ignoring case and a
// leading dot.
func ParseFormat(ext string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimPrefix(ext, "."))); f {
	case FormatCSV, FormatXLSX, FormatXLS:
		return f, nil
	default:
		return "", ErrUnsupportedFormat
	}
}

// Parse decodes data according to format.
func Parse(data []byte, format Format) (*Table, error) {
	switch format {
	case FormatCSV:
		return ParseCSV(data)
	case FormatXLSX, FormatXLS:
		return ParseExcel(data)
	default:
		return nil, ErrUnsupportedFormat
	}
}
