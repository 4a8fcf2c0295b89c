package publish

import (
	"fmt"
	"mime"
	"slices"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const (
	TypePDF  = "application/pdf"
	TypeEPUB = "application/epub+zip"
	TypeText = "text/plain"
	TypeDOC  = "application/msword"
	TypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// Limits bound what may be selected for upload.
type Limits struct {
	MaxSize int64
	Types   []string
	// Label names the accepted types in rejection messages.
	Label string
}

var (
	RichLimits = Limits{
		MaxSize: 100 << 20,
		Types:   []string{TypePDF, TypeEPUB, TypeText, TypeDOC, TypeDOCX},
		Label:   "a PDF, EPUB, DOC, DOCX, or text file",
	}

	LegacyLimits = Limits{
		MaxSize: 50 << 20,
		Types:   []string{TypePDF, TypeEPUB, TypeText},
		Label:   "a PDF, EPUB, or text file",
	}
)

// File is a document picked for publication.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

func (f File) Size() int64 { return int64(len(f.Data)) }

// InvalidFileError names the violated constraint: type, size or empty.
type InvalidFileError struct {
	Constraint string
	Message    string
}

func (e *InvalidFileError) Error() string { return e.Message }

// DetectType sniffs the content type of data. Parameters such as charset are
// dropped.
func DetectType(data []byte) string {
	return mediaType(mimetype.Detect(data).String())
}

func mediaType(ct string) string {
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(ct))
	}
	return mt
}

// Check returns the file with its content type resolved, or an
// InvalidFileError.
func (l Limits) Check(f File) (File, error) {
	if len(f.Data) == 0 {
		return File{}, &InvalidFileError{Constraint: "empty", Message: "Please select a file first"}
	}

	ct := mediaType(f.ContentType)
	if ct == "" {
		ct = DetectType(f.Data)
	}
	if !slices.Contains(l.Types, ct) {
		return File{}, &InvalidFileError{
			Constraint: "type",
			Message:    fmt.Sprintf("Please select %s", l.Label),
		}
	}
	if f.Size() > l.MaxSize {
		return File{}, &InvalidFileError{
			Constraint: "size",
			Message:    fmt.Sprintf("File size must be less than %dMB", l.MaxSize>>20),
		}
	}

	f.ContentType = ct
	return f, nil
}
