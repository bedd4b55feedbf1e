package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"claimaudit/internal/ingest"
	"claimaudit/internal/review/models"
	dErrors "claimaudit/pkg/domain-errors"
)

// MaxUploadBytes caps the whole multipart body of POST /vision-review.
const MaxUploadBytes = 64 << 20

// Form field names of POST /vision-review.
const (
	fieldFiles       = "files"
	fieldClientRules = "client_rules"
	fieldFileNumber  = "file_number"
)

// ReviewForm is the multipart form of POST /vision-review.
type ReviewForm struct {
	FileNumber  string
	ClientRules string
	Files       []ingest.SourceFile
}

// Validate trims and checks the form.
func (f *ReviewForm) Validate() error {
	if f == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	f.FileNumber = strings.TrimSpace(f.FileNumber)
	f.ClientRules = strings.TrimSpace(f.ClientRules)
	if f.FileNumber == "" {
		return dErrors.New(dErrors.CodeValidation, "file_number is required")
	}
	if len(f.FileNumber) > 64 {
		return dErrors.New(dErrors.CodeValidation, "file_number must be at most 64 characters")
	}
	if f.ClientRules == "" {
		return dErrors.New(dErrors.CodeValidation, "client_rules is required")
	}
	if len(f.Files) == 0 {
		return dErrors.New(dErrors.CodeValidation, "at least one file is required")
	}
	return nil
}

// ToReviewRequest builds the service request. Validate must have passed.
func (f *ReviewForm) ToReviewRequest() models.ReviewRequest {
	return models.ReviewRequest{
		Package: ingest.DocumentPackage{FileNumber: f.FileNumber, Files: f.Files},
		Policy:  f.ClientRules,
	}
}

// parseReviewForm reads the multipart body. File kinds are resolved here, once.
func parseReviewForm(w http.ResponseWriter, r *http.Request, limit int64) (*ReviewForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, dErrors.New(dErrors.CodeTooLarge, fmt.Sprintf("upload exceeds %d bytes", limit))
		}
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid multipart form")
	}

	form := &ReviewForm{
		FileNumber:  r.FormValue(fieldFileNumber),
		ClientRules: r.FormValue(fieldClientRules),
	}
	for _, header := range r.MultipartForm.File[fieldFiles] {
		file, err := readPart(header)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "failed to read uploaded file "+header.Filename)
		}
		form.Files = append(form.Files, file)
	}
	return form, nil
}

func readPart(header *multipart.FileHeader) (ingest.SourceFile, error) {
	f, err := header.Open()
	if err != nil {
		return ingest.SourceFile{}, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return ingest.SourceFile{}, err
	}
	return ingest.NewSourceFile(header.Filename, header.Header.Get("Content-Type"), data), nil
}
