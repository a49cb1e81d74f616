package daemon

import (
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"stylesync/internal/api"
	"stylesync/internal/logging"
	"stylesync/internal/upload"
)

const (
	uploadFilesField    = "files"
	declaredTypeField   = "declared_type"
	maxFormValueBytes   = 256
	uploadTooLargeError = "request body exceeds the upload limit"
)

// handleUpload streams a multipart folder upload into a staging batch and
// ingests it. Each file part carries the client relative path (album folder
// first) as its filename.
func (s *apiServer) handleUpload(w http.ResponseWriter, r *http.Request) {
	if limit := s.cfg.Upload.MaxRequestBytes; limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}
	reader, err := r.MultipartReader()
	if err != nil {
		s.writeError(w, http.StatusBadRequest, api.ErrorResponse{Error: "expected multipart/form-data body", Kind: api.KindValidation})
		return
	}

	batch, err := upload.NewBatch(s.cfg.Paths.StagingDir)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	defer batch.Cleanup()

	declaredType := r.URL.Query().Get(declaredTypeField)
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			s.writeMultipartError(w, err)
			return
		}

		switch part.FormName() {
		case declaredTypeField:
			value, err := io.ReadAll(io.LimitReader(part, maxFormValueBytes))
			if err != nil {
				_ = part.Close()
				s.writeMultipartError(w, err)
				return
			}
			declaredType = strings.TrimSpace(string(value))
		case uploadFilesField, uploadFilesField + "[]":
			relPath := partRelativePath(part)
			if relPath == "" {
				break
			}
			batch.AddReader(relPath, part, s.cfg.Upload.MaxFileBytes)
		}
		_ = part.Close()
	}

	for _, f := range batch.Files {
		var maxErr *http.MaxBytesError
		if errors.As(f.Err, &maxErr) {
			s.writeError(w, http.StatusRequestEntityTooLarge, api.ErrorResponse{Error: uploadTooLargeError, Kind: api.KindValidation})
			return
		}
	}

	resp, err := s.svc.UploadFolder(r.Context(), batch.Files, declaredType)
	if err != nil {
		if api.KindOf(err) != api.KindValidation && resp.Handled > 0 {
			logging.WithContext(r.Context(), s.logger).Error("upload batch stored but not recorded",
				logging.Int("handled", resp.Handled),
				logging.Error(err),
			)
		}
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) writeMultipartError(w http.ResponseWriter, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		s.writeError(w, http.StatusRequestEntityTooLarge, api.ErrorResponse{Error: uploadTooLargeError, Kind: api.KindValidation})
		return
	}
	s.writeError(w, http.StatusBadRequest, api.ErrorResponse{Error: "malformed multipart body", Kind: api.KindValidation})
}

// partRelativePath returns the unmodified filename parameter of the part.
// multipart.Part.FileName strips directories, which would drop the album
// folder.
func partRelativePath(part *multipart.Part) string {
	_, params, err := mime.ParseMediaType(part.Header.Get("Content-Disposition"))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(params["filename"])
}
