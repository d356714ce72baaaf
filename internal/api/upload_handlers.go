package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"droply/internal/drive"
	"droply/internal/models"

	_ "droply/internal/storage"
)

const multipartMemory = 32 << 20

// @Summary      Upload files
// @Description  Uploads one or more images or PDFs into the root or a folder. Files with another type or over the size limit are skipped and listed in the report; a request with a single such file is rejected.
// @Tags         uploads
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file       formData  file    true   "File to upload, may be repeated"
// @Param        parent_id  formData  string  false  "Target folder"
// @Param        user_id    formData  int     false  "Must match the caller when present"
// @Success      201        {object}  drive.UploadReport
// @Success      200        {object}  drive.UploadReport "Nothing was stored"
// @Failure      400        {string}  string "Bad Request"
// @Failure      401        {string}  string "Unauthorized"
// @Failure      404        {string}  string "Parent folder not found"
// @Failure      500        {string}  string "Internal Server Error"
// @Router       /uploads [post]
func (s *Server) UploadFilesHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, s.config.Uploads.MaxRequestBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "Request too large", http.StatusRequestEntityTooLarge)
			return
		}
		s.writeError(w, r, models.Invalid("error parsing multipart form"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	if err := checkFormUser(claims, r.FormValue("user_id")); err != nil {
		s.writeError(w, r, err)
		return
	}

	headers := r.MultipartForm.File["file"]
	uploads := make([]drive.Upload, 0, len(headers))
	for _, fh := range headers {
		data, err := s.readPart(fh)
		if err != nil {
			s.writeError(w, r, fmt.Errorf("failed to read %q: %w", fh.Filename, err))
			return
		}
		uploads = append(uploads, drive.Upload{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	report, err := s.drive.UploadFiles(r.Context(), claims.UserID, optionalString(r.FormValue("parent_id")), uploads)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	status := http.StatusCreated
	if len(report.Created) == 0 {
		status = http.StatusOK
	}
	writeJSON(w, status, report)
}

// readPart reads at most one byte past the size limit, enough for the
// service to reject the file without buffering all of it.
func (s *Server) readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(io.LimitReader(f, s.drive.MaxFileBytes()+1))
}

// @Summary      Get direct upload credentials
// @Description  Returns signed, time limited parameters that let the client upload straight to object storage. Register the result with POST /files afterwards.
// @Tags         uploads
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  storage.Credentials
// @Failure      401  {string}  string "Unauthorized"
// @Failure      501  {string}  string "Not supported by the storage backend"
// @Failure      500  {string}  string "Internal Server Error"
// @Router       /uploads/credentials [get]
func (s *Server) UploadCredentialsHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	creds, err := s.drive.UploadCredentials(r.Context(), claims.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, creds)
}

// RegisterFileRequest carries no URLs. The server derives them from the
// configured store and storage_path.
type RegisterFileRequest struct {
	Name        string  `json:"name" example:"holiday.jpg"`
	ContentType string  `json:"content_type" example:"image/jpeg"`
	Size        int64   `json:"size" example:"204800"`
	StoragePath string  `json:"storage_path" example:"droply/1/3f1c0c9e.jpg"`
	ParentID    *string `json:"parent_id"`
	UserID      *int64  `json:"user_id,omitempty" example:"1"`
}

// @Summary      Register a direct upload
// @Description  Records a file the client uploaded with credentials from GET /uploads/credentials.
// @Tags         uploads
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        file  body      RegisterFileRequest  true  "Uploaded object"
// @Success      201   {object}  models.Node
// @Failure      400   {string}  string "Bad Request"
// @Failure      401   {string}  string "Unauthorized"
// @Failure      404   {string}  string "Parent folder not found"
// @Failure      500   {string}  string "Internal Server Error"
// @Router       /files [post]
func (s *Server) RegisterUploadHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	var req RegisterFileRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := checkPayloadUser(claims, req.UserID); err != nil {
		s.writeError(w, r, err)
		return
	}

	node, err := s.drive.RegisterUpload(r.Context(), claims.UserID, req.ParentID, drive.DirectUpload{
		Name:        req.Name,
		ContentType: req.ContentType,
		Size:        req.Size,
		StoragePath: req.StoragePath,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, node)
}
