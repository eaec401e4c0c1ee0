package handlers

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/haven-chat/haven/internal/metrics"
	"github.com/haven-chat/haven/internal/models"
)

// allowedExtensions is the upload allow-list.
var allowedExtensions = map[string]struct{}{
	"txt": {}, "pdf": {}, "png": {}, "jpg": {}, "jpeg": {}, "gif": {}, "webp": {},
	"mp4": {}, "webm": {}, "mp3": {}, "wav": {}, "ogg": {}, "zip": {}, "rar": {},
	"doc": {}, "docx": {}, "ppt": {}, "pptx": {}, "xls": {}, "xlsx": {},
}

// thumbnailable lists the MIME types the imaging library can both decode
// and re-encode. webp uploads are served without a thumbnail.
var thumbnailable = map[string]struct{}{
	"image/png":  {},
	"image/jpeg": {},
	"image/gif":  {},
}

func allowedExtension(filename string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	_, ok := allowedExtensions[ext]
	return ok
}

// Upload stores a multipart file under a unique name, sniffs its MIME type
// and derives a thumbnail for image types. The response is the FileRef
// structure clients embed in file messages; the relay never reinterprets it.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.uploads.MaxBytes); err != nil {
		h.Error(w, http.StatusBadRequest, "upload too large or malformed")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.Error(w, http.StatusBadRequest, "no file part")
		return
	}
	defer file.Close()

	name := sanitizeFilename(header.Filename)
	if name == "" {
		h.Error(w, http.StatusBadRequest, "no selected file")
		return
	}
	if !allowedExtension(name) {
		h.Error(w, http.StatusBadRequest, "file type not allowed")
		return
	}

	uniqueName := ulid.Make().String() + "_" + name
	path := filepath.Join(h.uploads.Dir, uniqueName)

	dst, err := os.Create(path)
	if err != nil {
		h.logger.Error().Err(err).Str("path", path).Msg("create upload file")
		h.Error(w, http.StatusInternalServerError, "failed to store file")
		return
	}
	size, err := io.Copy(dst, file)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		h.logger.Error().Err(err).Str("path", path).Msg("write upload file")
		h.Error(w, http.StatusInternalServerError, "failed to store file")
		return
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		os.Remove(path)
		h.logger.Error().Err(err).Str("path", path).Msg("detect mime type")
		h.Error(w, http.StatusInternalServerError, "failed to store file")
		return
	}

	var thumbnailURL *string
	if _, ok := thumbnailable[mtype.String()]; ok {
		thumbName := "thumb_" + uniqueName
		if err := writeThumbnail(path, filepath.Join(h.uploads.Dir, thumbName)); err != nil {
			h.logger.Warn().Err(err).Str("file", uniqueName).Msg("thumbnail failed")
		} else {
			u := "/api/files/" + thumbName
			thumbnailURL = &u
		}
	}

	metrics.UploadsTotal.Inc()
	h.logger.Info().Str("file", uniqueName).Int64("size", size).Str("type", mtype.String()).Msg("file uploaded")

	h.JSON(w, http.StatusOK, models.FileRef{
		ID:             uuid.NewString(),
		Filename:       name,
		UniqueFilename: uniqueName,
		Size:           size,
		Type:           mtype.String(),
		URL:            "/api/files/" + uniqueName,
		ThumbnailURL:   thumbnailURL,
		UploadedAt:     time.Now().UTC(),
	})
}

// writeThumbnail fits the image into 300x200 and saves it next to the
// original.
func writeThumbnail(src, dst string) error {
	img, err := imaging.Open(src, imaging.AutoOrientation(true))
	if err != nil {
		return err
	}
	thumb := imaging.Fit(img, 300, 200, imaging.Lanczos)
	return imaging.Save(thumb, dst, imaging.JPEGQuality(85))
}
