package handlers

import (
	"errors"
	"io"
	"net/http"

	"impacthub/internal/storage"
)

// UploadImage stores a multipart "image" file and returns its public URL.
func (a *App) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, storage.MaxImageBytes+1<<20)
	if err := r.ParseMultipartForm(storage.MaxImageBytes); err != nil {
		a.error(w, http.StatusBadRequest, "invalid_request", "multipart form with an image file required")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()
	file, _, err := r.FormFile("image")
	if err != nil {
		a.error(w, http.StatusBadRequest, "invalid_request", "image file required")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, storage.MaxImageBytes+1))
	if err != nil {
		a.error(w, http.StatusBadRequest, "invalid_request", "could not read image")
		return
	}
	key, err := a.Images.SaveImage(r.Context(), data)
	switch {
	case errors.Is(err, storage.ErrImageTooLarge):
		a.error(w, http.StatusRequestEntityTooLarge, "too_large", "image must be at most 5 MiB")
		return
	case errors.Is(err, storage.ErrUnsupportedImage):
		a.error(w, http.StatusBadRequest, "invalid_request", "image must be jpeg, png, gif or webp")
		return
	case err != nil:
		a.fail(w, r, err, "")
		return
	}
	a.json(w, http.StatusCreated, map[string]string{"key": key, "url": a.Images.URL(key)})
}
