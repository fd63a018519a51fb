package handlers

import (
	"errors"
	"io"
	"log"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/mholecek/snapmatch/internal/constants"
	"github.com/mholecek/snapmatch/internal/database"
	"github.com/mholecek/snapmatch/internal/gallery"
	"github.com/mholecek/snapmatch/internal/ingest"
	"github.com/mholecek/snapmatch/internal/reaper"
)

// PhotosHandler handles photo upload and gallery endpoints
type PhotosHandler struct {
	ingestor *ingest.Ingestor
	photos   database.PhotoStore
	reaper   *reaper.Reaper
}

// NewPhotosHandler creates a new photos handler
func NewPhotosHandler(ing *ingest.Ingestor, photos database.PhotoStore, rp *reaper.Reaper) *PhotosHandler {
	return &PhotosHandler{ingestor: ing, photos: photos, reaper: rp}
}

// readUploadedFiles reads multipart files into memory. One unreadable file
// fails the whole read; the ingestor handles per-image failures after that.
func readUploadedFiles(files []*multipart.FileHeader) ([][]byte, error) {
	images := make([][]byte, 0, len(files))
	for _, fileHeader := range files {
		if err := func() error {
			file, err := fileHeader.Open()
			if err != nil {
				return errors.New("failed to open file: " + fileHeader.Filename)
			}
			defer file.Close()

			data, err := io.ReadAll(file)
			if err != nil {
				return errors.New("failed to read file: " + fileHeader.Filename)
			}
			images = append(images, data)
			return nil
		}(); err != nil {
			return nil, err
		}
	}
	return images, nil
}

// Upload handles POST /events/{id}/photos. The response goes out as soon as
// records exist; descriptor extraction continues in the background and shows
// up later as each photo's status.
func (h *PhotosHandler) Upload(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "id")

	if err := r.ParseMultipartForm(constants.MaxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}

	files := r.MultipartForm.File["photos"]
	if len(files) == 0 {
		respondError(w, http.StatusBadRequest, "no photos provided")
		return
	}

	images, err := readUploadedFiles(files)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.ingestor.Upload(r.Context(), eventID, images)
	if err != nil {
		if respondDomainError(w, err) {
			return
		}
		if errors.Is(err, ingest.ErrNoImagesSucceeded) {
			respondError(w, http.StatusInternalServerError, "no images could be saved")
			return
		}
		log.Printf("[web] upload to event %s: %v", sanitizeForLog(eventID), err)
		respondError(w, http.StatusInternalServerError, "upload failed")
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]any{
		"photos": result.Photos,
		"failed": result.Failed,
	})
}

// List handles GET /events/{id}/photos, newest first.
func (h *PhotosHandler) List(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "id")
	if _, err := uuid.Parse(eventID); err != nil {
		respondDomainError(w, gallery.ErrInvalidEventID)
		return
	}

	photos, err := h.photos.ListPhotosByEvent(r.Context(), eventID)
	if err != nil {
		log.Printf("[web] listing photos for event %s: %v", sanitizeForLog(eventID), err)
		respondError(w, http.StatusInternalServerError, "failed to list photos")
		return
	}
	if photos == nil {
		photos = []gallery.Photo{}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"photos": photos,
	})
}

// Delete handles DELETE /photos/{id}.
func (h *PhotosHandler) Delete(w http.ResponseWriter, r *http.Request) {
	photoID := chi.URLParam(r, "id")

	if err := h.reaper.DeletePhoto(r.Context(), photoID); err != nil {
		if respondDomainError(w, err) {
			return
		}
		log.Printf("[web] deleting photo %s: %v", sanitizeForLog(photoID), err)
		respondError(w, http.StatusInternalServerError, "failed to delete photo")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"id": photoID,
	})
}
