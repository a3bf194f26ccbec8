package web

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/vbonduro/platewise/internal/domain"
	"github.com/vbonduro/platewise/internal/service"
)

const maxPhotoSize = 20 * 1024 * 1024 // 20 MB

type logMealForm struct {
	Language string `json:"language" validate:"max=40"`
	Note     string `json:"note" validate:"max=2000"`
}

type reviseMealRequest struct {
	UpdateText string `json:"update_text" validate:"required,max=2000"`
	Language   string `json:"language" validate:"max=40"`
}

type mealListResponse struct {
	Meals []*domain.MealEntry `json:"meals"`
}

func (s *Server) handleLogMeal(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoSize+1<<20)
	if err := r.ParseMultipartForm(maxPhotoSize); err != nil {
		writeError(w, s.logger, http.StatusBadRequest, "invalid_form", "failed to parse multipart form")
		return
	}

	form := logMealForm{
		Language: strings.TrimSpace(r.FormValue("language")),
		Note:     strings.TrimSpace(r.FormValue("note")),
	}
	if err := validateStruct(form); err != nil {
		writeError(w, s.logger, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		writeError(w, s.logger, http.StatusBadRequest, "invalid_request", "image file required")
		return
	}
	defer closeWithLog(file, "upload file", s.logger)

	imageData, err := io.ReadAll(file)
	if err != nil {
		writeError(w, s.logger, http.StatusInternalServerError, "internal", "failed to read file")
		s.logger.Error("read upload failed", "error", err)
		return
	}

	mimeType, ok := allowedImageMIME(imageData)
	if !ok {
		writeError(w, s.logger, http.StatusBadRequest, "unsupported_image", "unsupported image format")
		return
	}

	entry, err := s.service.LogMeal(r.Context(), imageData, mimeType, form.Language, form.Note)
	if err != nil {
		writeError(w, s.logger, http.StatusInternalServerError, "internal", "failed to log meal")
		s.logger.Error("log meal failed", "error", err)
		return
	}
	writeJSON(w, s.logger, http.StatusCreated, entry)
}

func (s *Server) handleListMeals(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			writeError(w, s.logger, http.StatusBadRequest, "invalid_request", "limit must be between 1 and 100")
			return
		}
		limit = n
	}

	meals, err := s.service.ListMeals(r.Context(), limit)
	if err != nil {
		writeError(w, s.logger, http.StatusInternalServerError, "internal", "failed to list meals")
		s.logger.Error("list meals failed", "error", err)
		return
	}
	if meals == nil {
		meals = []*domain.MealEntry{}
	}
	writeJSON(w, s.logger, http.StatusOK, mealListResponse{Meals: meals})
}

func (s *Server) handleGetMeal(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, s.logger, http.StatusBadRequest, "invalid_request", "invalid meal id")
		return
	}

	entry, err := s.service.GetMeal(r.Context(), id)
	if err != nil {
		writeError(w, s.logger, http.StatusInternalServerError, "internal", "failed to get meal")
		s.logger.Error("get meal failed", "meal_id", id, "error", err)
		return
	}
	if entry == nil {
		writeError(w, s.logger, http.StatusNotFound, "not_found", "meal not found")
		return
	}
	writeJSON(w, s.logger, http.StatusOK, entry)
}

func (s *Server) handleReviseMeal(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, s.logger, http.StatusBadRequest, "invalid_request", "invalid meal id")
		return
	}

	var req reviseMealRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, s.logger, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	entry, err := s.service.ReviseMeal(r.Context(), id, strings.TrimSpace(req.UpdateText), strings.TrimSpace(req.Language))
	if errors.Is(err, service.ErrMealNotFound) {
		writeError(w, s.logger, http.StatusNotFound, "not_found", "meal not found")
		return
	}
	if err != nil {
		writeError(w, s.logger, http.StatusInternalServerError, "internal", "failed to revise meal")
		s.logger.Error("revise meal failed", "meal_id", id, "error", err)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, entry)
}

func (s *Server) handleDeleteMeal(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, s.logger, http.StatusBadRequest, "invalid_request", "invalid meal id")
		return
	}

	err = s.service.DeleteMeal(r.Context(), id)
	if errors.Is(err, service.ErrMealNotFound) {
		writeError(w, s.logger, http.StatusNotFound, "not_found", "meal not found")
		return
	}
	if err != nil {
		writeError(w, s.logger, http.StatusInternalServerError, "internal", "failed to delete meal")
		s.logger.Error("delete meal failed", "meal_id", id, "error", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, s.logger, http.StatusBadRequest, "invalid_request", "invalid meal id")
		return
	}

	reader, mimeType, err := s.service.OpenPhoto(r.Context(), id)
	if errors.Is(err, service.ErrMealNotFound) || errors.Is(err, service.ErrPhotoNotFound) {
		writeError(w, s.logger, http.StatusNotFound, "not_found", err.Error())
		return
	}
	if err != nil {
		writeError(w, s.logger, http.StatusInternalServerError, "internal", "failed to open photo")
		s.logger.Error("open photo failed", "meal_id", id, "error", err)
		return
	}
	defer closeWithLog(reader, "photo reader", s.logger)

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Cache-Control", "private, max-age=86400")
	if _, err := io.Copy(w, reader); err != nil {
		s.logger.Error("write photo failed", "meal_id", id, "error", err)
	}
}
