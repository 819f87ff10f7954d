package httpapi

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"coursegram.app/internal/course"
	"coursegram.app/internal/obs"
)

func (a *API) handleListCourses(w http.ResponseWriter, r *http.Request) {
	expertID := mux.Vars(r)["expertID"]

	courses, err := a.courses.ListByExpert(r.Context(), expertID)
	if err != nil {
		a.writeCourseError(w, r, err, "course list failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"courses": courses})
}

type createCourseRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (a *API) handleCreateCourse(w http.ResponseWriter, r *http.Request) {
	expertID := mux.Vars(r)["expertID"]

	var req createCourseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeMalformedInput, err.Error())
		return
	}

	c, err := a.courses.Create(r.Context(), expertID, req.Title, req.Description)
	if err != nil {
		a.writeCourseError(w, r, err, "course create failed")
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

type updateCourseRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Published   *bool   `json:"published"`
}

func (a *API) handleUpdateCourse(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	expertID, courseID := vars["expertID"], vars["courseID"]

	var req updateCourseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeMalformedInput, err.Error())
		return
	}

	c, err := a.courses.Update(r.Context(), expertID, courseID, course.Update{
		Title:       req.Title,
		Description: req.Description,
		Published:   req.Published,
	})
	if err != nil {
		a.writeCourseError(w, r, err, "course update failed")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (a *API) handleDeleteCourse(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	expertID, courseID := vars["expertID"], vars["courseID"]

	if err := a.courses.Delete(r.Context(), expertID, courseID); err != nil {
		a.writeCourseError(w, r, err, "course delete failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) writeCourseError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, course.ErrNotFound):
		writeError(w, r, http.StatusNotFound, codeNotFound, "course not found")
	case errors.Is(err, course.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, codeMalformedInput, err.Error())
	default:
		obs.Logger().WithError(err).Error(fallback)
		writeError(w, r, http.StatusInternalServerError, codeInternal, fallback)
	}
}
