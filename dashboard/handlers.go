package dashboard

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/a-h/templ"
	"github.com/go-chi/render"
	"github.com/rs/zerolog"

	"github.com/kaireichart/embalse-analysis/reservoir"
)

const (
	formFile      = "file"
	formFrequency = "frequency"
)

// uploadError describes a request whose form could not be read.
type uploadError struct {
	status int
	msg    string
}

func (h *Handler) servePage(w http.ResponseWriter, r *http.Request) {
	templ.Handler(Page(reservoir.DefaultFrequency.Label, nil)).ServeHTTP(w, r)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	req, upErr := h.readUpload(w, r)
	if upErr != nil {
		h.renderPage(w, r, upErr.status, reservoir.DefaultFrequency.Label, ErrorMessage("validation", upErr.msg))
		return
	}

	rep, err := h.run(r.Context(), req)
	if err != nil {
		h.renderPage(w, r, statusFor(err), req.Frequency, ErrorMessage(reservoir.ErrorKind(err), err.Error()))
		return
	}

	page := newPageRenderer()
	if err := reservoir.Present(page, rep); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("run_id", rep.RunID).Msg("failed to present report")
		h.renderPage(w, r, http.StatusInternalServerError, req.Frequency, ErrorMessage("internal", err.Error()))
		return
	}
	h.renderPage(w, r, http.StatusOK, req.Frequency, page.Component(rep))
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	req, upErr := h.readUpload(w, r)
	if upErr != nil {
		http.Error(w, upErr.msg, upErr.status)
		return
	}

	rep, err := h.run(r.Context(), req)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	w.Header().Set("Content-Type", rep.Artifact.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rep.Artifact.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(rep.Artifact.Content)))
	if _, err := w.Write(rep.Artifact.Content); err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Str("run_id", rep.RunID).Msg("failed to write export")
	}
}

func (h *Handler) handleAPIAnalyze(w http.ResponseWriter, r *http.Request) {
	req, upErr := h.readUpload(w, r)
	if upErr != nil {
		render.Status(r, upErr.status)
		render.JSON(w, r, apiResponse{Error: &apiError{Kind: "validation", Message: upErr.msg}})
		return
	}

	rep, err := h.run(r.Context(), req)
	if err != nil {
		render.Status(r, statusFor(err))
		render.JSON(w, r, apiResponse{Error: &apiError{Kind: reservoir.ErrorKind(err), Message: err.Error()}})
		return
	}

	items := &apiRenderer{}
	if err := reservoir.Present(items, rep); err != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, apiResponse{Error: &apiError{Kind: "internal", Message: err.Error()}})
		return
	}
	render.JSON(w, r, apiResponse{
		Success:   true,
		RunID:     rep.RunID,
		Filename:  rep.Filename,
		Frequency: rep.Frequency.Label,
		Items:     items.items,
	})
}

func (h *Handler) renderPage(w http.ResponseWriter, r *http.Request, status int, frequency string, body templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := Page(frequency, body).Render(r.Context(), w); err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("failed to render page")
	}
}

// readUpload reads the multipart form into a pipeline request. An empty
// frequency selects the default one.
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) (reservoir.Request, *uploadError) {
	r.Body = http.MaxBytesReader(w, r.Body, h.upload.MaxBytes)
	if err := r.ParseMultipartForm(h.upload.MaxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return reservoir.Request{}, &uploadError{
				status: http.StatusRequestEntityTooLarge,
				msg:    fmt.Sprintf("file exceeds the %d byte upload limit", h.upload.MaxBytes),
			}
		}
		return reservoir.Request{}, &uploadError{status: http.StatusBadRequest, msg: "failed to parse form"}
	}

	file, header, err := r.FormFile(formFile)
	if err != nil {
		return reservoir.Request{}, &uploadError{status: http.StatusBadRequest, msg: "no file was uploaded"}
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return reservoir.Request{}, &uploadError{status: http.StatusBadRequest, msg: "failed to read uploaded file"}
	}

	frequency := r.FormValue(formFrequency)
	if frequency == "" {
		frequency = reservoir.DefaultFrequency.Label
	}
	return reservoir.Request{
		Filename:  header.Filename,
		Content:   content,
		Frequency: frequency,
	}, nil
}

type apiError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type apiResponse struct {
	Success   bool      `json:"success"`
	RunID     string    `json:"run_id,omitempty"`
	Filename  string    `json:"filename,omitempty"`
	Frequency string    `json:"frequency,omitempty"`
	Items     []apiItem `json:"items,omitempty"`
	Error     *apiError `json:"error,omitempty"`
}
