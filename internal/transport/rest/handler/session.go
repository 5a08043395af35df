package handler

import (
	"context"
	"net/http"
	"speakexam/internal/model"
	"speakexam/internal/service"
	"strconv"

	"github.com/gorilla/mux"
)

// maxRecordingBytes matches the transcription provider's upload limit
const maxRecordingBytes = 25 << 20

// SessionHandler handles test session endpoints
type SessionHandler struct {
	examSvc *service.ExamService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(examSvc *service.ExamService) *SessionHandler {
	return &SessionHandler{examSvc: examSvc}
}

// Create handles POST /v1/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	resp, err := h.examSvc.CreateSession(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// Get handles GET /v1/sessions/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.examSvc.Poll)
}

// Begin handles POST /v1/sessions/{id}/begin
func (h *SessionHandler) Begin(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.examSvc.Begin)
}

// SelectMode handles POST /v1/sessions/{id}/mode
func (h *SessionHandler) SelectMode(w http.ResponseWriter, r *http.Request) {
	var req model.SelectModeRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	view, err := h.examSvc.SelectMode(r.Context(), mux.Vars(r)["id"], req.Mode)
	h.write(w, view, err)
}

// SubmitAnswer handles POST /v1/sessions/{id}/answers
func (h *SessionHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	var req model.SubmitAnswerRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	view, err := h.examSvc.SubmitAnswer(r.Context(), mux.Vars(r)["id"], req.Text)
	h.write(w, view, err)
}

// SubmitRecording handles POST /v1/sessions/{id}/recordings (multipart "audio")
func (h *SessionHandler) SubmitRecording(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRecordingBytes)
	file, header, err := r.FormFile("audio")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing audio file")
		return
	}
	defer file.Close()

	view, err := h.examSvc.SubmitRecording(r.Context(), mux.Vars(r)["id"], file, header.Filename)
	h.write(w, view, err)
}

// StartMonologue handles POST /v1/sessions/{id}/monologue/start
func (h *SessionHandler) StartMonologue(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.examSvc.StartMonologue)
}

// SkipPreparation handles POST /v1/sessions/{id}/monologue/skip-preparation
func (h *SessionHandler) SkipPreparation(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.examSvc.SkipPreparation)
}

// Continue handles POST /v1/sessions/{id}/continue
func (h *SessionHandler) Continue(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.examSvc.Continue)
}

// SkipToPhase handles POST /v1/sessions/{id}/phases/{n}
func (h *SessionHandler) SkipToPhase(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(mux.Vars(r)["n"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid part number")
		return
	}
	view, err := h.examSvc.SkipToPhase(r.Context(), mux.Vars(r)["id"], n)
	h.write(w, view, err)
}

// Restart handles POST /v1/sessions/{id}/restart
func (h *SessionHandler) Restart(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.examSvc.Restart)
}

// End handles DELETE /v1/sessions/{id}
func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	if err := h.examSvc.EndSession(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Report handles GET /v1/sessions/{id}/report
func (h *SessionHandler) Report(w http.ResponseWriter, r *http.Request) {
	report, err := h.examSvc.Report(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Speech handles GET /v1/sessions/{id}/speech. 204 means no audio: show text only.
func (h *SessionHandler) Speech(w http.ResponseWriter, r *http.Request) {
	audio, err := h.examSvc.Speech(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if audio == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(audio)))
	w.WriteHeader(http.StatusOK)
	w.Write(audio)
}

type viewFunc func(ctx context.Context, id string) (*model.View, error)

func (h *SessionHandler) respond(w http.ResponseWriter, r *http.Request, fn viewFunc) {
	view, err := fn(r.Context(), mux.Vars(r)["id"])
	h.write(w, view, err)
}

func (h *SessionHandler) write(w http.ResponseWriter, view *model.View, err error) {
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
