package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"attendance.agent/internal/core"
	"attendance.agent/internal/core/model"
	"attendance.agent/internal/device/camera"
	"attendance.agent/internal/device/location"
	"attendance.agent/internal/ports/remote"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

// AttendanceHandler exposes the workflow to the presentation layer over the
// local facade. Every error it returns carries a stable code from the
// workflow's taxonomy plus a message the UI can show as-is.
type AttendanceHandler struct {
	Workflow *core.Workflow
	validate *validator.Validate
}

func NewAttendanceHandler(workflow *core.Workflow) *AttendanceHandler {
	return &AttendanceHandler{
		Workflow: workflow,
		validate: validator.New(),
	}
}

type clockInRequest struct {
	ShiftID    string `json:"shiftId" validate:"omitempty,max=64"`
	LateReason string `json:"lateReason" validate:"omitempty,max=500"`
}

type qrScanRequest struct {
	Code string `json:"code" validate:"required,max=4096"`
}

type statusResponse struct {
	Status     model.AttendanceStatus  `json:"status"`
	OpenRecord *model.AttendanceRecord `json:"openRecord,omitempty"`
	FetchError string                  `json:"fetchError,omitempty"`
}

type actionResponse struct {
	Result *model.AttendanceResult `json:"result"`
	Late   *model.LateAssessment   `json:"late,omitempty"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Status reports the reconciled shift state. A failed remote fetch still
// answers 200 with the fail-safe NOT_CLOCKED_IN snapshot; the fetch error
// rides along for display.
func (h *AttendanceHandler) Status(w http.ResponseWriter, r *http.Request) {
	status, open, err := h.Workflow.Status(r.Context())

	resp := statusResponse{Status: status, OpenRecord: open}
	if err != nil {
		resp.FetchError = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// ClockIn runs the full check-in sequence for the configured role.
func (h *AttendanceHandler) ClockIn(w http.ResponseWriter, r *http.Request) {
	var req clockInRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, late, err := h.Workflow.ClockIn(r.Context(), req.ShiftID, req.LateReason)
	if err != nil {
		h.writeError(r, w, err)
		return
	}
	writeJSON(w, http.StatusOK, actionResponse{Result: result, Late: late})
}

// ClockOut closes the open record for the configured role.
func (h *AttendanceHandler) ClockOut(w http.ResponseWriter, r *http.Request) {
	result, err := h.Workflow.ClockOut(r.Context())
	if err != nil {
		h.writeError(r, w, err)
		return
	}
	writeJSON(w, http.StatusOK, actionResponse{Result: result})
}

// QRScan resolves a scanned code into an implicit action and submits it.
func (h *AttendanceHandler) QRScan(w http.ResponseWriter, r *http.Request) {
	var req qrScanRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.Workflow.HandleScan(r.Context(), req.Code)
	if err != nil {
		h.writeError(r, w, err)
		return
	}
	writeJSON(w, http.StatusOK, actionResponse{Result: result})
}

// LateCheck answers the lateness verdict for a shift without touching the
// network, so the UI can demand a reason before the user commits.
func (h *AttendanceHandler) LateCheck(w http.ResponseWriter, r *http.Request) {
	shiftID := r.URL.Query().Get("shiftId")
	if shiftID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: "MISSING_SHIFT", Message: "shiftId query parameter is required"})
		return
	}

	assessment, err := h.Workflow.AssessShift(shiftID)
	if err != nil {
		h.writeError(r, w, err)
		return
	}
	writeJSON(w, http.StatusOK, assessment)
}

// Shifts lists the configured shift definitions for the selection UI.
func (h *AttendanceHandler) Shifts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Workflow.Shifts())
}

func (h *AttendanceHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: "BAD_REQUEST", Message: "invalid request body"})
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: "BAD_REQUEST", Message: err.Error()})
		return false
	}
	return true
}

// writeError maps the workflow's error taxonomy onto HTTP statuses and
// stable codes. Server rejections pass their message through verbatim.
func (h *AttendanceHandler) writeError(r *http.Request, w http.ResponseWriter, err error) {
	var rejection *remote.RejectionError
	var transport *remote.TransportError

	switch {
	case errors.Is(err, core.ErrMissingLocation):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Code: "MISSING_LOCATION", Message: "a location sample is required before submitting"})
	case errors.Is(err, core.ErrMissingEvidence):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Code: "MISSING_EVIDENCE", Message: "a photo is required before submitting"})
	case errors.Is(err, core.ErrMissingLateReason):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Code: "MISSING_LATE_REASON", Message: "arriving late requires a reason"})
	case errors.Is(err, core.ErrInvalidScanCode):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Code: "INVALID_SCAN_CODE", Message: "the scanned code could not be read, scan again"})
	case errors.Is(err, core.ErrAlreadyOnShift):
		writeJSON(w, http.StatusConflict, errorResponse{Code: "ALREADY_ON_SHIFT", Message: "a shift is already open for this role"})
	case errors.Is(err, core.ErrNotOnShift):
		writeJSON(w, http.StatusConflict, errorResponse{Code: "NOT_ON_SHIFT", Message: "no open shift to check out of"})
	case errors.Is(err, core.ErrSubmissionInFlight):
		writeJSON(w, http.StatusConflict, errorResponse{Code: "SUBMISSION_IN_FLIGHT", Message: "the previous submission has not settled yet"})
	case errors.Is(err, core.ErrUnknownShift):
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: "UNKNOWN_SHIFT", Message: "the selected shift is not configured"})
	case errors.Is(err, location.ErrDenied):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Code: "LOCATION_DENIED", Message: "location permission was refused, enable it and retry"})
	case errors.Is(err, location.ErrTimeout):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Code: "LOCATION_TIMEOUT", Message: "no location fix arrived in time, retry in the open"})
	case errors.Is(err, location.ErrUnavailable):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Code: "LOCATION_UNAVAILABLE", Message: "this device cannot determine its location"})
	case errors.Is(err, camera.ErrPermissionDenied):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Code: "CAMERA_PERMISSION_DENIED", Message: "camera permission was refused, enable it and retry"})
	case errors.Is(err, camera.ErrBusy):
		writeJSON(w, http.StatusConflict, errorResponse{Code: "CAMERA_BUSY", Message: "another capture is in progress"})
	case errors.Is(err, camera.ErrNoFileSelected):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Code: "NO_FILE_SELECTED", Message: "no photo was taken, capture one and retry"})
	case errors.Is(err, core.ErrInvalidMediaType), errors.Is(err, camera.ErrInvalidMediaType):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Code: "INVALID_MEDIA_TYPE", Message: "the captured file is not an image"})
	case errors.Is(err, camera.ErrTooLarge):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Code: "EVIDENCE_TOO_LARGE", Message: "the captured photo is too large, capture again at a lower resolution"})
	case errors.Is(err, camera.ErrUnavailable):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Code: "CAMERA_UNAVAILABLE", Message: "this device has no usable camera"})
	case errors.As(err, &rejection):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Code: "SUBMISSION_REJECTED", Message: rejection.Message})
	case errors.As(err, &transport):
		writeJSON(w, http.StatusBadGateway, errorResponse{Code: "TRANSPORT_FAILURE", Message: "could not reach the attendance service, check connectivity and retry"})
	default:
		log.Ctx(r.Context()).Error().Err(err).Msg("Unmapped workflow error")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
