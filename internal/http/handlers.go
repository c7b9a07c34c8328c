package http

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"forecast/internal/core"
	applog "forecast/internal/log"
	"forecast/internal/services"
)

const ignoredValueWarning = "value ignored: not a number"

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	}).Write(w)
}

// handleReady checks the backing store and reports cache and rate limiter state.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := map[string]any{}

	if s.ready != nil {
		if err := s.ready(ctx); err != nil {
			checks["store"] = "failed: " + err.Error()
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
		} else {
			checks["store"] = "ok"
		}
	} else {
		checks["store"] = "ok"
	}

	if s.caches != nil {
		checks["caches"] = s.caches.Sizes()
	}
	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
		"hits":           s.rateLimiter.Hits(),
	}
	checks["suspicious_requests"] = s.security.suspicious()

	NewJSONResponse().Status(httpStatus).Body(map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

// handleProjects lists the Fixed Price projects offered in the picker.
func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}
	options, err := s.forecast.ProjectOptions(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err, applog.OpList)
		return
	}
	NewJSONResponse().Body(options).Write(w)
}

// handleForecast returns the draft of the project the user selected last,
// or of the project given in the projectId query parameter.
func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var (
		m   *core.Matrix
		err error
	)
	if projectID := sanitizeInput(r.URL.Query().Get("projectId")); projectID != "" {
		m, err = s.forecast.Draft(r.Context(), user, projectID)
	} else {
		m, err = s.forecast.Open(r.Context(), user)
	}
	if err != nil {
		s.writeServiceError(w, r, err, applog.OpRead)
		return
	}
	NewJSONResponse().Body(newMatrixView(m)).Write(w)
}

func (s *Server) handleSelectProject(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodPost); resp != nil {
		resp.Write(w)
		return
	}
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	projectID, err := parseProjectID(NewRequestBodyParser(w, r), r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	m, err := s.forecast.SelectProject(r.Context(), user, projectID)
	if err != nil {
		s.writeServiceError(w, r, err, applog.OpSelect)
		return
	}
	NewJSONResponse().Body(newMatrixView(m)).Write(w)
}

// handleEditCell updates one editable cell. A value that is not a number
// leaves the draft unchanged and still answers 200 with the current matrix.
func (s *Server) handleEditCell(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodPut, http.MethodPost); resp != nil {
		resp.Write(w)
		return
	}
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	edit, err := parseCellEdit(NewRequestBodyParser(w, r))
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	m, err := s.forecast.EditCell(r.Context(), user, edit.ProjectID, edit.Year, edit.Month, edit.Category, edit.Value)
	switch {
	case err == nil:
		NewJSONResponse().Body(newMatrixView(m)).Write(w)
	case errors.Is(err, core.ErrInvalidAmount) && m != nil:
		applog.FromContext(r.Context()).DebugContext(r.Context(), "Ignored non-numeric cell value",
			applog.NewFields().WithUser(user).WithProject(edit.ProjectID).Args()...)
		view := newMatrixView(m)
		view.Warning = ignoredValueWarning
		NewJSONResponse().Body(view).Write(w)
	default:
		s.writeServiceError(w, r, err, applog.OpEdit)
	}
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodPost); resp != nil {
		resp.Write(w)
		return
	}
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	projectID, err := parseProjectID(NewRequestBodyParser(w, r), r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	m, err := s.forecast.Save(r.Context(), user, projectID)
	if err != nil {
		s.writeServiceError(w, r, err, applog.OpSave)
		return
	}
	NewJSONResponse().Body(newMatrixView(m)).Write(w)
}

// handleDiscard drops the user's draft; the next read reloads from storage.
func (s *Server) handleDiscard(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodDelete); resp != nil {
		resp.Write(w)
		return
	}
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	projectID := sanitizeInput(r.URL.Query().Get("projectId"))
	if projectID == "" {
		BadRequestError(errMissingProject.Error()).Write(w)
		return
	}
	s.forecast.Discard(user, projectID)
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

// handleCurrentTimesheet redirects to this week's timesheet of the user,
// creating it when missing. The body carries the same target for clients
// that do not follow redirects.
func (s *Server) handleCurrentTimesheet(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	nav, err := s.timesheets.CurrentTimesheet(r.Context(), user, s.now())
	if err != nil {
		s.writeServiceError(w, r, err, applog.OpNavigate)
		return
	}
	NewJSONResponse().
		Status(http.StatusSeeOther).
		Header("Location", "/timesheets/"+url.PathEscape(nav.Params[services.ParamRecordID])).
		Body(nav).
		Write(w)
}

func (s *Server) requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	user, err := userFromRequest(r)
	if err != nil {
		ErrorResponse(http.StatusUnauthorized, err.Error()).Write(w)
		return "", false
	}
	return user, true
}

// writeServiceError maps service and domain errors to status codes.
// Unexpected errors are logged and answered with a generic 500.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error, op string) {
	switch {
	case errors.Is(err, services.ErrNotAuthorized):
		ErrorResponse(http.StatusForbidden, services.NotAuthorizedMessage).Write(w)
	case errors.Is(err, services.ErrNoProjectSelected),
		errors.Is(err, services.ErrProjectNotFound):
		NotFoundError(err.Error()).Write(w)
	case errors.Is(err, services.ErrDraftExpired):
		ConflictError(services.ErrDraftExpired.Error()).Write(w)
	case errors.Is(err, services.ErrNotFixedPrice),
		errors.Is(err, services.ErrMonthOutOfRange),
		errors.Is(err, core.ErrUnknownCategory),
		errors.Is(err, core.ErrNotEditable),
		errors.Is(err, core.ErrInvalidMonth),
		errors.Is(err, core.ErrInvalidAmount):
		UnprocessableEntityError(err.Error()).Write(w)
	default:
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			applog.NewFields().WithOperation(op).WithError(err).Args()...)
		InternalServerError("internal error").Write(w)
	}
}
