package http

import (
	"errors"
	"fmt"
	stdhttp "net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"vitalnotes/internal/application"
	"vitalnotes/internal/domain"
	"vitalnotes/internal/ports"
)

func handleError(c echo.Context, err error) error {
	var denied *domain.DeniedError
	var loginErr *domain.LoginError
	var syncErr *domain.SyncError
	switch {
	case errors.As(err, &denied):
		status := stdhttp.StatusForbidden
		if denied.Decision == domain.DenyNotLoggedIn {
			status = stdhttp.StatusUnauthorized
		}
		return c.JSON(status, map[string]string{"error": denied.Error()})
	case errors.As(err, &loginErr):
		return c.JSON(stdhttp.StatusUnauthorized, map[string]string{"error": loginErr.Message})
	case errors.As(err, &syncErr):
		return c.JSON(stdhttp.StatusBadGateway, map[string]string{"error": syncErr.Message})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.JSON(stdhttp.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.JSON(stdhttp.StatusNotFound, map[string]string{"error": err.Error()})
	default:
		return c.JSON(stdhttp.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

type sessionView struct {
	User        domain.Identity        `json:"user"`
	Permissions map[domain.Action]bool `json:"permissions"`
}

type SessionHandler struct {
	auth     *application.AuthGateway
	sessions *application.SessionStore
	policy   *application.RolePolicy
	records  *application.RecordSync
	logger   ports.Logger
}

func NewSessionHandler(auth *application.AuthGateway, sessions *application.SessionStore, policy *application.RolePolicy, records *application.RecordSync, logger ports.Logger) *SessionHandler {
	return &SessionHandler{auth: auth, sessions: sessions, policy: policy, records: records, logger: logger}
}

// Login establishes the session and then loads the patient list. A failed
// load does not undo the login; it is reported through the records error.
func (h *SessionHandler) Login(c echo.Context) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(stdhttp.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	ctx := c.Request().Context()
	identity, err := h.auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		return handleError(c, err)
	}
	if err := h.records.List(ctx); err != nil {
		h.logger.Warn(ctx, "patient list not loaded after login", "error", err)
	}
	return c.JSON(stdhttp.StatusOK, sessionView{User: identity, Permissions: h.policy.Permissions(&identity)})
}

func (h *SessionHandler) Logout(c echo.Context) error {
	h.auth.Logout(c.Request().Context())
	return c.NoContent(stdhttp.StatusNoContent)
}

func (h *SessionHandler) Get(c echo.Context) error {
	identity, ok := h.sessions.Current()
	if !ok {
		return handleError(c, &domain.DeniedError{Decision: domain.DenyNotLoggedIn})
	}
	return c.JSON(stdhttp.StatusOK, sessionView{User: identity, Permissions: h.policy.Permissions(&identity)})
}

type patientRequest struct {
	Name      *string     `json:"name"`
	Age       *domain.Age `json:"age"`
	Condition *string     `json:"condition"`
	Notes     *string     `json:"notes"`
	Phone     *string     `json:"phone"`
}

func (r patientRequest) patch() domain.PatientPatch {
	p := domain.PatientPatch{Name: r.Name, Condition: r.Condition, Notes: r.Notes, Phone: r.Phone}
	if r.Age != nil {
		age := string(*r.Age)
		p.Age = &age
	}
	return p
}

type recordsView struct {
	Records []domain.Patient `json:"records"`
	Error   string           `json:"error,omitempty"`
}

type PatientsHandler struct {
	records *application.RecordSync
}

func NewPatientsHandler(records *application.RecordSync) *PatientsHandler {
	return &PatientsHandler{records: records}
}

func (h *PatientsHandler) view() recordsView {
	view := recordsView{Records: h.records.Records()}
	if view.Records == nil {
		view.Records = []domain.Patient{}
	}
	var syncErr *domain.SyncError
	if err := h.records.Err(); errors.As(err, &syncErr) {
		view.Error = syncErr.Message
	}
	return view
}

func (h *PatientsHandler) List(c echo.Context) error {
	return c.JSON(stdhttp.StatusOK, h.view())
}

func (h *PatientsHandler) Refresh(c echo.Context) error {
	if err := h.records.List(c.Request().Context()); err != nil {
		return handleError(c, err)
	}
	return c.JSON(stdhttp.StatusOK, h.view())
}

func (h *PatientsHandler) Dashboard(c echo.Context) error {
	return c.JSON(stdhttp.StatusOK, application.Summarize(h.records.Records()))
}

func (h *PatientsHandler) Create(c echo.Context) error {
	var req patientRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(stdhttp.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	patient := req.patch().Apply(domain.Patient{})
	if err := application.ValidatePatientForm(patient); err != nil {
		return handleError(c, err)
	}
	created, err := h.records.Create(c.Request().Context(), patient)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(stdhttp.StatusCreated, created)
}

func (h *PatientsHandler) Update(c echo.Context) error {
	index, err := indexParam(c)
	if err != nil {
		return handleError(c, err)
	}
	var req patientRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(stdhttp.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	patch := req.patch()
	if current := h.records.Records(); index < len(current) {
		if err := application.ValidatePatientForm(patch.Apply(current[index])); err != nil {
			return handleError(c, err)
		}
	}
	updated, ok, err := h.records.Update(c.Request().Context(), index, patch)
	if err != nil {
		return handleError(c, err)
	}
	if !ok {
		return handleError(c, noSavedRecord(index))
	}
	return c.JSON(stdhttp.StatusOK, updated)
}

func (h *PatientsHandler) Delete(c echo.Context) error {
	index, err := indexParam(c)
	if err != nil {
		return handleError(c, err)
	}
	ok, err := h.records.Delete(c.Request().Context(), index)
	if err != nil {
		return handleError(c, err)
	}
	if !ok {
		return handleError(c, noSavedRecord(index))
	}
	return c.NoContent(stdhttp.StatusNoContent)
}

func indexParam(c echo.Context) (int, error) {
	index, err := strconv.Atoi(strings.TrimSpace(c.Param("index")))
	if err != nil || index < 0 {
		return 0, fmt.Errorf("%w: index must be a non-negative integer", domain.ErrInvalidInput)
	}
	return index, nil
}

func noSavedRecord(index int) error {
	return fmt.Errorf("%w: no saved patient record at index %d", domain.ErrNotFound, index)
}

func Healthz(c echo.Context) error {
	return c.JSON(stdhttp.StatusOK, map[string]string{"status": "ok"})
}
