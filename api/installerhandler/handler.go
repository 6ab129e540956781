package installerhandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/ruteri/installer-provisioning-backend/api"
	"github.com/ruteri/installer-provisioning-backend/installer"
	"github.com/ruteri/installer-provisioning-backend/interfaces"
	"github.com/ruteri/installer-provisioning-backend/metrics"
	"github.com/ruteri/installer-provisioning-backend/tokens"
)

// Config holds handler settings.
type Config struct {
	// PublicURL is the externally reachable origin embedded in scripts as the
	// registration target. When empty it is derived from each request.
	PublicURL string
}

// Handler serves the installer endpoints.
type Handler struct {
	cfg      Config
	codec    interfaces.TokenCodec
	tokens   interfaces.TokenStore
	registry interfaces.InstallationRegistry
	scripts  interfaces.ScriptSynthesizer
	archive  interfaces.StorageBackend
	log      *slog.Logger
}

// NewHandler creates the installer handler.
//
// Parameters:
//   - cfg: handler settings
//   - codec: signs and verifies installation tokens
//   - tokenStore: persistence of issued tokens
//   - registry: entity/application lookups and installation records
//   - scripts: renders and stages provisioning scripts
//   - archive: optional script archive, nil disables archiving
//   - log: structured logger
func NewHandler(
	cfg Config,
	codec interfaces.TokenCodec,
	tokenStore interfaces.TokenStore,
	registry interfaces.InstallationRegistry,
	scripts interfaces.ScriptSynthesizer,
	archive interfaces.StorageBackend,
	log *slog.Logger,
) *Handler {
	return &Handler{
		cfg:      cfg,
		codec:    codec,
		tokens:   tokenStore,
		registry: registry,
		scripts:  scripts,
		archive:  archive,
		log:      log,
	}
}

// RegisterRoutes mounts:
//   - POST   /installer/token    - issue a token
//   - DELETE /installer/token    - delete a token by value
//   - GET    /installer/tokens   - list tokens
//   - GET    /installer/download - download a provisioning script (POST also accepted)
//   - POST   /installer/register - registration callback from the script
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/installer/token", h.HandleCreateToken)
	r.Delete("/installer/token", h.HandleDeleteToken)
	r.Get("/installer/tokens", h.HandleListTokens)
	r.Get("/installer/download", h.HandleDownload)
	r.Post("/installer/download", h.HandleDownload)
	r.Post(interfaces.RegisterPath, h.HandleRegister)
}

// HandleCreateToken issues a token for an application and entity pair and
// persists it.
//
// URL format: POST /installer/token?appId={appId}&entityId={entityId}
//
// Response: JSON-encoded interfaces.InstallationToken
//
// Status codes:
//   - 200 OK: token issued and stored
//   - 400 Bad Request: appId or entityId missing or not numeric
//   - 500 Internal Server Error: signing or persistence failed
func (h *Handler) HandleCreateToken(w http.ResponseWriter, r *http.Request) {
	const op = "create_token"

	params, err := queryOrBody(w, r, "appId", "entityId")
	if err != nil {
		h.jsonError(w, op, http.StatusBadRequest, err.Error())
		return
	}
	claims, err := interfaces.ParseTokenClaims(params["appId"], params["entityId"])
	if err != nil {
		h.jsonError(w, op, http.StatusBadRequest, err.Error())
		return
	}

	token, expiresAt, err := h.codec.Issue(claims)
	if err != nil {
		h.log.Error("Failed to issue installation token", "err", err)
		h.jsonError(w, op, http.StatusInternalServerError, "failed to issue installation token")
		return
	}

	record, err := h.tokens.Create(r.Context(), interfaces.InstallationToken{Token: token, ExpiresAt: expiresAt})
	if err != nil {
		h.log.Error("Failed to persist installation token", "err", err)
		h.jsonError(w, op, http.StatusInternalServerError, "failed to persist installation token")
		return
	}

	metrics.IncTokensIssued()
	h.log.Info("Issued installation token",
		slog.Uint64("appId", claims.AppID),
		slog.Uint64("entityId", claims.EntityID),
		slog.Uint64("tokenId", uint64(record.ID)))
	h.writeJSON(w, http.StatusOK, record)
}

// HandleDeleteToken deletes a token by its exact value. Deleting a token that
// does not exist is an error.
//
// URL format: DELETE /installer/token?install_token={token}
// The token may also be sent as JSON or form body field install_token.
//
// Status codes:
//   - 204 No Content: token deleted
//   - 400 Bad Request: install_token missing
//   - 500 Internal Server Error: no such token or persistence failure
func (h *Handler) HandleDeleteToken(w http.ResponseWriter, r *http.Request) {
	const op = "delete_token"

	params, err := queryOrBody(w, r, "install_token")
	if err != nil {
		h.jsonError(w, op, http.StatusBadRequest, err.Error())
		return
	}
	token := params["install_token"]
	if token == "" {
		h.jsonError(w, op, http.StatusBadRequest, fmt.Errorf("%w: install_token", interfaces.ErrMissingParameter).Error())
		return
	}

	if err := h.tokens.DeleteByValue(r.Context(), token); err != nil {
		h.log.Error("Failed to delete installation token", "err", err)
		h.jsonError(w, op, http.StatusInternalServerError, "failed to delete installation token: "+publicReason(err))
		return
	}

	metrics.IncTokensDeleted()
	w.WriteHeader(http.StatusNoContent)
}

// HandleListTokens returns every stored token.
//
// URL format: GET /installer/tokens
//
// Response: JSON array of interfaces.InstallationToken
func (h *Handler) HandleListTokens(w http.ResponseWriter, r *http.Request) {
	list, err := h.tokens.List(r.Context())
	if err != nil {
		h.log.Error("Failed to list installation tokens", "err", err)
		h.jsonError(w, "list_tokens", http.StatusInternalServerError, "failed to list installation tokens")
		return
	}
	h.writeJSON(w, http.StatusOK, list)
}

// HandleDownload renders the provisioning script for a stored token and
// streams it as the attachment installer.sh.
//
// URL format: GET /installer/download?install_token={token}
// POST with a JSON or form body field install_token is also accepted.
//
// Status codes:
//   - 200 OK: script attached
//   - 400 Bad Request: install_token missing
//   - 404 Not Found: token not stored, not valid, or its entity or application is unknown
//   - 500 Internal Server Error: render, write or stream failure
//
// Error bodies are plain text.
func (h *Handler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	const op = "download"
	ctx := r.Context()

	params, err := queryOrBody(w, r, "install_token")
	if err != nil {
		h.textError(w, op, http.StatusBadRequest, err.Error())
		return
	}
	token := params["install_token"]
	if token == "" {
		h.textError(w, op, http.StatusBadRequest, "Missing parameter install_token")
		return
	}

	if _, err := h.tokens.FindByValue(ctx, token); err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			h.textError(w, op, http.StatusNotFound, "Entity, application or token not found")
			return
		}
		h.log.Error("Failed to look up installation token", "err", err)
		h.textError(w, op, http.StatusInternalServerError, "Failed to generate installer.sh")
		return
	}

	claims, err := h.codec.VerifyAndDecode(token)
	if err != nil {
		h.log.Warn("Stored installation token failed verification", "err", err)
		h.textError(w, op, http.StatusNotFound, "Entity, application or token not found")
		return
	}

	entity, err := h.registry.FindEntity(ctx, uint(claims.EntityID))
	if err == nil {
		var app interfaces.Application
		app, err = h.registry.FindApplication(ctx, uint(claims.AppID))
		if err == nil {
			h.deliverScript(w, r, token, entity, app)
			return
		}
	}
	if errors.Is(err, interfaces.ErrNotFound) {
		h.textError(w, op, http.StatusNotFound, "Entity, application or token not found")
		return
	}
	h.log.Error("Failed to resolve entity or application", "err", err)
	h.textError(w, op, http.StatusInternalServerError, "Failed to generate installer.sh")
}

func (h *Handler) deliverScript(w http.ResponseWriter, r *http.Request, token string, entity interfaces.Entity, app interfaces.Application) {
	const op = "download"

	installHash, err := tokens.GenerateInstallHash()
	if err != nil {
		h.log.Error("Failed to generate install hash", "err", err)
		h.textError(w, op, http.StatusInternalServerError, "Failed to generate installer.sh")
		return
	}

	script, err := h.scripts.Render(interfaces.ScriptParams{
		GitURL:       app.GitURL,
		EntityHash:   entity.HashID,
		InstallHash:  installHash,
		InstallToken: token,
		BaseURL:      h.baseURL(r),
	})
	if err != nil {
		h.log.Error("Failed to render installer script", "err", err, slog.Uint64("applicationId", uint64(app.ID)))
		h.textError(w, op, http.StatusInternalServerError, "Failed to generate installer.sh")
		return
	}

	staged, err := h.scripts.Stage(script)
	if err != nil {
		h.log.Error("Failed to write installer script", "err", err)
		h.textError(w, op, http.StatusInternalServerError, "Failed to write installer.sh")
		return
	}
	defer staged.Remove()

	rd, err := staged.Open()
	if err != nil {
		h.log.Error("Failed to open staged installer script", "err", err)
		h.textError(w, op, http.StatusInternalServerError, "Failed to download installer.sh")
		return
	}
	defer rd.Close()

	if id, ok := h.archiveScript(r, script); ok {
		w.Header().Set(api.ScriptIDHeader, id.String())
	}

	w.Header().Set("Content-Type", "application/x-sh")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", installer.ScriptFilename))
	w.Header().Set("Content-Length", strconv.FormatInt(staged.Size(), 10))
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, rd); err != nil {
		// Headers are already sent; the client sees a truncated body.
		h.log.Error("Failed to stream installer script", "err", fmt.Errorf("%w: %w", interfaces.ErrScriptStream, err))
		metrics.IncRequestError(op, "stream")
		return
	}

	metrics.IncScriptsGenerated()
	h.log.Info("Served installer script",
		slog.Uint64("entityId", uint64(entity.ID)),
		slog.Uint64("applicationId", uint64(app.ID)))
}

// archiveScript stores script in the archive. Failures are logged only.
func (h *Handler) archiveScript(r *http.Request, script []byte) (interfaces.ContentID, bool) {
	if h.archive == nil {
		return interfaces.ContentID{}, false
	}

	id, err := h.archive.Store(r.Context(), script, interfaces.ScriptType)
	if err != nil {
		h.log.Warn("Failed to archive installer script", "err", err, slog.String("backend", h.archive.Name()))
		return interfaces.ContentID{}, false
	}
	return id, true
}

// HandleRegister records a completed installation reported by the
// provisioning script.
//
// URL format: POST /installer/register
// Body: JSON or form with install_hash, entity_hash and install_token
//
// Status codes:
//   - 200 OK: installation recorded
//   - 400 Bad Request: a field is missing
//   - 500 Internal Server Error: token invalid or persistence failure
//
// Error bodies are plain text.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	const op = "register"

	body, err := bodyParams(w, r)
	if err != nil {
		h.textError(w, op, http.StatusBadRequest, err.Error())
		return
	}
	reg := interfaces.Registration{
		InstallHash:  body["install_hash"],
		EntityHash:   body["entity_hash"],
		InstallToken: body["install_token"],
	}
	if err := reg.Validate(); err != nil {
		h.textError(w, op, http.StatusBadRequest, "Missing parameter install_hash, entity_hash or install_token")
		return
	}

	claims, err := h.codec.VerifyAndDecode(reg.InstallToken)
	if err != nil {
		h.log.Warn("Rejected registration with invalid token", "err", err)
		h.textError(w, op, http.StatusInternalServerError, "Failed to register installation")
		return
	}

	link, history, err := h.registry.RecordInstallation(r.Context(), interfaces.EntityApplication{
		EntityID:      uint(claims.EntityID),
		ApplicationID: uint(claims.AppID),
		StatusID:      interfaces.StatusProduction,
		InstallHash:   reg.InstallHash,
	}, interfaces.OperationInstall)
	if err != nil {
		h.log.Error("Failed to record installation", "err", err)
		h.textError(w, op, http.StatusInternalServerError, "Failed to register installation")
		return
	}

	metrics.IncRegistrations()
	h.log.Info("Registered installation",
		slog.Uint64("entityApplicationId", uint64(link.ID)),
		slog.Uint64("historyId", uint64(history.ID)),
		slog.String("entityHash", reg.EntityHash))

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "Installation registered successfully")
}

// baseURL is the configured public URL or the origin the request came in on.
func (h *Handler) baseURL(r *http.Request) string {
	if h.cfg.PublicURL != "" {
		return strings.TrimRight(h.cfg.PublicURL, "/")
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		proto = strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
		if proto == "http" || proto == "https" {
			scheme = proto
		}
	}
	return scheme + "://" + r.Host
}

func (h *Handler) writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}

func (h *Handler) jsonError(w http.ResponseWriter, op string, code int, msg string) {
	metrics.IncRequestError(op, strconv.Itoa(code))
	h.writeJSON(w, code, api.ErrorResponse{Error: msg})
}

func (h *Handler) textError(w http.ResponseWriter, op string, code int, msg string) {
	metrics.IncRequestError(op, strconv.Itoa(code))
	http.Error(w, msg, code)
}

// publicReason reduces err to a message safe to return to callers.
func publicReason(err error) string {
	switch {
	case errors.Is(err, interfaces.ErrNotFound):
		return "token not found"
	case errors.Is(err, interfaces.ErrPersistence):
		return "storage error"
	default:
		return "internal error"
	}
}
