package sessiongate

import (
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

// DeleteUserAuthPayload is the request body of the purge capability.
type DeleteUserAuthPayload struct {
	UID string `form:"uid" json:"uid"`
}

// RegisterPurgeCapability mounts the privileged identity-purge endpoint. The
// caller authenticates with a bearer token; the admin check runs inside
// PurgeService against the caller's own profile, never against the payload.
func RegisterPurgeCapability[T any](app router.Router[T], service *PurgeService, verifier TokenVerifier) {
	handler := &purgeCapabilityHandler{
		service:  service,
		verifier: verifier,
		logger:   defLogger{},
	}
	app.Post("/capabilities/delete-user-auth", handler.Handle).
		SetName("capability.delete-user-auth")
}

type purgeCapabilityHandler struct {
	service  *PurgeService
	verifier TokenVerifier
	logger   Logger
}

func (h *purgeCapabilityHandler) Handle(ctx router.Context) error {
	caller, err := h.callerIdentity(ctx)
	if err != nil {
		// unauthenticated callers fall through with a nil caller; the
		// service owns the check ordering
		h.logger.Info("purge capability: no verified caller", "error", err)
		caller = nil
	}

	payload := new(DeleteUserAuthPayload)
	if err := ctx.Bind(payload); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]string{
			"error": "failed to parse payload",
		})
	}

	receipt, err := h.service.Purge(ctx.Context(), caller, payload.UID)
	if err != nil {
		return h.errJSON(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"success": receipt.Success,
		"message": receipt.Message,
	})
}

func (h *purgeCapabilityHandler) callerIdentity(ctx router.Context) (Identity, error) {
	header := ctx.GetString("Authorization", "")
	if header == "" {
		return nil, ErrUnauthenticated
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, ErrUnauthenticated
	}

	identity, err := h.verifier.Verify(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, err
	}
	return identity, nil
}

func (h *purgeCapabilityHandler) errJSON(ctx router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	h.logger.Info(
		"purge capability failed",
		"error", richErr.Message,
		"text_code", richErr.TextCode,
	)

	return ctx.JSON(richErr.Code, map[string]any{
		"error": richErr.Message,
		"code":  richErr.TextCode,
	})
}
