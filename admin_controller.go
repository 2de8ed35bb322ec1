package sessiongate

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

// RegisterAdminRoutes mounts the user management surface. Callers should
// wrap the group with RouteGuard.RequireRole(RoleAdmin); the handlers still
// re-check the session so a misconfigured mount fails closed.
func RegisterAdminRoutes[T any](app router.Router[T], opts ...AdminControllerOption) {
	controller := NewAdminController(opts...)

	app.Get("/admin/users", controller.UserList).SetName("admin.users.list")
	app.Post("/admin/users/:id", controller.UserUpdate).SetName("admin.users.update")
	app.Post("/admin/users/:id/role", controller.UserToggleRole).SetName("admin.users.role")
	app.Post("/admin/users/:id/status", controller.UserSetStatus).SetName("admin.users.status")
	app.Post("/admin/users/:id/purge", controller.UserPurge).SetName("admin.users.purge")
}

type AdminController struct {
	Debug  bool
	Logger Logger
	Admin  *Admin
}

type AdminControllerOption func(*AdminController) *AdminController

func NewAdminController(opts ...AdminControllerOption) *AdminController {
	c := &AdminController{
		Logger: defLogger{},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Admin == nil {
		panic("Missing Admin service in admin controller...")
	}

	return c
}

// WithAdminService sets the backing admin service.
func WithAdminService(admin *Admin) AdminControllerOption {
	return func(c *AdminController) *AdminController {
		c.Admin = admin
		return c
	}
}

// WithAdminLogger sets the controller logger.
func WithAdminLogger(l Logger) AdminControllerOption {
	return func(c *AdminController) *AdminController {
		if l != nil {
			c.Logger = l
		}
		return c
	}
}

func (a *AdminController) UserList(ctx router.Context) error {
	actor, ok := SessionFromRouterContext(ctx, SessionContextKey)
	if !ok {
		return a.errJSON(ctx, ErrUnauthenticated)
	}

	profiles, err := a.Admin.ListProfiles(ctx.Context(), actor)
	if err != nil {
		return a.errJSON(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"users": profiles,
	})
}

// UserUpdatePayload carries editable profile fields.
type UserUpdatePayload struct {
	DisplayName string `form:"display_name" json:"display_name"`
	Role        string `form:"role" json:"role"`
}

// Validate will validate the payload
func (r UserUpdatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.DisplayName, validation.Length(0, 200)),
		validation.Field(&r.Role, validation.In(string(RoleUser), string(RoleAdmin))),
	)
}

func (a *AdminController) UserUpdate(ctx router.Context) error {
	actor, ok := SessionFromRouterContext(ctx, SessionContextKey)
	if !ok {
		return a.errJSON(ctx, ErrUnauthenticated)
	}

	payload := new(UserUpdatePayload)
	if err := ctx.Bind(payload); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]string{
			"error": "failed to parse payload",
		})
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"validation": FormatValidationErrorToMap(err),
		})
	}

	id := ctx.Param("id")

	profile, err := a.Admin.profiles.GetByIdentity(ctx.Context(), id)
	if err != nil {
		return a.errJSON(ctx, err)
	}

	if payload.DisplayName != "" {
		profile.Name = payload.DisplayName
	}
	if payload.Role != "" {
		profile.Role = Role(payload.Role)
	}

	updated, err := a.Admin.UpdateProfile(ctx.Context(), actor, profile)
	if err != nil {
		return a.errJSON(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"user": updated,
	})
}

func (a *AdminController) UserToggleRole(ctx router.Context) error {
	actor, ok := SessionFromRouterContext(ctx, SessionContextKey)
	if !ok {
		return a.errJSON(ctx, ErrUnauthenticated)
	}

	role, err := a.Admin.ToggleRole(ctx.Context(), actor, ctx.Param("id"))
	if err != nil {
		return a.errJSON(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"role": role,
	})
}

// UserStatusPayload toggles account activation.
type UserStatusPayload struct {
	Active *bool `form:"active" json:"active"`
}

func (a *AdminController) UserSetStatus(ctx router.Context) error {
	actor, ok := SessionFromRouterContext(ctx, SessionContextKey)
	if !ok {
		return a.errJSON(ctx, ErrUnauthenticated)
	}

	payload := new(UserStatusPayload)
	if err := ctx.Bind(payload); err != nil || payload.Active == nil {
		return ctx.JSON(router.StatusBadRequest, map[string]string{
			"error": "active flag required",
		})
	}

	id := ctx.Param("id")
	if err := a.Admin.SetActive(ctx.Context(), actor, id, *payload.Active); err != nil {
		return a.errJSON(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"id":     id,
		"active": *payload.Active,
	})
}

// UserPurge removes the target's profile and then their identity. The
// receipt reports the identity side; the admin list reflects the profile
// removal on its next read.
func (a *AdminController) UserPurge(ctx router.Context) error {
	actor, ok := SessionFromRouterContext(ctx, SessionContextKey)
	if !ok {
		return a.errJSON(ctx, ErrUnauthenticated)
	}

	receipt, err := a.Admin.PurgeAccount(ctx.Context(), actor, ctx.Param("id"))
	if err != nil {
		return a.errJSON(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"success": receipt.Success,
		"message": receipt.Message,
	})
}

func (a *AdminController) errJSON(ctx router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	a.Logger.Info(
		"admin request failed",
		"error", richErr.Message,
		"category", richErr.Category,
		"path", ctx.OriginalURL(),
	)

	return ctx.JSON(richErr.Code, map[string]any{
		"error": richErr.Message,
		"code":  richErr.TextCode,
	})
}
