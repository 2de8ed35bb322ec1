package sessiongate

import (
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-router/flash"
)

// TokenCookieName carries the provider ID token between requests.
const TokenCookieName = "id_token"

// RegisterAuthRoutes mounts the auth surface: login, logout, register, and
// the locked/unauthorized landing pages the guard redirects to.
func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) {
	controller := NewAuthController(opts...)

	app.Get(controller.Routes.Login, controller.LoginShow).SetName("sign-in.get")
	app.Post(controller.Routes.Login, controller.LoginPost).SetName("sign-in.post")

	app.Get(controller.Routes.Logout, controller.LogOut).SetName("sign-out.get")

	app.Get(controller.Routes.Register, controller.RegistrationShow).SetName("register.get")
	app.Post(controller.Routes.Register, controller.RegistrationCreate).SetName("register.post")

	app.Get(controller.Routes.Locked, controller.LockedShow).SetName("locked.get")
	app.Get(controller.Routes.Unauthorized, controller.UnauthorizedShow).SetName("unauthorized.get")

	app.Post(controller.Routes.Password, controller.PasswordPost).SetName("password.post")
}

type AuthControllerRoutes struct {
	Login        string
	Logout       string
	Register     string
	Locked       string
	Unauthorized string
	Password     string
}

type AuthControllerViews struct {
	Login        string
	Register     string
	Locked       string
	Unauthorized string
}

type AuthController struct {
	Debug        bool
	Logger       Logger
	Provider     IdentityProvider
	Registrar    *RegisterAccountHandler
	Guard        *RouteGuard
	Routes       *AuthControllerRoutes
	Views        *AuthControllerViews
	ErrorHandler router.ErrorHandler
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:       defLogger{},
		ErrorHandler: defaultErrHandler,
		Routes: &AuthControllerRoutes{
			Login:        "/login",
			Logout:       "/logout",
			Register:     "/register",
			Locked:       "/locked",
			Unauthorized: "/unauthorized",
			Password:     "/account/password",
		},
		Views: &AuthControllerViews{
			Login:        "login",
			Register:     "register",
			Locked:       "locked",
			Unauthorized: "unauthorized",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Provider == nil {
		panic("Missing IdentityProvider in auth controller...")
	}

	if c.Guard == nil {
		panic("Missing RouteGuard in auth controller...")
	}

	return c
}

// WithAuthProvider sets the identity provider.
func WithAuthProvider(provider IdentityProvider) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Provider = provider
		return c
	}
}

// WithAuthRegistrar sets the registration command handler.
func WithAuthRegistrar(handler *RegisterAccountHandler) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Registrar = handler
		return c
	}
}

// WithAuthGuard sets the route guard used for post-login redirects.
func WithAuthGuard(guard *RouteGuard) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Guard = guard
		return c
	}
}

// WithAuthLogger sets the controller logger.
func WithAuthLogger(l Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if l != nil {
			c.Logger = l
		}
		return c
	}
}

func (a *AuthController) LoginShow(ctx router.Context) error {
	return ctx.Render(a.Views.Login, router.ViewContext{
		"errors": nil,
		"record": nil,
	})
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (a *AuthController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)
	errors := map[string]string{}

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return ctx.Render(a.Views.Login, router.ViewContext{
			"record":     payload,
			"validation": FormatValidationErrorToMap(err),
		})
	}

	if a.Debug {
		fmt.Println("======= AUTH LOGIN ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("=========================")
	}

	identity, err := a.Provider.SignIn(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		errors["authentication"] = "Authentication Error"
		return ctx.Render(a.Views.Login, router.ViewContext{
			"errors": errors,
			"record": payload,
		})
	}

	a.setTokenCookie(ctx, identity)

	redirect := a.Guard.GetRedirect(ctx, a.Guard.guard.Routes().Landing)
	return ctx.Redirect(redirect, router.StatusSeeOther)
}

func (a *AuthController) LogOut(ctx router.Context) error {
	if err := a.Provider.SignOut(ctx.Context()); err != nil {
		a.Logger.Error("sign-out failed", "error", err)
	}
	a.clearTokenCookie(ctx)
	return ctx.Redirect(a.Routes.Login, router.StatusTemporaryRedirect)
}

func (a *AuthController) RegistrationShow(ctx router.Context) error {
	return ctx.Render(a.Views.Register, router.ViewContext{
		"errors": map[string]string{},
		"record": RegisterAccountMessage{},
	})
}

// RegistrationCreatePayload is the form paylaod
type RegistrationCreatePayload struct {
	Name            string `form:"name" json:"name"`
	Email           string `form:"email" json:"email"`
	Phone           string `form:"phone_number" json:"phone_number"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will validate the payload
func (r RegistrationCreatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Phone, validation.Length(10, 11), is.Digit),
		validation.Field(&r.Password, validation.Required, validation.Length(10, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.Length(10, 100),
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

func (a *AuthController) RegistrationCreate(ctx router.Context) error {
	payload := new(RegistrationCreatePayload)

	if err := ctx.Bind(payload); err != nil {
		errors := map[string]string{}
		errors["form"] = "Failed to parse form"
		a.Logger.Error("register account parse payload: ", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error parsing body",
		}).Status(fiber.StatusBadRequest).Render(a.Views.Register, router.ViewContext{
			"errors": errors,
			"record": payload,
		})
	}

	if err := payload.Validate(); err != nil {
		errors := FormatValidationErrorToMap(err)
		a.Logger.Error("register account validate payload: ", "error", err)

		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error validating payload",
		}).Render(a.Views.Register, router.ViewContext{
			"record":     payload,
			"validation": errors,
		})
	}

	req := RegisterAccountMessage{
		Name:     payload.Name,
		Email:    payload.Email,
		Phone:    payload.Phone,
		Password: payload.Password,
	}

	if err := a.Registrar.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("register account error: ", "error", err)

		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error creating account",
		}).Render(a.Views.Register, router.ViewContext{
			"record": payload,
			"errors": map[string]string{"registration": "Registration failed"},
		})
	}

	// register then immediate sign-in: the watcher serializes the resulting
	// burst of auth events, see Watcher
	identity, err := a.Provider.SignIn(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		return ctx.Redirect(a.Routes.Login, router.StatusSeeOther)
	}

	a.setTokenCookie(ctx, identity)
	return ctx.Redirect(a.Guard.guard.Routes().Landing, router.StatusSeeOther)
}

func (a *AuthController) LockedShow(ctx router.Context) error {
	return ctx.Render(a.Views.Locked, router.ViewContext{})
}

func (a *AuthController) UnauthorizedShow(ctx router.Context) error {
	return ctx.Render(a.Views.Unauthorized, router.ViewContext{})
}

// PasswordUpdatePayload is the password-change form.
type PasswordUpdatePayload struct {
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will validate the payload
func (r PasswordUpdatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Password, validation.Required, validation.Length(10, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

// PasswordPost changes the signed-in account's password. On the provider's
// recent-login condition the user is signed out and sent back through login;
// retrying with the stale session would loop.
func (a *AuthController) PasswordPost(ctx router.Context) error {
	session, ok := SessionFromRouterContext(ctx, SessionContextKey)
	if !ok || !session.Authenticated() {
		return ctx.Redirect(a.Routes.Login, router.StatusSeeOther)
	}

	payload := new(PasswordUpdatePayload)
	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, router.ViewContext{
			"validation": FormatValidationErrorToMap(err),
		})
	}

	err := a.Provider.UpdatePassword(ctx.Context(), session.Identity.ID(), payload.Password)
	if err != nil {
		if IsRequiresRecentLoginError(err) {
			a.Logger.Info("password change needs fresh credentials, signing out", "identity", session.Identity.ID())
			if serr := a.Provider.SignOut(ctx.Context()); serr != nil {
				a.Logger.Error("sign-out failed", "error", serr)
			}
			a.clearTokenCookie(ctx)
			return ctx.Redirect(a.Routes.Login, router.StatusSeeOther)
		}
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Password update failed",
		}).Redirect(a.Guard.guard.Routes().Landing, router.StatusSeeOther)
	}

	return ctx.Redirect(a.Guard.guard.Routes().Landing, router.StatusSeeOther)
}

func (a *AuthController) setTokenCookie(ctx router.Context, identity Identity) {
	minter, ok := a.Provider.(interface {
		IssueToken(Identity) (string, error)
	})
	if !ok {
		return
	}

	token, err := minter.IssueToken(identity)
	if err != nil {
		a.Logger.Error("token mint failed", "error", err)
		return
	}

	ctx.Cookie(&router.Cookie{
		Name:     TokenCookieName,
		Value:    token,
		Expires:  time.Now().Add(24 * time.Hour),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (a *AuthController) clearTokenCookie(ctx router.Context) {
	ctx.Cookie(&router.Cookie{
		Name:     TokenCookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return validation.NewError("validation_match", "values must match")
		}
		return nil
	}
}

// FormatValidationErrorToMap flattens ozzo validation errors into a
// field-to-message map for templates.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	if verrs, ok := err.(validation.Errors); ok {
		for field, ferr := range verrs {
			if ferr == nil {
				continue
			}
			out[strings.ToLower(field)] = ferr.Error()
		}
		return out
	}

	out["form"] = err.Error()
	return out
}

func defaultErrHandler(c router.Context, err error) error {
	return c.Render("errors/500", router.ViewContext{
		"message": err.Error(),
	})
}
