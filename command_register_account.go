package sessiongate

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/nyaruka/phonenumbers"
)

// RegisterAccountMessage describes a new account: one identity record plus
// its paired profile document.
type RegisterAccountMessage struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Role      Role   `json:"role"`
	Password  string `json:"password"`
	UseHashid bool
}

func (e RegisterAccountMessage) Type() string { return "account.register" }

// RegisterAccountHandler performs the paired write: identity first, then the
// profile. The two inserts are intentionally not one transaction - in the
// managed deployment they land in different services - so a crash between
// them leaves an identity without a profile. The resolver's fallback policy
// owns that window.
type RegisterAccountHandler struct {
	identities Identities
	profiles   Profiles

	// DefaultRegion is used to parse phone numbers without a country prefix.
	DefaultRegion string
}

// NewRegisterAccountHandler builds the registration command handler.
func NewRegisterAccountHandler(identities Identities, profiles Profiles) *RegisterAccountHandler {
	return &RegisterAccountHandler{
		identities:    identities,
		profiles:      profiles,
		DefaultRegion: "US",
	}
}

func (h *RegisterAccountHandler) Execute(ctx context.Context, event RegisterAccountMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterAccountHandler) execute(ctx context.Context, event RegisterAccountMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	email := strings.TrimSpace(strings.ToLower(event.Email))
	if email == "" {
		return goerrors.New("email is required", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest)
	}

	phone, err := h.normalizePhone(event.Phone)
	if err != nil {
		return err
	}

	role := event.Role
	if role == "" {
		role = RoleUser
	}
	if !IsValidRole(role) {
		return goerrors.New("unknown role", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest).
			WithMetadata(map[string]any{"role": role})
	}

	hash, err := HashPassword(event.Password)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	record := &IdentityRecord{
		Email:        email,
		DisplayName:  event.Name,
		PasswordHash: hash,
	}
	if event.UseHashid {
		if id, err := hashid.NewUUID(email); err == nil {
			record.ID = id
		}
	}

	if record, err = h.identities.Create(ctx, record); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create identity")
	}

	if _, err = h.profiles.Create(ctx, &Profile{
		IdentityID: record.ID.String(),
		Name:       event.Name,
		Email:      email,
		Phone:      phone,
		Role:       role,
	}); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create profile")
	}

	return nil
}

func (h *RegisterAccountHandler) normalizePhone(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}

	num, err := phonenumbers.Parse(raw, h.DefaultRegion)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryValidation, "could not parse phone number").
			WithCode(goerrors.CodeBadRequest)
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", goerrors.New("invalid phone number", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest)
	}

	return phonenumbers.Format(num, phonenumbers.E164), nil
}
