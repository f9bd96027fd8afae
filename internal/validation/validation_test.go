package validation

import (
	"errors"
	"testing"

	"github.com/Joseda-hg/lazytodo/internal/api"
	"github.com/Joseda-hg/lazytodo/internal/model"
	"github.com/stretchr/testify/require"
)

func TestRegisterRules(t *testing.T) {
	cases := []struct {
		name  string
		input api.RegisterInput
		field string
		want  string
	}{
		{"short username", api.RegisterInput{Username: "bob", Email: "bob@example.com", Password: "Secret123"}, "username", "Username must be at least 5 characters long"},
		{"missing email", api.RegisterInput{Username: "bobby", Password: "Secret123"}, "email", "Email is required!"},
		{"bad email", api.RegisterInput{Username: "bobby", Email: "bob@example", Password: "Secret123"}, "email", "Please enter a valid email address"},
		{"short password", api.RegisterInput{Username: "bobby", Email: "bob@example.com", Password: "Se1"}, "password", "Password must be at least 8 characters long"},
		{"no digit", api.RegisterInput{Username: "bobby", Email: "bob@example.com", Password: "Secretive"}, "password", "Password must contain at least one number"},
		{"no upper", api.RegisterInput{Username: "bobby", Email: "bob@example.com", Password: "secret123"}, "password", "Password must contain at least one uppercase letter"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Register(tc.input)
			var verr *Error
			require.True(t, errors.As(err, &verr))
			require.Equal(t, tc.want, verr.Field(tc.field))
		})
	}

	require.NoError(t, Register(api.RegisterInput{Username: "bobby", Email: "bob@example.com", Password: "Secret123"}))
}

func TestFirstFollowsFieldOrder(t *testing.T) {
	err := Register(api.RegisterInput{})
	var verr *Error
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Fields, 3)
	require.Equal(t, "Username is required!", verr.First())
	require.Equal(t, "Username is required!", Message(err))
	require.Contains(t, err.Error(), "Password is required!")
}

func TestLoginRules(t *testing.T) {
	require.NoError(t, Login(api.LoginInput{Identifier: " alice@example.com ", Password: "x"}))
	require.Equal(t, "Please enter a valid email address", Message(Login(api.LoginInput{Identifier: "alice", Password: "x"})))
	require.Equal(t, "Password is required!", Message(Login(api.LoginInput{Identifier: "alice@example.com"})))
}

func TestProfileRules(t *testing.T) {
	require.NoError(t, Profile(api.ProfileInput{Username: "alice", Email: "alice@example.com"}))
	require.Equal(t, "Username must be at least 5 characters long", Message(Profile(api.ProfileInput{Username: "al", Email: "alice@example.com"})))
}

func TestPasswordRules(t *testing.T) {
	ok := api.PasswordInput{CurrentPassword: "old", Password: "NewSecret1", PasswordConfirmation: "NewSecret1"}
	require.NoError(t, Password(ok))

	mismatch := ok
	mismatch.PasswordConfirmation = "NewSecret2"
	require.Equal(t, "Passwords must match", Message(Password(mismatch)))

	missing := ok
	missing.CurrentPassword = ""
	require.Equal(t, "Current password is required!", Message(Password(missing)))
}

func TestDraftRequiresTitle(t *testing.T) {
	require.NoError(t, Draft(model.Draft{Title: "Buy milk"}))
	require.Equal(t, "Title is required", Message(Draft(model.Draft{Title: "   ", Description: "x"})))
}

func TestMessageIgnoresOtherErrors(t *testing.T) {
	require.Equal(t, "", Message(errors.New("boom")))
	require.Equal(t, "", Message(nil))
}
