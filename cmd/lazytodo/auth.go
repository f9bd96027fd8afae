package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Joseda-hg/lazytodo/internal/api"
	"github.com/Joseda-hg/lazytodo/internal/validation"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the session locally",
	Args:  cobra.NoArgs,
	RunE:  runLogin,
}

var (
	loginIdentifier string
	loginPassword   string
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	Long: `Create an account on the backend.

Registering does not log you in; run "lazytodo login" afterwards.`,
	Args: cobra.NoArgs,
	RunE: runRegister,
}

var (
	registerUsername string
	registerEmail    string
	registerPassword string
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged in user",
	Args:  cobra.NoArgs,
	RunE:  runWhoami,
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Update your username or email",
	Args:  cobra.NoArgs,
	RunE:  runProfile,
}

var (
	profileUsername string
	profileEmail    string
)

var passwdCmd = &cobra.Command{
	Use:   "passwd",
	Short: "Change your password",
	Args:  cobra.NoArgs,
	RunE:  runPasswd,
}

var (
	passwdCurrent string
	passwdNew     string
	passwdConfirm string
)

func init() {
	rootCmd.AddCommand(loginCmd, registerCmd, logoutCmd, whoamiCmd, profileCmd, passwdCmd)

	loginCmd.Flags().StringVarP(&loginIdentifier, "identifier", "u", "", "Email or username")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Password (prompted when omitted)")

	registerCmd.Flags().StringVar(&registerUsername, "username", "", "Username")
	registerCmd.Flags().StringVar(&registerEmail, "email", "", "Email")
	registerCmd.Flags().StringVar(&registerPassword, "password", "", "Password (prompted when omitted)")

	profileCmd.Flags().StringVar(&profileUsername, "username", "", "New username (defaults to the current one)")
	profileCmd.Flags().StringVar(&profileEmail, "email", "", "New email (defaults to the current one)")

	passwdCmd.Flags().StringVar(&passwdCurrent, "current", "", "Current password (prompted when omitted)")
	passwdCmd.Flags().StringVar(&passwdNew, "new", "", "New password (prompted when omitted)")
	passwdCmd.Flags().StringVar(&passwdConfirm, "confirm", "", "New password again (prompted when omitted)")
}

// prompter asks for missing values. Secrets are read without echo when stdin
// is a terminal.
type prompter struct {
	src io.Reader
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(cmd *cobra.Command) *prompter {
	src := cmd.InOrStdin()
	return &prompter{src: src, in: bufio.NewReader(src), out: cmd.ErrOrStderr()}
}

func (p *prompter) value(current, label string) (string, error) {
	if current != "" {
		return current, nil
	}
	fmt.Fprintf(p.out, "%s: ", label)
	line, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (p *prompter) secret(current, label string) (string, error) {
	if current != "" {
		return current, nil
	}
	file, ok := p.src.(*os.File)
	if !ok || !term.IsTerminal(int(file.Fd())) {
		return p.value("", label)
	}
	fmt.Fprintf(p.out, "%s: ", label)
	raw, err := term.ReadPassword(int(file.Fd()))
	fmt.Fprintln(p.out)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// userError turns validation and backend failures into the message the user
// would have seen in a toast.
func userError(err error) error {
	if msg := validation.Message(err); msg != "" {
		return errors.New(msg)
	}
	var apiErr *api.Error
	if errors.As(err, &apiErr) || errors.Is(err, api.ErrNotAuthenticated) {
		return errors.New(api.Message(err))
	}
	return err
}

func runLogin(cmd *cobra.Command, args []string) error {
	p := newPrompter(cmd)
	identifier, err := p.value(loginIdentifier, "Email")
	if err != nil {
		return err
	}
	password, err := p.secret(loginPassword, "Password")
	if err != nil {
		return err
	}

	input := api.LoginInput{Identifier: strings.TrimSpace(identifier), Password: password}
	if err := validation.Login(input); err != nil {
		return userError(err)
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := commandContext(cmd)
	sess, err := a.client.Login(ctx, input)
	if err != nil {
		a.logger.Warnf("login %s: %v", input.Identifier, err)
		return userError(err)
	}
	auth, err := a.sessions.Save(ctx, sess)
	if err != nil {
		return err
	}
	a.logger.Infof("logged in as %s", auth.User().Username)
	printf(cmd, "Logged in as %s\n", auth.User().Username)
	return nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	p := newPrompter(cmd)
	username, err := p.value(registerUsername, "Username")
	if err != nil {
		return err
	}
	email, err := p.value(registerEmail, "Email")
	if err != nil {
		return err
	}
	password, err := p.secret(registerPassword, "Password")
	if err != nil {
		return err
	}

	input := api.RegisterInput{Username: strings.TrimSpace(username), Email: strings.TrimSpace(email), Password: password}
	if err := validation.Register(input); err != nil {
		return userError(err)
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.client.Register(commandContext(cmd), input); err != nil {
		a.logger.Warnf("register %s: %v", input.Username, err)
		return userError(err)
	}
	printf(cmd, "Registered %s. Run `lazytodo login` to log in.\n", input.Username)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.sessions.Clear(commandContext(cmd)); err != nil {
		return err
	}
	printf(cmd, "Logout successful!\n")
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	auth, err := a.requireAuth(commandContext(cmd))
	if err != nil {
		return err
	}
	user := auth.User()
	printf(cmd, "%s <%s>\n", user.Username, user.Email)
	if exp := auth.ExpiresAt(); exp != nil {
		printf(cmd, "session expires %s\n", exp.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

func runProfile(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := commandContext(cmd)
	auth, err := a.requireAuth(ctx)
	if err != nil {
		return err
	}

	input := api.ProfileInput{Username: auth.User().Username, Email: auth.User().Email}
	if profileUsername != "" {
		input.Username = strings.TrimSpace(profileUsername)
	}
	if profileEmail != "" {
		input.Email = strings.TrimSpace(profileEmail)
	}
	if err := validation.Profile(input); err != nil {
		return userError(err)
	}

	user, err := a.client.UpdateUser(ctx, auth, input)
	if err != nil {
		a.logger.Warnf("update profile: %v", err)
		return userError(err)
	}
	if user.ID == 0 {
		user.ID = auth.User().ID
	}
	if _, err := a.sessions.UpdateUser(ctx, auth, user); err != nil {
		return err
	}
	printf(cmd, "Your data is updated successfully\n")
	return nil
}

func runPasswd(cmd *cobra.Command, args []string) error {
	p := newPrompter(cmd)
	current, err := p.secret(passwdCurrent, "Current password")
	if err != nil {
		return err
	}
	password, err := p.secret(passwdNew, "New password")
	if err != nil {
		return err
	}
	confirm, err := p.secret(passwdConfirm, "Confirm new password")
	if err != nil {
		return err
	}

	input := api.PasswordInput{CurrentPassword: current, Password: password, PasswordConfirmation: confirm}
	if err := validation.Password(input); err != nil {
		return userError(err)
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := commandContext(cmd)
	auth, err := a.requireAuth(ctx)
	if err != nil {
		return err
	}
	sess, err := a.client.ChangePassword(ctx, auth, input)
	if err != nil {
		a.logger.Warnf("change password: %v", err)
		return userError(err)
	}
	// the backend issues a fresh token with the change
	if sess.JWT != "" {
		if sess.User.ID == 0 {
			sess.User = auth.User()
		}
		if _, err := a.sessions.Save(ctx, sess); err != nil {
			return err
		}
	}
	printf(cmd, "Your password is updated successfully\n")
	return nil
}
