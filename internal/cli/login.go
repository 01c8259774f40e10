package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

type authResult struct {
	SignedIn  bool   `json:"signed_in"`
	UserID    string `json:"user_id,omitempty"`
	Email     string `json:"email,omitempty"`
	Message   string `json:"message,omitempty"`
	Countries int    `json:"countries"`
	Cities    int    `json:"cities"`
}

func newSignupCmd() *cobra.Command {
	var email, server string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		Long:  "Create an account on the server. Depending on the server you are signed in right away or sent a confirmation email first.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSignup(cmd, email, server)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email (prompted if empty)")
	cmd.Flags().StringVar(&server, "server", "", "server URL (default: from config or "+defaultServerURL+")")

	return cmd
}

func runSignup(cmd *cobra.Command, email, server string) error {
	email, password, err := readCredentials(cmd, email, server)
	if err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	sess, message, err := a.auth.SignUp(cmd.Context(), email, password)
	if err != nil {
		return fmt.Errorf("signing up: %w", err)
	}

	res := authResult{SignedIn: sess != nil, Message: message, Email: email}
	if sess != nil {
		res.UserID = sess.UserID
		res.Countries, res.Cities = a.counts()
	}

	if isJSON() {
		return printJSON(a.out, res)
	}
	if sess == nil {
		fmt.Fprintln(a.out, message)
		fmt.Fprintln(a.out, "Run 'been login' once your email is confirmed.")
		return nil
	}
	fmt.Fprintf(a.out, "✓ Account created. Signed in as %s.\n", sess.Email)
	return nil
}

func newLoginCmd() *cobra.Command {
	var email, server string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and sync with your account",
		Long:  "Sign in with your email and password. Your visited list is then loaded from your account and later changes are saved to it.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, email, server)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email (prompted if empty)")
	cmd.Flags().StringVar(&server, "server", "", "server URL (default: from config or "+defaultServerURL+")")

	return cmd
}

func runLogin(cmd *cobra.Command, email, server string) error {
	email, password, err := readCredentials(cmd, email, server)
	if err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	sess, err := a.auth.SignIn(cmd.Context(), email, password)
	if err != nil {
		return fmt.Errorf("signing in: %w", err)
	}

	res := authResult{SignedIn: true, UserID: sess.UserID, Email: sess.Email}
	res.Countries, res.Cities = a.counts()

	if isJSON() {
		return printJSON(a.out, res)
	}
	fmt.Fprintf(a.out, "✓ Signed in as %s.\n", sess.Email)
	fmt.Fprintf(a.out, "Your account has %s and %s.\n",
		plural(res.Countries, "country", "countries"), plural(res.Cities, "city", "cities"))
	return nil
}

// counts returns the tracker's country and city totals.
func (a *app) counts() (int, int) {
	st := a.tracker.Stats(nil)
	return st.Countries, st.Cities
}

// readCredentials saves --server when given and reads the email and
// password, prompting on stderr for what the flags did not supply.
func readCredentials(cmd *cobra.Command, email, server string) (string, string, error) {
	if server != "" {
		cfg, err := loadConfig()
		if err != nil {
			cfg = CLIConfig{}
		}
		cfg.ServerURL = server
		if err := saveConfig(cfg); err != nil {
			return "", "", fmt.Errorf("saving config: %w", err)
		}
	}

	in := bufio.NewReader(cmd.InOrStdin())
	prompts := cmd.ErrOrStderr()

	var err error
	if strings.TrimSpace(email) == "" {
		email, err = prompt(in, prompts, "Email: ")
		if err != nil {
			return "", "", err
		}
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return "", "", fmt.Errorf("no email provided")
	}

	password, err := prompt(in, prompts, "Password: ")
	if err != nil {
		return "", "", err
	}
	if password == "" {
		return "", "", fmt.Errorf("no password provided")
	}

	return email, password, nil
}

func prompt(in *bufio.Reader, w io.Writer, label string) (string, error) {
	fmt.Fprint(w, label)
	line, err := in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
