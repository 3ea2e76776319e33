package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/gitscope/internal/core/domain"
)

// promptToken is the --token value meaning "ask for it".
const promptToken = "-"

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Sign in to GitHub",
	Long: `Sign in with a personal access token or through the browser, check who
is signed in, and sign out.

Examples:
  # Browser sign-in (OAuth with PKCE)
  gitscope auth login

  # Browser sign-in on a machine without a display
  gitscope auth login --no-browser

  # Personal access token, entered without echo
  gitscope auth login --token

  # Personal access token from a variable
  gitscope auth login --token "$GITHUB_TOKEN"`,
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to GitHub",
	Args:  cobra.NoArgs,
	RunE:  runAuthLogin,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the stored token",
	Args:  cobra.NoArgs,
	RunE:  runAuthLogout,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the signed-in account",
	Args:  cobra.NoArgs,
	RunE:  runAuthStatus,
}

// Flags for auth commands.
var (
	authLoginToken     string
	authLoginNoBrowser bool
	authStatusJSON     bool
)

func init() {
	authLoginCmd.Flags().StringVar(
		&authLoginToken, "token", "", "sign in with a personal access token (prompts when no value is given)")
	authLoginCmd.Flags().Lookup("token").NoOptDefVal = promptToken
	authLoginCmd.Flags().BoolVar(
		&authLoginNoBrowser, "no-browser", false, "print the authorization URL and paste the redirect back")
	authLoginCmd.MarkFlagsMutuallyExclusive("token", "no-browser")

	authStatusCmd.Flags().BoolVar(&authStatusJSON, "json", false, "output as JSON")

	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuthLogin(cmd *cobra.Command, _ []string) error {
	if sessionService == nil {
		return errors.New("session service not configured")
	}
	ctx := commandContext(cmd)

	var (
		user *domain.AuthenticatedUser
		err  error
	)
	switch {
	case authLoginToken != "":
		token := authLoginToken
		if token == promptToken {
			token, err = readToken(cmd)
			if err != nil {
				return err
			}
		}
		user, err = sessionService.AuthenticateWithToken(ctx, token)
	case authLoginNoBrowser:
		user, err = runManualOAuth(cmd)
	default:
		cmd.PrintErrln("Waiting for authorization in the browser...")
		user, err = sessionService.AuthenticateWithOAuth(ctx)
	}
	if err != nil {
		return errors.New(domain.UserMessage(err))
	}

	cmd.Printf("Logged in as %s\n", user.Login)
	return nil
}

// runManualOAuth prints the authorization URL and completes the flow with
// the callback URL the user pastes back.
func runManualOAuth(cmd *cobra.Command) (*domain.AuthenticatedUser, error) {
	if oauthService == nil {
		return nil, errors.New("oauth service not configured")
	}
	ctx := commandContext(cmd)

	authURL, err := oauthService.Begin(ctx)
	if err != nil {
		return nil, err
	}

	cmd.Println("Open this URL in a browser and approve access:")
	cmd.Println()
	cmd.Printf("  %s\n", authURL)
	cmd.Println()
	cmd.Print("Paste the full URL you were redirected to: ")

	callback, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		oauthService.Cancel()
		return nil, fmt.Errorf("reading callback: %w", err)
	}
	return oauthService.Complete(ctx, strings.TrimSpace(callback))
}

// readToken prompts for a token without echo on a terminal, or reads one
// line from piped input.
func readToken(cmd *cobra.Command) (string, error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		cmd.Print("GitHub token: ")
		b, err := term.ReadPassword(int(f.Fd()))
		cmd.Println()
		if err != nil {
			return "", fmt.Errorf("reading token: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading token: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func runAuthLogout(cmd *cobra.Command, _ []string) error {
	if sessionService == nil {
		return errors.New("session service not configured")
	}
	sessionService.SignOut(commandContext(cmd))
	cmd.Println("Logged out")
	return nil
}

type authStatusOutput struct {
	Authenticated bool                      `json:"authenticated"`
	User          *domain.AuthenticatedUser `json:"user,omitempty"`
	Quota         *domain.RateQuota         `json:"quota,omitempty"`
}

func currentQuota() *domain.RateQuota {
	if apiQuota == nil {
		return nil
	}
	q, ok := apiQuota()
	if !ok {
		return nil
	}
	return &q
}

func runAuthStatus(cmd *cobra.Command, _ []string) error {
	if sessionService == nil {
		return errors.New("session service not configured")
	}

	if err := sessionService.Restore(commandContext(cmd)); err != nil {
		cmd.PrintErrf("warning: could not verify the stored token: %s\n", domain.UserMessage(err))
	}
	session := sessionService.Snapshot()

	if authStatusJSON {
		out := authStatusOutput{Authenticated: session.Authenticated, User: session.User, Quota: currentQuota()}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal status: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if !session.Authenticated {
		cmd.Println("Not logged in. Run 'gitscope auth login'.")
		return nil
	}
	if session.User == nil {
		cmd.Println("Logged in (profile unavailable)")
		return nil
	}

	u := session.User
	cmd.Printf("Logged in as %s\n", u.Login)
	if u.Name != "" {
		cmd.Printf("  Name:         %s\n", u.Name)
	}
	if u.Email != "" {
		cmd.Printf("  Email:        %s\n", u.Email)
	}
	cmd.Printf("  Public repos: %d\n", u.PublicRepos)
	cmd.Printf("  Followers:    %d\n", u.Followers)
	if q := currentQuota(); q != nil {
		cmd.Printf("  API quota:    %d/%d, resets %s\n", q.Remaining, q.Limit, q.Reset.Local().Format("15:04"))
	}
	return nil
}
