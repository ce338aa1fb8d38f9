package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/convohq/convo/internal/db"
	"github.com/convohq/convo/internal/gateway"
	"github.com/convohq/convo/internal/logging"
	"github.com/convohq/convo/internal/models"
)

const authTimeout = 15 * time.Second

var (
	loginRegister bool
	loginNickname string
)

func init() {
	loginCmd.Flags().BoolVar(&loginRegister, "register", false, "create a new account instead of logging in")
	loginCmd.Flags().StringVar(&loginNickname, "nickname", "", "display name for --register (defaults to the username)")
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}

var loginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Log in and persist the session",
	Long:  "Authenticate against the chat service and store the session locally so the TUI starts straight into the chat list.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		username := ""
		if len(args) == 1 {
			username = args[0]
		}
		return runLogin(cmd.Context(), username)
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the persisted session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLogout(cmd.Context())
	},
}

func runLogin(ctx context.Context, username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		entered, err := promptLine("username: ")
		if err != nil {
			return err
		}
		username = strings.TrimSpace(entered)
	}
	if username == "" {
		return errors.New("username is required")
	}

	password, err := promptPassword("password: ")
	if err != nil {
		return err
	}
	if password == "" {
		return errors.New("password is required")
	}

	client := newGatewayClient(GetConfig())
	authCtx, cancel := context.WithTimeout(ctx, authTimeout)
	defer cancel()

	var user models.User
	if loginRegister {
		nickname := strings.TrimSpace(loginNickname)
		if nickname == "" {
			nickname = username
		}
		user, err = client.Register(authCtx, username, password, nickname)
	} else {
		user, err = client.Login(authCtx, username, password)
	}
	if err != nil {
		if status, ok := gateway.AsStatus(err); ok && status.Code == 401 {
			return errors.New("invalid username or password")
		}
		return err
	}

	store, err := openStateDB(GetConfig())
	if err != nil {
		return err
	}
	defer store.Close()

	session := &models.Session{User: user}
	if err := db.NewSessionRepository(store).Save(ctx, session); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}

	userLog := logging.WithUser(user.ID)
	userLog.Info().Str("username", user.Username).Msg("logged in")
	fmt.Printf("logged in as %s (@%s)\n", user.Nickname, user.Username)
	return nil
}

func runLogout(ctx context.Context) error {
	store, err := openStateDB(GetConfig())
	if err != nil {
		return err
	}
	defer store.Close()

	if err := db.NewSessionRepository(store).Clear(ctx); err != nil {
		return err
	}
	fmt.Println("logged out")
	return nil
}

func promptLine(prompt string) (string, error) {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func promptPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		// Piped input: read a plain line instead of switching terminal modes.
		return promptLine("")
	}
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
