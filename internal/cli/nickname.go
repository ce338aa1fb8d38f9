package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/convohq/convo/internal/db"
)

func init() {
	rootCmd.AddCommand(nicknameCmd)
}

var nicknameCmd = &cobra.Command{
	Use:   "nickname <display name>",
	Short: "Change the account's display name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runNickname(cmd.Context(), args[0])
	},
}

func runNickname(ctx context.Context, nickname string) error {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return errors.New("nickname must not be empty")
	}

	store, err := openStateDB(GetConfig())
	if err != nil {
		return err
	}
	defer store.Close()

	sessions := db.NewSessionRepository(store)
	session, err := sessions.Load(ctx)
	if err != nil {
		if errors.Is(err, db.ErrSessionNotFound) {
			return errors.New("not logged in; run `convo login` first")
		}
		return err
	}

	client := newGatewayClient(GetConfig())
	writeCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if err := client.UpdateNickname(writeCtx, session.User.ID, nickname); err != nil {
		return err
	}
	if err := sessions.UpdateNickname(ctx, nickname); err != nil {
		return err
	}

	fmt.Printf("nickname updated to %s\n", nickname)
	return nil
}
