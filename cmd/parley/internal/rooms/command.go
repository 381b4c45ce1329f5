package rooms

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tinyland-inc/parley/cmd/parley/internal"
	"github.com/tinyland-inc/parley/pkg/directory"
)

func NewRoomsCommand() *cobra.Command {
	var create string

	cmd := &cobra.Command{
		Use:   "rooms",
		Short: "List conversation rooms",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return roomsCmd(create)
		},
	}

	cmd.Flags().StringVar(&create, "create", "", "Create a private room with the given user id")

	return cmd
}

func roomsCmd(createWith string) error {
	cfg, err := internal.LoadConfig()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	internal.SetupLogging(cfg, false)

	if cfg.User.ID == "" {
		return errors.New("user.id is required (set PARLEY_USER_ID or config)")
	}

	ctx := context.Background()
	dir := directory.NewClient(cfg.API.BaseURL, cfg.APITimeout())

	if createWith != "" {
		room, err := dir.CreateRoom(ctx, cfg.User.ID, createWith)
		if err != nil {
			return err
		}
		fmt.Printf("Created room %s with %s\n", room.ID, createWith)
	}

	list, err := dir.Rooms(ctx, cfg.User.ID)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Println("No rooms yet.")
		return nil
	}

	for i, room := range list {
		name := dir.DisplayName(ctx, room, cfg.User.ID)
		fmt.Printf("%3d. %s (%s)\n", i+1, name, room.ID)
	}
	return nil
}
