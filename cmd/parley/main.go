package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tinyland-inc/parley/cmd/parley/internal"
	"github.com/tinyland-inc/parley/cmd/parley/internal/chat"
	"github.com/tinyland-inc/parley/cmd/parley/internal/rooms"
	"github.com/tinyland-inc/parley/cmd/parley/internal/version"
)

func NewParleyCommand() *cobra.Command {
	short := fmt.Sprintf("%s parley - terminal chat client v%s", internal.Logo, internal.GetVersion())

	cmd := &cobra.Command{
		Use:     "parley",
		Short:   short,
		Example: "parley chat",
	}

	cmd.AddCommand(
		chat.NewChatCommand(),
		rooms.NewRoomsCommand(),
		version.NewVersionCommand(),
	)

	return cmd
}

func main() {
	cmd := NewParleyCommand()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
