package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/tinyland-inc/parley/cmd/parley/internal"
	chatpkg "github.com/tinyland-inc/parley/pkg/chat"
	"github.com/tinyland-inc/parley/pkg/directory"
	"github.com/tinyland-inc/parley/pkg/history"
	"github.com/tinyland-inc/parley/pkg/live"
	"github.com/tinyland-inc/parley/pkg/scroll"
	"github.com/tinyland-inc/parley/pkg/session"
	"github.com/tinyland-inc/parley/pkg/store"
)

// Simulated viewport dimensions for the terminal view: the engine's
// scroll decisions need geometry even without a real scroll container.
const (
	viewHeight = 600
	msgHeight  = 24
)

func chatCmd(roomID string, debug bool) error {
	cfg, err := internal.LoadConfig()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	internal.SetupLogging(cfg, debug)

	if cfg.User.ID == "" {
		return errors.New("user.id is required (set PARLEY_USER_ID or config)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dir := directory.NewClient(cfg.API.BaseURL, cfg.APITimeout())
	fetcher := history.NewFetcher(cfg.API.BaseURL, cfg.API.PageSize, cfg.APITimeout())
	dialer := live.NewDialer(cfg.Live.URL, cfg.ConnectTimeout())

	sess := session.New(
		fetcher,
		session.DialOpener{Dialer: dialer},
		store.New(),
		scroll.NewSim(viewHeight, msgHeight),
		cfg.User.ID,
	)
	defer sess.Close()

	rooms, err := dir.Rooms(ctx, cfg.User.ID)
	if err != nil {
		return err
	}
	printRooms(ctx, dir, rooms, cfg.User.ID)

	go renderUpdates(sess, cfg.User.ID)

	if roomID != "" {
		if room, ok := findRoom(rooms, roomID); ok {
			sess.Select(ctx, room)
		} else {
			fmt.Printf("Room %s not found.\n", roomID)
		}
	} else if len(rooms) > 0 {
		sess.Select(ctx, rooms[0])
	}

	return inputLoop(ctx, sess, dir, rooms, cfg.User.ID)
}

func inputLoop(ctx context.Context, sess *session.Session, dir *directory.Client, rooms []chatpkg.Room, userID string) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		HistoryFile:     filepath.Join(os.TempDir(), ".parley_history"),
		HistoryLimit:    100,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("error initializing readline: %w", err)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
				fmt.Println("\nGoodbye!")
				return nil
			}
			fmt.Printf("Error reading input: %v\n", err)
			continue
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		switch {
		case input == "/quit" || input == "/exit":
			fmt.Println("Goodbye!")
			return nil

		case input == "/rooms":
			rooms, err = dir.Rooms(ctx, userID)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				continue
			}
			printRooms(ctx, dir, rooms, userID)

		case strings.HasPrefix(input, "/open "):
			arg := strings.TrimSpace(strings.TrimPrefix(input, "/open "))
			room, ok := pickRoom(rooms, arg)
			if !ok {
				fmt.Printf("No such room: %s\n", arg)
				continue
			}
			sess.Select(ctx, room)

		case input == "/older":
			if !sess.LoadOlder(ctx) {
				fmt.Println("No older messages to load.")
			}

		case strings.HasPrefix(input, "/"):
			fmt.Println("Commands: /rooms, /open <n|id>, /older, /quit")

		default:
			if err := sess.Send(input); err != nil {
				if errors.Is(err, live.ErrChannelNotOpen) {
					fmt.Println("Not connected, please wait.")
				} else {
					fmt.Printf("Send failed: %v\n", err)
				}
			}
		}
	}
}

func renderUpdates(sess *session.Session, userID string) {
	for u := range sess.Updates() {
		switch u.Kind {
		case session.UpdateSeeded:
			for _, m := range sess.Messages() {
				printMessage(m, userID)
			}
		case session.UpdateAppended:
			printMessage(*u.Message, userID)
		case session.UpdatePrepended:
			fmt.Printf("-- loaded %d older messages --\n", u.Inserted)
		case session.UpdateChannelOpen:
			fmt.Println("-- connected --")
		case session.UpdateChannelClosed:
			fmt.Println("-- disconnected --")
		case session.UpdateError:
			fmt.Printf("Error: %v\n", u.Err)
		}
	}
}

func printMessage(m chatpkg.Message, userID string) {
	who := m.SenderUserID
	if m.SenderUserID == userID {
		who = "me"
	}
	fmt.Printf("[%s] %s: %s\n", m.CreatedAt.Local().Format("15:04"), who, m.Content)
}

func printRooms(ctx context.Context, dir *directory.Client, rooms []chatpkg.Room, userID string) {
	if len(rooms) == 0 {
		fmt.Println("No rooms yet. Use `parley rooms --create <userId>` to start one.")
		return
	}
	fmt.Println("Rooms:")
	for i, room := range rooms {
		fmt.Printf("%3d. %s (%s)\n", i+1, dir.DisplayName(ctx, room, userID), room.ID)
	}
}

func findRoom(rooms []chatpkg.Room, id string) (chatpkg.Room, bool) {
	for _, r := range rooms {
		if r.ID == id {
			return r, true
		}
	}
	return chatpkg.Room{}, false
}

// pickRoom accepts either a 1-based index from the printed list or a
// raw room id.
func pickRoom(rooms []chatpkg.Room, arg string) (chatpkg.Room, bool) {
	if n, err := strconv.Atoi(arg); err == nil {
		if n >= 1 && n <= len(rooms) {
			return rooms[n-1], true
		}
		return chatpkg.Room{}, false
	}
	return findRoom(rooms, arg)
}
