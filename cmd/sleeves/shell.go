package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/Alexander-D-Karpov/sleeves/internal/handlers"
	"github.com/Alexander-D-Karpov/sleeves/internal/services"
	"github.com/Alexander-D-Karpov/sleeves/pkg/types"
)

const helpText = `commands:
  inventory               list owned songs, newest first
  collection              list owned songs, rarest first
  search <query>          find owned songs by title or artist
  sleeves [genre]         list sleeves, optionally one genre
  odds <sleeve-id>        show rarity chances for a sleeve
  open <sleeve-id>        open a sleeve
  session                 show the signed-in user
  login <user> <pass>     sign in
  register <user> <pass>  create an account
  logout                  sign out
  reset                   restore the starter collection
  help                    show this text
  quit                    exit`

var errQuit = errors.New("quit")

type Shell struct {
	gacha *services.GachaService
	in    io.Reader
	out   io.Writer
}

func NewShell(gacha *services.GachaService, in io.Reader, out io.Writer) *Shell {
	return &Shell{gacha: gacha, in: in, out: out}
}

// Run reads commands until EOF, quit, or ctx ends.
func (s *Shell) Run(ctx context.Context) error {
	unsubscribe := s.gacha.Subscribe(handlers.EventSessionChanged, func(data interface{}) {
		if user, ok := data.(*types.AuthUser); ok && user == nil {
			fmt.Fprintln(s.out, "(signed out)")
		}
	})
	defer unsubscribe()

	fmt.Fprintln(s.out, "sleeves shell; type help for commands")
	scanner := bufio.NewScanner(s.in)

	for {
		fmt.Fprint(s.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		err := s.Execute(ctx, scanner.Text())
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
	}
}

func (s *Shell) Execute(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "help", "?":
		fmt.Fprintln(s.out, helpText)
	case "quit", "exit":
		return errQuit
	case "inventory", "inv":
		items, err := s.gacha.GetInventory(ctx)
		if err != nil {
			return err
		}
		s.printSongs(items)
	case "collection":
		items, err := s.gacha.Collection(ctx)
		if err != nil {
			return err
		}
		s.printSongs(items)
	case "search":
		if len(args) == 0 {
			return errors.New("usage: search <query>")
		}
		res := s.gacha.SearchCollection(strings.Join(args, " "), 0)
		s.printSongs(res.Songs)
		fmt.Fprintf(s.out, "%d match(es)\n", res.Total)
	case "sleeves":
		return s.sleeves(ctx, args)
	case "odds":
		if len(args) != 1 {
			return errors.New("usage: odds <sleeve-id>")
		}
		return s.odds(ctx, args[0])
	case "open":
		if len(args) != 1 {
			return errors.New("usage: open <sleeve-id>")
		}
		owned, err := s.gacha.OpenSleeve(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "you got %s - %s [%s]\n", owned.Title, owned.Artist, owned.Rarity)
	case "session", "whoami":
		user, err := s.gacha.GetSession(ctx)
		if err != nil {
			return err
		}
		s.printUser(user)
	case "login", "register":
		if len(args) != 2 {
			return fmt.Errorf("usage: %s <user> <pass>", cmd)
		}
		creds := types.Credentials{Username: args[0], Password: args[1]}
		var (
			user *types.AuthUser
			err  error
		)
		if cmd == "login" {
			user, err = s.gacha.Login(ctx, creds)
		} else {
			user, err = s.gacha.Register(ctx, creds)
		}
		if err != nil {
			return err
		}
		s.printUser(user)
	case "logout":
		return s.gacha.Logout(ctx)
	case "reset":
		s.gacha.ResetLocal()
		fmt.Fprintln(s.out, "starter collection restored")
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

func (s *Shell) sleeves(ctx context.Context, args []string) error {
	var (
		sleeves []types.Sleeve
		err     error
	)
	if len(args) > 0 {
		sleeves, err = s.gacha.SleevesForGenre(ctx, types.SleeveGenre(canonicalGenre(args[0])))
	} else {
		sleeves, err = s.gacha.GetSleeves(ctx)
	}
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tGENRE\tCOST\tSONGS")
	for _, sl := range sleeves {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\n", sl.ID, sl.Name, sl.Genre, sl.Cost, len(sl.Contents))
	}
	return w.Flush()
}

func (s *Shell) odds(ctx context.Context, sleeveID string) error {
	odds, err := s.gacha.SleeveOdds(ctx, sleeveID)
	if err != nil {
		return err
	}

	rarities := make([]types.Rarity, 0, len(odds))
	for r := range odds {
		rarities = append(rarities, r)
	}
	sort.Slice(rarities, func(i, j int) bool { return rarities[i].Rank() > rarities[j].Rank() })

	for _, r := range rarities {
		fmt.Fprintf(s.out, "%-10s %s%%\n", r, strconv.FormatFloat(odds[r]*100, 'f', 1, 64))
	}
	return nil
}

func (s *Shell) printSongs(songs []types.OwnedSong) {
	w := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RARITY\tTITLE\tARTIST\tOBTAINED")
	for _, song := range songs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", song.Rarity, song.Title, song.Artist, song.ObtainedAt.Local().Format("2006-01-02 15:04"))
	}
	_ = w.Flush()
}

func (s *Shell) printUser(user *types.AuthUser) {
	if user == nil {
		fmt.Fprintln(s.out, "not signed in")
		return
	}
	fmt.Fprintf(s.out, "%s (%s) wallet=%d\n", user.DisplayName, user.ID, user.Wallet)
}

func canonicalGenre(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
