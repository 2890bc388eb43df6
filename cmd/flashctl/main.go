package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/matheus3301/flasher/internal/client"
	"github.com/matheus3301/flasher/internal/config"
	"github.com/matheus3301/flasher/internal/flash"
	"github.com/matheus3301/flasher/internal/logging"
	"github.com/matheus3301/flasher/internal/reaper"
	"github.com/matheus3301/flasher/internal/session"
	"github.com/matheus3301/flasher/internal/store"
	"go.uber.org/zap"
	"google.golang.org/protobuf/encoding/protojson"
)

func main() {
	_ = godotenv.Load()

	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	return config.Resolve(session.ResolveConfigPath(opts.Config))
}

// openStore opens the configured backend with a quiet logger.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	logger, err := logging.New(config.LogConfig{Level: "warn"})
	if err != nil {
		return nil, err
	}
	return store.FromConfig(ctx, cfg.Store, cfg.DataDir, logger)
}

// StatusCmd reports the daemon's health over the control socket.
type StatusCmd struct {
	JSON bool `long:"json" description:"output in JSON format"`
}

func (c *StatusCmd) Execute([]string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cl, err := client.New(session.SocketPath(cfg.DataDir))
	if err != nil {
		return err
	}
	defer func() { _ = cl.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resp, err := cl.Status(ctx)
	if err != nil {
		return fmt.Errorf("cannot reach flashd at %s: %w", session.SocketPath(cfg.DataDir), err)
	}

	if c.JSON {
		data, err := protojson.MarshalOptions{Multiline: true, EmitUnpopulated: true}.Marshal(resp)
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}
	fmt.Printf("flashd:  %s\n", resp.GetStatus())
	fmt.Printf("listen:  %s\n", cfg.Listen)
	fmt.Printf("backend: %s\n", cfg.Store.Backend)
	return nil
}

// ShowCmd prints the persisted flash state of one session.
type ShowCmd struct {
	Group string `short:"g" long:"group" description:"only show this flash group"`
	Args  struct {
		SessionID string `positional-arg-name:"session-id" required:"yes"`
	} `positional-args:"yes"`
}

func (c *ShowCmd) Execute([]string) error {
	if err := session.ValidateID(c.Args.SessionID); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	data, err := st.Get(ctx, c.Args.SessionID, cfg.Session.FlashKey)
	if errors.Is(err, store.ErrNotFound) {
		fmt.Println("No pending flash messages.")
		return nil
	}
	if err != nil {
		return err
	}

	var state flash.State
	if err := state.UnmarshalJSON(data); err != nil {
		return err
	}
	fmt.Print(formatState(state, c.Group))
	return nil
}

// formatState renders state as an indented group/channel/message listing.
func formatState(state flash.State, only string) string {
	ids := make([]string, 0, len(state))
	for id := range state {
		if only == "" || id == only {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	if len(ids) == 0 {
		return "No pending flash messages.\n"
	}

	var b strings.Builder
	for _, id := range ids {
		fmt.Fprintf(&b, "%s\n", id)
		gen := state[id]
		for _, ch := range gen.Channels() {
			for _, msg := range gen[ch] {
				fmt.Fprintf(&b, "  %-10s %s\n", ch, msg)
			}
		}
	}
	return b.String()
}

// PurgeCmd runs one reaper pass against the configured store.
type PurgeCmd struct{}

func (c *PurgeCmd) Execute([]string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	n, err := reaper.New(st, cfg.ReapInterval, nil, zap.NewNop()).Reap(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Purged %d expired value(s).\n", n)
	return nil
}

// InitCmd writes a default config file.
type InitCmd struct {
	Force bool `long:"force" description:"overwrite an existing config file"`
}

func (c *InitCmd) Execute([]string) error {
	path := opts.Config
	if path == "" {
		path = session.ConfigPath()
	}
	if _, err := os.Stat(path); err == nil && !c.Force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	cfg := config.Defaults()
	cfg.Log.File = session.LogPath(cfg.DataDir)
	if err := config.Save(path, cfg); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}
