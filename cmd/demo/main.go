package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"fieldregistry-server/internal/registry/board"
	"fieldregistry-server/internal/registry/bus"
	"fieldregistry-server/internal/registry/domain"
	"fieldregistry-server/internal/registry/fetch"
	"fieldregistry-server/internal/registry/render"
	"fieldregistry-server/internal/registry/store"

	"github.com/gorilla/websocket"
)

// Connects to a running server, keeps a live registry store for one key, and
// reprints the rendered form and board whenever the server announces a change.
func main() {
	serverURL := flag.String("server", "http://localhost:3000", "server base URL")
	module := flag.String("module", "crm", "registry module")
	entity := flag.String("entity", "leads", "registry entity")
	flag.Parse()

	slog.SetDefault(
		slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})),
	)
	slog.Info("demo client starting", slog.String("server", *serverURL))

	invalidations := bus.New()
	fetcher := fetch.NewHTTPFetcher(*serverURL, nil)

	registryStore := store.New(fetcher, invalidations)
	registryStore.OnChange(func() { printRegistry(registryStore) })

	// A second store on the same key, standing in for another open screen;
	// both converge through the shared bus on every invalidation.
	mirrorStore := store.New(fetcher, invalidations)
	mirrorStore.OnChange(func() {
		slog.Info("mirror store transitioned", slog.String("state", string(mirrorStore.State())))
	})

	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()

	go bridgeInvalidations(ctx, *serverURL, invalidations)

	key := domain.Key{Module: *module, Entity: *entity}
	registryStore.Activate(ctx, key)
	mirrorStore.Activate(ctx, key)

	signalChannel := make(chan os.Signal, 2)
	signal.Notify(signalChannel, os.Interrupt, syscall.SIGTERM)
	<-signalChannel

	mirrorStore.Deactivate()
	registryStore.Deactivate()
	slog.Info("good bye!!!")
}

// bridgeInvalidations forwards server-side invalidation pushes onto the local
// bus, reconnecting with a flat backoff when the socket drops.
func bridgeInvalidations(ctx context.Context, serverURL string, invalidations *bus.Bus) {
	wsURL := strings.Replace(serverURL, "http", "ws", 1) + "/ws/registry-invalidations"

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
		if err != nil {
			slog.Warn("invalidation socket dial failed", slog.String("error", err.Error()))
			time.Sleep(5 * time.Second)
			continue
		}

		for {
			var message struct {
				Module   string `json:"module"`
				Entity   string `json:"entity"`
				Revision int    `json:"revision"`
			}
			if err := conn.ReadJSON(&message); err != nil {
				slog.Warn("invalidation socket closed", slog.String("error", err.Error()))
				conn.Close()
				break
			}
			slog.Info("registry invalidated",
				slog.String("module", message.Module),
				slog.String("entity", message.Entity),
				slog.Int("revision", message.Revision))
			invalidations.Publish(message.Module, message.Entity)
		}
	}
}

func printRegistry(registryStore *store.Store) {
	switch registryStore.State() {
	case store.StateLoading:
		fmt.Println("loading...")
		return
	case store.StateError:
		fmt.Printf("error: %v\n", registryStore.Err())
		return
	case store.StateIdle:
		return
	}

	config := registryStore.Config()

	fmt.Printf("\n=== %s (%s) ===\n", config.EntityLabel, registryStore.Key())

	form := render.BuildForm(config.FormFields(), config.InitialValues(), render.Options{
		GroupBySection: true,
	})
	for _, section := range form.Sections {
		fmt.Printf("[%s]\n", section.Label)
		for _, input := range section.Inputs {
			required := ""
			if input.Required {
				required = " *"
			}
			fmt.Printf("  %-20s %-12s %v%s\n", input.Label, input.Type, input.Value, required)
		}
	}

	columns := board.Columns(config)
	if len(columns) > 0 {
		fmt.Println("[Board]")
		for _, column := range columns {
			fmt.Printf("  %-16s %s\n", column.Label, column.Palette.Badge)
		}
	}
}
