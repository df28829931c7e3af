package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"nasfaqv2/brokerbot/ytlive/internal/db"
	"nasfaqv2/brokerbot/ytlive/internal/livestatus"
	"nasfaqv2/brokerbot/ytlive/internal/youtube"
	"nasfaqv2/brokerbot/ytlive/internal/ytdata"
)

func main() {
	// Load .env automatically (if present). Real environment variables still override.
	// Optional override: ENV_FILE=path/to/.env
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Overload(envFile); err != nil {
			log.Printf("env: failed to load ENV_FILE=%q: %v", envFile, err)
		} else {
			log.Printf("env: loaded %s", envFile)
		}
	} else {
		if err := godotenv.Load(); err == nil {
			log.Printf("env: loaded .env")
		}
	}

	deactivate := flag.String("deactivate", "", "Stop polling the given channel ID and exit")
	flag.Parse()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatalf("missing DATABASE_URL")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pool, err := db.NewPool(ctx, dbURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	if err := db.ApplySchema(ctx, pool); err != nil {
		log.Fatalf("schema: %v", err)
	}

	if *deactivate != "" {
		ok, err := db.DeactivateChannel(ctx, pool, *deactivate)
		if err != nil {
			log.Fatalf("deactivate: %v", err)
		}
		if !ok {
			log.Printf("deactivate: channel %s is not active", *deactivate)
			return
		}
		log.Printf("deactivate: channel %s will no longer be polled", *deactivate)
		return
	}

	nop := zerolog.Nop()
	checker, err := livestatus.New(livestatus.Options{
		Logger: &nop,
		Client: youtube.New(os.Getenv("YOUTUBE_BASE_URL")),
	})
	if err != nil {
		log.Fatalf("checker: %v", err)
	}
	defer func() { _ = checker.Close() }()

	in := bufio.NewReader(os.Stdin)

	fmt.Println("Add YouTube channels to yt.tracked_channels.")
	fmt.Println("Channels may be given as an ID, a @handle or a channel URL.")
	fmt.Print("Enter 'q' at any prompt to quit.\n\n")

	for {
		identifier, ok := prompt(in, os.Stdout, "channel")
		if !ok {
			return
		}
		if identifier == "" {
			fmt.Print("channel is required.\n\n")
			continue
		}

		res, err := checker.Check(ctx, identifier)
		if err != nil {
			fmt.Printf("ERROR: %v\n\n", err)
			continue
		}
		fmt.Printf("resolved %s to %s\n", identifier, res.ChannelID)

		def := defaultName(res)
		name, ok := prompt(in, os.Stdout, fmt.Sprintf("name [%s]", def))
		if !ok {
			return
		}
		if name == "" {
			name = def
		}
		if name == "" {
			fmt.Print("name is required.\n\n")
			continue
		}

		ch := db.Channel{
			YouTubeChannelID: res.ChannelID,
			Name:             name,
		}
		if res.ChannelHandle != "" {
			h := res.ChannelHandle
			ch.Handle = &h
		}

		if err := db.UpsertChannel(ctx, pool, ch); err != nil {
			fmt.Printf("ERROR: %v\n\n", err)
			continue
		}

		fmt.Printf("OK: upserted channel %s (%s)\n\n", res.ChannelID, name)
	}
}

// defaultName prefers the page title, then the handle the channel was
// resolved from.
func defaultName(res *livestatus.Result) string {
	if res.ChannelName != "" && res.ChannelName != ytdata.UnknownChannelName {
		return res.ChannelName
	}
	return strings.TrimPrefix(res.ChannelHandle, "@")
}

func prompt(in *bufio.Reader, out io.Writer, label string) (string, bool) {
	fmt.Fprintf(out, "%s: ", label)
	raw, err := in.ReadString('\n')
	if err != nil && raw == "" {
		return "", false
	}
	s := strings.TrimSpace(raw)
	if strings.EqualFold(s, "q") {
		return "", false
	}
	return s, true
}
