package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"nasfaqv2/brokerbot/ytlive/internal/livestatus"
	"nasfaqv2/brokerbot/ytlive/internal/youtube"
	"nasfaqv2/brokerbot/ytlive/internal/ytdata"
)

const usage = `Usage: ytlive [options] <channelId|handle|url>

Options:
  -s, --streams         Print a human-readable list of live and scheduled streams
  -j, --streams-json    Output only the streams object as prettified JSON
      --save-html       Persist the fetched HTML response for debugging
  -h, --help            Show this help message
`

type cliArgs struct {
	Identifier  string
	Streams     bool
	StreamsJSON bool
	SaveHTML    bool
	Help        bool
}

// parseArgs accepts flags before and after the positional identifier.
func parseArgs(args []string) (cliArgs, error) {
	var out cliArgs
	fs := flag.NewFlagSet("ytlive", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.BoolVar(&out.Streams, "s", false, "")
	fs.BoolVar(&out.Streams, "streams", false, "")
	fs.BoolVar(&out.StreamsJSON, "j", false, "")
	fs.BoolVar(&out.StreamsJSON, "streams-json", false, "")
	fs.BoolVar(&out.SaveHTML, "save-html", false, "")
	fs.BoolVar(&out.Help, "h", false, "")
	fs.BoolVar(&out.Help, "help", false, "")

	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return cliArgs{}, err
		}
		args = fs.Args()
		if len(args) == 0 {
			break
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
	if len(positional) > 0 {
		out.Identifier = positional[0]
	}
	return out, nil
}

type cli struct {
	stdout  io.Writer
	stderr  io.Writer
	baseURL string
	logging bool
}

func main() {
	// Load .env automatically (if present). Real environment variables still override.
	// Optional override: ENV_FILE=path/to/.env
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Overload(envFile); err != nil {
			log.Printf("env: failed to load ENV_FILE=%q: %v", envFile, err)
		}
	} else {
		_ = godotenv.Load()
	}

	// Writes to a closed pipe surface as EPIPE instead of killing the process.
	signal.Ignore(syscall.SIGPIPE)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	c := cli{
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		baseURL: os.Getenv("YOUTUBE_BASE_URL"),
		logging: strings.EqualFold(os.Getenv("ENABLE_LOGGING"), "true"),
	}
	os.Exit(c.run(ctx, os.Args[1:]))
}

func (c cli) run(ctx context.Context, argv []string) int {
	args, err := parseArgs(argv)
	if err != nil {
		fmt.Fprintf(c.stderr, "%v\n", err)
		fmt.Fprint(c.stderr, usage)
		return 1
	}
	if args.Help {
		return c.exitFor(writeString(c.stdout, usage))
	}
	if args.Identifier == "" {
		_ = writeString(c.stdout, usage)
		return 1
	}

	res, err := livestatus.CheckChannelLiveStatus(ctx, args.Identifier, livestatus.Options{
		SaveHTML:      args.SaveHTML,
		EnableLogging: c.logging,
		Client:        youtube.New(c.baseURL),
	})
	if err != nil {
		fmt.Fprintln(c.stderr, err)
		return 1
	}

	if args.Streams {
		if err := writeStreamList(c.stdout, res.Streams); err != nil {
			return c.exitFor(err)
		}
	}
	if args.StreamsJSON {
		if err := writePrettyJSON(c.stdout, res.Streams); err != nil {
			return c.exitFor(err)
		}
	}
	return c.exitFor(writePrettyJSON(c.stdout, res))
}

// exitFor maps an output error to an exit code. A reader that went away
// early is not a failure.
func (c cli) exitFor(err error) int {
	switch {
	case err == nil, errors.Is(err, syscall.EPIPE):
		return 0
	default:
		fmt.Fprintf(c.stderr, "write output: %v\n", err)
		return 1
	}
}

func writeString(w io.Writer, s string) error {
	_, err := io.WriteString(w, s)
	return err
}

func writePrettyJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeStreamList(w io.Writer, streams livestatus.Streams) error {
	var b strings.Builder
	if len(streams.Live) > 0 {
		b.WriteString("Live streams:\n")
		for i, s := range streams.Live {
			count := "viewer count unavailable"
			if s.ViewerCount != nil {
				count = fmt.Sprintf("%d viewers", *s.ViewerCount)
			}
			fmt.Fprintf(&b, "  %d. %s — %s — %s\n", i+1, s.Title, count, s.WatchURL)
		}
	} else {
		b.WriteString("No live streams detected.\n")
	}

	if len(streams.Scheduled) > 0 {
		b.WriteString("Scheduled streams:\n")
		for i, s := range streams.Scheduled {
			fmt.Fprintf(&b, "  %d. %s — %s — starts at %s — %s\n", i+1, s.Title, waitingText(s), startText(s), s.WatchURL)
		}
	} else {
		b.WriteString("No scheduled streams detected.\n")
	}
	return writeString(w, b.String())
}

func waitingText(s ytdata.StreamEntry) string {
	if s.ViewerCount == nil {
		return "waiting count unavailable"
	}
	return fmt.Sprintf("%d waiting", *s.ViewerCount)
}

func startText(s ytdata.StreamEntry) string {
	t, ok := s.ScheduledStart()
	if !ok {
		return "start time unknown"
	}
	return livestatus.ISOTime(t).String()
}
