package client

import (
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"

	"vidsnap/internal/server/platform"
)

type ValidationError struct {
	Arg   string
	Cause string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid argument %q: %s", e.Arg, e.Cause)
}

type Action int

const (
	ActionInfo Action = iota
	ActionDownload
)

const defaultServer = "http://localhost:8080"

type Command struct {
	Action   Action
	Server   string
	URL      string
	Platform string
	Quality  string
	Audio    bool
	OutDir   string
}

// ParseArgs reads "info <url> [platform]" or
// "download [-q quality] [-audio] [-o dir] <url>".
func ParseArgs(args []string) (*Command, error) {
	if len(args) == 0 {
		return nil, &ValidationError{Arg: "<command>", Cause: "expected info or download"}
	}

	cmd := &Command{Server: defaultServer, OutDir: "."}
	if env := os.Getenv("VIDSNAP_SERVER"); env != "" {
		cmd.Server = env
	}

	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&cmd.Server, "server", cmd.Server, "vidsnap server base URL")

	switch args[0] {
	case "info":
		cmd.Action = ActionInfo
	case "download":
		cmd.Action = ActionDownload
		fs.StringVar(&cmd.Quality, "q", "", "quality label, itag or keyword")
		fs.BoolVar(&cmd.Audio, "audio", false, "audio only")
		fs.StringVar(&cmd.OutDir, "o", cmd.OutDir, "output directory")
	default:
		return nil, &ValidationError{Arg: args[0], Cause: "unknown command"}
	}

	if err := fs.Parse(args[1:]); err != nil {
		return nil, &ValidationError{Arg: args[0], Cause: err.Error()}
	}

	rest := fs.Args()
	if len(rest) == 0 {
		return nil, &ValidationError{Arg: "<url>", Cause: "no video URL provided"}
	}
	cmd.URL = rest[0]

	if u, err := url.Parse(cmd.Server); err != nil || u.Host == "" {
		return nil, &ValidationError{Arg: cmd.Server, Cause: "server must be an absolute URL"}
	}

	switch cmd.Action {
	case ActionInfo:
		if len(rest) > 1 {
			cmd.Platform = rest[1]
		} else {
			p := platform.Classify(cmd.URL)
			if p == platform.Unsupported {
				return nil, &ValidationError{Arg: cmd.URL, Cause: "unrecognized video host, pass the platform explicitly"}
			}
			cmd.Platform = p.String()
		}
	case ActionDownload:
		dir := filepath.Clean(cmd.OutDir)
		info, err := os.Stat(dir)
		if err != nil {
			return nil, &ValidationError{Arg: cmd.OutDir, Cause: "not found or not accessible"}
		}
		if !info.IsDir() {
			return nil, &ValidationError{Arg: cmd.OutDir, Cause: "not a directory"}
		}
		cmd.OutDir = dir
	}

	return cmd, nil
}
