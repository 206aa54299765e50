package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"text/tabwriter"

	"vidsnap/internal/client"
)

func main() {
	args := os.Args[1:]

	cmd, err := client.ParseArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintln(os.Stderr, "usage: vidsnap info [-server URL] <url> [platform]")
		fmt.Fprintln(os.Stderr, "       vidsnap download [-server URL] [-q quality] [-audio] [-o dir] <url>")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	c := client.New(cmd.Server, &http.Client{})

	switch cmd.Action {
	case client.ActionInfo:
		info, err := c.Info(ctx, cmd.URL, cmd.Platform)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("%s (%ss)\n\n", info.Title, info.Duration)
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ITAG\tQUALITY\tAUDIO\tSIZE\tMIME")
		for _, f := range info.Formats {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", f.Itag, f.Quality, f.AudioQuality, f.Size, f.MimeType)
		}
		tw.Flush()

	case client.ActionDownload:
		store := client.NewFileStore(cmd.OutDir)
		path, n, err := c.Download(ctx, client.DownloadOptions{
			URL:     cmd.URL,
			Quality: cmd.Quality,
			Audio:   cmd.Audio,
		}, store)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("✓ Saved %s (%d bytes)\n", path, n)
	}
}
