package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"wifitracker/internal/capture/dot11"
	"wifitracker/internal/logger"
	"wifitracker/pkg/models"
)

const usage = "usage: wifisniff [-file capture.pcap] [<interface>]"

type requestSource interface {
	Next(ctx context.Context) (models.ProbeRequest, bool, error)
}

func run(args []string) int {
	fs := flag.NewFlagSet("wifisniff", flag.ContinueOnError)
	file := fs.String("file", "", "Read frames from a pcap file instead of an interface")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	logger.SetOutput(os.Stderr, logger.Warn)

	var (
		src *dot11.Source
		err error
	)
	switch {
	case *file != "":
		src, err = dot11.OpenFile(*file)
	case fs.NArg() == 1:
		src, err = dot11.OpenLive(fs.Arg(0))
	default:
		fmt.Fprintln(os.Stderr, usage)
		return 2
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}
	defer src.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := printRequests(ctx, src, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}
	return 0
}

func printRequests(ctx context.Context, src requestSource, out io.Writer) error {
	enc := json.NewEncoder(out)
	for {
		req, ok, err := src.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if !ok {
			continue
		}
		if err := enc.Encode(req); err != nil {
			return err
		}
	}
}

func main() {
	os.Exit(run(os.Args[1:]))
}
