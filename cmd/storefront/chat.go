package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/kajal19803/dairyfrontend/internal/backend"
	"github.com/kajal19803/dairyfrontend/internal/domain"
	"github.com/kajal19803/dairyfrontend/internal/support"
	"github.com/spf13/cobra"
)

var chatToken string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the support assistant from the terminal",
	Long: `Starts an interactive support conversation against the backend.
Type a message and press enter. Attach a screenshot with /image <path>
when the assistant asks for one, and leave with /quit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := backend.New(backendConfig(cfg), logger.Named("backend"))
		ctx := backend.WithToken(cmd.Context(), chatToken)
		opts := support.Options{
			CallTimeout: cfg.Support.CallTimeout,
			ReplyDelay:  cfg.Support.ReplyDelay,
			Logger:      logger.Named("chat"),
		}
		return runChat(ctx, client, opts, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	chatCmd.Flags().StringVar(&chatToken, "token", os.Getenv("STOREFRONT_TOKEN"), "bearer token of the signed-in user")
}

// runChat drives one conversation from in until /quit or end of input.
func runChat(ctx context.Context, b support.Backend, opts support.Options, in io.Reader, out io.Writer) error {
	printed := 0
	opts.OnChange = func(s support.Snapshot) {
		for _, m := range s.Messages[printed:] {
			if m.Sender == support.SenderBot {
				fmt.Fprintf(out, "bot> %s\n", m.Text)
			}
		}
		printed = len(s.Messages)
	}
	opts.OnImageRequested = func() {
		fmt.Fprintln(out, "(attach it with /image <path>)")
	}
	engine := support.NewEngine(b, opts)

	fmt.Fprintln(out, "Ask us anything. /quit to leave.")
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "you> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "/quit":
			return nil

		case strings.HasPrefix(line, "/image"):
			path := strings.TrimSpace(strings.TrimPrefix(line, "/image"))
			img, err := readImage(path)
			if err != nil {
				fmt.Fprintf(out, "could not read image: %v\n", err)
				continue
			}
			if _, err := engine.SubmitImage(ctx, img); err != nil {
				if errors.Is(err, support.ErrImageNotExpected) {
					fmt.Fprintln(out, "No image was asked for yet.")
					continue
				}
				fmt.Fprintf(out, "could not attach image: %v\n", err)
			}

		default:
			engine.SubmitUserReply(ctx, line)
		}
	}
}

func readImage(path string) (domain.Image, error) {
	if path == "" {
		return domain.Image{}, errors.New("usage: /image <path>")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Image{}, err
	}

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return domain.Image{
		Filename:    filepath.Base(path),
		ContentType: contentType,
		Data:        data,
	}, nil
}
