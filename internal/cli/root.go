// Package cli provides the command-line chat client.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/ai-gateway/chatstream-go/internal/client"
	"github.com/ai-gateway/chatstream-go/internal/provider"
	"github.com/ai-gateway/chatstream-go/internal/sse"
)

// Version is set at build time.
var Version = "0.1.0"

const defaultURL = "http://localhost:8080"

type options struct {
	url    string
	system string
}

// NewRootCmd builds the chat command tree. Without a subcommand it starts
// an interactive session.
func NewRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with a streaming gateway",
		Long: `Chat sends the conversation to a gateway and prints the reply as it
streams in. Press Ctrl-C while a reply is streaming to stop it; the partial
reply is kept. Type /reset to start over and /exit to quit.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runREPL(cmd, opts)
		},
	}
	if env := os.Getenv("CHATSTREAM_URL"); env != "" {
		opts.url = env
	}
	cmd.PersistentFlags().StringVar(&opts.url, "url", orDefault(opts.url, defaultURL), "gateway base URL")
	cmd.PersistentFlags().StringVarP(&opts.system, "system", "s", "", "system instruction for the conversation")

	cmd.AddCommand(newAskCmd(opts))
	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func newTranscript(opts *options) *client.Transcript {
	tr := client.NewTranscript()
	if opts.system != "" {
		tr.Append(provider.RoleSystem, opts.system)
	}
	return tr
}

// turn sends the transcript and prints tokens as they arrive. An interrupt
// signal cancels only this turn.
func turn(ctx context.Context, c *client.Client, tr *client.Transcript, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	defer signal.Stop(sig)
	go func() {
		select {
		case <-sig:
			cancel()
		case <-ctx.Done():
		}
	}()

	err := c.Send(ctx, tr, func(e sse.Event) {
		if e.Type == sse.EventToken {
			fmt.Fprint(out, e.Token)
		}
	})
	last := tr.Entry(tr.Len() - 1)
	switch {
	case err == nil:
		fmt.Fprintln(out)
		return nil
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(out, " [cancelled]")
		return err
	default:
		fmt.Fprintln(out)
		fmt.Fprintln(out, last.Content)
		return err
	}
}
