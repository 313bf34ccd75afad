package cli

import (
	"github.com/spf13/cobra"

	"github.com/ai-gateway/chatstream-go/internal/client"
	"github.com/ai-gateway/chatstream-go/internal/provider"
)

func newAskCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <message>",
		Short: "Send one message and print the streamed reply",
		Example: `  chat ask "What is server-sent events?"
  chat ask -s "Answer in one sentence." "Why is the sky blue?"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tr := newTranscript(opts)
			tr.Append(provider.RoleUser, args[0])
			return turn(cmd.Context(), client.New(opts.url), tr, cmd.OutOrStdout())
		},
	}
}
