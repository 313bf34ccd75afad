package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ai-gateway/chatstream-go/internal/client"
	"github.com/ai-gateway/chatstream-go/internal/provider"
)

const maxLine = 1 << 20

func runREPL(cmd *cobra.Command, opts *options) error {
	c := client.New(opts.url)
	tr := newTranscript(opts)
	out := cmd.OutOrStdout()

	in := bufio.NewScanner(cmd.InOrStdin())
	in.Buffer(make([]byte, 0, 64<<10), maxLine)
	for {
		fmt.Fprint(out, "> ")
		if !in.Scan() {
			fmt.Fprintln(out)
			return in.Err()
		}
		line := strings.TrimSpace(in.Text())
		switch line {
		case "":
			continue
		case "/exit", "/quit":
			return nil
		case "/reset":
			tr = newTranscript(opts)
			fmt.Fprintln(out, "conversation cleared")
			continue
		}

		tr.Append(provider.RoleUser, line)
		// Failures are printed inline and the session continues.
		_ = turn(cmd.Context(), c, tr, out)
		if err := cmd.Context().Err(); err != nil {
			return nil
		}
	}
}
