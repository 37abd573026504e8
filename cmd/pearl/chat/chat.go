// Package chatcmder provides the chat command, a terminal client for a
// running Pearl server.
package chatcmder

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/papercomputeco/pearl/pkg/cliui"
	"github.com/papercomputeco/pearl/pkg/config"
	"github.com/papercomputeco/pearl/pkg/logger"
	"github.com/papercomputeco/pearl/proxy"
)

const (
	exitCommand  = "/exit"
	clearCommand = "/clear"
)

var (
	userPrompt  = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true).Render("you> ")
	pearlPrompt = lipgloss.NewStyle().Foreground(lipgloss.Color("213")).Render("pearl> ")
)

type chatCommander struct {
	target    string
	apiTarget string
	debug     bool
	markdown  bool

	in     io.Reader
	out    io.Writer
	errOut io.Writer
	client *http.Client
	logger *zap.Logger
}

const chatLongDesc string = `Chat with a running Pearl server from the terminal.

Each line is sent to POST /generate. Pearl keeps the conversation on the
server side, so the client only sends the newest prompt.

Commands:
  /clear   forget the conversation (DELETE /conversation on the admin API)
  /exit    quit (Ctrl+D works too)

Examples:
  pearl chat
  pearl chat --target http://gpu-box:5000 --api-target http://gpu-box:5001`

const chatShortDesc string = "Chat with a running Pearl server"

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			cfger, err := config.NewConfiger(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			cfg, err := cfger.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			if !cmd.Flags().Changed(config.Flags[config.FlagTarget].Name) {
				cmder.target = cfg.Client.Target
			}
			if !cmd.Flags().Changed(config.Flags[config.FlagAPITarget].Name) {
				cmder.apiTarget = cfg.Client.APITarget
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			cmder.in = cmd.InOrStdin()
			cmder.out = cmd.OutOrStdout()
			cmder.errOut = cmd.ErrOrStderr()
			cmder.markdown = term.IsTerminal(int(os.Stdout.Fd()))
			cmder.logger = logger.NewLogger(cmder.debug)
			defer func() { _ = cmder.logger.Sync() }()

			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagTarget, &cmder.target)
	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &cmder.apiTarget)

	return cmd
}

func (c *chatCommander) run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if c.client == nil {
		// Generation can be slow on local hardware.
		c.client = &http.Client{Timeout: 5 * time.Minute}
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}

	fmt.Fprintln(c.out)
	fmt.Fprintf(c.out, "  %s %s\n",
		cliui.KeyStyle.Render("Server:"),
		cliui.ValueStyle.Render(c.target),
	)
	fmt.Fprintf(c.out, "  %s\n\n", cliui.DimStyle.Render("Type your message and press Enter. /clear to forget, /exit or Ctrl+D to quit."))

	scanner := bufio.NewScanner(c.in)
	for {
		fmt.Fprint(c.out, userPrompt)
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		switch input {
		case "":
			continue
		case exitCommand:
			fmt.Fprintln(c.out)
			return nil
		case clearCommand:
			n, err := c.clear(ctx)
			if err != nil {
				fmt.Fprintf(c.errOut, "  %s %v\n", cliui.FailMark, err)
				continue
			}
			fmt.Fprintf(c.out, "  %s %s\n\n", cliui.SuccessMark,
				cliui.DimStyle.Render(fmt.Sprintf("Forgot %d turns", n)))
			continue
		}

		resp, err := c.generate(ctx, input)
		if err != nil {
			fmt.Fprintf(c.errOut, "  %s %v\n", cliui.FailMark, err)
			continue
		}
		c.printResponse(resp)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	fmt.Fprintln(c.out)
	return nil
}

func (c *chatCommander) printResponse(resp *proxy.GenerateResponse) {
	text := resp.Response
	if c.markdown {
		rendered, err := cliui.RenderMarkdown(text)
		if err != nil {
			c.logger.Debug("markdown render failed", zap.Error(err))
		} else {
			text = strings.TrimSpace(rendered)
		}
	}

	fmt.Fprint(c.out, pearlPrompt)
	if resp.HasWebContext {
		fmt.Fprint(c.out, cliui.WebStyle.Render("[web] "))
	}
	fmt.Fprintln(c.out, text)
	fmt.Fprintf(c.out, "%s\n\n", cliui.DimStyle.Render(
		fmt.Sprintf("  %s, %d turns in context", resp.Model, resp.ContextLength)))
}

// generate posts one prompt to /generate.
func (c *chatCommander) generate(ctx context.Context, prompt string) (*proxy.GenerateResponse, error) {
	body, err := json.Marshal(proxy.GenerateRequest{Prompt: prompt})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	c.logger.Debug("sending generate request",
		zap.String("target", c.target),
		zap.Int("prompt_len", len(prompt)),
	)

	url := strings.TrimRight(c.target, "/") + "/generate"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	respBody, err := c.do(httpReq)
	if err != nil {
		return nil, err
	}

	var resp proxy.GenerateResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &resp, nil
}

// clear drops the server-side conversation through the admin API.
func (c *chatCommander) clear(ctx context.Context) (int, error) {
	url := strings.TrimRight(c.apiTarget, "/") + "/conversation"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}

	respBody, err := c.do(httpReq)
	if err != nil {
		return 0, err
	}
	return int(gjson.GetBytes(respBody, "cleared").Int()), nil
}

func (c *chatCommander) do(req *http.Request) ([]byte, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request to %s: %w", req.URL.Host, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if msg := gjson.GetBytes(body, "error").String(); msg != "" {
			if details := gjson.GetBytes(body, "details").String(); details != "" {
				return nil, fmt.Errorf("server returned %d: %s: %s", resp.StatusCode, msg, details)
			}
			return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, msg)
		}
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return body, nil
}
