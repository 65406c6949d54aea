package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"charm.land/lipgloss/v2"
	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"

	"github.com/harunnryd/kabu/internal/logger"
	"github.com/harunnryd/kabu/internal/orchestrator"
	"github.com/harunnryd/kabu/internal/orchestrator/command"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive stock chat session",
	RunE: func(cmd *cobra.Command, args []string) error {
		components, err := buildRuntime(cfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		repl := newChatREPL(components)
		return repl.Start(ctx)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

type chatREPL struct {
	components   *runtimeComponents
	conversation *orchestrator.Conversation
	commands     *command.Handler
	reader       *bufio.Reader
	sessionID    string

	promptStyle lipgloss.Style
	replyStyle  lipgloss.Style
	noticeStyle lipgloss.Style
	errorStyle  lipgloss.Style
}

func newChatREPL(components *runtimeComponents) *chatREPL {
	conversation := orchestrator.NewConversation()

	return &chatREPL{
		components:   components,
		conversation: conversation,
		commands:     command.NewHandler(conversation, components.registry.Descriptors),
		reader:       bufio.NewReader(os.Stdin),
		sessionID:    "chat-" + ulid.Make().String(),
		promptStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("99")).Bold(true),
		replyStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		noticeStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		errorStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
}

func (r *chatREPL) Start(ctx context.Context) error {
	ctx = logger.WithSessionID(ctx, r.sessionID)

	fmt.Println(r.noticeStyle.Render("Kabu stock chat. Type 'tools' for the tool list, 'quit' to exit."))

	for {
		select {
		case <-ctx.Done():
			fmt.Println()
			return nil
		default:
		}

		if err := r.readLine(ctx); err != nil {
			if err == io.EOF {
				fmt.Println()
				return nil
			}
			fmt.Println(r.errorStyle.Render("error: " + err.Error()))
		}
	}
}

func (r *chatREPL) readLine(ctx context.Context) error {
	fmt.Print(r.promptStyle.Render("you> "))
	text, err := r.reader.ReadString('\n')
	if err != nil {
		return err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	if r.commands.CanHandle(text) {
		msg, quit := r.commands.Execute(text)
		fmt.Println(r.noticeStyle.Render(msg))
		if quit {
			return io.EOF
		}
		return nil
	}

	turnCtx := logger.WithTraceID(ctx, "turn-"+ulid.Make().String())
	answer, err := r.components.planner.RunTurn(turnCtx, r.conversation, text)
	if err != nil {
		return err
	}

	fmt.Println(r.replyStyle.Render(answer))
	return nil
}
