package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/mathibot/internal/app"
	"github.com/abhisek/mathibot/internal/mode"
	chatscreen "github.com/abhisek/mathibot/internal/screens/chat"
)

var chatFlags struct {
	user        string
	chatID      string
	mode        string
	lessonOnly  bool
	maxContext  int
	skipWelcome bool
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open the terminal chat",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd)
	},
}

func init() {
	addChatFlags(chatCmd)
}

func addChatFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&chatFlags.user, "user", "u", "", "Student id (defaults to $USER)")
	f.StringVar(&chatFlags.chatID, "chat", "", "Resume the conversation with this id")
	f.StringVarP(&chatFlags.mode, "mode", "m", "", "Start mode: auto, general, leccion")
	f.BoolVar(&chatFlags.lessonOnly, "solo-bd", false, "Answer lesson questions from stored lessons only")
	f.IntVar(&chatFlags.maxContext, "max-context", 0, "Lessons retrieved per turn (0 uses the config)")
	f.BoolVar(&chatFlags.skipWelcome, "skip-welcome", false, "Open the chat without the welcome screen")
}

// runChat opens the runtime and launches the TUI.
func runChat(cmd *cobra.Command) error {
	log := tuiLogger()
	rt, err := openRuntime(cmd, log)
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := rt.probe(cmd.Context()); err != nil {
		return err
	}
	if rt.provider == nil {
		fmt.Fprintln(os.Stderr, "LLM provider not configured; answers will use the built-in fallbacks.")
	}

	return app.Run(rt.chat, app.Options{
		Chat: chatscreen.Options{
			UserID:     studentID(),
			ChatID:     chatFlags.chatID,
			Mode:       mode.Parse(chatFlags.mode),
			LessonOnly: chatFlags.lessonOnly,
			MaxContext: chatFlags.maxContext,
			Timeout:    rt.cfg.Chat.GenerationTimeout * 2,
		},
		SkipWelcome: chatFlags.skipWelcome,
	})
}

func studentID() string {
	if chatFlags.user != "" {
		return chatFlags.user
	}
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "estudiante"
}
