package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/mathibot/internal/chat"
)

var askFlags struct {
	unit   int
	topic  int
	lesson int
	query  string
	asJSON bool
}

var askCmd = &cobra.Command{
	Use:   "ask <mensaje>",
	Short: "Send one message and print the reply",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd, logger)
		if err != nil {
			return err
		}
		defer rt.Close()

		req := chat.Request{
			UserID:     studentID(),
			ChatID:     chatFlags.chatID,
			Message:    strings.Join(args, " "),
			Query:      askFlags.query,
			LessonOnly: chatFlags.lessonOnly,
			MaxContext: chatFlags.maxContext,
			Mode:       chatFlags.mode,
		}
		if cmd.Flags().Changed("unidad") {
			req.Unit = &askFlags.unit
		}
		if cmd.Flags().Changed("tema") {
			req.Topic = &askFlags.topic
		}
		if cmd.Flags().Changed("leccion") {
			req.Lesson = &askFlags.lesson
		}

		resp, err := rt.chat.Send(cmd.Context(), req)
		if err != nil {
			return err
		}

		if askFlags.asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		}

		fmt.Println(resp.Answer)
		if len(resp.ContextItems) > 0 {
			fmt.Println()
			for _, ref := range resp.ContextItems {
				unit := "?"
				if ref.Unit != nil {
					unit = fmt.Sprint(*ref.Unit)
				}
				fmt.Printf("  Leccion %s.%s - %s\n", unit, ref.Lesson, ref.Title)
			}
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "modo=%s contexto=%v fallback=%v\n", resp.Mode, resp.UsedContext, resp.Fallback)
		}
		return nil
	},
}

func init() {
	f := askCmd.Flags()
	f.StringVarP(&chatFlags.user, "user", "u", "", "Student id (defaults to $USER)")
	f.StringVar(&chatFlags.chatID, "chat", "", "Conversation id")
	f.StringVarP(&chatFlags.mode, "mode", "m", "", "Mode: auto, general, leccion")
	f.BoolVar(&chatFlags.lessonOnly, "solo-bd", false, "Answer lesson questions from stored lessons only")
	f.IntVar(&chatFlags.maxContext, "max-context", 0, "Lessons retrieved for the turn")
	f.IntVar(&askFlags.unit, "unidad", 0, "Lesson unit")
	f.IntVar(&askFlags.topic, "tema", 0, "Lesson topic")
	f.IntVar(&askFlags.lesson, "leccion", 0, "Lesson number")
	f.StringVar(&askFlags.query, "query", "", "Lesson search text (defaults to the message)")
	f.BoolVar(&askFlags.asJSON, "json", false, "Print the full response as JSON")
}
