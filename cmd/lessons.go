package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/mathibot/internal/lessons"
)

var lessonsCmd = &cobra.Command{
	Use:   "lessons",
	Short: "Manage curriculum lessons",
}

var lessonsImportCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Import lessons from a JSON file into the local database",
	Long:  "Import reads a JSON array of lessons (unidad, leccion, titulo, ...) and upserts it. Use - to read stdin.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd, logger)
		if err != nil {
			return err
		}
		defer rt.Close()
		if rt.sqlLessons == nil {
			return fmt.Errorf("lessons.driver is %q; import only writes to the sqlite store", rt.cfg.Lessons.Driver)
		}

		data, err := readInput(args[0])
		if err != nil {
			return err
		}
		items, err := decodeLessons(data)
		if err != nil {
			return err
		}
		n, err := rt.sqlLessons.Upsert(cmd.Context(), items)
		if err != nil {
			return fmt.Errorf("import lessons: %w", err)
		}
		fmt.Printf("Imported %d lessons.\n", n)

		if withIndex, _ := cmd.Flags().GetBool("index"); withIndex {
			return indexLessons(cmd, rt, items)
		}
		return nil
	},
}

var lessonsIndexCmd = &cobra.Command{
	Use:   "index <file.json>",
	Short: "Embed lessons from a JSON file into the Qdrant collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd, logger)
		if err != nil {
			return err
		}
		defer rt.Close()

		data, err := readInput(args[0])
		if err != nil {
			return err
		}
		items, err := decodeLessons(data)
		if err != nil {
			return err
		}
		return indexLessons(cmd, rt, items)
	},
}

func indexLessons(cmd *cobra.Command, rt *runtime, items []lessons.ContextItem) error {
	if rt.semantic == nil || rt.index == nil {
		return fmt.Errorf("semantic search is not enabled (lessons.semantic.enabled)")
	}
	if err := rt.index.EnsureCollection(cmd.Context()); err != nil {
		return err
	}
	n, err := rt.semantic.Index(cmd.Context(), items)
	fmt.Printf("Indexed %d of %d lessons.\n", n, len(items))
	return err
}

var lessonsSearchCmd = &cobra.Command{
	Use:   "search <texto>",
	Short: "Search lessons the way a lesson-mode turn does",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd, logger)
		if err != nil {
			return err
		}
		defer rt.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		req := lessons.Request{Message: strings.Join(args, " "), Limit: limit}
		if cmd.Flags().Changed("unidad") {
			u, _ := cmd.Flags().GetInt("unidad")
			req.Unit = &u
		}
		items := lessons.NewRetriever(rt.lessons, logger).Resolve(cmd.Context(), req)
		if len(items) == 0 {
			fmt.Println("No lessons found.")
			return nil
		}

		fmt.Printf("%-6s  %-8s  %s\n", "Unidad", "Leccion", "Titulo")
		fmt.Println(strings.Repeat("─", 60))
		for _, it := range items {
			fmt.Printf("%-6s  %-8s  %s\n", it.UnitLabel(), it.LessonLabel(), truncate(it.Title, 44))
		}
		return nil
	},
}

var lessonsShowCmd = &cobra.Command{
	Use:   "show <unidad> <leccion>",
	Short: "Print one lesson",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		unit, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid unit %q: %w", args[0], err)
		}
		lesson, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid lesson %q: %w", args[1], err)
		}

		rt, err := openRuntime(cmd, logger)
		if err != nil {
			return err
		}
		defer rt.Close()

		coords := lessons.Coordinates{Unit: unit, Lesson: lesson}
		if cmd.Flags().Changed("tema") {
			t, _ := cmd.Flags().GetInt("tema")
			coords.Topic = &t
		}
		item, err := rt.lessons.FetchExact(cmd.Context(), coords)
		if err != nil {
			return fmt.Errorf("fetch lesson: %w", err)
		}
		if item == nil {
			return fmt.Errorf("lesson %d.%d not found", unit, lesson)
		}

		fmt.Println(lessons.ContextBlock([]lessons.ContextItem{*item}))
		return nil
	},
}

func decodeLessons(data []byte) ([]lessons.ContextItem, error) {
	return lessons.DecodeImport(bytes.NewReader(data))
}

// readInput reads a file, or stdin for "-".
func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func init() {
	lessonsImportCmd.Flags().Bool("index", false, "Also embed the imported lessons into Qdrant")
	lessonsSearchCmd.Flags().IntP("limit", "n", 5, "Maximum lessons to show")
	lessonsSearchCmd.Flags().Int("unidad", 0, "Restrict to a unit")
	lessonsShowCmd.Flags().Int("tema", 0, "Topic number")

	lessonsCmd.AddCommand(lessonsImportCmd)
	lessonsCmd.AddCommand(lessonsIndexCmd)
	lessonsCmd.AddCommand(lessonsSearchCmd)
	lessonsCmd.AddCommand(lessonsShowCmd)
}
