package cmd

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ptyterm/pkg/config"
)

var (
	saveCommand        string
	saveArgs           []string
	saveTerm           string
	saveRows           int
	saveCols           int
	saveTranscriptSize int
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage saved session profiles",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var configSaveCmd = &cobra.Command{
	Use:   "save <name>",
	Short: "Save a session profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigSave,
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved profiles",
	Args:  cobra.NoArgs,
	RunE:  runConfigList,
}

var configShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a saved profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigShow,
}

var configDeleteCmd = &cobra.Command{
	Use:     "delete <name>",
	Short:   "Delete a saved profile",
	Args:    cobra.ExactArgs(1),
	Aliases: []string{"rm"},
	RunE:    runConfigDelete,
}

func init() {
	configSaveCmd.Flags().StringVarP(&saveCommand, "shell", "s", "", "command to run (default: $SHELL)")
	configSaveCmd.Flags().StringArrayVar(&saveArgs, "arg", nil, "argument passed to the command (repeatable)")
	configSaveCmd.Flags().StringVar(&saveTerm, "term", "", "TERM value advertised to the child")
	configSaveCmd.Flags().IntVar(&saveRows, "rows", 24, "initial rows")
	configSaveCmd.Flags().IntVar(&saveCols, "cols", 80, "initial columns")
	configSaveCmd.Flags().IntVar(&saveTranscriptSize, "transcript-size", 0, "transcript byte budget (0 disables recording)")

	configCmd.AddCommand(configSaveCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configDeleteCmd)
}

func profileManager() (*config.FileProfileManager, error) {
	dir, err := config.DefaultDir()
	if err != nil {
		return nil, err
	}
	return config.NewFileProfileManager(dir), nil
}

func runConfigSave(cmd *cobra.Command, args []string) error {
	manager, err := profileManager()
	if err != nil {
		return err
	}

	profile := config.Profile{
		Command:        saveCommand,
		Args:           saveArgs,
		Term:           saveTerm,
		Rows:           saveRows,
		Cols:           saveCols,
		TranscriptSize: saveTranscriptSize,
	}
	if err := manager.Save(args[0], profile); err != nil {
		return err
	}

	fmt.Printf("Profile '%s' saved\n", args[0])
	if verbose {
		fmt.Printf("  Stored in %s\n", manager.Path())
	}
	return nil
}

func runConfigList(cmd *cobra.Command, args []string) error {
	manager, err := profileManager()
	if err != nil {
		return err
	}

	infos, err := manager.List()
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Println("No saved profiles.")
		return nil
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tCOMMAND\tSIZE\tLAST USED")
	for _, info := range infos {
		command := info.Profile.Command
		if command == "" {
			command = "$SHELL"
		}
		fmt.Fprintf(w, "%s\t%s\t%dx%d\t%s\n",
			info.Name, command,
			info.Profile.Rows, info.Profile.Cols,
			info.LastUsedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	manager, err := profileManager()
	if err != nil {
		return err
	}

	profile, err := manager.Load(args[0])
	if err != nil {
		return err
	}

	command := profile.Command
	if command == "" {
		command = "$SHELL"
	}
	fmt.Printf("Profile: %s\n", args[0])
	fmt.Printf("  Command: %s\n", command)
	if len(profile.Args) > 0 {
		fmt.Printf("  Args: %v\n", profile.Args)
	}
	if profile.Term != "" {
		fmt.Printf("  Term: %s\n", profile.Term)
	}
	fmt.Printf("  Size: %dx%d\n", profile.Rows, profile.Cols)
	if profile.TranscriptSize > 0 {
		fmt.Printf("  Transcript: %d bytes\n", profile.TranscriptSize)
	}
	return nil
}

func runConfigDelete(cmd *cobra.Command, args []string) error {
	manager, err := profileManager()
	if err != nil {
		return err
	}
	if err := manager.Delete(args[0]); err != nil {
		return err
	}
	fmt.Printf("Profile '%s' deleted\n", args[0])
	return nil
}
