package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/parsedesk/parsedesk/bootstrap"
	"github.com/parsedesk/parsedesk/domain/schema"
)

var (
	addTypeDescription string
	addTypeResponse    string
	addTypeTransID     string
	addFieldStart      int
	addFieldLength     int
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add schema nodes",
}

var addTypeCmd = &cobra.Command{
	Use:   "type <name>",
	Short: "Add a message type",
	Args:  cobra.ExactArgs(1),
	RunE:  runAddType,
}

var addVersionCmd = &cobra.Command{
	Use:   "version <type> <version>",
	Short: "Add a version to a message type",
	Args:  cobra.ExactArgs(2),
	RunE:  runAddVersion,
}

var addFieldCmd = &cobra.Command{
	Use:   "field <type> <version> <name>",
	Short: "Add a field to a version",
	Long: `Add a field to a version of a message type.

--start is the zero-based byte offset of the field in the raw message.
--length is its width in bytes; -1 makes the field open-ended, running
to the end of the message.`,
	Args: cobra.ExactArgs(3),
	RunE: runAddField,
}

var addEscapeCmd = &cobra.Command{
	Use:   "escape <type> <version> <field> <key> <value>",
	Short: "Add an escape mapping to a field",
	Args:  cobra.ExactArgs(5),
	RunE:  runAddEscape,
}

var renameCmd = &cobra.Command{
	Use:   "rename",
	Short: "Rename schema nodes",
}

var renameTypeCmd = &cobra.Command{
	Use:   "type <old> <new>",
	Short: "Rename a message type",
	Args:  cobra.ExactArgs(2),
	RunE:  runRenameType,
}

var renameVersionCmd = &cobra.Command{
	Use:   "version <type> <old> <new>",
	Short: "Rename a version",
	Args:  cobra.ExactArgs(3),
	RunE:  runRenameVersion,
}

var renameFieldCmd = &cobra.Command{
	Use:   "field <type> <version> <old> <new>",
	Short: "Rename a field",
	Args:  cobra.ExactArgs(4),
	RunE:  runRenameField,
}

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete schema nodes",
}

var deleteTypeCmd = &cobra.Command{
	Use:   "type <name>",
	Short: "Delete a message type",
	Args:  cobra.ExactArgs(1),
	RunE:  runDeleteNode,
}

var deleteVersionCmd = &cobra.Command{
	Use:   "version <type> <version>",
	Short: "Delete a version",
	Args:  cobra.ExactArgs(2),
	RunE:  runDeleteNode,
}

var deleteFieldCmd = &cobra.Command{
	Use:   "field <type> <version> <name>",
	Short: "Delete a field",
	Args:  cobra.ExactArgs(3),
	RunE:  runDeleteNode,
}

var deleteEscapeCmd = &cobra.Command{
	Use:   "escape <type> <version> <field> <key>",
	Short: "Delete an escape mapping",
	Args:  cobra.ExactArgs(4),
	RunE:  runDeleteNode,
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the whole schema document for a namespace",
	RunE:  runClear,
}

var setCmd = &cobra.Command{
	Use:   "set <path> <value>",
	Short: "Set a schema attribute by dotted path",
	Long: `Set a single schema attribute addressed by a dotted path.

Paths follow the document structure:

  LoginReq.Description
  LoginReq.ResponseType
  LoginReq.TransIdPosition
  LoginReq.Versions.01.Fields.Status.Description
  LoginReq.Versions.01.Fields.Status.Escapes.00

Start and Length take integer values, everything else a string.`,
	Args: cobra.ExactArgs(2),
	RunE: runSet,
}

func init() {
	addTypeCmd.Flags().StringVar(&addTypeDescription, "description", "", "human readable description")
	addTypeCmd.Flags().StringVar(&addTypeResponse, "response-type", "", "name of the message type answering this one")
	addTypeCmd.Flags().StringVar(&addTypeTransID, "trans-id", "", "transaction id span as start,length")
	addFieldCmd.Flags().IntVar(&addFieldStart, "start", 0, "byte offset of the field")
	addFieldCmd.Flags().IntVar(&addFieldLength, "length", -1, "byte width, -1 for open-ended")

	addCmd.AddCommand(addTypeCmd, addVersionCmd, addFieldCmd, addEscapeCmd)
	renameCmd.AddCommand(renameTypeCmd, renameVersionCmd, renameFieldCmd)
	deleteCmd.AddCommand(deleteTypeCmd, deleteVersionCmd, deleteFieldCmd, deleteEscapeCmd)

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(renameCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(setCmd)
}

func runAddType(cmd *cobra.Command, args []string) error {
	ns, err := namespaceArg()
	if err != nil {
		return err
	}
	return withApp(func(a *bootstrap.App) error {
		if err := a.Editor.AddMessageType(context.Background(), ns, args[0], addTypeDescription, addTypeResponse, addTypeTransID); err != nil {
			return err
		}
		fmt.Printf("%s Added message type %s\n", checkMark, args[0])
		return nil
	})
}

func runAddVersion(cmd *cobra.Command, args []string) error {
	ns, err := namespaceArg()
	if err != nil {
		return err
	}
	return withApp(func(a *bootstrap.App) error {
		if err := a.Editor.AddVersion(context.Background(), ns, args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("%s Added version %s to %s\n", checkMark, args[1], args[0])
		return nil
	})
}

func runAddField(cmd *cobra.Command, args []string) error {
	ns, err := namespaceArg()
	if err != nil {
		return err
	}
	return withApp(func(a *bootstrap.App) error {
		if err := a.Editor.AddField(context.Background(), ns, args[0], args[1], args[2], addFieldStart, addFieldLength); err != nil {
			return err
		}
		fmt.Printf("%s Added field %s to %s/%s\n", checkMark, args[2], args[0], args[1])
		return nil
	})
}

func runAddEscape(cmd *cobra.Command, args []string) error {
	ns, err := namespaceArg()
	if err != nil {
		return err
	}
	return withApp(func(a *bootstrap.App) error {
		if err := a.Editor.AddEscape(context.Background(), ns, args[0], args[1], args[2], args[3], args[4]); err != nil {
			return err
		}
		fmt.Printf("%s Added escape %s=%q to %s/%s/%s\n", checkMark, args[3], args[4], args[0], args[1], args[2])
		return nil
	})
}

func runRenameType(cmd *cobra.Command, args []string) error {
	ns, err := namespaceArg()
	if err != nil {
		return err
	}
	return withApp(func(a *bootstrap.App) error {
		if err := a.Editor.RenameMessageType(context.Background(), ns, args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("%s Renamed message type %s to %s\n", checkMark, args[0], args[1])
		return nil
	})
}

func runRenameVersion(cmd *cobra.Command, args []string) error {
	ns, err := namespaceArg()
	if err != nil {
		return err
	}
	return withApp(func(a *bootstrap.App) error {
		if err := a.Editor.RenameVersion(context.Background(), ns, args[0], args[1], args[2]); err != nil {
			return err
		}
		fmt.Printf("%s Renamed version %s to %s in %s\n", checkMark, args[1], args[2], args[0])
		return nil
	})
}

func runRenameField(cmd *cobra.Command, args []string) error {
	ns, err := namespaceArg()
	if err != nil {
		return err
	}
	return withApp(func(a *bootstrap.App) error {
		if err := a.Editor.RenameField(context.Background(), ns, args[0], args[1], args[2], args[3]); err != nil {
			return err
		}
		fmt.Printf("%s Renamed field %s to %s in %s/%s\n", checkMark, args[2], args[3], args[0], args[1])
		return nil
	})
}

func runDeleteNode(cmd *cobra.Command, args []string) error {
	ns, err := namespaceArg()
	if err != nil {
		return err
	}

	ref := schema.NodeRef{Level: schema.LevelMessageType, MessageType: args[0]}
	switch cmd.Name() {
	case "version":
		ref.Level = schema.LevelVersion
		ref.Version = args[1]
	case "field":
		ref.Level = schema.LevelField
		ref.Version = args[1]
		ref.Field = args[2]
	case "escape":
		ref.Level = schema.LevelEscape
		ref.Version = args[1]
		ref.Field = args[2]
		ref.Escape = args[3]
	}

	return withApp(func(a *bootstrap.App) error {
		if err := a.Editor.Delete(context.Background(), ns, ref); err != nil {
			return err
		}
		fmt.Printf("%s Deleted %s %s\n", checkMark, ref.Level, args[len(args)-1])
		return nil
	})
}

func runClear(cmd *cobra.Command, args []string) error {
	ns, err := namespaceArg()
	if err != nil {
		return err
	}
	return withApp(func(a *bootstrap.App) error {
		if err := a.Editor.Clear(context.Background(), ns); err != nil {
			return err
		}
		fmt.Printf("%s Cleared schema document for %s\n", checkMark, ns)
		return nil
	})
}

func runSet(cmd *cobra.Command, args []string) error {
	ns, err := namespaceArg()
	if err != nil {
		return err
	}
	path, err := schema.ParsePath(args[0])
	if err != nil {
		return err
	}

	var value any = args[1]
	if path.Attr == schema.AttrStart || path.Attr == schema.AttrLength {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("%s takes an integer value: %w", path.Attr, err)
		}
		value = n
	}

	return withApp(func(a *bootstrap.App) error {
		if err := a.Editor.Update(context.Background(), ns, []schema.Patch{{Path: path, Value: value}}); err != nil {
			return err
		}
		fmt.Printf("%s Set %s\n", checkMark, args[0])
		return nil
	})
}
