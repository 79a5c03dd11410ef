package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/stwalsh4118/pfman/internal/graph"
)

var errAborted = eris.New("aborted")

var (
	schemaFile   string
	dropConfirm  bool
	resetConfirm bool
)

var installConstraintsCmd = &cobra.Command{
	Use:   "install-constraints",
	Short: "Create the graph constraints and indexes",
	Long:  "Creates every constraint and index of the schema that does not exist yet. Uses the built-in schema unless --schema-file is given.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		load := graph.DefaultSchema
		if schemaFile != "" {
			load = func() (*graph.Schema, error) { return graph.LoadSchema(schemaFile) }
		}
		schema, err := load()
		if err != nil {
			return err
		}

		return withStore(cmd.Context(), func(db graphStore) error {
			if err := graph.NewManager(db, log).InstallConstraints(cmd.Context(), schema); err != nil {
				return eris.Wrap(err, "install constraints")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Constraints installed successfully.")
			return nil
		})
	},
}

var dropConstraintsCmd = &cobra.Command{
	Use:   "drop-constraints",
	Short: "Drop every constraint and index",
	Long:  "Drops every constraint and index in the database. Requires the APOC plugin.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := confirm(cmd, dropConfirm,
			"This will drop all constraints and indexes in the Neo4j database. Are you sure?"); err != nil {
			return err
		}

		return withStore(cmd.Context(), func(db graphStore) error {
			if err := graph.NewManager(db, log).DropConstraints(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Constraints and indexes dropped successfully.")
			return nil
		})
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all data, constraints and indexes",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := confirm(cmd, resetConfirm,
			"This will delete all data in the Neo4j database. Are you sure?"); err != nil {
			return err
		}

		return withStore(cmd.Context(), func(db graphStore) error {
			if err := graph.NewManager(db, log).Reset(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Database reset successfully.")
			return nil
		})
	},
}

// confirm asks prompt on the command's input unless skip is set. Anything
// but "y" or "yes" returns errAborted.
func confirm(cmd *cobra.Command, skip bool, prompt string) error {
	if skip {
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N]: ", prompt)

	answer, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return eris.Wrap(err, "read confirmation")
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return nil
	}
	return errAborted
}

func init() {
	installConstraintsCmd.Flags().StringVar(&schemaFile, "schema-file", "", "YAML file with constraints and indexes to install")
	dropConstraintsCmd.Flags().BoolVarP(&dropConfirm, "yes", "y", false, "skip the confirmation prompt")
	resetCmd.Flags().BoolVarP(&resetConfirm, "yes", "y", false, "skip the confirmation prompt")

	rootCmd.AddCommand(installConstraintsCmd, dropConstraintsCmd, resetCmd)
}
