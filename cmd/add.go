package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/KaramelBytes/statsketch/internal/bundle"
	"github.com/spf13/cobra"
)

var (
	addBundle string
	addDesc   string
)

var addCmd = &cobra.Command{
	Use:   "add <file>",
	Short: "Copy a data file into a bundle",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file := args[0]
		dir, err := bundleDir(addBundle)
		if err != nil {
			return err
		}
		b, err := bundle.LoadBundle(dir)
		if err != nil {
			return err
		}
		_, existed := b.Artifact("data/" + filepath.Base(file))
		a, err := b.CopyArtifact(bundle.KindData, file, "data", addDesc)
		if err != nil {
			return err
		}
		if err := b.Save(); err != nil {
			return err
		}
		verb := "Added"
		if existed {
			verb = "Updated"
		}
		fmt.Printf("✓ %s %s in bundle '%s'\n", verb, a.Path, b.Name)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().StringVarP(&addBundle, "bundle", "b", "", "bundle name or directory (default: the bundle containing the working directory)")
	addCmd.Flags().StringVar(&addDesc, "desc", "", "file description")
}
