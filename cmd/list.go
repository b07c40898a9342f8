package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/KaramelBytes/statsketch/internal/bundle"
	"github.com/KaramelBytes/statsketch/internal/utils"
	"github.com/spf13/cobra"
)

var (
	listBundles   bool
	listArtifacts bool
	listBundle    string
	listKind      string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List bundles or the artifacts in one",
	RunE: func(cmd *cobra.Command, args []string) error {
		if listBundles == listArtifacts { // either both true or both false
			return fmt.Errorf("specify exactly one of --bundles or --artifacts")
		}
		if listBundles {
			return listAllBundles()
		}
		dir, err := bundleDir(listBundle)
		if err != nil {
			return err
		}
		b, err := bundle.LoadBundle(dir)
		if err != nil {
			return err
		}
		arts := b.Artifacts
		if listKind != "" {
			arts = b.ByKind(listKind)
		}
		if len(arts) == 0 {
			fmt.Println("(no artifacts)")
			return nil
		}
		for _, a := range arts {
			fmt.Printf("- [%s] %s (%d bytes)", a.Kind, a.Path, a.Size)
			if a.Description != "" {
				fmt.Printf(": %s", a.Description)
			}
			fmt.Println()
		}
		return nil
	},
}

func listAllBundles() error {
	root, err := outputDir()
	if err != nil {
		return err
	}
	dirs, err := os.ReadDir(root)
	if errors.Is(err, fs.ErrNotExist) {
		fmt.Println("(no bundles)")
		return nil
	}
	if err != nil {
		return err
	}
	found := false
	for _, e := range dirs {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(root, e.Name(), utils.ManifestName)); err == nil {
			fmt.Printf("- %s\n", e.Name())
			found = true
		}
	}
	if !found {
		fmt.Println("(no bundles)")
	}
	return nil
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listBundles, "bundles", false, "list bundles under the output directory")
	listCmd.Flags().BoolVar(&listArtifacts, "artifacts", false, "list artifacts in a bundle")
	listCmd.Flags().StringVarP(&listBundle, "bundle", "b", "", "bundle name for --artifacts (default: the bundle containing the working directory)")
	listCmd.Flags().StringVar(&listKind, "kind", "", "with --artifacts, only this kind: report|chart|data")
}
