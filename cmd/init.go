package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/KaramelBytes/statsketch/internal/bundle"
	"github.com/KaramelBytes/statsketch/internal/utils"
	"github.com/spf13/cobra"
)

var (
	initSource string
)

var initCmd = &cobra.Command{
	Use:   "init <bundle-name>",
	Short: "Initialize an empty report bundle",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := resolveBundleDir(args[0])
		if err != nil {
			return err
		}
		// Refuse to overwrite an existing bundle.
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			if _, err := os.Stat(filepath.Join(dir, utils.ManifestName)); err == nil {
				return fmt.Errorf("bundle already exists at %s", dir)
			}
			entries, err := os.ReadDir(dir)
			if err != nil {
				return fmt.Errorf("inspect bundle directory: %w", err)
			}
			if len(entries) > 0 {
				return fmt.Errorf("directory %s already exists and is not empty; refusing to initialize bundle", dir)
			}
		} else if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("stat bundle directory: %w", err)
		}
		b := bundle.NewBundle(filepath.Base(dir), initSource, dir)
		if err := b.Save(); err != nil {
			return err
		}
		fmt.Printf("✓ Bundle initialized: %s\n", dir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVar(&initSource, "source", "", "data file the bundle describes")
}
