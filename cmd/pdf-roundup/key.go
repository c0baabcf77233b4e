package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pdf-roundup/internal/secrets"
)

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage the saved API key",
	Long: `The API key is stored in ~/.pdf_roundup/key.json, readable only by the
current user. "pdf-roundup run" prompts for it on first use when no key is
saved and none is passed with --api-key.`,
}

var keySetCmd = &cobra.Command{
	Use:   "set [key]",
	Short: "Save the API key (prompts when no key is given)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := keyPath()
		if err != nil {
			return err
		}

		var key string
		if len(args) == 1 {
			key = args[0]
		} else {
			p := secrets.LinePrompter{In: cmd.InOrStdin(), Out: cmd.ErrOrStderr()}
			if key, err = p.PromptKey(); err != nil {
				return &secrets.CredentialError{Err: fmt.Errorf("reading key: %w", err)}
			}
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return &secrets.CredentialError{Err: secrets.ErrNoKey}
		}

		if err := secrets.Write(path, key); err != nil {
			return &secrets.CredentialError{Path: path, Err: err}
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved API key to", path)
		return nil
	},
}

var keyPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the key file location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := keyPath()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var keyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the saved API key",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := keyPath()
		if err != nil {
			return err
		}
		if err := secrets.Remove(path); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Removed", path)
		return nil
	},
}

func init() {
	keyCmd.PersistentFlags().String("key-file", "", "key file location (default ~/.pdf_roundup/key.json)")
	keyCmd.AddCommand(keySetCmd, keyPathCmd, keyClearCmd)
	rootCmd.AddCommand(keyCmd)
}

// keyPath resolves the key file from --key-file, then the key-file config
// setting, then the default location.
func keyPath() (string, error) {
	if f := keyCmd.PersistentFlags().Lookup("key-file"); f != nil && f.Changed {
		return f.Value.String(), nil
	}
	if p := viper.GetString("key-file"); p != "" {
		return p, nil
	}
	return secrets.DefaultPath()
}
