// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"syscall"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/datastudies/coursekit/pkg/config"
	"github.com/datastudies/coursekit/pkg/connect"
	"github.com/datastudies/coursekit/pkg/credentials"
	"github.com/datastudies/coursekit/pkg/credentials/keyring"
	"github.com/datastudies/coursekit/pkg/logger"
	"github.com/datastudies/coursekit/pkg/reddit"
)

func newRedditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reddit",
		Short: "Manage Reddit API access",
	}

	cmd.PersistentFlags().String("config", "",
		"Path to the encrypted credentials file (defaults to the XDG config location)")
	if err := viper.BindPFlag("config", cmd.PersistentFlags().Lookup("config")); err != nil {
		logger.Errorf("Error binding config flag: %v", err)
	}
	cmd.PersistentFlags().String("ca-bundle", "", "Extra PEM CA bundle to trust for Reddit API calls")
	if err := viper.BindPFlag("ca-bundle", cmd.PersistentFlags().Lookup("ca-bundle")); err != nil {
		logger.Errorf("Error binding ca-bundle flag: %v", err)
	}

	cmd.AddCommand(newRedditCheckCmd())
	cmd.AddCommand(newRedditEncryptCmd())
	cmd.AddCommand(newRedditRegisterCmd())
	return cmd
}

func newRedditCheckCmd() *cobra.Command {
	var subreddit string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Connect to Reddit and report the access level",
		Long: `Resolve Reddit credentials, log in when possible and fetch one post to
prove the connection works. Credentials are read from REDDIT_USERNAME and
REDDIT_PASSWORD first, then from the encrypted config file.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			decoder, err := credentials.NewDecoder(credentials.DecoderType(viper.GetString("decoder")))
			if err != nil {
				return err
			}

			r := connect.NewResolver(
				connect.WithSources(connect.DefaultSources(viper.GetString("config"), decoder)...),
				connect.WithClientOptions(reddit.Options{CABundle: viper.GetString("ca-bundle")}),
				connect.WithProbeSubreddit(subreddit),
				connect.WithHintWriter(cmd.ErrOrStderr()),
			)
			return runCheck(cmd.Context(), cmd.OutOrStdout(), r)
		},
	}

	cmd.Flags().String("decoder", string(credentials.FernetDecoderType),
		"How the encrypted config fields are decoded (fernet, base64)")
	if err := viper.BindPFlag("decoder", cmd.Flags().Lookup("decoder")); err != nil {
		logger.Errorf("Error binding decoder flag: %v", err)
	}
	cmd.Flags().StringVar(&subreddit, "subreddit", connect.DefaultProbeSubreddit,
		"Subreddit used for the connection test")

	return cmd
}

// resolver is the part of *connect.Resolver the check command needs.
type resolver interface {
	Resolve(ctx context.Context) (*connect.Result, error)
}

func runCheck(ctx context.Context, out io.Writer, r resolver) error {
	res, err := r.Resolve(ctx)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(out, "Connected to Reddit (%s)\n", res.Mode)

	source := res.Source
	if source == "" {
		source = "none"
	}

	table := tablewriter.NewWriter(out)
	table.Options(
		tablewriter.WithHeader([]string{"Setting", "Value"}),
		tablewriter.WithAlignment(tw.MakeAlign(2, tw.AlignLeft)),
	)
	rows := [][]string{
		{"Mode", string(res.Mode)},
		{"Rate limit", fmt.Sprintf("%d requests/minute", res.RateLimit)},
		{"Credentials", source},
		{"Test post", fmt.Sprintf("%s (r/%s)", res.Probe.Title, res.Probe.Subreddit)},
	}
	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return fmt.Errorf("failed to append row: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	return nil
}

func newRedditEncryptCmd() *cobra.Command {
	var (
		username string
		storeKey bool
	)

	cmd := &cobra.Command{
		Use:   "encrypt",
		Short: "Write an encrypted credentials file",
		Long: `Prompt for a Reddit username and password and store them encrypted with a
newly generated Fernet key. The key is written next to the credentials unless
--store-key is given, in which case it goes to the OS keyring.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := bufio.NewReader(cmd.InOrStdin())
			if username == "" {
				_, _ = fmt.Fprint(cmd.OutOrStdout(), "Reddit username: ")
				line, err := in.ReadString('\n')
				if err != nil && !errors.Is(err, io.EOF) {
					return fmt.Errorf("failed to read username: %w", err)
				}
				username = strings.TrimSpace(line)
			}

			password, err := readPassword(cmd.OutOrStdout(), in, int(syscall.Stdin))
			if err != nil {
				return err
			}

			var keys keyring.Provider
			if storeKey {
				keys = keyring.NewSystemProvider()
			}

			path, err := writeEncryptedConfig(viper.GetString("config"), username, password, keys)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Encrypted credentials written to %s\n", path)
			if storeKey {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Encryption key stored in the %s keyring\n", keys.Name())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Reddit username (prompted when empty)")
	cmd.Flags().BoolVar(&storeKey, "store-key", false, "Store the encryption key in the OS keyring")

	return cmd
}

// AppPreferencesURL is where Reddit script apps (client id and secret) are created.
const AppPreferencesURL = "https://www.reddit.com/prefs/apps"

// openURL is replaced in tests.
var openURL = browser.OpenURL

func newRedditRegisterCmd() *cobra.Command {
	var skipBrowser bool

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Open the Reddit page for creating an API client id",
		Long: `Open Reddit's app preferences page, where a "script" app provides the client
id and secret. Put them in the encrypted config file as client_id and
client_secret, or build coursekit with them set as defaults.`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			openAppPreferences(cmd.OutOrStdout(), skipBrowser)
			printIdentityHint(cmd.OutOrStdout(), viper.GetString("config"))
		},
	}

	cmd.Flags().BoolVar(&skipBrowser, "no-browser", false, "Print the URL instead of opening a browser")
	return cmd
}

func openAppPreferences(out io.Writer, skipBrowser bool) {
	if !skipBrowser {
		logger.Infof("Opening browser to: %s", AppPreferencesURL)
		err := openURL(AppPreferencesURL)
		if err == nil {
			return
		}
		logger.Warnf("Failed to open browser: %v", err)
	}
	_, _ = fmt.Fprintf(out, "Please open this URL in your browser: %s\n", AppPreferencesURL)
}

// printIdentityHint tells the user which file takes the new client id.
func printIdentityHint(out io.Writer, path string) {
	if path == "" {
		var err error
		if path, err = config.DefaultEncryptedConfigPath(); err != nil {
			logger.Debugf("could not determine default config path: %v", err)
			path = "the encrypted config file"
		}
	}
	_, _ = fmt.Fprintf(out, "Add client_id and client_secret from the new app to %s\n", path)
}

// readPassword reads without echo when fd is a terminal, or a single line
// from in when input is piped.
func readPassword(out io.Writer, in *bufio.Reader, fd int) (string, error) {
	if term.IsTerminal(fd) {
		_, _ = fmt.Fprint(out, "Reddit password (input will be hidden): ")
		value, err := term.ReadPassword(fd)
		_, _ = fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("failed to read password from terminal: %w", err)
		}
		return string(value), nil
	}

	line, err := in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r"), nil
}

// writeEncryptedConfig encrypts the pair under a fresh key and saves it to
// path. With keys set, the key goes to the keyring instead of the file.
// Identity fields of an existing file are kept.
func writeEncryptedConfig(path, username, password string, keys keyring.Provider) (string, error) {
	if username == "" || password == "" {
		return "", errors.New("username and password are required")
	}

	cfg := &config.EncryptedConfig{}
	existing, err := config.LoadEncryptedConfig(path)
	switch {
	case err == nil:
		cfg.ClientConfig = existing.ClientConfig
	case errors.Is(err, config.ErrEncryptedConfigNotFound):
	default:
		logger.Warnf("Ignoring unreadable encrypted config: %v", err)
	}

	key, err := credentials.GenerateKey()
	if err != nil {
		return "", err
	}
	if cfg.EncryptedUsername, err = credentials.Encrypt(username, key); err != nil {
		return "", err
	}
	if cfg.EncryptedPassword, err = credentials.Encrypt(password, key); err != nil {
		return "", err
	}

	if keys == nil {
		cfg.EncryptionKey = key
		return config.SaveEncryptedConfig(path, cfg)
	}

	prevKey, prevErr := keys.Get(keyring.Service, keyring.EncryptionKeyName)
	if err := keys.Set(keyring.Service, keyring.EncryptionKeyName, key); err != nil {
		return "", err
	}

	saved, err := config.SaveEncryptedConfig(path, cfg)
	if err != nil {
		// the old file still needs the old key
		restoreKey(keys, prevKey, prevErr)
		return "", err
	}
	return saved, nil
}

// restoreKey puts back the keyring entry seen before a failed write.
func restoreKey(keys keyring.Provider, prevKey string, prevErr error) {
	var err error
	switch {
	case prevErr == nil:
		err = keys.Set(keyring.Service, keyring.EncryptionKeyName, prevKey)
	case errors.Is(prevErr, keyring.ErrNotFound):
		err = keys.Delete(keyring.Service, keyring.EncryptionKeyName)
	default:
		logger.Warnf("Encryption key in %s keyring may no longer match the config file: %v", keys.Name(), prevErr)
		return
	}
	if err != nil {
		logger.Warnf("Failed to restore encryption key in %s keyring: %v", keys.Name(), err)
	}
}
