// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datastudies/coursekit/pkg/versions"
)

//nolint:paralleltest // NewRootCmd binds flags on the global viper instance
func TestRootCmd_Subcommands(t *testing.T) {
	root := NewRootCmd()

	names := make([]string, 0, len(root.Commands()))
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "reddit")
	assert.Contains(t, names, "version")

	reddit, _, err := root.Find([]string{"reddit", "check"})
	require.NoError(t, err)
	assert.Equal(t, "check", reddit.Name())
	assert.NotNil(t, reddit.Flags().Lookup("decoder"))
	assert.NotNil(t, reddit.Flags().Lookup("subreddit"))
	assert.NotNil(t, reddit.InheritedFlags().Lookup("config"))
	assert.NotNil(t, reddit.InheritedFlags().Lookup("ca-bundle"))

	encrypt, _, err := root.Find([]string{"reddit", "encrypt"})
	require.NoError(t, err)
	assert.NotNil(t, encrypt.Flags().Lookup("store-key"))

	register, _, err := root.Find([]string{"reddit", "register"})
	require.NoError(t, err)
	assert.NotNil(t, register.Flags().Lookup("no-browser"))
}

//nolint:paralleltest // NewRootCmd binds flags on the global viper instance
func TestVersionCmd(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		root := NewRootCmd()
		var out bytes.Buffer
		root.SetOut(&out)
		root.SetArgs([]string{"version"})
		require.NoError(t, root.Execute())

		info := versions.GetVersionInfo()
		assert.Contains(t, out.String(), "coursekit "+info.Version)
		assert.Contains(t, out.String(), "Platform: "+info.Platform)
	})

	t.Run("json", func(t *testing.T) {
		root := NewRootCmd()
		var out bytes.Buffer
		root.SetOut(&out)
		root.SetArgs([]string{"version", "--json"})
		require.NoError(t, root.Execute())

		var got versions.VersionInfo
		require.NoError(t, json.Unmarshal(out.Bytes(), &got))
		assert.Equal(t, versions.GetVersionInfo(), got)
	})
}
