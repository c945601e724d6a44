package version

import (
	"bytes"
	"runtime"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	t.Parallel()

	info := Get("ssm-publish")

	require.Equal(t, "ssm-publish", info.Tool)
	require.Equal(t, Short(), info.Version)
	require.Equal(t, runtime.Version(), info.GoVersion)
	require.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)

	line := info.String()
	require.Contains(t, line, "ssm-publish "+Short())
	require.Contains(t, line, "commit "+Commit)
	require.Contains(t, line, runtime.GOOS+"/"+runtime.GOARCH)
}

func TestAttachCobraVersionCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "full", args: []string{"version"}, want: Get("ssm-manifest").String() + "\n"},
		{name: "short", args: []string{"version", "--short"}, want: Short() + "\n"},
		{name: "short alias", args: []string{"version", "-s"}, want: Short() + "\n"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			root := &cobra.Command{Use: "ssm-manifest"}
			AttachCobraVersionCommand(root)

			var out bytes.Buffer

			root.SetOut(&out)
			root.SetArgs(tt.args)

			require.NoError(t, root.Execute())
			require.Equal(t, tt.want, out.String())
		})
	}
}

func TestVersionCommandRejectsArgs(t *testing.T) {
	t.Parallel()

	root := &cobra.Command{Use: "ssm-publish"}
	AttachCobraVersionCommand(root)

	root.SetOut(new(bytes.Buffer))
	root.SetErr(new(bytes.Buffer))
	root.SetArgs([]string{"version", "extra"})

	require.Error(t, root.Execute())
}
