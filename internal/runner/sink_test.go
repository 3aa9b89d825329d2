package runner

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	v1 "github.com/instant-io/instant/apis/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSink(t *testing.T) {
	t.Run("stdout", func(t *testing.T) {
		var buf bytes.Buffer
		sink, err := buildSink(t.Context(), v1.OutputSpec{Sink: &v1.SinkSpec{Stdout: &v1.StdoutSinkSpec{}}}, &buf)
		require.NoError(t, err)
		assert.Equal(t, "stream", sink.Kind())

		require.NoError(t, sink.Write(t.Context(), "a.zip", strings.NewReader("zip")))
		assert.Equal(t, "zip", buf.String())
	})

	t.Run("filesystem with prefix", func(t *testing.T) {
		dir := t.TempDir()
		prefix := "downloads"
		sink, err := buildSink(t.Context(), v1.OutputSpec{Sink: &v1.SinkSpec{
			Filesystem: &v1.FilesystemSinkSpec{Path: &dir, Prefix: &prefix},
		}}, nil)
		require.NoError(t, err)
		assert.Equal(t, "filesystem", sink.Kind())

		require.NoError(t, sink.Write(t.Context(), "a.zip", strings.NewReader("zip")))
		data, err := os.ReadFile(filepath.Join(dir, prefix, "a.zip"))
		require.NoError(t, err)
		assert.Equal(t, "zip", string(data))
	})

	t.Run("defaults to the working directory", func(t *testing.T) {
		dir := t.TempDir()
		t.Chdir(dir)

		sink, err := buildSink(t.Context(), v1.OutputSpec{}, nil)
		require.NoError(t, err)
		require.NoError(t, sink.Write(t.Context(), "a.zip", strings.NewReader("zip")))
		assert.FileExists(t, filepath.Join(dir, "a.zip"))
	})

	t.Run("s3 with static credentials", func(t *testing.T) {
		region := "eu-west-1"
		endpoint := "http://localhost:9000"
		sink, err := buildSink(t.Context(), v1.OutputSpec{Sink: &v1.SinkSpec{S3: &v1.S3SinkSpec{
			Bucket:         "archives",
			Region:         &region,
			Endpoint:       &endpoint,
			ForcePathStyle: true,
			Credentials:    &v1.S3Credentials{AccessKeyID: "id", SecretAccessKey: "secret"},
		}}}, nil)
		require.NoError(t, err)
		assert.Equal(t, "s3", sink.Kind())
	})

	t.Run("empty sink section", func(t *testing.T) {
		_, err := buildSink(t.Context(), v1.OutputSpec{Sink: &v1.SinkSpec{}}, nil)
		assert.ErrorContains(t, err, "no sink type specified")
	})
}
