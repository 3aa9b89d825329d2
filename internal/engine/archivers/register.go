package archivers

import "github.com/instant-io/instant/internal/engine"

// Archive format names accepted in configuration and on the command line.
const (
	FormatZip    = "zip"
	FormatTar    = "tar"
	FormatTarGz  = "tar.gz"
	FormatTarZst = "tar.zst"
)

// Register adds every built-in archive format to the registry.
func Register(r *engine.Registry) {
	r.RegisterArchiver(FormatZip, NewZipArchiver)
	r.RegisterArchiver(FormatTar, tarFactory(CompressionNone))
	r.RegisterArchiver(FormatTarGz, tarFactory(CompressionGzip))
	r.RegisterArchiver(FormatTarZst, tarFactory(CompressionZstd))
}

func tarFactory(compression CompressionType) engine.ArchiverFactory {
	return func() (engine.Archiver, error) {
		return NewTarArchiver(string(compression))
	}
}
