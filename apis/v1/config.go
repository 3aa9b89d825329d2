// Package v1 holds the schema of the instant configuration file.
package v1

// Config is the root of an instant configuration file.
//
//	kind: Config
//	server:
//	  port: 8080
//	  production: true
//	  static_dir: ./static
//	transfer:
//	  data_dir: ${HOME}/.instant
//	output:
//	  archive:
//	    format: zip
//	  sink:
//	    filesystem:
//	      path: ./downloads
type Config struct {
	Kind     string       `yaml:"kind" json:"kind" validate:"omitempty,eq=Config"`
	Server   ServerSpec   `yaml:"server" json:"server"`
	Transfer TransferSpec `yaml:"transfer" json:"transfer"`
	Output   OutputSpec   `yaml:"output" json:"output"`
	Stats    *StatsSpec   `yaml:"stats,omitempty" json:"stats,omitempty"`
	Env      *EnvSpec     `yaml:"env,omitempty" json:"env,omitempty"`
}

// ServerSpec configures `instant serve`.
type ServerSpec struct {
	Host       string `yaml:"host,omitempty" json:"host,omitempty" template:""`
	Port       int    `yaml:"port,omitempty" json:"port,omitempty" validate:"omitempty,min=1,max=65535"`
	Production bool   `yaml:"production,omitempty" json:"production,omitempty"`
	// StaticDir holds the compiled browser assets.
	StaticDir string `yaml:"static_dir,omitempty" json:"static_dir,omitempty" template:""`
	// BlobTTL is how long, in seconds, a finished archive stays downloadable.
	BlobTTL *int `yaml:"blob_ttl,omitempty" json:"blob_ttl,omitempty" validate:"omitempty,min=1"`
	// MaxUploadSize bounds the files of one upload, in bytes.
	MaxUploadSize *int64 `yaml:"max_upload_size,omitempty" json:"max_upload_size,omitempty" validate:"omitempty,min=1"`
	// LogLines bounds the log region of the page, 500 lines by default.
	LogLines  int            `yaml:"log_lines,omitempty" json:"log_lines,omitempty" validate:"min=0"`
	Templates *TemplatesSpec `yaml:"templates,omitempty" json:"templates,omitempty"`
}

// TemplatesSpec enables the server-rendered pages.
type TemplatesSpec struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	// Description is a markdown file shown above the form. Its front matter
	// may set the page title.
	Description string `yaml:"description,omitempty" json:"description,omitempty" template:""`
}

// TransferSpec configures the peer-to-peer client.
type TransferSpec struct {
	DataDir    string      `yaml:"data_dir,omitempty" json:"data_dir,omitempty" template:""`
	ListenPort int         `yaml:"listen_port,omitempty" json:"listen_port,omitempty" validate:"omitempty,min=1,max=65535"`
	NoUpload   bool        `yaml:"no_upload,omitempty" json:"no_upload,omitempty"`
	Trackers   []string    `yaml:"trackers,omitempty" json:"trackers,omitempty" template:"" validate:"dive,url"`
	Remote     *RemoteSpec `yaml:"remote,omitempty" json:"remote,omitempty"`
}

// RemoteSpec configures downloads of .torrent files named by URL.
type RemoteSpec struct {
	Headers  map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`
	Timeout  *int              `yaml:"timeout,omitempty" json:"timeout,omitempty" validate:"omitempty,min=1"`
	MaxSize  *int64            `yaml:"max_size,omitempty" json:"max_size,omitempty" validate:"omitempty,min=1"`
	Insecure bool              `yaml:"insecure,omitempty" json:"insecure,omitempty"`
}

// OutputSpec configures where `instant get` delivers the bundle archive.
type OutputSpec struct {
	Archive *ArchiveSpec `yaml:"archive,omitempty" json:"archive,omitempty"`
	Sink    *SinkSpec    `yaml:"sink,omitempty" json:"sink,omitempty"`
}

type ArchiveSpec struct {
	// Format is one of zip (default), tar, tar.gz or tar.zst.
	Format string `yaml:"format,omitempty" json:"format,omitempty" validate:"omitempty,oneof=zip tar tar.gz tar.zst"`
	// Name overrides the archive base name, which defaults to the torrent name.
	Name string `yaml:"name,omitempty" json:"name,omitempty" template:""`
}

// SinkSpec selects the destination (one of the fields should be set).
type SinkSpec struct {
	Stdout     *StdoutSinkSpec     `yaml:"stdout,omitempty" json:"stdout,omitempty"`
	Filesystem *FilesystemSinkSpec `yaml:"filesystem,omitempty" json:"filesystem,omitempty"`
	S3         *S3SinkSpec         `yaml:"s3,omitempty" json:"s3,omitempty"`
}

type StdoutSinkSpec struct{}

type FilesystemSinkSpec struct {
	// Path defaults to the working directory.
	Path   *string `yaml:"path,omitempty" json:"path,omitempty" template:""`
	Prefix *string `yaml:"prefix,omitempty" json:"prefix,omitempty" template:""`
}

type S3SinkSpec struct {
	Bucket         string         `yaml:"bucket" json:"bucket" validate:"required" template:""`
	Region         *string        `yaml:"region,omitempty" json:"region,omitempty" template:""`
	Endpoint       *string        `yaml:"endpoint,omitempty" json:"endpoint,omitempty" template:""`
	Prefix         *string        `yaml:"prefix,omitempty" json:"prefix,omitempty" template:""`
	ForcePathStyle bool           `yaml:"force_path_style,omitempty" json:"force_path_style,omitempty"`
	Credentials    *S3Credentials `yaml:"credentials,omitempty" json:"credentials,omitempty"`
}

type S3Credentials struct {
	AccessKeyID     string `yaml:"access_key_id" json:"access_key_id" validate:"required" template:""`
	SecretAccessKey string `yaml:"secret_access_key" json:"secret_access_key" validate:"required" template:""`
}

// StatsSpec enables shared archive counters.
type StatsSpec struct {
	RedisURL string `yaml:"redis_url" json:"redis_url" validate:"required" template:""`
	Key      string `yaml:"key,omitempty" json:"key,omitempty"`
}

// EnvSpec controls which environment variables ${VAR} references may read.
type EnvSpec struct {
	Allowed []string `yaml:"allowed,omitempty" json:"allowed,omitempty"`
	// Files are dotenv files loaded before expansion.
	Files []string `yaml:"files,omitempty" json:"files,omitempty"`
}
