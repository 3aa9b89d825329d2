// Package torrent adapts github.com/anacrolix/torrent to transfer.Client.
package torrent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	atorrent "github.com/anacrolix/torrent"
	"github.com/anacrolix/torrent/bencode"
	"github.com/anacrolix/torrent/metainfo"
	"github.com/instant-io/instant/internal/intake"
	"github.com/instant-io/instant/internal/transfer"
	"go.uber.org/zap"
)

// DefaultTrackers is the announce list new torrents are created with. The
// wss trackers are the ones browsers reach.
var DefaultTrackers = []string{
	"udp://tracker.leechers-paradise.org:6969",
	"udp://tracker.coppersurfer.tk:6969",
	"udp://tracker.opentrackr.org:1337",
	"udp://explodie.org:6969",
	"udp://tracker.empire-js.us:1337",
	"wss://tracker.btorrent.xyz",
	"wss://tracker.openwebtorrent.com",
	"wss://tracker.webtorrent.dev",
}

// DefaultPieceLength is the piece size of seeded torrents.
const DefaultPieceLength = 256 << 10

type Config struct {
	// DataDir holds downloaded and seeded content.
	DataDir string
	// ListenPort is the peer port; 0 picks a free one.
	ListenPort int
	Seed       bool
	NoUpload   bool
	Trackers   []string
}

type Client struct {
	client   *atorrent.Client
	dataDir  string
	trackers []string
	logger   *zap.Logger
}

var _ transfer.Client = (*Client)(nil)

func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.DataDir == "" {
		return nil, fmt.Errorf("data_dir is required")
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory '%s': %w", cfg.DataDir, err)
	}

	tc := atorrent.NewDefaultClientConfig()
	tc.DataDir = cfg.DataDir
	tc.Seed = cfg.Seed
	tc.NoUpload = cfg.NoUpload
	tc.ListenPort = cfg.ListenPort

	client, err := atorrent.NewClient(tc)
	if err != nil {
		return nil, fmt.Errorf("failed to create torrent client: %w", err)
	}

	trackers := cfg.Trackers
	if len(trackers) == 0 {
		trackers = DefaultTrackers
	}

	logger.Debug("torrent client started",
		zap.String("data_dir", cfg.DataDir),
		zap.Int("listen_port", cfg.ListenPort),
	)

	return &Client{
		client:   client,
		dataDir:  cfg.DataDir,
		trackers: trackers,
		logger:   logger,
	}, nil
}

func (c *Client) Add(ctx context.Context, magnetURI string) (transfer.Torrent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t, err := c.client.AddMagnet(magnetURI)
	if err != nil {
		return nil, fmt.Errorf("failed to add magnet: %w", err)
	}
	return c.download(t), nil
}

func (c *Client) AddDescriptor(ctx context.Context, r io.Reader) (transfer.Torrent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mi, err := metainfo.Load(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse torrent file: %w", err)
	}

	t, err := c.client.AddTorrent(mi)
	if err != nil {
		return nil, fmt.Errorf("failed to add torrent: %w", err)
	}
	return c.download(t), nil
}

// download starts fetching every file once the metadata arrives.
func (c *Client) download(t *atorrent.Torrent) *Torrent {
	t.AddTrackers([][]string{c.trackers})

	go func() {
		select {
		case <-t.GotInfo():
			t.DownloadAll()
		case <-t.Closed():
		}
	}()

	return &Torrent{t: t}
}

// Seed copies files into the data directory and seeds them as one torrent.
func (c *Client) Seed(ctx context.Context, name string, files []intake.File) (transfer.Torrent, error) {
	if len(files) == 0 {
		return nil, errors.New("no files to seed")
	}

	root := filepath.Join(c.dataDir, safeName(name))
	if len(files) > 1 {
		if err := os.MkdirAll(root, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create '%s': %w", root, err)
		}
	}

	names := uniqueNames(files)
	for i, f := range files {
		dst := root
		if len(files) > 1 {
			dst = filepath.Join(root, names[i])
		}
		if err := copyFile(ctx, dst, f); err != nil {
			return nil, err
		}
	}

	info := metainfo.Info{PieceLength: DefaultPieceLength}
	if err := info.BuildFromFilePath(root); err != nil {
		return nil, fmt.Errorf("failed to hash '%s': %w", root, err)
	}

	mi := &metainfo.MetaInfo{AnnounceList: [][]string{c.trackers}}
	mi.SetDefaults()
	infoBytes, err := bencode.Marshal(info)
	if err != nil {
		return nil, fmt.Errorf("failed to encode info: %w", err)
	}
	mi.InfoBytes = infoBytes

	t, err := c.client.AddTorrent(mi)
	if err != nil {
		return nil, fmt.Errorf("failed to add torrent: %w", err)
	}

	// Mark the local pieces complete so they are served straight away.
	if err := verify(t); err != nil {
		c.logger.Warn("failed to verify seeded data", zap.String("name", t.Name()), zap.Error(err))
	}

	c.logger.Info("seeding",
		zap.String("name", t.Name()),
		zap.String("info_hash", t.InfoHash().HexString()),
		zap.Int("files", len(files)),
	)

	return &Torrent{t: t}, nil
}

// verify hashes the torrent data. Its signature changed across releases.
func verify(t *atorrent.Torrent) error {
	switch v := any(t).(type) {
	case interface{ VerifyData() error }:
		return v.VerifyData()
	case interface{ VerifyData() }:
		v.VerifyData()
	}
	return nil
}

func (c *Client) Close() error {
	return errors.Join(c.client.Close()...)
}

func copyFile(ctx context.Context, dst string, f intake.File) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	src, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", f.Name, err)
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create '%s': %w", dst, err)
	}

	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy %s: %w", f.Name, err)
	}
	return out.Close()
}

// uniqueNames gives every file a distinct single-element name. Repeated
// names get a " (n)" suffix before the extension.
func uniqueNames(files []intake.File) []string {
	seen := make(map[string]bool, len(files))
	names := make([]string, len(files))
	for i, f := range files {
		name := safeName(f.Name)
		ext := filepath.Ext(name)
		stem := strings.TrimSuffix(name, ext)
		for n := 1; seen[name]; n++ {
			name = fmt.Sprintf("%s (%d)%s", stem, n, ext)
		}
		seen[name] = true
		names[i] = name
	}
	return names
}

// safeName reduces an uploaded name to a single path element.
func safeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	if name == "." || name == "/" || name == ".." || name == "" {
		return "unnamed"
	}
	return name
}
