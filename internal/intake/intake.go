// Package intake turns the three ways a user names a transfer (a typed
// identifier, a share-link fragment and dropped files) into calls on a
// Dispatcher.
package intake

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/instant-io/instant/internal/ui"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// DescriptorExtension marks a dropped file as a transfer descriptor.
const DescriptorExtension = ".torrent"

// File is a file handed over by the user.
type File struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

// Dispatcher starts transfers. It returns the info hash of the started
// transfer.
type Dispatcher interface {
	StartTransfer(ctx context.Context, id string) (string, error)
	StartTransferFromDescriptor(ctx context.Context, descriptor File) (string, error)
	Share(ctx context.Context, files []File) (string, error)
}

// IsDescriptor reports whether name carries the descriptor extension, in any
// letter case.
func IsDescriptor(name string) bool {
	return strings.EqualFold(path.Ext(name), DescriptorExtension)
}

type Intake struct {
	dispatcher Dispatcher
	ui         ui.Sink
	logger     *zap.Logger
}

func New(dispatcher Dispatcher, sink ui.Sink, logger *zap.Logger) *Intake {
	return &Intake{
		dispatcher: dispatcher,
		ui:         sink,
		logger:     logger,
	}
}

// Submit starts a transfer for a form value. A value that is empty after
// trimming is ignored and Submit returns false.
func (in *Intake) Submit(ctx context.Context, value string) (bool, string, error) {
	id := strings.TrimSpace(value)
	if id == "" {
		in.logger.Debug("ignoring empty identifier")
		return false, "", nil
	}

	hash, err := in.dispatcher.StartTransfer(ctx, id)
	if err != nil {
		return true, "", in.fail(fmt.Errorf("failed to start transfer for %s: %w", id, err))
	}
	return true, hash, nil
}

// Fragment starts a transfer for the fragment of a share link, with or
// without its leading '#'.
func (in *Intake) Fragment(ctx context.Context, fragment string) (bool, string, error) {
	id, err := decodeFragment(fragment)
	if err != nil {
		return false, "", in.fail(err)
	}
	return in.Submit(ctx, id)
}

// Drop starts one transfer per descriptor file and shares all other files
// together as one new transfer. A failure is reported and the rest of the
// drop still goes ahead. It returns the info hashes started, in the order the
// dispatcher returned them, and every failure joined.
func (in *Intake) Drop(ctx context.Context, files []File) ([]string, error) {
	content, descriptors := lo.FilterReject(files, func(f File, _ int) bool {
		return !IsDescriptor(f.Name)
	})

	in.logger.Debug("files dropped",
		zap.Int("descriptors", len(descriptors)),
		zap.Int("content", len(content)),
	)

	var (
		hashes []string
		errs   []error
	)
	for _, descriptor := range descriptors {
		hash, err := in.dispatcher.StartTransferFromDescriptor(ctx, descriptor)
		if err != nil {
			errs = append(errs, in.fail(fmt.Errorf("failed to open %s: %w", descriptor.Name, err)))
			continue
		}
		hashes = append(hashes, hash)
	}

	if len(content) > 0 {
		hash, err := in.dispatcher.Share(ctx, content)
		if err != nil {
			errs = append(errs, in.fail(fmt.Errorf("failed to share %d files: %w", len(content), err)))
		} else {
			hashes = append(hashes, hash)
		}
	}

	return hashes, errors.Join(errs...)
}

func (in *Intake) fail(err error) error {
	in.ui.Error(err)
	return err
}

// FragmentOf extracts the still escaped fragment of a share link such as
// "https://instant.io/#<hash>", ready for Fragment. ok is false when rawURL
// has no fragment.
func FragmentOf(rawURL string) (fragment string, ok bool) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Fragment == "" {
		return "", false
	}
	return strings.TrimSpace(u.EscapedFragment()), true
}

func decodeFragment(fragment string) (string, error) {
	decoded, err := url.PathUnescape(strings.TrimPrefix(fragment, "#"))
	if err != nil {
		return "", fmt.Errorf("invalid link fragment %q: %w", fragment, err)
	}
	return strings.TrimSpace(decoded), nil
}
