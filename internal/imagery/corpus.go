package imagery

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/spotthefake/internal/domain"
	"golang.org/x/sync/singleflight"
)

// DefaultCorpusRefresh is how long a directory listing is reused.
const DefaultCorpusRefresh = time.Minute

var corpusExtensions = []string{".jpg", ".jpeg", ".png"}

// DirCorpus serves real images from a directory. The listing is cached and
// re-read at most once per refresh interval; concurrent refreshes collapse into
// one directory scan.
type DirCorpus struct {
	dir     string
	clock   clockwork.Clock
	refresh time.Duration
	group   singleflight.Group

	mu       sync.RWMutex
	files    []string
	listedAt time.Time
	listed   bool
}

var _ domain.Corpus = (*DirCorpus)(nil)

func NewDirCorpus(dir string, clock clockwork.Clock, refresh time.Duration) *DirCorpus {
	return &DirCorpus{dir: dir, clock: clock, refresh: refresh}
}

func (c *DirCorpus) Size(ctx context.Context) (int, error) {
	files, err := c.list(ctx)
	if err != nil {
		return 0, err
	}
	return len(files), nil
}

func (c *DirCorpus) PickRandom(ctx context.Context, intn func(n int) int) (image.Image, error) {
	files, err := c.list(ctx)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no images in %s", domain.ErrEmptyCorpus, c.dir)
	}

	path := files[intn(len(files))]
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus image %s: %w", filepath.Base(path), err)
	}
	return img, nil
}

func (c *DirCorpus) list(ctx context.Context) ([]string, error) {
	c.mu.RLock()
	if c.listed && c.clock.Since(c.listedAt) < c.refresh {
		files := c.files
		c.mu.RUnlock()
		return files, nil
	}
	c.mu.RUnlock()

	ch := c.group.DoChan("list", func() (any, error) {
		files, err := scanCorpusDir(c.dir)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.files = files
		c.listedAt = c.clock.Now()
		c.listed = true
		c.mu.Unlock()
		return files, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]string), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func scanCorpusDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s does not exist", domain.ErrEmptyCorpus, dir)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list corpus dir: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if slices.Contains(corpusExtensions, ext) {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	slices.Sort(files)
	return files, nil
}
