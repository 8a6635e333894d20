// Package catalog loads the menu portion table from a YAML file. The file
// is re-read only when its modification time changes.
package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/domain"
)

type file struct {
	Items []domain.MenuPortion `yaml:"items"`
}

type Options struct {
	Path string
	// Stat and ReadFile default to the os package.
	Stat     func(name string) (fs.FileInfo, error)
	ReadFile func(name string) ([]byte, error)
	Now      func() time.Time
}

type Catalog struct {
	path     string
	stat     func(string) (fs.FileInfo, error)
	readFile func(string) ([]byte, error)
	now      func() time.Time

	mu       sync.Mutex
	modTime  time.Time
	loadedAt time.Time
	portions []domain.MenuPortion
}

func New(opts Options) *Catalog {
	c := &Catalog{
		path:     strings.TrimSpace(opts.Path),
		stat:     opts.Stat,
		readFile: opts.ReadFile,
		now:      opts.Now,
	}
	if c.stat == nil {
		c.stat = os.Stat
	}
	if c.readFile == nil {
		c.readFile = os.ReadFile
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Portions returns the current table. A missing file yields an empty table
// so usage falls back to name matching.
func (c *Catalog) Portions() ([]domain.MenuPortion, error) {
	if c.path == "" {
		return nil, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	info, err := c.stat(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		c.portions = nil
		c.modTime = time.Time{}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("stat menu catalog: %w", err)
	}
	if !c.loadedAt.IsZero() && info.ModTime().Equal(c.modTime) {
		return c.portions, nil
	}

	data, err := c.readFile(c.path)
	if err != nil {
		return nil, fmt.Errorf("read menu catalog: %w", err)
	}
	portions, err := Parse(data)
	if err != nil {
		return nil, err
	}

	c.portions = portions
	c.modTime = info.ModTime()
	c.loadedAt = c.now()
	return portions, nil
}

// LoadedAt reports when the table was last read from disk.
func (c *Catalog) LoadedAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadedAt
}

func Parse(data []byte) ([]domain.MenuPortion, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse menu catalog: %w", err)
	}
	for i, item := range f.Items {
		if strings.TrimSpace(item.SKU) == "" && strings.TrimSpace(item.Name) == "" {
			return nil, fmt.Errorf("menu catalog entry %d: sku or name required", i)
		}
		if item.Buns < 0 || item.MeatGrams < 0 || item.Drinks < 0 {
			return nil, fmt.Errorf("menu catalog entry %d: negative portion", i)
		}
	}
	return f.Items, nil
}
