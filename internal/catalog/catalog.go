// Package catalog maps mission message names to message ids.
package catalog

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/derekparker/trie"
	"github.com/npillmayer/schuko/tracing"
	"gopkg.in/yaml.v3"

	"github.com/nasa/cFE-sub018/pkg/sb"
)

var (
	// ErrEmptyName is returned when an entry has no name
	ErrEmptyName = errors.New("message name cannot be empty")
	// ErrInvalidMsgID is returned when an entry's message id is out of range
	ErrInvalidMsgID = errors.New("invalid message id")
	// ErrDuplicateName is returned when a name is already in the catalog
	ErrDuplicateName = errors.New("duplicate message name")
	// ErrDuplicateMsgID is returned when a message id already has a name
	ErrDuplicateMsgID = errors.New("duplicate message id")
	// ErrUnknownName is returned when a name cannot be resolved
	ErrUnknownName = errors.New("unknown message name")
)

// tracer writes to trace with key 'sb.catalog'
func tracer() tracing.Trace {
	return tracing.Select("sb.catalog")
}

// Entry names one message id.
type Entry struct {
	Name        string   `yaml:"name"`
	MsgID       sb.MsgID `yaml:"msgid"`
	Description string   `yaml:"description,omitempty"`
}

type file struct {
	Messages []Entry `yaml:"messages"`
}

// Catalog is a set of named message ids with prefix search by name.
// It is not safe for concurrent modification.
type Catalog struct {
	valid sb.MsgIDRange
	names *trie.Trie
	byID  map[sb.MsgID]Entry
}

// New creates an empty catalog accepting ids in valid.
func New(valid sb.MsgIDRange) *Catalog {
	return &Catalog{
		valid: valid,
		names: trie.New(),
		byID:  make(map[sb.MsgID]Entry),
	}
}

// Load reads a YAML catalog of the form
//
//	messages:
//	  - name: CFE_SB_HK_TLM_MID
//	    msgid: 0x0803
func Load(r io.Reader, valid sb.MsgIDRange) (*Catalog, error) {
	var f file
	if err := yaml.NewDecoder(r).Decode(&f); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	c := New(valid)
	for _, entry := range f.Messages {
		if err := c.Add(entry); err != nil {
			return nil, err
		}
	}
	tracer().Debugf("loaded %d catalog entries", c.Len())
	return c, nil
}

// LoadFile reads a YAML catalog from path.
func LoadFile(path string, valid sb.MsgIDRange) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c, err := Load(f, valid)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Add inserts an entry. Names and ids must both be unique.
func (c *Catalog) Add(entry Entry) error {
	entry.Name = strings.TrimSpace(entry.Name)
	if entry.Name == "" {
		return ErrEmptyName
	}
	if !c.valid.IsValid(entry.MsgID) {
		return fmt.Errorf("%w: %s=%v", ErrInvalidMsgID, entry.Name, entry.MsgID)
	}
	if _, ok := c.names.Find(entry.Name); ok {
		return fmt.Errorf("%w: %s", ErrDuplicateName, entry.Name)
	}
	if other, ok := c.byID[entry.MsgID]; ok {
		return fmt.Errorf("%w: %v is already %s", ErrDuplicateMsgID, entry.MsgID, other.Name)
	}

	c.names.Add(entry.Name, entry)
	c.byID[entry.MsgID] = entry
	return nil
}

// Lookup returns the entry with the given name.
func (c *Catalog) Lookup(name string) (Entry, bool) {
	node, ok := c.names.Find(name)
	if !ok {
		return Entry{}, false
	}
	entry, ok := node.Meta().(Entry)
	return entry, ok
}

// Name returns the entry for a message id.
func (c *Catalog) Name(id sb.MsgID) (Entry, bool) {
	entry, ok := c.byID[id]
	return entry, ok
}

// Search returns the entries whose name starts with prefix, ordered by name.
func (c *Catalog) Search(prefix string) []Entry {
	keys := c.names.PrefixSearch(prefix)
	sort.Strings(keys)

	entries := make([]Entry, 0, len(keys))
	for _, key := range keys {
		if entry, ok := c.Lookup(key); ok {
			entries = append(entries, entry)
		}
	}
	return entries
}

// Resolve accepts a catalog name or a numeric message id (decimal or 0x hex).
func (c *Catalog) Resolve(s string) (sb.MsgID, error) {
	s = strings.TrimSpace(s)
	if entry, ok := c.Lookup(s); ok {
		return entry.MsgID, nil
	}

	n, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return sb.InvalidMsgID, fmt.Errorf("%w: %q", ErrUnknownName, s)
	}
	id := sb.MsgID(n)
	if !c.valid.IsValid(id) {
		return sb.InvalidMsgID, fmt.Errorf("%w: %v", ErrInvalidMsgID, id)
	}
	return id, nil
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return len(c.byID)
}
