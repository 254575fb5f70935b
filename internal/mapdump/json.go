package mapdump

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sugawarayuuta/sonnet"
)

// Document is the file layout written by JSONSink.
type Document struct {
	Header  Header   `json:"header"`
	Records []Record `json:"records"`
	Summary Summary  `json:"summary"`
}

// JSONSink buffers a dump and writes it as one JSON document when the dump ends.
// The file is replaced atomically.
type JSONSink struct {
	path string
	doc  Document
}

// NewJSONSink creates a sink writing to path.
func NewJSONSink(path string) *JSONSink {
	return &JSONSink{path: path}
}

// Path returns the output file path.
func (s *JSONSink) Path() string {
	return s.path
}

func (s *JSONSink) Begin(ctx context.Context, header Header) error {
	s.doc = Document{Header: header, Records: []Record{}}
	return nil
}

func (s *JSONSink) Write(ctx context.Context, record Record) error {
	s.doc.Records = append(s.doc.Records, record)
	return nil
}

func (s *JSONSink) End(ctx context.Context, summary Summary) error {
	s.doc.Summary = summary

	data, err := sonnet.Marshal(s.doc)
	if err != nil {
		return fmt.Errorf("failed to encode dump: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create dump file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write dump file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close dump file: %w", err)
	}
	return os.Rename(tmp.Name(), s.path)
}

// Abort drops the buffered dump. Any existing file is left untouched.
func (s *JSONSink) Abort(ctx context.Context) error {
	s.doc = Document{}
	return nil
}

// ReadJSON loads a document written by JSONSink.
func ReadJSON(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := sonnet.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode dump %s: %w", path, err)
	}
	return &doc, nil
}
