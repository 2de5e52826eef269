package parser

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// maxLineSize bounds a single input line. Dump lines of large methods can
// be long.
const maxLineSize = 1 << 20

// ParseError reports a malformed line of a checker source or dump file.
type ParseError struct {
	File string
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
}

func parseErrorf(file string, line int, format string, args ...any) *ParseError {
	return &ParseError{File: file, Line: line, Msg: fmt.Sprintf(format, args...)}
}

// Chunk is a group of items following a header line.
type Chunk[H, T any] struct {
	Header H
	Items  []T
	// Line is the line number of the header.
	Line int
}

// LineFunc inspects one trimmed, non-empty line. It returns an item to add
// to the current chunk, a header starting a new chunk, or neither.
type LineFunc[H, T any] func(line string, lineNo int) (item *T, header *H, err error)

// OutsideFunc is called for an item found before the first chunk.
type OutsideFunc func(line string, lineNo int) error

// SplitStream reads r line by line and groups the items produced by
// processLine into chunks. Lines are trimmed and empty lines skipped.
func SplitStream[H, T any](r io.Reader, processLine LineFunc[H, T], outside OutsideFunc) ([]Chunk[H, T], error) {
	var (
		chunks  []Chunk[H, T]
		current *Chunk[H, T]
		lineNo  int
	)

	scn := bufio.NewScanner(r)
	scn.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scn.Scan() {
		lineNo++
		line := strings.TrimSpace(scn.Text())
		if line == "" {
			continue
		}

		item, header, err := processLine(line, lineNo)
		if err != nil {
			return nil, err
		}
		if header != nil {
			chunks = append(chunks, Chunk[H, T]{Header: *header, Line: lineNo})
			current = &chunks[len(chunks)-1]
		}
		if item == nil {
			continue
		}
		if current == nil {
			if err := outside(line, lineNo); err != nil {
				return nil, err
			}
			continue
		}
		current.Items = append(current.Items, *item)
	}
	if err := scn.Err(); err != nil {
		return nil, fmt.Errorf("line %d: %w", lineNo+1, err)
	}
	return chunks, nil
}
