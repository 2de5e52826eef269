package parser

import (
	"fmt"
	"io"
	"os"
	"regexp"

	tt "github.com/gnolang/tcheck/internal/types"
)

var (
	methodRegex = regexp.MustCompile(`^method\s+"(.*)"$`)
	nameRegex   = regexp.MustCompile(`^name\s+"(.*)"$`)
)

type c1State int

const (
	outsideBlock c1State = iota
	insideCompilation
	startingCfg
	insideCfg
)

type dumpLine struct {
	text   string
	lineNo int
}

// ParseC1File parses a c1visualizer dump file.
func ParseC1File(path string) (*tt.DumpFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}
	defer f.Close()
	return ParseC1Stream(path, f)
}

// ParseC1Stream parses a c1visualizer dump read from r.
//
// Each cfg block becomes a pass named after the method of the enclosing
// compilation block and the cfg name, separated by a space. The pass body
// is every line of the block after its name.
func ParseC1Stream(fileName string, r io.Reader) (*tt.DumpFile, error) {
	var (
		state  = outsideBlock
		method string
	)

	processLine := func(line string, lineNo int) (*dumpLine, *string, error) {
		switch state {
		case startingCfg:
			m := nameRegex.FindStringSubmatch(line)
			if m == nil {
				return nil, nil, parseErrorf(fileName, lineNo, "expected pass name after begin_cfg")
			}
			state = insideCfg
			name := method + " " + m[1]
			return nil, &name, nil

		case insideCfg:
			if line == "end_cfg" {
				state = outsideBlock
				return nil, nil, nil
			}
			return &dumpLine{text: line, lineNo: lineNo}, nil, nil

		case insideCompilation:
			if line == "end_compilation" {
				state = outsideBlock
				return nil, nil, nil
			}
			if m := methodRegex.FindStringSubmatch(line); m != nil {
				if m[1] == "" {
					return nil, nil, parseErrorf(fileName, lineNo, "empty method name")
				}
				method = m[1]
			}
			return nil, nil, nil

		default:
			switch line {
			case "begin_compilation":
				state = insideCompilation
				return nil, nil, nil
			case "begin_cfg":
				if method == "" {
					return nil, nil, parseErrorf(fileName, lineNo, "begin_cfg found before any method")
				}
				state = startingCfg
				return nil, nil, nil
			}
			return nil, nil, parseErrorf(fileName, lineNo, "unexpected line outside a block: %q", line)
		}
	}

	outside := func(_ string, lineNo int) error {
		return parseErrorf(fileName, lineNo, "pass line found outside a cfg block")
	}

	chunks, err := SplitStream(r, processLine, outside)
	if err != nil {
		return nil, err
	}

	dump := &tt.DumpFile{FileName: fileName, Passes: make([]*tt.Pass, 0, len(chunks))}
	for _, c := range chunks {
		pass := &tt.Pass{
			Name:     c.Header,
			BaseLine: c.Line + 1,
			Lines:    make([]string, 0, len(c.Items)),
			LineNos:  make([]int, 0, len(c.Items)),
		}
		for _, l := range c.Items {
			pass.Lines = append(pass.Lines, l.text)
			pass.LineNos = append(pass.LineNos, l.lineNo)
		}
		dump.Passes = append(dump.Passes, pass)
	}
	return dump, nil
}
