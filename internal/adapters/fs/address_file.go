package fs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bft-labs/dropship/internal/domain"
)

// maxLineLength bounds how much of a single line is kept. Longer lines are
// consumed in full but recorded truncated.
const maxLineLength = 4096

var errLineTooLong = errors.New("line too long")

// AddressFile implements ports.AddressSource over a newline-delimited file
// holding one base58 address per line.
type AddressFile struct {
	path string
}

// NewAddressFile creates a source reading from path.
func NewAddressFile(path string) *AddressFile {
	return &AddressFile{path: path}
}

// Path returns the file path.
func (f *AddressFile) Path() string {
	return f.path
}

// Load reads the whole file. Blank lines are ignored; lines that do not
// decode are returned in LoadResult.Rejected and otherwise skipped.
func (f *AddressFile) Load(ctx context.Context) (domain.LoadResult, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return domain.LoadResult{}, fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
	}
	defer file.Close()

	var result domain.LoadResult
	reader := bufio.NewReader(file)
	line := 0
	for {
		raw, truncated, err := readLine(reader)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.LoadResult{}, fmt.Errorf("%w: read %s: %w", domain.ErrSourceUnavailable, f.path, err)
		}
		line++
		if line%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return domain.LoadResult{}, err
			}
		}
		text := string(raw)
		if line == 1 {
			text = strings.TrimPrefix(text, "\ufeff")
		}
		text = strings.TrimSpace(text)
		if truncated {
			result.Rejected = append(result.Rejected, domain.DecodeError{Line: line, Content: text, Err: errLineTooLong})
			continue
		}
		if text == "" {
			continue
		}
		addr, err := domain.ParseAddress(text)
		if err != nil {
			result.Rejected = append(result.Rejected, domain.DecodeError{Line: line, Content: text, Err: err})
			continue
		}
		result.Addresses = append(result.Addresses, addr)
	}
	if len(result.Addresses) == 0 {
		return result, fmt.Errorf("%w in %s", domain.ErrNoRecipients, f.path)
	}
	return result, nil
}

// readLine returns the next line without its terminator, keeping at most
// maxLineLength bytes. The remainder of a longer line is discarded and
// truncated is set. io.EOF is returned only when no bytes remain.
func readLine(r *bufio.Reader) (line []byte, truncated bool, err error) {
	for {
		chunk, isPrefix, err := r.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) && (len(line) > 0 || truncated) {
				return line, truncated, nil
			}
			return line, truncated, err
		}
		if room := maxLineLength - len(line); len(chunk) > room {
			line = append(line, chunk[:room]...)
			truncated = true
		} else {
			line = append(line, chunk...)
		}
		if !isPrefix {
			return line, truncated, nil
		}
	}
}
