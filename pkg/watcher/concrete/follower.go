package concrete

import (
	"bufio"
	"io"
	"os"

	"github.com/butter-bot-machines/linetail/pkg/watcher"
)

// follower tracks the read offset of one watched file. After registration
// it is only touched by the watch loop.
type follower struct {
	path   string
	offset int64
}

// newFollower starts at the current end of path, or at 0 when the file does
// not exist yet so that its first content is delivered once created.
func newFollower(path string) *follower {
	f := &follower{path: path}
	if info, err := os.Stat(path); err == nil {
		f.offset = info.Size()
	}
	return f
}

// reset rewinds to the start, used when the file is removed or renamed
func (f *follower) reset() {
	f.offset = 0
}

// readNew returns the lines appended since the last read. Trailing text
// without a newline is returned as a line of its own.
func (f *follower) readNew() ([]string, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, err
	}
	size := info.Size()
	if size < f.offset {
		// truncated
		f.offset = 0
	}
	if size == f.offset {
		return nil, nil
	}

	if _, err := file.Seek(f.offset, io.SeekStart); err != nil {
		return nil, err
	}

	var lines []string
	reader := bufio.NewReader(io.LimitReader(file, size-f.offset))
	for {
		raw, err := reader.ReadString('\n')
		if len(raw) > 0 {
			f.offset += int64(len(raw))
			lines = append(lines, watcher.SplitLine(raw))
		}
		if err == io.EOF {
			return lines, nil
		}
		if err != nil {
			return lines, err
		}
	}
}
