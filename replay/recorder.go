package replay

import (
	"fmt"
	"path/filepath"
	"sync"

	"tankroyale/world"
)

// Recorder buffers turns of one battle and flushes them as Parquet files
// into a directory.
type Recorder struct {
	mu       sync.Mutex
	dir      string
	battleID string
	rows     []Row
}

func NewRecorder(dir, battleID string) (*Recorder, error) {
	if dir == "" {
		return nil, fmt.Errorf("replay dir is required")
	}
	if battleID == "" {
		return nil, fmt.Errorf("battle id is required")
	}
	return &Recorder{
		dir:      dir,
		battleID: battleID,
	}, nil
}

func (r *Recorder) Record(t *world.Turn) {
	row := RowFromTurn(r.battleID, t)
	r.mu.Lock()
	r.rows = append(r.rows, row)
	r.mu.Unlock()
}

func (r *Recorder) Buffered() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

// Flush writes the buffered turns to a new file and returns its path. With
// nothing buffered it returns an empty path. On failure the turns stay
// buffered.
func (r *Recorder) Flush() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.rows) == 0 {
		return "", nil
	}

	path := filepath.Join(r.dir, fileName(r.battleID))
	if err := WriteFile(path, r.rows); err != nil {
		return "", err
	}
	r.rows = nil
	return path, nil
}
