// Package logging writes per-run JSONL event logs and tails them.
package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	logSuffix    = ".jsonl"
	resultSuffix = ".result.json"
	stampLayout  = "20060102-150405"
)

// ErrNoLogDir is returned when logging is requested without a directory.
var ErrNoLogDir = errors.New("log dir is empty")

// RunLogger manages the files of one run: the JSONL event log and the
// result file written when the run ends.
type RunLogger struct {
	Dir     string
	RunID   string
	LogPath string
	file    *os.File
}

// NewRunLogger creates dir if needed and opens <timestamp>-<runID>.jsonl in
// it. An empty runID gets a fresh UUID.
func NewRunLogger(dir, runID string) (*RunLogger, error) {
	if dir == "" {
		return nil, ErrNoLogDir
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	if runID == "" {
		runID = uuid.NewString()
	}
	base := fmt.Sprintf("%s-%s", time.Now().UTC().Format(stampLayout), sanitizeLabel(runID))
	logPath := filepath.Join(dir, base+logSuffix)
	file, err := os.Create(logPath)
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}

	return &RunLogger{
		Dir:     dir,
		RunID:   runID,
		LogPath: logPath,
		file:    file,
	}, nil
}

// Writer returns the underlying log file writer.
func (r *RunLogger) Writer() io.Writer {
	return r.file
}

// Close closes the log file.
func (r *RunLogger) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	return r.file.Close()
}

// ResultPath returns the path of the result file that sits next to the log.
func (r *RunLogger) ResultPath() string {
	if r == nil {
		return ""
	}
	return strings.TrimSuffix(r.LogPath, logSuffix) + resultSuffix
}

// WriteResult writes the result document produced by encode to ResultPath.
func (r *RunLogger) WriteResult(encode func(io.Writer) error) error {
	f, err := os.Create(r.ResultPath())
	if err != nil {
		return fmt.Errorf("create result file: %w", err)
	}
	if err := encode(f); err != nil {
		f.Close()
		return fmt.Errorf("write result file: %w", err)
	}
	return f.Close()
}

func sanitizeLabel(input string) string {
	if strings.TrimSpace(input) == "" {
		return "run"
	}

	var b strings.Builder
	for i := 0; i < len(input); i++ {
		c := input[i]
		valid := (c >= 'A' && c <= 'Z') ||
			(c >= 'a' && c <= 'z') ||
			(c >= '0' && c <= '9') ||
			c == '_' || c == '-'
		if !valid {
			b.WriteByte('_')
			continue
		}
		b.WriteByte(c)
	}

	label := strings.Trim(b.String(), "_")
	if label == "" {
		return "run"
	}
	return label
}

// FindLatestLog finds the newest JSONL log file in a directory. It returns
// an empty path when the directory does not exist.
func FindLatestLog(logDir string) (string, error) {
	entries, err := os.ReadDir(logDir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read log dir: %w", err)
	}

	var latest string
	var latestTime time.Time

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), logSuffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if latest == "" || info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latest = filepath.Join(logDir, entry.Name())
		}
	}

	return latest, nil
}

// TailLog copies a log file to w. When n > 0 only about the last n lines are
// shown. With follow set it keeps copying new data until ctx is done.
func TailLog(ctx context.Context, w io.Writer, path string, n int, follow bool) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if n > 0 {
		if err := tailSeek(file, n); err != nil {
			return fmt.Errorf("seek to tail position: %w", err)
		}
	}

	if _, err := io.Copy(w, file); err != nil {
		return err
	}
	if !follow {
		return nil
	}

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := io.Copy(w, file); err != nil {
				return err
			}
		}
	}
}

// tailSeek seeks to a position that shows approximately the last n lines.
func tailSeek(file *os.File, n int) error {
	const avgLineLength = 160

	stat, err := file.Stat()
	if err != nil {
		return err
	}

	size := stat.Size()
	offset := size - int64(n*avgLineLength)
	if offset <= 0 {
		_, err = file.Seek(0, io.SeekStart)
		return err
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return err
	}

	// Discard the partial first line.
	var buf [1]byte
	for {
		if _, err := file.Read(buf[:]); err != nil || buf[0] == '\n' {
			return nil
		}
	}
}

// LogRun represents a single run with its files.
type LogRun struct {
	RunID      string
	ModTime    time.Time
	LogPath    string
	ResultPath string
}

// FindLogRuns lists the runs in a directory, newest first.
func FindLogRuns(logDir string) ([]LogRun, error) {
	entries, err := os.ReadDir(logDir)
	if err != nil {
		return nil, fmt.Errorf("read log dir: %w", err)
	}

	runMap := make(map[string]*LogRun)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		base, isResult := splitRunFile(name)
		if base == "" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}

		run, ok := runMap[base]
		if !ok {
			run = &LogRun{RunID: runIDFromBase(base), ModTime: info.ModTime()}
			runMap[base] = run
		}
		if info.ModTime().After(run.ModTime) {
			run.ModTime = info.ModTime()
		}

		fullPath := filepath.Join(logDir, name)
		if isResult {
			run.ResultPath = fullPath
		} else {
			run.LogPath = fullPath
		}
	}

	runs := make([]LogRun, 0, len(runMap))
	for _, run := range runMap {
		runs = append(runs, *run)
	}
	sort.Slice(runs, func(i, j int) bool {
		if runs[i].ModTime.Equal(runs[j].ModTime) {
			return runs[i].RunID < runs[j].RunID
		}
		return runs[i].ModTime.After(runs[j].ModTime)
	})
	return runs, nil
}

// splitRunFile returns the <timestamp>-<runID> base of a run file and
// whether it is a result file.
func splitRunFile(name string) (string, bool) {
	switch {
	case strings.HasSuffix(name, resultSuffix):
		return strings.TrimSuffix(name, resultSuffix), true
	case strings.HasSuffix(name, logSuffix):
		return strings.TrimSuffix(name, logSuffix), false
	default:
		return "", false
	}
}

// runIDFromBase strips the timestamp prefix from a run file base.
func runIDFromBase(base string) string {
	if len(base) > len(stampLayout)+1 {
		if _, err := time.Parse(stampLayout, base[:len(stampLayout)]); err == nil && base[len(stampLayout)] == '-' {
			return base[len(stampLayout)+1:]
		}
	}
	return base
}
