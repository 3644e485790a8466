package queue

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"jofsarpur/internal/pathtemplate"
	"jofsarpur/internal/services"
	"jofsarpur/internal/textutil"
)

// State is the lifecycle position of a task.
type State string

const (
	StateWaiting State = "waiting"
	StateRunning State = "running"
	StateDone    State = "done"
	StateError   State = "error"
)

// IsTerminal reports whether no further transition can happen.
func (s State) IsTerminal() bool {
	return s == StateDone || s == StateError
}

// Key identifies a task by its series and episode.
type Key struct {
	SeriesID  string
	EpisodeID string
}

func (k Key) String() string {
	return k.SeriesID + ":" + k.EpisodeID
}

// Task is one episode to download.
type Task struct {
	// Index is the position in build order and decides admission order.
	Index int

	SeriesID      string
	EpisodeID     string
	Title         string
	EpisodeTitle  string
	EpisodeNumber *int
	EpisodeCount  *int
	AirDate       time.Time

	SourceURL         string
	OutputTemplate    string
	DownloadDirectory string
	OutputPath        string

	State State
	Err   error
}

// Key returns the task identity.
func (t *Task) Key() Key {
	return Key{SeriesID: t.SeriesID, EpisodeID: t.EpisodeID}
}

// Label is the human-readable task name used in logs and tables.
func (t *Task) Label() string {
	return fmt.Sprintf("%s %s:%s", t.Title, t.SeriesID, t.EpisodeID)
}

// TemplateFields returns the values a filename template may reference.
// Titles are sanitized so they cannot introduce path separators; optional
// values are omitted when unknown.
func (t *Task) TemplateFields() pathtemplate.Fields {
	fields := pathtemplate.Fields{
		"title":              textutil.SanitizeFileName(t.Title),
		"episode_title":      textutil.SanitizeFileName(t.EpisodeTitle),
		"sid":                t.SeriesID,
		"pid":                t.EpisodeID,
		"url":                t.SourceURL,
		"filenames":          t.OutputTemplate,
		"download_directory": t.DownloadDirectory,
	}
	if t.EpisodeNumber != nil {
		fields["episode_number"] = *t.EpisodeNumber
	}
	if t.EpisodeCount != nil {
		fields["episode_count"] = *t.EpisodeCount
	}
	if !t.AirDate.IsZero() {
		fields["airdate"] = t.AirDate
	}
	return fields
}

// ResolveOutputPath renders the task's template below its download
// directory. Template problems are configuration errors.
func (t *Task) ResolveOutputPath() (string, error) {
	if strings.TrimSpace(t.OutputTemplate) == "" {
		return "", services.Wrap(services.ErrConfiguration, "queue", "output path", t.Label()+": no filename template", nil)
	}
	rendered, err := pathtemplate.Render(t.OutputTemplate, t.TemplateFields())
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "queue", "output path", t.Label(), err)
	}
	if filepath.IsAbs(rendered) {
		return filepath.Clean(rendered), nil
	}
	return filepath.Join(t.DownloadDirectory, rendered), nil
}
