package store

import (
	"fmt"
	"sort"
	"strings"

	"checklist-cli/internal/model"
)

// Note list orders, as stored in the notesSorting config key.
const (
	SortByCreationDate = "creationDate"
	SortByModifiedDate = "modifiedDate"
	SortByTitle        = "title"

	SortAsc  = "asc"
	SortDesc = "desc"
)

// ListOptions selects and orders the notes returned by ListNotes. Pinned notes
// always come first.
type ListOptions struct {
	Folder    string
	SortBy    string
	Direction string
}

func DefaultListOptions() ListOptions {
	return ListOptions{Folder: model.FolderNotes, SortBy: SortByCreationDate, Direction: SortDesc}
}

// normalize fills in defaults and rejects unknown values.
func (o ListOptions) normalize() (ListOptions, error) {
	def := DefaultListOptions()
	o.Folder = strings.TrimSpace(o.Folder)
	o.SortBy = strings.TrimSpace(o.SortBy)
	o.Direction = strings.ToLower(strings.TrimSpace(o.Direction))
	if o.Folder == "" {
		o.Folder = def.Folder
	}
	if o.SortBy == "" {
		o.SortBy = def.SortBy
	}
	if o.Direction == "" {
		o.Direction = def.Direction
	}
	if err := checkFolder(o.Folder); err != nil {
		return o, err
	}
	switch o.SortBy {
	case SortByCreationDate, SortByModifiedDate, SortByTitle:
	default:
		return o, fmt.Errorf("notes sorting must be %s, %s or %s", SortByCreationDate, SortByModifiedDate, SortByTitle)
	}
	if o.Direction != SortAsc && o.Direction != SortDesc {
		return o, fmt.Errorf("sort direction must be %s or %s", SortAsc, SortDesc)
	}
	return o, nil
}

func checkFolder(folder string) error {
	switch folder {
	case model.FolderNotes, model.FolderArchived:
		return nil
	default:
		return fmt.Errorf("folder must be %s or %s", model.FolderNotes, model.FolderArchived)
	}
}

// SortSummaries orders notes the way ListNotes returns them: pinned first, then by
// o.SortBy in o.Direction, then by id.
func SortSummaries(notes []model.NoteSummary, o ListOptions) {
	sort.SliceStable(notes, func(i, j int) bool {
		a, b := notes[i], notes[j]
		if a.Pinned != b.Pinned {
			return a.Pinned
		}
		c := 0
		switch o.SortBy {
		case SortByModifiedDate:
			c = a.UpdatedAt.Compare(b.UpdatedAt)
		case SortByTitle:
			c = strings.Compare(a.Title, b.Title)
		default:
			c = a.CreatedAt.Compare(b.CreatedAt)
		}
		if o.Direction == SortDesc {
			c = -c
		}
		if c != 0 {
			return c < 0
		}
		return a.ID < b.ID
	})
}
