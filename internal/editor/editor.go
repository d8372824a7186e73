// Package editor turns user gestures on a checklist note into list operations and
// records each gesture as one undoable change.
package editor

import (
	"sort"

	"github.com/charmbracelet/log"

	"checklist-cli/internal/checklist"
	"checklist-cli/internal/history"
	"checklist-cli/internal/logging"
	"checklist-cli/internal/model"
	"checklist-cli/internal/store"
)

type Controller struct {
	list     *checklist.List
	log      *history.Log
	logger   *log.Logger
	autoSort bool
	newID    func() (string, error)
}

type config struct {
	logger       *log.Logger
	autoSort     bool
	historyLimit int
	newID        func() (string, error)
}

type Option func(*config)

func WithLogger(l *log.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithAutoSort sorts the list by checked state after every check toggle.
func WithAutoSort(enabled bool) Option {
	return func(c *config) { c.autoSort = enabled }
}

func WithHistoryLimit(limit int) Option {
	return func(c *config) { c.historyLimit = limit }
}

func WithIDGenerator(fn func() (string, error)) Option {
	return func(c *config) { c.newID = fn }
}

// Open builds a controller over the items and history of a loaded note. It fails
// when the stored items break the list invariants.
func Open(note *model.Note, opts ...Option) (*Controller, error) {
	cfg := config{newID: store.NewItemID}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = logging.Discard()
	}

	var items []*model.ListItem
	hist := history.NewLog(cfg.historyLimit)
	if note != nil {
		for i := range note.Items {
			items = append(items, note.Items[i].Clone())
		}
		sort.SliceStable(items, func(i, j int) bool { return items[i].Order < items[j].Order })
		if note.History != nil {
			hist = note.History
			if cfg.historyLimit > 0 {
				hist.SetLimit(cfg.historyLimit)
			}
		}
	}
	if err := checklist.CheckBatch(items); err != nil {
		return nil, err
	}
	list := checklist.FromItems(items)
	list.InitializeChildren()

	return &Controller{
		list:     list,
		log:      hist,
		logger:   cfg.logger,
		autoSort: cfg.autoSort,
		newID:    cfg.newID,
	}, nil
}

func (c *Controller) Size() int { return c.list.Size() }

func (c *Controller) History() *history.Log { return c.log }

func (c *Controller) CanUndo() bool { return c.log.CanUndo() }

func (c *Controller) CanRedo() bool { return c.log.CanRedo() }

// Items returns a copy of the current sequence.
func (c *Controller) Items() []model.ListItem {
	out := make([]model.ListItem, 0, c.list.Size())
	for _, it := range c.list.Items() {
		out = append(out, *it.Clone())
	}
	return out
}

// Item returns a copy of the item with the given id and its index.
func (c *Controller) Item(id string) (model.ListItem, int, error) {
	i, it, ok := c.list.FindByID(id)
	if !ok {
		return model.ListItem{}, -1, NotFoundError{Kind: "item", ID: id}
	}
	return *it.Clone(), i, nil
}

// Persistable returns the sequence as it is stored. Items with an empty body are
// dropped.
func (c *Controller) Persistable() []model.ListItem {
	return store.PersistableItems(c.Items())
}

func (c *Controller) checkIndex(index int) error {
	if index < 0 || index >= c.list.Size() {
		return IndexError{Index: index, Size: c.list.Size()}
	}
	return nil
}
