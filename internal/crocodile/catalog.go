package crocodile

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"boltalka-bot/internal/store"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

const (
	MinWordLen        = 3
	MaxWordLen        = 20
	MinDescriptionLen = 5
)

// FallbackEntry is served when the catalog has no rows at all.
var FallbackEntry = Entry{
	Word:        "крокодил",
	Description: "зелёное зубастое животное, которое живёт в реках",
}

//go:embed default_words.yaml
var defaultWordsYAML []byte

var loadDefaultWords = sync.OnceValues(func() ([]Entry, error) {
	return parseWordList(defaultWordsYAML)
})

type Entry struct {
	Word        string `yaml:"word"`
	Description string `yaml:"description"`
}

type WordStore interface {
	InsertWord(ctx context.Context, w store.WordEntry) error
	RandomWord(ctx context.Context) (*store.WordEntry, error)
	GetWord(ctx context.Context, word string) (*store.WordEntry, error)
	ListWords(ctx context.Context) ([]store.WordEntry, error)
	EnsureDefaultWords(ctx context.Context, defaults []store.WordEntry) (int, error)
}

// Catalog is the set of guessable words and their clues.
type Catalog struct {
	words WordStore
	now   func() time.Time
}

func NewCatalog(words WordStore) *Catalog {
	return &Catalog{words: words, now: time.Now}
}

// DefaultWords returns the built-in seed list.
func DefaultWords() ([]Entry, error) {
	return loadDefaultWords()
}

// SeedIfEmpty inserts the default words into an empty catalog. It is safe to
// call on every boot.
func (c *Catalog) SeedIfEmpty(ctx context.Context) (int, error) {
	defaults, err := DefaultWords()
	if err != nil {
		return 0, err
	}
	rows := make([]store.WordEntry, 0, len(defaults))
	for _, e := range defaults {
		rows = append(rows, store.WordEntry{Word: Normalize(e.Word), Description: strings.TrimSpace(e.Description)})
	}
	n, err := c.words.EnsureDefaultWords(ctx, rows)
	if err != nil {
		return 0, storeErr("seed words", err)
	}
	if n > 0 {
		log.Info().Int("count", n).Msg("seeded default crocodile words")
	}
	return n, nil
}

// AddWord validates and stores a new catalog entry. The word is trimmed and
// lower-cased; duplicates in any case are rejected.
func (c *Catalog) AddWord(ctx context.Context, word, description string, addedBy int64) (Entry, error) {
	e := Entry{Word: Normalize(word), Description: strings.TrimSpace(description)}
	if err := validateEntry(e); err != nil {
		return Entry{}, err
	}
	err := c.words.InsertWord(ctx, store.WordEntry{
		Word:        e.Word,
		Description: e.Description,
		AddedBy:     addedBy,
		AddedAt:     c.now(),
	})
	if errors.Is(err, store.ErrDuplicate) {
		return Entry{}, ErrAlreadyExists
	}
	if err != nil {
		return Entry{}, storeErr("insert word", err)
	}
	return e, nil
}

// RandomEntry picks a uniformly random word, or FallbackEntry when the
// catalog is empty.
func (c *Catalog) RandomEntry(ctx context.Context) (Entry, error) {
	w, err := c.words.RandomWord(ctx)
	if errors.Is(err, store.ErrNotFound) {
		log.Warn().Msg("crocodile catalog is empty; using fallback word")
		return FallbackEntry, nil
	}
	if err != nil {
		return Entry{}, storeErr("random word", err)
	}
	return Entry{Word: w.Word, Description: w.Description}, nil
}

// ListAll returns every entry ordered by word.
func (c *Catalog) ListAll(ctx context.Context) ([]Entry, error) {
	rows, err := c.words.ListWords(ctx)
	if err != nil {
		return nil, storeErr("list words", err)
	}
	out := make([]Entry, 0, len(rows))
	for _, w := range rows {
		out = append(out, Entry{Word: w.Word, Description: w.Description})
	}
	return out, nil
}

// Description returns the clue for word, or "" when the word is unknown.
func (c *Catalog) Description(ctx context.Context, word string) (string, error) {
	w, err := c.words.GetWord(ctx, Normalize(word))
	if errors.Is(err, store.ErrNotFound) {
		if Normalize(word) == FallbackEntry.Word {
			return FallbackEntry.Description, nil
		}
		return "", nil
	}
	if err != nil {
		return "", storeErr("get word", err)
	}
	return w.Description, nil
}

// validateEntry expects a normalized word and a trimmed description.
func validateEntry(e Entry) error {
	if n := utf8.RuneCountInString(e.Word); n < MinWordLen || n > MaxWordLen {
		return &LengthError{Field: "word", Len: n, Min: MinWordLen, Max: MaxWordLen}
	}
	if n := utf8.RuneCountInString(e.Description); n < MinDescriptionLen {
		return &LengthError{Field: "description", Len: n, Min: MinDescriptionLen}
	}
	return nil
}

func parseWordList(raw []byte) ([]Entry, error) {
	var doc struct {
		Words []Entry `yaml:"words"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse word list: %w", err)
	}
	seen := make(map[string]struct{}, len(doc.Words))
	for i, e := range doc.Words {
		w := Normalize(e.Word)
		if err := validateEntry(Entry{Word: w, Description: strings.TrimSpace(e.Description)}); err != nil {
			return nil, fmt.Errorf("word list entry %d (%q): %w", i, e.Word, err)
		}
		if _, dup := seen[w]; dup {
			return nil, fmt.Errorf("word list entry %d (%q): %w", i, e.Word, ErrAlreadyExists)
		}
		seen[w] = struct{}{}
	}
	return doc.Words, nil
}
