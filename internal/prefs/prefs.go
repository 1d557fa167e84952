package prefs

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/docaidkit/medkit/internal/storage"
)

const (
	LanguageEnglish = "en"
	LanguageArabic  = "ar"

	ThemeLight = "light"
	ThemeDark  = "dark"
)

type Preferences struct {
	Language string `json:"language"`
	Theme    string `json:"theme"`
}

func Defaults() Preferences {
	return Preferences{
		Language: LanguageEnglish,
		Theme:    ThemeLight,
	}
}

func ValidLanguage(lang string) bool {
	return lang == LanguageEnglish || lang == LanguageArabic
}

func ValidTheme(theme string) bool {
	return theme == ThemeLight || theme == ThemeDark
}

// Store persists display preferences and notifies subscribers on every
// write. Interested consumers subscribe instead of re-reading the stored
// value on an interval.
type Store struct {
	st storage.Storage

	mu   sync.Mutex
	subs map[int]chan Preferences
	next int
}

func NewStore(st storage.Storage) *Store {
	return &Store{
		st:   st,
		subs: make(map[int]chan Preferences),
	}
}

func (s *Store) Get(ctx context.Context) (Preferences, error) {
	raw, err := s.st.Get(ctx, storage.KeyPrefs)

	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return Defaults(), nil
		}
		return Preferences{}, err
	}

	var p Preferences

	if err := json.Unmarshal(raw, &p); err != nil {
		return Defaults(), nil
	}

	if !ValidLanguage(p.Language) {
		p.Language = LanguageEnglish
	}
	if !ValidTheme(p.Theme) {
		p.Theme = ThemeLight
	}

	return p, nil
}

func (s *Store) Set(ctx context.Context, p Preferences) error {
	raw, err := json.Marshal(p)

	if err != nil {
		return err
	}

	if err := s.st.Set(ctx, storage.KeyPrefs, raw); err != nil {
		return err
	}

	s.publish(p)

	return nil
}

// Subscribe registers a change listener. The returned cancel func must be
// called when the listener goes away.
func (s *Store) Subscribe() (<-chan Preferences, func()) {
	ch := make(chan Preferences, 1)

	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = ch
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}

	return ch, cancel
}

func (s *Store) publish(p Preferences) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ch := range s.subs {
		// drop rather than block a slow subscriber
		select {
		case ch <- p:
		default:
		}
	}
}
