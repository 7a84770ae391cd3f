package mb

import (
	"fmt"
	"strings"
	"sync"
)

// Theme is the color theme of the interface.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
	// ThemeAuto follows the system. It is never stored; it resolves to light.
	ThemeAuto Theme = "auto"
)

// ParseTheme validates a theme name.
func ParseTheme(s string) (Theme, error) {
	switch t := Theme(strings.ToLower(strings.TrimSpace(s))); t {
	case ThemeLight, ThemeDark, ThemeAuto:
		return t, nil
	}
	return "", newValidationError("theme", fmt.Sprintf("must be light, dark or auto, got %q", s))
}

// AppState owns the session state that outlives a single command: the
// signed-in user, the open folder and the theme. Every mutation is written
// through to the LocalStore.
type AppState struct {
	mu       sync.RWMutex
	local    LocalStore
	user     *CurrentUser
	folderID string
	theme    Theme
}

// NewAppState loads the persisted state from local.
func NewAppState(local LocalStore) (*AppState, error) {
	s := &AppState{local: local, theme: ThemeLight}

	var user CurrentUser
	found, err := local.Get(KeyCurrentUser, &user)
	if err != nil {
		return nil, fmt.Errorf("loading current user: %w", err)
	}
	if found && user.ID != "" {
		s.user = &user
	}

	if _, err := local.Get(KeyCurrentFolder, &s.folderID); err != nil {
		return nil, fmt.Errorf("loading current folder: %w", err)
	}

	var theme Theme
	found, err = local.Get(KeyTheme, &theme)
	if err != nil {
		return nil, fmt.Errorf("loading theme: %w", err)
	}
	if found && (theme == ThemeLight || theme == ThemeDark) {
		s.theme = theme
	}

	return s, nil
}

// CurrentUser returns the signed-in user, if any.
func (s *AppState) CurrentUser() (CurrentUser, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return CurrentUser{}, false
	}
	return *s.user, true
}

// SetCurrentUser records u as signed in.
func (s *AppState) SetCurrentUser(u CurrentUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.local.Put(KeyCurrentUser, u); err != nil {
		return fmt.Errorf("persisting current user: %w", err)
	}
	s.user = &u
	return nil
}

// ClearCurrentUser signs out and closes the open folder.
func (s *AppState) ClearCurrentUser() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.local.Delete(KeyCurrentUser); err != nil {
		return fmt.Errorf("clearing current user: %w", err)
	}
	s.user = nil
	if err := s.local.Delete(KeyCurrentFolder); err != nil {
		return fmt.Errorf("clearing current folder: %w", err)
	}
	s.folderID = ""
	return nil
}

// CurrentFolder returns the ID of the open folder, or "" for the root.
func (s *AppState) CurrentFolder() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.folderID
}

// SetCurrentFolder opens folderID. An empty ID returns to the root.
func (s *AppState) SetCurrentFolder(folderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var err error
	if folderID == "" {
		err = s.local.Delete(KeyCurrentFolder)
	} else {
		err = s.local.Put(KeyCurrentFolder, folderID)
	}
	if err != nil {
		return fmt.Errorf("persisting current folder: %w", err)
	}
	s.folderID = folderID
	return nil
}

// Theme returns the stored theme, light when none was chosen.
func (s *AppState) Theme() Theme {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.theme
}

// SetTheme stores t. Auto is stored as light.
func (s *AppState) SetTheme(t Theme) (Theme, error) {
	switch t {
	case ThemeLight, ThemeDark:
	case ThemeAuto:
		t = ThemeLight
	default:
		return "", newValidationError("theme", fmt.Sprintf("unknown theme %q", t))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.local.Put(KeyTheme, t); err != nil {
		return "", fmt.Errorf("persisting theme: %w", err)
	}
	s.theme = t
	return t, nil
}
