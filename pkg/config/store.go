package config

import (
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"

	"github.com/serialexp/dbui/pkg/dbuierrors"
)

const (
	connectionsFile = "connections.json"
	categoriesFile  = "categories.json"
)

// Store persists connections and categories as JSON files under a config
// directory. Every operation reads and rewrites the whole file; the files
// are small and the simplicity beats partial-update bookkeeping.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeConfig, "failed to create config directory")
	}
	return &Store{dir: dir}, nil
}

// Dir returns the config directory the store is rooted at.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) readJSON(name string, out interface{}) error {
	content, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return dbuierrors.Wrap(err, dbuierrors.ErrorTypeConfig, "failed to read "+name)
	}
	if err := json.Unmarshal(content, out); err != nil {
		return dbuierrors.Wrap(err, dbuierrors.ErrorTypeConfig, "failed to parse "+name)
	}
	return nil
}

func (s *Store) writeJSON(name string, in interface{}) error {
	content, err := json.MarshalIndent(in, "", "  ")
	if err != nil {
		return dbuierrors.Wrap(err, dbuierrors.ErrorTypeConfig, "failed to serialize "+name)
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), content, 0o600); err != nil {
		return dbuierrors.Wrap(err, dbuierrors.ErrorTypeConfig, "failed to write "+name)
	}
	return nil
}

// LoadConnections returns all saved connections; a missing file is an empty
// list, not an error.
func (s *Store) LoadConnections() ([]ConnectionConfig, error) {
	var connections []ConnectionConfig
	if err := s.readJSON(connectionsFile, &connections); err != nil {
		return nil, err
	}
	return connections, nil
}

// SaveConnections replaces the saved connection list.
func (s *Store) SaveConnections(connections []ConnectionConfig) error {
	return s.writeJSON(connectionsFile, connections)
}

// AddConnection appends a connection and persists the list.
func (s *Store) AddConnection(cfg ConnectionConfig) (ConnectionConfig, error) {
	connections, err := s.LoadConnections()
	if err != nil {
		return ConnectionConfig{}, err
	}
	connections = append(connections, cfg)
	if err := s.SaveConnections(connections); err != nil {
		return ConnectionConfig{}, err
	}
	return cfg, nil
}

// GetConnection finds a saved connection by id.
func (s *Store) GetConnection(id string) (ConnectionConfig, error) {
	connections, err := s.LoadConnections()
	if err != nil {
		return ConnectionConfig{}, err
	}
	for _, c := range connections {
		if c.ID == id {
			return c, nil
		}
	}
	return ConnectionConfig{}, dbuierrors.Newf(dbuierrors.ErrorTypeNotFound, "connection %q not found", id)
}

// UpdateConnection replaces the saved connection with the same id.
func (s *Store) UpdateConnection(cfg ConnectionConfig) (ConnectionConfig, error) {
	connections, err := s.LoadConnections()
	if err != nil {
		return ConnectionConfig{}, err
	}
	for i := range connections {
		if connections[i].ID == cfg.ID {
			connections[i] = cfg
			if err := s.SaveConnections(connections); err != nil {
				return ConnectionConfig{}, err
			}
			return cfg, nil
		}
	}
	return ConnectionConfig{}, dbuierrors.Newf(dbuierrors.ErrorTypeNotFound, "connection %q not found", cfg.ID)
}

// RemoveConnection deletes a saved connection by id.
func (s *Store) RemoveConnection(id string) error {
	connections, err := s.LoadConnections()
	if err != nil {
		return err
	}
	kept := connections[:0]
	for _, c := range connections {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(connections) {
		return dbuierrors.Newf(dbuierrors.ErrorTypeNotFound, "connection %q not found", id)
	}
	return s.SaveConnections(kept)
}

// LoadCategories returns all saved categories.
func (s *Store) LoadCategories() ([]Category, error) {
	var categories []Category
	if err := s.readJSON(categoriesFile, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// SaveCategories replaces the saved category list.
func (s *Store) SaveCategories(categories []Category) error {
	return s.writeJSON(categoriesFile, categories)
}

// AddCategory appends a category and persists the list.
func (s *Store) AddCategory(cat Category) (Category, error) {
	categories, err := s.LoadCategories()
	if err != nil {
		return Category{}, err
	}
	categories = append(categories, cat)
	if err := s.SaveCategories(categories); err != nil {
		return Category{}, err
	}
	return cat, nil
}

// UpdateCategory replaces the saved category with the same id.
func (s *Store) UpdateCategory(cat Category) (Category, error) {
	categories, err := s.LoadCategories()
	if err != nil {
		return Category{}, err
	}
	for i := range categories {
		if categories[i].ID == cat.ID {
			categories[i] = cat
			if err := s.SaveCategories(categories); err != nil {
				return Category{}, err
			}
			return cat, nil
		}
	}
	return Category{}, dbuierrors.Newf(dbuierrors.ErrorTypeNotFound, "category %q not found", cat.ID)
}

// RemoveCategory deletes a category and clears it from any connection that
// referenced it.
func (s *Store) RemoveCategory(id string) error {
	categories, err := s.LoadCategories()
	if err != nil {
		return err
	}
	kept := categories[:0]
	for _, c := range categories {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(categories) {
		return dbuierrors.Newf(dbuierrors.ErrorTypeNotFound, "category %q not found", id)
	}
	if err := s.SaveCategories(kept); err != nil {
		return err
	}

	connections, err := s.LoadConnections()
	if err != nil {
		return err
	}
	updated := false
	for i := range connections {
		if connections[i].CategoryID != nil && *connections[i].CategoryID == id {
			connections[i].CategoryID = nil
			updated = true
		}
	}
	if updated {
		return s.SaveConnections(connections)
	}
	return nil
}
