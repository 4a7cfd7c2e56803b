package export

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ============================================================
// File Store
// ============================================================

// FileStore хранит экспортированные планы по площадкам: <root>/<venueID>/.
type FileStore struct {
	root string
}

func NewFileStore(root string) *FileStore {
	return &FileStore{root: root}
}

func (s *FileStore) VenueDir(venueID string) string {
	return filepath.Join(s.root, safeName(venueID))
}

func (s *FileStore) Path(venueID, filename string) string {
	return filepath.Join(s.VenueDir(venueID), filepath.Base(filename))
}

func (s *FileStore) EnsureDir(venueID string) error {
	if err := os.MkdirAll(s.VenueDir(venueID), 0o755); err != nil {
		return fmt.Errorf("mkdir venue dir: %w", err)
	}
	return nil
}

// Save пишет файл с уникальным именем и возвращает это имя.
func (s *FileStore) Save(venueID, ext string, data []byte) (string, error) {
	if err := s.EnsureDir(venueID); err != nil {
		return "", err
	}
	name := fmt.Sprintf("%s-%s.%s", time.Now().UTC().Format("20060102T150405"), uuid.NewString()[:8], strings.TrimPrefix(ext, "."))
	if err := os.WriteFile(s.Path(venueID, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return name, nil
}

func (s *FileStore) Read(venueID, filename string) ([]byte, error) {
	data, err := os.ReadFile(s.Path(venueID, filename))
	if err != nil {
		return nil, fmt.Errorf("read export: %w", err)
	}
	return data, nil
}

// List возвращает имена файлов площадки, новые первыми.
func (s *FileStore) List(venueID string) ([]string, error) {
	entries, err := os.ReadDir(s.VenueDir(venueID))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list exports: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	slices.Reverse(names)
	return names, nil
}

// safeName не даёт id выйти за пределы корня хранилища.
func safeName(id string) string {
	id = filepath.Base(filepath.Clean("/" + id))
	if id == "/" || id == "." || id == "" {
		return "_"
	}
	return id
}
