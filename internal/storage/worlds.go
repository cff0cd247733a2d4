package storage

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/averyhale/saga-engine/pkg/story"
)

// World seeds (filesystem-backed)

func (r *RedisStorage) ListWorlds(ctx context.Context) ([]story.World, error) {
	worldsDir := filepath.Join(r.dataDir, "worlds")
	var worlds []story.World

	err := filepath.WalkDir(worldsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !isYAML(path) {
			return nil
		}

		w, err := readWorldFile(path)
		if err != nil {
			r.logger.Warn("Skipping unreadable world file", "path", path, "error", err)
			return nil
		}
		worlds = append(worlds, *w)
		return nil
	})
	if err != nil {
		r.logger.Error("Failed to walk worlds directory", "error", err)
		return nil, fmt.Errorf("failed to list worlds: %w", err)
	}

	sort.Slice(worlds, func(i, j int) bool { return worlds[i].ID < worlds[j].ID })
	return worlds, nil
}

func (r *RedisStorage) GetWorld(ctx context.Context, worldID string) (*story.World, error) {
	worlds, err := r.ListWorlds(ctx)
	if err != nil {
		return nil, err
	}
	for i := range worlds {
		if worlds[i].ID == worldID {
			return &worlds[i], nil
		}
	}
	return nil, fmt.Errorf("world not found: %s", worldID)
}

func isYAML(path string) bool {
	ext := filepath.Ext(path)
	return ext == ".yaml" || ext == ".yml"
}

func readWorldFile(path string) (*story.World, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read world file: %w", err)
	}
	var w story.World
	if err := yaml.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("failed to unmarshal world: %w", err)
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &w, nil
}
