package teams

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var Missing = fmt.Errorf("image missing")

// ImageStore keeps one binary blob per (team, player number) pair on disk,
// under the extension the uploader supplied.
type ImageStore string

func (f ImageStore) getPath(key string) string {
	return filepath.Join(string(f), key)
}

func (f ImageStore) Get(ctx context.Context, key string) ([]byte, error) {
	target := f.getPath(key)

	if _, err := os.Stat(target); err != nil {
		return nil, Missing
	}

	return os.ReadFile(target)
}

func (f ImageStore) Set(ctx context.Context, key string, data []byte) error {
	if err := os.MkdirAll(string(f), 0755); err != nil {
		return err
	}
	return os.WriteFile(f.getPath(key), data, 0644)
}

func (f ImageStore) Remove(ctx context.Context, key string) error {
	err := os.Remove(f.getPath(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// imageKey builds a filesystem-safe blob key. Team names come straight from
// operators, so anything path-hostile is flattened.
func imageKey(teamName string, number int, extension string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, teamName)

	if !strings.HasPrefix(extension, ".") {
		extension = "." + extension
	}

	return fmt.Sprintf("%s-%d%s", safe, number, extension)
}
