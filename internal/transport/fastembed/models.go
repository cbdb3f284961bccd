package fastembed

import (
	"errors"
	"fmt"
	"path/filepath"
)

// ErrUnknownModel is returned for model names without a known local ONNX export.
var ErrUnknownModel = errors.New("fastembed: unknown model")

var defaultCacheDir = filepath.Join(".", "local_cache")

// Config holds local model settings.
type Config struct {
	Model     string
	CacheDir  string
	MaxLength int
}

type modelInfo struct {
	id  string
	dim int
}

// Keys are the names accepted in configuration; ids are the fastembed-go model constants.
var knownModels = map[string]modelInfo{
	"BAAI/bge-small-en-v1.5":                 {"fast-bge-small-en-v1.5", 384},
	"BAAI/bge-small-en":                      {"fast-bge-small-en", 384},
	"BAAI/bge-base-en-v1.5":                  {"fast-bge-base-en-v1.5", 768},
	"BAAI/bge-base-en":                       {"fast-bge-base-en", 768},
	"BAAI/bge-small-zh-v1.5":                 {"fast-bge-small-zh-v1.5", 512},
	"sentence-transformers/all-MiniLM-L6-v2": {"fast-all-MiniLM-L6-v2", 384},
	"fast-bge-small-en-v1.5":                 {"fast-bge-small-en-v1.5", 384},
	"fast-bge-small-en":                      {"fast-bge-small-en", 384},
	"fast-bge-base-en-v1.5":                  {"fast-bge-base-en-v1.5", 768},
	"fast-bge-base-en":                       {"fast-bge-base-en", 768},
	"fast-bge-small-zh-v1.5":                 {"fast-bge-small-zh-v1.5", 512},
	"fast-all-MiniLM-L6-v2":                  {"fast-all-MiniLM-L6-v2", 384},
}

// resolveModel maps a configured model name to its fastembed id and output dimension.
func resolveModel(name string) (string, int, error) {
	info, ok := knownModels[name]
	if !ok {
		return "", 0, fmt.Errorf("%w: %q", ErrUnknownModel, name)
	}
	return info.id, info.dim, nil
}
