package bundle

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/hashicorp/go-hclog"
)

func mustReadFile(t *testing.T, fileName string) string {
	b, err := os.ReadFile("../test/" + fileName)
	if err != nil {
		t.Fatalf("failed to read file %s: %v", fileName, err)
	}

	return string(b)
}

// fileTemplateSource reads template skeletons from the shared test directory.
type fileTemplateSource struct{}

func (s fileTemplateSource) Get(_ context.Context, path string) ([]byte, error) {
	b, err := os.ReadFile("../test/" + path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %v", path, err)
	}
	return b, nil
}

// mapTemplateSource serves templates from a map, missing paths fail.
type mapTemplateSource map[string]string

func (s mapTemplateSource) Get(_ context.Context, path string) ([]byte, error) {
	template, ok := s[path]
	if !ok {
		return nil, fmt.Errorf("no template at %s", path)
	}
	return []byte(template), nil
}

func testLogger(t *testing.T) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:   "bundle-test",
		Level:  hclog.Warn,
		Output: testWriter{t},
	})
}

type testWriter struct {
	t *testing.T
}

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}
