package config

import (
	"os"
	"testing"
	"time"
)

func TestGetEnvOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal string
		expected   string
	}{
		{"uses env value", "TEST_VAR_1", "hello", "default", "hello"},
		{"uses default when empty", "TEST_VAR_2", "", "default", "default"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				os.Setenv(tc.key, tc.envValue)
				defer os.Unsetenv(tc.key)
			}

			result := getEnvOrDefault(tc.key, tc.defaultVal)
			if result != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, result)
			}
		})
	}
}

func TestGetEnvAsIntOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal int
		expected   int
	}{
		{"parses integer", "TEST_INT_1", "42", 10, 42},
		{"uses default for empty", "TEST_INT_2", "", 10, 10},
		{"uses default for non-numeric", "TEST_INT_3", "abc", 10, 10},
		{"uses default for non-positive", "TEST_INT_4", "-3", 10, 10},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				os.Setenv(tc.key, tc.envValue)
				defer os.Unsetenv(tc.key)
			}

			result := getEnvAsIntOrDefault(tc.key, tc.defaultVal)
			if result != tc.expected {
				t.Errorf("Expected %d, got %d", tc.expected, result)
			}
		})
	}
}

func TestGetEnvAsDurationOrDefault(t *testing.T) {
	os.Setenv("TEST_DUR_1", "5s")
	defer os.Unsetenv("TEST_DUR_1")

	if d := getEnvAsDurationOrDefault("TEST_DUR_1", time.Second); d != 5*time.Second {
		t.Errorf("Expected 5s, got %v", d)
	}
	if d := getEnvAsDurationOrDefault("TEST_DUR_MISSING", 30*time.Second); d != 30*time.Second {
		t.Errorf("Expected default 30s, got %v", d)
	}
}

func TestMustGetEnv_Panics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for missing required env var")
		}
	}()

	os.Unsetenv("NONEXISTENT_REQUIRED_VAR")
	mustGetEnv("NONEXISTENT_REQUIRED_VAR")
}

func TestMustGetEnv_ReturnsValue(t *testing.T) {
	os.Setenv("TEST_REQUIRED", "value123")
	defer os.Unsetenv("TEST_REQUIRED")

	result := mustGetEnv("TEST_REQUIRED")
	if result != "value123" {
		t.Errorf("Expected 'value123', got %q", result)
	}
}

// Load must refuse to start the process when any required variable is absent.
func TestLoad_MissingRequiredVarPanics(t *testing.T) {
	os.Setenv("COHERE_API_KEY", "test-key")
	os.Setenv("QDRANT_URL", "http://localhost:6333")
	os.Unsetenv("QDRANT_API_KEY")
	defer func() {
		os.Unsetenv("COHERE_API_KEY")
		os.Unsetenv("QDRANT_URL")
	}()

	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic when QDRANT_API_KEY is missing")
		}
	}()

	Load()
}

func TestLoad_Defaults(t *testing.T) {
	os.Setenv("COHERE_API_KEY", "test-key")
	os.Setenv("QDRANT_URL", "http://localhost:6333")
	os.Setenv("QDRANT_API_KEY", "qdrant-key")
	defer func() {
		os.Unsetenv("COHERE_API_KEY")
		os.Unsetenv("QDRANT_URL")
		os.Unsetenv("QDRANT_API_KEY")
	}()

	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Expected default port 8080, got %q", cfg.Port)
	}
	if cfg.QdrantCollection != "book_docs" {
		t.Errorf("Expected default collection 'book_docs', got %q", cfg.QdrantCollection)
	}
	if cfg.TopK != 5 {
		t.Errorf("Expected default topK 5, got %d", cfg.TopK)
	}
	if cfg.VectorStore != "qdrant" {
		t.Errorf("Expected default vector store 'qdrant', got %q", cfg.VectorStore)
	}
	if cfg.UpstreamTimeout != 30*time.Second {
		t.Errorf("Expected default upstream timeout 30s, got %v", cfg.UpstreamTimeout)
	}
}
