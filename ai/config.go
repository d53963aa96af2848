// Copyright 2025 Worklore Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ai

import (
	"errors"
	"strings"
)

// Config describes the embedding provider.
type Config struct {
	// EmbeddingHost is the base URL of an OpenAI-compatible embedding
	// endpoint, e.g. "http://localhost:11434/v1" for a local Ollama.
	EmbeddingHost string

	// EmbeddingModel names the model, e.g. "embeddinggemma" or
	// "text-embedding-3-small".
	EmbeddingModel string

	// EmbeddingDimensions is the vector size the model produces. The
	// vector index is sized from this; vectors of any other length are
	// treated as stale.
	EmbeddingDimensions int
}

// ConfigOption mutates a Config during construction.
type ConfigOption func(*Config)

func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

func WithEmbeddingDimensions(dim int) ConfigOption {
	return func(c *Config) {
		c.EmbeddingDimensions = dim
	}
}

// DefaultConfig targets a local Ollama with a small embedding model.
func DefaultConfig() *Config {
	return &Config{
		EmbeddingHost:       "http://localhost:11434/v1",
		EmbeddingModel:      "embeddinggemma",
		EmbeddingDimensions: 384,
	}
}

// NewConfig applies opts over the defaults.
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize appends the /v1 path segment OpenAI-compatible servers
// (Ollama, LocalAI, vLLM) expect when the host lacks one. An empty host
// is left alone so Validate can report it.
func (c *Config) Normalize() {
	if c.EmbeddingHost == "" || strings.HasSuffix(c.EmbeddingHost, "/v1") {
		return
	}
	c.EmbeddingHost = strings.TrimSuffix(c.EmbeddingHost, "/") + "/v1"
}

// Validate normalizes the config and reports the first missing or
// out-of-range field.
func (c *Config) Validate() error {
	c.Normalize()

	switch {
	case c.EmbeddingHost == "":
		return errors.New("ai config: EmbeddingHost is required")
	case c.EmbeddingModel == "":
		return errors.New("ai config: EmbeddingModel is required")
	case c.EmbeddingDimensions <= 0:
		return errors.New("ai config: EmbeddingDimensions must be positive")
	}
	return nil
}
