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

package mock

import (
	"context"
	"hash/fnv"
	"math"
	"sync"
)

// DefaultDimensions is the vector size of the built-in deterministic
// embeddings.
const DefaultDimensions = 384

// MockEmbedder is a test double for ai.Embedder. With no function fields
// set it hashes the text into a stable unit vector, so equal text always
// embeds equally; tests override EmbedTextFunc or EmbedTextsFunc to
// simulate failures or fix specific vectors.
type MockEmbedder struct {
	EmbedTextFunc  func(ctx context.Context, text string) ([]float32, error)
	EmbedTextsFunc func(ctx context.Context, texts []string) ([][]float32, error)

	mu        sync.Mutex
	callCount int
}

func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{}
}

func (m *MockEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()

	if m.EmbedTextFunc != nil {
		return m.EmbedTextFunc(ctx, text)
	}
	return hashVector(text, DefaultDimensions), nil
}

func (m *MockEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()

	if m.EmbedTextsFunc != nil {
		return m.EmbedTextsFunc(ctx, texts)
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = hashVector(text, DefaultDimensions)
	}
	return vectors, nil
}

// CallCount reports how many times either embed method was invoked.
func (m *MockEmbedder) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Reset clears the call count and any injected behavior.
func (m *MockEmbedder) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.EmbedTextFunc = nil
	m.EmbedTextsFunc = nil
}

// hashVector expands an FNV hash of the text into a unit vector with a
// small linear congruential generator.
func hashVector(text string, dim int) []float32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	state := h.Sum32()

	vector := make([]float32, dim)
	var sumSquares float64
	for i := range vector {
		state = state*1664525 + 1013904223
		v := float32(state%1000) / 1000.0
		vector[i] = v
		sumSquares += float64(v) * float64(v)
	}

	if norm := math.Sqrt(sumSquares); norm > 0 {
		inv := float32(1 / norm)
		for i := range vector {
			vector[i] *= inv
		}
	}
	return vector
}
