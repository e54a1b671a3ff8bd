// Package translatemock contains mocks for the translation service client.
package translatemock

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockTranslator is a mock implementation of translate.Translator.
type MockTranslator struct {
	mock.Mock
}

func (m *MockTranslator) Translate(ctx context.Context, text string) (string, error) {
	args := m.Called(ctx, text)
	return args.String(0), args.Error(1)
}
