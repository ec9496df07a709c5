package i18n

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatch(t *testing.T) {
	m, err := New("zh")
	require.NoError(t, err)

	tests := []struct {
		header string
		want   string
	}{
		{"", "zh"},
		{"en-US,en;q=0.9", "en"},
		{"zh-CN,zh;q=0.9,en;q=0.8", "zh"},
		{"fr-FR", "zh"},
		{"not a header;;;", "zh"},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Match(tt.header))
		})
	}
}

func TestT(t *testing.T) {
	m, err := New("zh")
	require.NoError(t, err)

	ctx := context.Background()
	assert.Equal(t, "上班打卡成功", m.T(ctx, "ClockInSuccess"))
	assert.Equal(t, "Clocked in", m.T(WithLocale(ctx, "en"), "ClockInSuccess"))
	assert.Equal(t, "You can clock in in 5 minutes", m.T(WithLocale(ctx, "en"), "NotEligible", map[string]any{"Minutes": 5}))
	assert.Equal(t, "UnknownMessage", m.T(ctx, "UnknownMessage"))
}

func TestNewRejectsMissingDefault(t *testing.T) {
	_, err := New("fr")
	assert.Error(t, err)
}
