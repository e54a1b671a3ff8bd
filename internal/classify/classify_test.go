package classify_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taozh/xlfanyi/internal/classify"
)

func TestIsBilingual(t *testing.T) {
	tests := map[string]struct {
		text string
		exp  bool
	}{
		"Plain Chinese text is not bilingual": {
			text: "报告问题",
			exp:  false,
		},
		"Bracket form with Latin content is bilingual": {
			text: "报告问题(Report issue)",
			exp:  true,
		},
		"Bracket form not at the end is not bilingual": {
			text: "报告(Report)问题",
			exp:  false,
		},
		"Bracket starting with a digit is not bilingual": {
			text: "报告问题(123)",
			exp:  false,
		},
		"Two lines with Latin first line is bilingual": {
			text: "Fixed\n已修复",
			exp:  true,
		},
		"Two lines with Chinese first line is bilingual when it holds a Latin letter": {
			text: "已修复v2\nFixed",
			exp:  true,
		},
		"Two lines with pure Chinese first line is not bilingual": {
			text: "已修复\nFixed",
			exp:  false,
		},
		"Single line Latin only is not bilingual": {
			text: "Fixed",
			exp:  false,
		},
		"Empty text is not bilingual": {
			text: "",
			exp:  false,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.exp, classify.IsBilingual(tt.text))
		})
	}
}

func TestNormalizeOrder(t *testing.T) {
	tests := map[string]struct {
		text string
		exp  string
	}{
		"Bracket form moves English above Chinese": {
			text: "报告问题(Report issue)",
			exp:  "Report issue\n报告问题",
		},
		"Bracket form with surrounding spaces is trimmed": {
			text: "报告问题 (Report issue) ",
			exp:  "Report issue\n报告问题",
		},
		"Chinese-then-English two lines are swapped": {
			text: "已修复\nFixed",
			exp:  "Fixed\n已修复",
		},
		"English-then-Chinese two lines are unchanged": {
			text: "Fixed\n已修复",
			exp:  "Fixed\n已修复",
		},
		"Both lines Chinese are unchanged": {
			text: "已修复\n已关闭",
			exp:  "已修复\n已关闭",
		},
		"Neither line Chinese is unchanged": {
			text: "Fixed\nClosed",
			exp:  "Fixed\nClosed",
		},
		"Three lines are unchanged": {
			text: "Fixed\n已修复\n备注",
			exp:  "Fixed\n已修复\n备注",
		},
		"Plain text is unchanged": {
			text: "报告问题",
			exp:  "报告问题",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.exp, classify.NormalizeOrder(tt.text))
		})
	}
}

func TestContainsCJK(t *testing.T) {
	assert.True(t, classify.ContainsCJK("已修复"))
	assert.True(t, classify.ContainsCJK("v2 已修复"))
	assert.False(t, classify.ContainsCJK("Fixed v2"))
	assert.False(t, classify.ContainsCJK(""))
}
