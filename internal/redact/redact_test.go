package redact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScrubTextIDNumber(t *testing.T) {
	s := NewScrubber(nil)

	out, n := s.ScrubText("我的身份证号是 510123199912120011，请帮我查一下")
	assert.Equal(t, 1, n)
	assert.NotContains(t, out, "510123199912120011")
	assert.Contains(t, out, Marker)
}

func TestScrubTextPasswordLabel(t *testing.T) {
	s := NewScrubber(nil)

	out, n := s.ScrubText("密码: Abcd1234 登录不上")
	assert.Equal(t, 1, n)
	assert.NotContains(t, out, "Abcd1234")
	assert.Contains(t, out, Marker)
}

func TestScrubTextBankCard(t *testing.T) {
	s := NewScrubber(nil)

	out, n := s.ScrubText("银行卡号 6222 0202 0000 1234 567 被扣款")
	assert.GreaterOrEqual(t, n, 1)
	assert.NotContains(t, out, "6222 0202 0000 1234 567")
}

func TestScrubTextClean(t *testing.T) {
	s := NewScrubber(nil)

	out, n := s.ScrubText("课程什么时候开课？")
	assert.Equal(t, 0, n)
	assert.Equal(t, "课程什么时候开课？", out)
}

func TestScrubValueNestedFields(t *testing.T) {
	s := NewScrubber([]string{"api_key"})

	in := map[string]any{
		"query": "查订单",
		"user": map[string]any{
			"password": "hunter2",
			"api_key":  "sk-12345",
			"name":     "张三",
		},
		"tags": []any{"a", "b"},
	}
	out, n := s.ScrubValue(in)
	require.GreaterOrEqual(t, n, 2)

	m := out.(map[string]any)
	user := m["user"].(map[string]any)
	assert.Equal(t, Marker, user["password"])
	assert.Equal(t, Marker, user["api_key"])
	assert.Equal(t, "张三", user["name"])
	assert.Equal(t, "查订单", m["query"])
}
