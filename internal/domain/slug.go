package domain

import (
	"math/rand"
	"strings"
)

// slugPrefixes 短链接前缀集合，均为爱意主题的短词。
var slugPrefixes = []string{"luv", "xo", "4u", "hey", "hi"}

// slugAlphabet 36 进制字母表（数字 + 小写字母）
const slugAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// slugCodeLength 随机码长度，36^4 ≈ 168 万组合
const slugCodeLength = 4

// GenerateSlug 生成形如 "luv-x7k2" 的短链接标识。
// 纯计算、无共享状态，可并发调用；唯一性由存储层的唯一索引保证。
func GenerateSlug() string {
	var b strings.Builder
	b.Grow(len(slugPrefixes[0]) + 1 + slugCodeLength)
	b.WriteString(slugPrefixes[rand.Intn(len(slugPrefixes))])
	b.WriteByte('-')
	for i := 0; i < slugCodeLength; i++ {
		b.WriteByte(slugAlphabet[rand.Intn(len(slugAlphabet))])
	}
	return b.String()
}

// SlugPrefixes 返回前缀集合的副本，供校验与测试使用。
func SlugPrefixes() []string {
	out := make([]string, len(slugPrefixes))
	copy(out, slugPrefixes)
	return out
}
