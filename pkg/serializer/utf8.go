package serializer

import (
	"strings"
	"unicode/utf8"
)

// decodeReplace 按 UTF-8 解码 b，每个非法的最大子序列替换为一个 U+FFFD。
//
// 与 utf8.DecodeRune 逐字节替换不同，一个被截断的多字节序列（例如 F0 9F 8D）
// 只产生一个替换字符。
func decodeReplace(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}

	var sb strings.Builder
	sb.Grow(len(b) + 8)
	for i := 0; i < len(b); {
		if b[i] < utf8.RuneSelf {
			sb.WriteByte(b[i])
			i++
			continue
		}
		r, size := utf8.DecodeRune(b[i:])
		if r != utf8.RuneError || size > 1 {
			sb.Write(b[i : i+size])
			i += size
			continue
		}
		sb.WriteRune(utf8.RuneError)
		i += invalidPrefixLen(b[i:])
	}
	return sb.String()
}

// invalidPrefixLen 返回 b 开头非法序列的最大子部分长度（至少为 1）。
// b[0] 已知不能开始一个完整合法的序列。
func invalidPrefixLen(b []byte) int {
	need, lo, hi := sequenceShape(b[0])
	if need == 0 {
		return 1
	}
	n := 1
	for ; n <= need && n < len(b); n++ {
		c := b[n]
		if n == 1 {
			if c < lo || c > hi {
				break
			}
			continue
		}
		if c < 0x80 || c > 0xbf {
			break
		}
	}
	return n
}

// sequenceShape 返回以 lead 开头的序列还需要的后续字节数，以及第二个字节的合法范围。
func sequenceShape(lead byte) (need int, lo, hi byte) {
	switch {
	case lead >= 0xc2 && lead <= 0xdf:
		return 1, 0x80, 0xbf
	case lead == 0xe0:
		return 2, 0xa0, 0xbf
	case lead >= 0xe1 && lead <= 0xec, lead == 0xee, lead == 0xef:
		return 2, 0x80, 0xbf
	case lead == 0xed:
		return 2, 0x80, 0x9f
	case lead == 0xf0:
		return 3, 0x90, 0xbf
	case lead >= 0xf1 && lead <= 0xf3:
		return 3, 0x80, 0xbf
	case lead == 0xf4:
		return 3, 0x80, 0x8f
	default:
		return 0, 0, 0
	}
}
