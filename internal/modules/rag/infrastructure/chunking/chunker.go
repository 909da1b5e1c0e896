package chunking

import (
	"regexp"
	"strings"
)

var (
	nonAlnumRe   = regexp.MustCompile(`[^A-Za-z0-9]`)
	multiSpaceRe = regexp.MustCompile(`\s+`)
)

// Chunker 将清洗后的文本切分为固定大小、带重叠的多个窗口。
// 纯函数语义：同样的输入与参数总是产出同样的切片序列。
type Chunker struct {
	Size    int
	Overlap int
	MaxLen  int
}

func NewChunker(size, overlap, maxLen int) *Chunker {
	if size <= 0 {
		size = 350
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 2
	}
	if maxLen <= 0 {
		maxLen = 1500
	}
	return &Chunker{Size: size, Overlap: overlap, MaxLen: maxLen}
}

// Sanitize 把所有非字母数字字符替换为空格，再压缩连续空白并去掉首尾空格。
// 幂等：Sanitize(Sanitize(t)) == Sanitize(t)。
func Sanitize(text string) string {
	cleaned := nonAlnumRe.ReplaceAllString(text, " ")
	cleaned = multiSpaceRe.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}

// Chunk 清洗一次后按窗口滑动切分，每步前进 size-overlap。
// 窗口去首尾空格后为空或超过 MaxLen 的丢弃。
// 清洗后没有任何可用字符时返回空序列，由调用方判定为摄取失败。
func (c *Chunker) Chunk(text string) []string {
	cleaned := Sanitize(text)
	if cleaned == "" {
		return []string{}
	}

	runes := []rune(cleaned)
	totalLen := len(runes)
	step := c.Size - c.Overlap
	if step <= 0 {
		step = 1
	}

	chunks := make([]string, 0, totalLen/step+1)
	for i := 0; i < totalLen; i += step {
		end := i + c.Size
		if end > totalLen {
			end = totalLen
		}
		piece := strings.TrimSpace(string(runes[i:end]))
		if piece != "" && len([]rune(piece)) <= c.MaxLen {
			chunks = append(chunks, piece)
		}
		if end == totalLen {
			break
		}
	}
	return chunks
}
