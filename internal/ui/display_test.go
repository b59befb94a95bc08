package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressBar(t *testing.T) {
	assert.Equal(t, "", ProgressBar(0.5, 0))
	assert.Equal(t, strings.Repeat("□", 10), ProgressBar(0, 10))
	assert.Equal(t, strings.Repeat("▪", 10), ProgressBar(1, 10))
	assert.Equal(t, strings.Repeat("▪", 10), ProgressBar(1.5, 10))
	assert.Equal(t, strings.Repeat("□", 10), ProgressBar(-1, 10))
	assert.Equal(t, "▪▪▪▪▪□□□□□", ProgressBar(0.5, 10))
}

func TestSparklineAllZeros(t *testing.T) {
	got := Sparkline([]float64{0, 0, 0}, 3)
	assert.Equal(t, "▁▁▁", got)
}

func TestSparklineSingleSample(t *testing.T) {
	got := Sparkline([]float64{5}, 1)
	assert.Equal(t, "█", got)
}

func TestSparklineNormalRange(t *testing.T) {
	got := Sparkline([]float64{1, 2, 4, 8}, 4)
	assert.Equal(t, 4, len([]rune(got)))
	assert.Equal(t, "█", string([]rune(got)[3]))
}

func TestSparklineAllSame(t *testing.T) {
	got := Sparkline([]float64{3, 3, 3}, 3)
	assert.Equal(t, "███", got)
}

func TestSparklineZeroWidth(t *testing.T) {
	assert.Equal(t, "", Sparkline([]float64{1, 2, 3}, 0))
}

func TestSparklineTruncation(t *testing.T) {
	got := Sparkline([]float64{1, 2, 3, 4, 5}, 2)
	assert.Equal(t, 2, len([]rune(got)))
	assert.Equal(t, "█", string([]rune(got)[1]))
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "0 B", FormatBytes(0))
	assert.Equal(t, "1.0 KiB", FormatBytes(1024))
}
