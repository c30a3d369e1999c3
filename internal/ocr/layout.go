package ocr

import (
	"image"
	"sort"
	"strings"
)

// Word is a recognized word with its bounding box in image coordinates.
type Word struct {
	Text string
	Box  image.Rectangle
}

// Rows groups words into text lines by vertical overlap and splits each line
// into cells wherever the horizontal gap between words is wider than gapFactor
// times the line height.
func Rows(words []Word, gapFactor float64) [][]string {
	if len(words) == 0 {
		return nil
	}
	sorted := make([]Word, 0, len(words))
	for _, w := range words {
		if strings.TrimSpace(w.Text) != "" {
			sorted = append(sorted, w)
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Box.Min.Y != sorted[j].Box.Min.Y {
			return sorted[i].Box.Min.Y < sorted[j].Box.Min.Y
		}
		return sorted[i].Box.Min.X < sorted[j].Box.Min.X
	})

	var lines [][]Word
	for _, w := range sorted {
		if n := len(lines); n > 0 && sameLine(lines[n-1], w) {
			lines[n-1] = append(lines[n-1], w)
			continue
		}
		lines = append(lines, []Word{w})
	}

	rows := make([][]string, 0, len(lines))
	for _, line := range lines {
		rows = append(rows, cells(line, gapFactor))
	}
	return rows
}

// sameLine reports whether w vertically overlaps the first word of line by at
// least half of the smaller height.
func sameLine(line []Word, w Word) bool {
	ref := line[0].Box
	top := max(ref.Min.Y, w.Box.Min.Y)
	bottom := min(ref.Max.Y, w.Box.Max.Y)
	overlap := bottom - top
	minHeight := min(ref.Dy(), w.Box.Dy())
	return minHeight > 0 && overlap*2 >= minHeight
}

func cells(line []Word, gapFactor float64) []string {
	sort.Slice(line, func(i, j int) bool { return line[i].Box.Min.X < line[j].Box.Min.X })

	height := 0
	for _, w := range line {
		height = max(height, w.Box.Dy())
	}
	threshold := int(float64(height) * gapFactor)

	var out []string
	current := []string{line[0].Text}
	for i := 1; i < len(line); i++ {
		gap := line[i].Box.Min.X - line[i-1].Box.Max.X
		if gap > threshold {
			out = append(out, strings.Join(current, " "))
			current = nil
		}
		current = append(current, line[i].Text)
	}
	return append(out, strings.Join(current, " "))
}
