// Package render draws the placeholder line artwork for a snapshot. Output is
// a pure function of the metrics and canvas.
package render

import (
	"bytes"
	"fmt"
	"html"
	"strings"
)

const (
	MimeSVG = "image/svg+xml"

	// A4 portrait.
	DefaultWidthMM  = 210
	DefaultHeightMM = 297
)

const (
	lineCount  = 120
	padding    = 12.0
	background = "#0b0b0c"
	foreground = "#e7e7ea"
	accent     = "#7afcff"
	fontFamily = "ui-monospace, SFMono-Regular, Menlo, Monaco, Consolas, monospace"
)

type Canvas struct {
	WidthMM  int
	HeightMM int
	Kind     string
}

// SVG renders m onto c. Identical inputs produce identical bytes.
func SVG(m Metrics, c Canvas) []byte {
	w := float64(c.WidthMM)
	h := float64(c.HeightMM)
	rand := mulberry32(hashSeed(m.Seed))

	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" width="%dmm" height="%dmm" viewBox="0 0 %d %d">`+"\n",
		c.WidthMM, c.HeightMM, c.WidthMM, c.HeightMM)
	fmt.Fprintf(&buf, `  <rect x="0" y="0" width="%d" height="%d" fill="%s"/>`+"\n", c.WidthMM, c.HeightMM, background)
	buf.WriteString("  <g>\n")
	for i := 0; i < lineCount; i++ {
		x1 := lerp(padding, w-padding, rand())
		y1 := lerp(padding, h-padding, rand())
		x2 := lerp(padding, w-padding, rand())
		y2 := lerp(padding, h-padding, rand())
		stroke, opacity, width := foreground, "0.16", "0.25"
		if i%9 == 0 {
			stroke, opacity, width = accent, "0.9", "0.6"
		}
		fmt.Fprintf(&buf, `    <line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-opacity="%s" stroke-width="%s"/>`+"\n",
			x1, y1, x2, y2, stroke, opacity, width)
	}
	buf.WriteString("  </g>\n")

	meta := captionLines(m, c.Kind)
	for i, text := range meta {
		y := h - padding - float64(len(meta)-1-i)*4.2
		fmt.Fprintf(&buf, `  <text x="%g" y="%.1f" font-size="3.2" fill="%s" fill-opacity="0.7" font-family="%s">%s</text>`+"\n",
			padding, y, foreground, fontFamily, html.EscapeString(text))
	}
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func captionLines(m Metrics, kind string) []string {
	lines := []string{"kind: " + kind, "generated_at: " + m.GeneratedAt}
	if m.SleepScore != nil {
		lines = append(lines, fmt.Sprintf("sleep_score: %d", *m.SleepScore))
	}
	if m.RestingHR != nil {
		lines = append(lines, fmt.Sprintf("resting_hr: %d", *m.RestingHR))
	}
	if m.Steps != nil {
		lines = append(lines, fmt.Sprintf("steps: %d", *m.Steps))
	}
	if note := strings.TrimSpace(m.Note); note != "" {
		if len(note) > 90 {
			note = note[:90]
		}
		lines = append(lines, "note: "+note)
	}
	return lines
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func hashSeed(s string) uint32 {
	h := uint32(1779033703) ^ uint32(len(s))
	for i := 0; i < len(s); i++ {
		h = (h ^ uint32(s[i])) * 3432918353
		h = h<<13 | h>>19
	}
	return h
}

func mulberry32(a uint32) func() float64 {
	return func() float64 {
		a += 0x6d2b79f5
		t := a
		t = (t ^ t>>15) * (t | 1)
		t ^= t + (t^t>>7)*(t|61)
		return float64(t^t>>14) / 4294967296
	}
}
