package importer

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"venue-editor/internal/editor/models"
)

// ============================================================
// Path Parser
// ============================================================

// ParsePath разбирает команды M/L/H/V/Z (абсолютные и относительные) в
// список вершин. Повторённые пары координат после M/L трактуются как L.
// Кривые не поддерживаются: команда с неизвестной буквой — ошибка.
func ParsePath(d string) ([]models.Point, error) {
	tokens, err := tokenize(d)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("empty path")
	}

	var (
		points []models.Point
		cur    models.Point
		start  models.Point
		cmd    byte
	)

	for i := 0; i < len(tokens); {
		if tokens[i].cmd != 0 {
			cmd = tokens[i].cmd
			i++
			if cmd == 'Z' || cmd == 'z' {
				cur = start
				points = append(points, start)
				continue
			}
		} else if cmd == 0 {
			return nil, fmt.Errorf("path must start with a command")
		}

		need := 2
		if cmd == 'H' || cmd == 'h' || cmd == 'V' || cmd == 'v' {
			need = 1
		}
		args, n := numbers(tokens[i:], need)
		if n < need {
			return nil, fmt.Errorf("command %c: expected %d numbers", cmd, need)
		}
		i += n

		switch cmd {
		case 'M':
			cur = models.Point{X: args[0], Y: args[1]}
			start = cur
			cmd = 'L'
		case 'm':
			cur = models.Point{X: cur.X + args[0], Y: cur.Y + args[1]}
			start = cur
			cmd = 'l'
		case 'L':
			cur = models.Point{X: args[0], Y: args[1]}
		case 'l':
			cur = models.Point{X: cur.X + args[0], Y: cur.Y + args[1]}
		case 'H':
			cur.X = args[0]
		case 'h':
			cur.X += args[0]
		case 'V':
			cur.Y = args[0]
		case 'v':
			cur.Y += args[0]
		default:
			return nil, fmt.Errorf("unsupported path command %c", cmd)
		}
		points = append(points, cur)
	}

	return points, nil
}

type token struct {
	cmd byte
	num float64
}

func numbers(tokens []token, n int) ([]float64, int) {
	out := make([]float64, 0, n)
	for _, t := range tokens {
		if len(out) == n || t.cmd != 0 {
			break
		}
		out = append(out, t.num)
	}
	return out, len(out)
}

func tokenize(d string) ([]token, error) {
	var out []token
	s := strings.TrimSpace(d)
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == ',' || unicode.IsSpace(rune(c)):
			i++
		case strings.IndexByte("MmLlHhVvZz", c) >= 0:
			out = append(out, token{cmd: c})
			i++
		case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
			j := scanNumber(s, i)
			v, err := strconv.ParseFloat(s[i:j], 64)
			if err != nil {
				return nil, fmt.Errorf("bad number %q: %w", s[i:j], err)
			}
			out = append(out, token{num: v})
			i = j
		default:
			return nil, fmt.Errorf("unsupported path command %c", c)
		}
	}
	return out, nil
}

// scanNumber находит конец числа; "10-5" — это два числа.
func scanNumber(s string, i int) int {
	j := i
	if s[j] == '-' || s[j] == '+' {
		j++
	}
	dot := false
	for j < len(s) {
		c := s[j]
		switch {
		case c >= '0' && c <= '9':
		case c == '.' && !dot:
			dot = true
		case (c == 'e' || c == 'E') && j+1 < len(s):
			j++
			if s[j] == '-' || s[j] == '+' {
				j++
			}
			continue
		default:
			return j
		}
		j++
	}
	return j
}

// BoundsOf — охватывающий прямоугольник вершин.
func BoundsOf(points []models.Point) (models.Rect, bool) {
	if len(points) == 0 {
		return models.Rect{}, false
	}
	minX, minY := points[0].X, points[0].Y
	maxX, maxY := minX, minY
	for _, p := range points[1:] {
		minX = min(minX, p.X)
		minY = min(minY, p.Y)
		maxX = max(maxX, p.X)
		maxY = max(maxY, p.Y)
	}
	return models.Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}, true
}
