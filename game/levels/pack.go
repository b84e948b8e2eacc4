package levels

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"gopkg.in/yaml.v3"

	"github.com/wricardo/sokoban-game/game/engine"
)

var (
	ErrPackNotFound = errors.New("level pack not found")
	ErrInvalidPack  = errors.New("invalid level pack")
)

// XSB glyphs
const (
	glyphWall         = '#'
	glyphFloor        = ' '
	glyphFloorDash    = '-'
	glyphFloorUnder   = '_'
	glyphGoal         = '.'
	glyphBox          = '$'
	glyphBoxOnGoal    = '*'
	glyphPlayer       = '@'
	glyphPlayerOnGoal = '+'
)

// Recognised pack file extensions
const (
	extJSON = ".json"
	extYAML = ".yaml"
	extYML  = ".yml"
	extZstd = ".zst"
)

// Pack is an ordered collection of levels
type Pack struct {
	ID          string      `json:"-" yaml:"-"`
	Name        string      `json:"name" yaml:"name"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	Levels      []LevelSpec `json:"levels" yaml:"levels"`
}

// LevelSpec is one level written in XSB notation
type LevelSpec struct {
	Name   string   `json:"name,omitempty" yaml:"name,omitempty"`
	Layout []string `json:"layout" yaml:"layout"`
}

// PackInfo summarises a pack for listings
type PackInfo struct {
	Filename    string `json:"filename"`
	PackID      string `json:"pack_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	LevelCount  int    `json:"level_count"`
}

// LevelCount returns the number of levels in the pack
func (p *Pack) LevelCount() int {
	return len(p.Levels)
}

// Level parses level n (1-based). Every call returns a fresh copy.
func (p *Pack) Level(n int) (*engine.LevelData, error) {
	if n < 1 || n > len(p.Levels) {
		return nil, fmt.Errorf("%w: level %d, pack has %d", engine.ErrLevelOutOfRange, n, len(p.Levels))
	}
	spec := p.Levels[n-1]
	name := spec.Name
	if name == "" {
		name = fmt.Sprintf("%s #%d", p.Name, n)
	}
	return ParseLayout(name, spec.Layout)
}

// Clone returns a deep copy of the pack
func (p *Pack) Clone() *Pack {
	out := *p
	out.Levels = make([]LevelSpec, len(p.Levels))
	for i, l := range p.Levels {
		out.Levels[i] = LevelSpec{Name: l.Name, Layout: append([]string(nil), l.Layout...)}
	}
	return &out
}

// Info returns the listing summary for the pack
func (p *Pack) Info(filename string) *PackInfo {
	return &PackInfo{
		Filename:    filename,
		PackID:      p.ID,
		Name:        p.Name,
		Description: p.Description,
		LevelCount:  len(p.Levels),
	}
}

// ParseLayout converts XSB rows into level data. Rows shorter than the widest
// row are padded with wall, and empty floor the player cannot walk to (the
// blank margin outside the walls) becomes wall. Unreachable goals and boxes
// stay on floor so connectivity checks can report them.
func ParseLayout(name string, layout []string) (*engine.LevelData, error) {
	rows := len(layout)
	columns := 0
	grid := make([][]rune, rows)
	for i, line := range layout {
		grid[i] = []rune(strings.TrimRight(line, "\r\n"))
		if len(grid[i]) > columns {
			columns = len(grid[i])
		}
	}

	data := &engine.LevelData{
		Name:       name,
		Rows:       rows,
		Columns:    columns,
		Occupiable: make([][]bool, rows),
	}

	players := 0
	for r, line := range grid {
		data.Occupiable[r] = make([]bool, columns)
		for c, ch := range line {
			p := engine.Position{Row: r, Col: c}
			switch ch {
			case glyphWall:
				continue
			case glyphFloor, glyphFloorDash, glyphFloorUnder:
			case glyphGoal:
				data.Goals = append(data.Goals, p)
			case glyphBox:
				data.Boxes = append(data.Boxes, p)
			case glyphBoxOnGoal:
				data.Goals = append(data.Goals, p)
				data.Boxes = append(data.Boxes, p)
			case glyphPlayer:
				data.Player = p
				players++
			case glyphPlayerOnGoal:
				data.Goals = append(data.Goals, p)
				data.Player = p
				players++
			default:
				return nil, fmt.Errorf("%w: %s: unknown glyph %q at %s", ErrInvalidPack, name, ch, p)
			}
			data.Occupiable[r][c] = true
		}
	}

	if players != 1 {
		return nil, fmt.Errorf("%w: %s: expected exactly one player, found %d", ErrInvalidPack, name, players)
	}

	wallOffExterior(data)
	return data, nil
}

// wallOffExterior turns empty floor outside the player's region into wall.
// Boxes do not block the fill.
func wallOffExterior(data *engine.LevelData) {
	reached := make([][]bool, data.Rows)
	for r := range reached {
		reached[r] = make([]bool, data.Columns)
	}

	reached[data.Player.Row][data.Player.Col] = true
	queue := []engine.Position{data.Player}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		for _, d := range engine.AllDirections() {
			n := p.Step(d, 1)
			if n.Row < 0 || n.Row >= data.Rows || n.Col < 0 || n.Col >= data.Columns {
				continue
			}
			if !data.Occupiable[n.Row][n.Col] || reached[n.Row][n.Col] {
				continue
			}
			reached[n.Row][n.Col] = true
			queue = append(queue, n)
		}
	}

	keep := make(map[engine.Position]bool, len(data.Goals)+len(data.Boxes))
	for _, p := range data.Goals {
		keep[p] = true
	}
	for _, p := range data.Boxes {
		keep[p] = true
	}

	for r := range data.Occupiable {
		for c := range data.Occupiable[r] {
			if data.Occupiable[r][c] && !reached[r][c] && !keep[engine.Position{Row: r, Col: c}] {
				data.Occupiable[r][c] = false
			}
		}
	}
}

// ValidatePack checks that the pack is non-empty and that every level is playable
func ValidatePack(p *Pack) error {
	if p == nil {
		return fmt.Errorf("%w: pack is nil", ErrInvalidPack)
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidPack)
	}
	if len(p.Levels) == 0 {
		return fmt.Errorf("%w: %s has no levels", ErrInvalidPack, p.Name)
	}

	for i := range p.Levels {
		data, err := p.Level(i + 1)
		if err != nil {
			return err
		}
		if err := engine.CheckMap(data.Rows, data.Columns, data.Occupiable, data.Goals, data.Boxes, data.Player); err != nil {
			return fmt.Errorf("%w: level %d (%s): %v", ErrInvalidPack, i+1, data.Name, err)
		}
	}
	return nil
}

// ParsePack decodes a JSON pack document, checks it against the pack schema and validates every level
func ParsePack(data []byte) (*Pack, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: malformed JSON: %v", ErrInvalidPack, err)
	}
	if err := validateDocument(doc); err != nil {
		return nil, err
	}

	var pack Pack
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&pack); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPack, err)
	}

	if err := ValidatePack(&pack); err != nil {
		return nil, err
	}
	return &pack, nil
}

// ParsePackYAML decodes a YAML pack document. YAML is normalised to JSON so that
// both formats pass through the same schema check.
func ParsePackYAML(data []byte) (*Pack, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: malformed YAML: %v", ErrInvalidPack, err)
	}
	normalised, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPack, err)
	}
	return ParsePack(normalised)
}

// DecodePack parses a pack file by name, picking the decoder from its extensions
func DecodePack(filename string, data []byte) (*Pack, error) {
	base := filepath.Base(filename)

	if strings.HasSuffix(base, extZstd) {
		raw, err := decompress(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPack, base, err)
		}
		data = raw
		base = strings.TrimSuffix(base, extZstd)
	}

	var (
		pack *Pack
		err  error
	)
	switch filepath.Ext(base) {
	case extYAML, extYML:
		pack, err = ParsePackYAML(data)
	case extJSON:
		pack, err = ParsePack(data)
	default:
		return nil, fmt.Errorf("%w: %s: unsupported extension", ErrInvalidPack, filename)
	}
	if err != nil {
		return nil, err
	}

	pack.ID = PackID(filename)
	return pack, nil
}

// PackID strips the directory and pack extensions from a file name
func PackID(filename string) string {
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, extZstd)
	for _, ext := range []string{extJSON, extYAML, extYML} {
		if strings.HasSuffix(base, ext) {
			return strings.TrimSuffix(base, ext)
		}
	}
	return base
}

// IsPackFile reports whether the file name has a recognised pack extension
func IsPackFile(filename string) bool {
	base := strings.TrimSuffix(filepath.Base(filename), extZstd)
	switch filepath.Ext(base) {
	case extJSON, extYAML, extYML:
		return true
	}
	return false
}

func decompress(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return dec.DecodeAll(data, nil)
}
