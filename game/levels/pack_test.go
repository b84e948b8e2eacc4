package levels

import (
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/sokoban-game/game/engine"
)

const twoLevelPack = `{
  "name": "Test Pack",
  "description": "two small levels",
  "levels": [
    {"name": "straight", "layout": ["#####", "# @ #", "# $ #", "# . #", "#####"]},
    {"layout": ["######", "#@$ .#", "######"]}
  ]
}`

const twoLevelYAML = `name: YAML Pack
description: same levels in YAML
levels:
  - name: straight
    layout:
      - "#####"
      - "# @ #"
      - "# $ #"
      - "# . #"
      - "#####"
  - layout:
      - "######"
      - "#@$ .#"
      - "######"
`

func TestParseLayout(t *testing.T) {
	data, err := ParseLayout("mixed", []string{
		"#######",
		"#.$*+ #",
		"#-_ $.#",
		"####",
	})
	require.NoError(t, err)

	assert.Equal(t, "mixed", data.Name)
	assert.Equal(t, 4, data.Rows)
	assert.Equal(t, 7, data.Columns)
	assert.Equal(t, engine.Position{Row: 1, Col: 4}, data.Player)
	assert.ElementsMatch(t, []engine.Position{{Row: 1, Col: 1}, {Row: 1, Col: 3}, {Row: 1, Col: 4}, {Row: 2, Col: 5}}, data.Goals)
	assert.ElementsMatch(t, []engine.Position{{Row: 1, Col: 2}, {Row: 1, Col: 3}, {Row: 2, Col: 4}}, data.Boxes)

	assert.False(t, data.Occupiable[0][0])
	assert.True(t, data.Occupiable[2][1], "dash is floor")
	assert.True(t, data.Occupiable[2][2], "underscore is floor")
	assert.True(t, data.Occupiable[1][5])

	// Short last row is padded with wall
	require.Len(t, data.Occupiable[3], 7)
	assert.False(t, data.Occupiable[3][6])
}

func TestParseLayout_ExteriorBecomesWall(t *testing.T) {
	data, err := ParseLayout("margin", []string{
		"  #####",
		"###@  #",
		"# $$ .#",
		"#######",
		"#   #.#",
		"#######",
	})
	require.NoError(t, err)

	assert.False(t, data.Occupiable[0][0], "leading blank is outside the walls")
	assert.False(t, data.Occupiable[0][1])
	assert.True(t, data.Occupiable[2][1], "floor behind the box is still reachable")
	assert.False(t, data.Occupiable[4][1], "closed room without objects is walled off")
	assert.False(t, data.Occupiable[4][3])
	assert.True(t, data.Occupiable[4][5], "unreachable goal stays floor")

	// The stray goal is left for connectivity checks rather than hidden
	m, err := engine.NewGridMapFromLevel(data)
	require.NoError(t, err)
	reachable := engine.ReachableCells(m, m.InitialPlayer(), nil)
	assert.NotContains(t, reachable, engine.Position{Row: 4, Col: 5})
}

func TestParseLayout_Errors(t *testing.T) {
	tests := []struct {
		name   string
		layout []string
	}{
		{"missing player", []string{"#####", "# $.#", "#####"}},
		{"two players", []string{"#####", "#@$.#", "#@  #", "#####"}},
		{"unknown glyph", []string{"#####", "#@$X#", "#.  #", "#####"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLayout(tt.name, tt.layout)
			assert.ErrorIs(t, err, ErrInvalidPack)
		})
	}
}

func TestParsePack(t *testing.T) {
	pack, err := ParsePack([]byte(twoLevelPack))
	require.NoError(t, err)

	assert.Equal(t, "Test Pack", pack.Name)
	assert.Equal(t, 2, pack.LevelCount())

	first, err := pack.Level(1)
	require.NoError(t, err)
	assert.Equal(t, "straight", first.Name)
	assert.Equal(t, engine.Position{Row: 1, Col: 2}, first.Player)

	second, err := pack.Level(2)
	require.NoError(t, err)
	assert.Equal(t, "Test Pack #2", second.Name)
	assert.Equal(t, 3, second.Rows)
	assert.Equal(t, 6, second.Columns)

	_, err = pack.Level(3)
	assert.ErrorIs(t, err, engine.ErrLevelOutOfRange)
}

func TestParsePack_SchemaRejections(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"malformed", `{"name": "x", levels}`},
		{"missing name", `{"levels": [{"layout": ["###", "#@#", "###"]}]}`},
		{"empty name", `{"name": "", "levels": [{"layout": ["###", "#@#", "###"]}]}`},
		{"no levels", `{"name": "x", "levels": []}`},
		{"layout not strings", `{"name": "x", "levels": [{"layout": [1, 2, 3]}]}`},
		{"layout too short", `{"name": "x", "levels": [{"layout": ["#@$.#", "#####"]}]}`},
		{"level without layout", `{"name": "x", "levels": [{"name": "empty"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePack([]byte(tt.doc))
			assert.ErrorIs(t, err, ErrInvalidPack)
		})
	}
}

func TestParsePack_UnplayableLevel(t *testing.T) {
	// Two boxes, one goal
	doc := `{"name": "bad", "levels": [{"layout": ["######", "#@$$.#", "######"]}]}`
	_, err := ParsePack([]byte(doc))
	require.ErrorIs(t, err, ErrInvalidPack)
	assert.Contains(t, err.Error(), "level 1")
}

func TestParsePackYAML(t *testing.T) {
	pack, err := ParsePackYAML([]byte(twoLevelYAML))
	require.NoError(t, err)
	assert.Equal(t, "YAML Pack", pack.Name)
	assert.Equal(t, 2, pack.LevelCount())

	_, err = ParsePackYAML([]byte("name: [unclosed"))
	assert.ErrorIs(t, err, ErrInvalidPack)

	_, err = ParsePackYAML([]byte("name: no levels\n"))
	assert.ErrorIs(t, err, ErrInvalidPack)
}

func TestDecodePack(t *testing.T) {
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	compressedJSON := enc.EncodeAll([]byte(twoLevelPack), nil)
	compressedYAML := enc.EncodeAll([]byte(twoLevelYAML), nil)
	require.NoError(t, enc.Close())

	tests := []struct {
		filename string
		data     []byte
		wantID   string
		wantName string
	}{
		{"classic.json", []byte(twoLevelPack), "classic", "Test Pack"},
		{"dir/extra.yaml", []byte(twoLevelYAML), "extra", "YAML Pack"},
		{"short.yml", []byte(twoLevelYAML), "short", "YAML Pack"},
		{"big.json.zst", compressedJSON, "big", "Test Pack"},
		{"big.yaml.zst", compressedYAML, "big", "YAML Pack"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			pack, err := DecodePack(tt.filename, tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, pack.ID)
			assert.Equal(t, tt.wantName, pack.Name)
		})
	}

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := DecodePack("pack.txt", []byte(twoLevelPack))
		assert.ErrorIs(t, err, ErrInvalidPack)
	})

	t.Run("corrupt zstd", func(t *testing.T) {
		_, err := DecodePack("pack.json.zst", []byte("not zstd"))
		assert.ErrorIs(t, err, ErrInvalidPack)
	})
}

func TestPackID(t *testing.T) {
	assert.Equal(t, "classic", PackID("classic"))
	assert.Equal(t, "classic", PackID("classic.json"))
	assert.Equal(t, "classic", PackID("/levels/classic.yaml.zst"))
	assert.Equal(t, "my.pack", PackID("my.pack.yml"))

	assert.True(t, IsPackFile("a.json"))
	assert.True(t, IsPackFile("a.yml.zst"))
	assert.False(t, IsPackFile("a.zst"))
	assert.False(t, IsPackFile("readme.txt"))
}

func TestPackDrivesEngine(t *testing.T) {
	pack, err := ParsePack([]byte(twoLevelPack))
	require.NoError(t, err)

	game, err := engine.NewEngine(pack)
	require.NoError(t, err)

	_, err = game.Move(engine.Down)
	require.NoError(t, err)
	require.True(t, game.LevelCompleted())
	require.NoError(t, game.LoadNextLevel())

	for i := 0; i < 2; i++ {
		_, err = game.Move(engine.Right)
		require.NoError(t, err)
	}
	assert.True(t, game.IsTerminated())
}

func TestMinimalPackIsValid(t *testing.T) {
	assert.NoError(t, ValidatePack(MinimalPack()))
}
