// Package levels provides level packs for the Sokoban game.
//
// The levels package handles:
//   - Loading level packs from JSON, YAML and zstd-compressed files
//   - Schema checks of raw pack documents
//   - Parsing XSB level layouts into engine level data
//   - Default pack selection, discovery and listing
//
// Pack Format:
//
// A pack is a named, ordered list of levels. Each level is a list of rows in
// XSB notation:
//
//	#  wall              .  goal
//	   floor (also - _)  $  box
//	@  player            *  box on goal
//	+  player on goal
//
// Rows shorter than the widest row are padded with wall. Every level must
// contain exactly one player and as many boxes as goals.
//
// Files are named <id>.json, <id>.yaml or <id>.yml, optionally followed by
// .zst for zstd compression. The pack ID is the file name without those
// extensions.
//
// Usage:
//
//	manager, err := levels.NewManager("levels")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	pack, err := manager.LoadPack("classic")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Pack implements engine.LevelProvider
//	game, err := engine.NewEngine(pack)
package levels
