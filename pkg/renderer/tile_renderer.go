package renderer

import (
	"image"
)

// Tile represents a rectangular region of the image to be rendered
type Tile struct {
	ID     int             // Unique tile identifier, row-major
	Bounds image.Rectangle // Pixel bounds (x0,y0,x1,y1)
}

// NewTileGrid creates a grid of non-overlapping tiles covering the entire image
func NewTileGrid(width, height, tileSize int) []*Tile {
	var tiles []*Tile
	tileID := 0

	// Calculate number of tiles in each dimension
	tilesX := (width + tileSize - 1) / tileSize // Ceiling division
	tilesY := (height + tileSize - 1) / tileSize

	for tileY := 0; tileY < tilesY; tileY++ {
		for tileX := 0; tileX < tilesX; tileX++ {
			x0 := tileX * tileSize
			y0 := tileY * tileSize
			x1 := min(x0+tileSize, width) // Don't exceed image bounds
			y1 := min(y0+tileSize, height)

			tiles = append(tiles, &Tile{ID: tileID, Bounds: image.Rect(x0, y0, x1, y1)})
			tileID++
		}
	}

	return tiles
}

// TileRenderer renders individual tiles of one scene into a shared sink
type TileRenderer struct {
	raytracer *Raytracer
	sink      PixelSink
}

// NewTileRenderer creates a new tile renderer
func NewTileRenderer(raytracer *Raytracer, sink PixelSink) *TileRenderer {
	return &TileRenderer{
		raytracer: raytracer,
		sink:      sink,
	}
}

// RenderTile renders the pixels of one tile. Tiles never overlap, so
// concurrent calls for different tiles write disjoint pixels.
func (tr *TileRenderer) RenderTile(tile *Tile) RenderStats {
	return tr.raytracer.RenderBounds(tile.Bounds, tr.sink)
}
