package renderer

// RenderStats contains statistics about the rendering process
type RenderStats struct {
	TotalPixels int // Total number of pixels rendered
	Hits        int // Pixels whose primary ray hit an element
	Misses      int // Pixels that received the background
	Tiles       int // Number of tiles rendered (1 for a sequential render)
}

// Merge accumulates the counts of another stats value
func (rs *RenderStats) Merge(other RenderStats) {
	rs.TotalPixels += other.TotalPixels
	rs.Hits += other.Hits
	rs.Misses += other.Misses
	rs.Tiles += other.Tiles
}

// HitRatio returns the fraction of pixels that hit geometry
func (rs RenderStats) HitRatio() float64 {
	if rs.TotalPixels == 0 {
		return 0
	}
	return float64(rs.Hits) / float64(rs.TotalPixels)
}
