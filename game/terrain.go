package game

// Terrain classifies a hex of the static board.
type Terrain string

const (
	TerrainGrass Terrain = "grass"
	TerrainPath  Terrain = "path"
	TerrainWater Terrain = "water"
	TerrainDeep  Terrain = "deep_water"
	TerrainHill  Terrain = "hill"
	TerrainShort Terrain = "short_grass"
	TerrainTall  Terrain = "tall_grass"
	TerrainTree  Terrain = "tree"
	TerrainRock  Terrain = "rock"
	TerrainHouse Terrain = "house"
)

// obstacleTerrains are terrains the follower can never stand on.
var obstacleTerrains = map[Terrain]bool{
	TerrainWater: true,
	TerrainDeep:  true,
	TerrainTree:  true,
	TerrainRock:  true,
	TerrainHouse: true,
}

// IsObstacle reports whether the terrain blocks movement.
func (t Terrain) IsObstacle() bool {
	return obstacleTerrains[t]
}

// Hex is one static board cell.
type Hex struct {
	Terrain  Terrain  `json:"terrain"`
	Position Position `json:"position"`
}
