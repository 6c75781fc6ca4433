package domain

// Layer is a fixed-order visual grouping of widgets
type Layer int

// Layers in paint order, back to front
const (
	LayerFrames Layer = iota
	LayerEdges
	LayerNodes
	LayerIcons
	LayerLabels
)

// LayerCount is the number of layers a canvas owns
const LayerCount = 5

var layerNames = [LayerCount]string{"frames", "edges", "nodes", "icons", "labels"}

// Layers returns all layers in paint order
func Layers() []Layer {
	return []Layer{LayerFrames, LayerEdges, LayerNodes, LayerIcons, LayerLabels}
}

// Valid reports whether l names one of the five layers
func (l Layer) Valid() bool {
	return l >= LayerFrames && l <= LayerLabels
}

func (l Layer) String() string {
	if !l.Valid() {
		return "unknown"
	}
	return layerNames[l]
}
