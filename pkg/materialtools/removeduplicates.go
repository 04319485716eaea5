package materialtools

import "github.com/assettools/sceneforge/pkg/trade"

// RemoveDuplicates collapses structurally equal materials. The first
// occurrence of each distinct material survives, survivors keep their
// relative order, and the returned mapping translates every input index
// to its survivor's index in the output. Running the result through
// again is a no-op.
func RemoveDuplicates(materials []*trade.MaterialData) ([]*trade.MaterialData, []uint32) {
	unique := make([]*trade.MaterialData, 0, len(materials))
	mapping := make([]uint32, len(materials))

	for i, m := range materials {
		found := false
		for ui, u := range unique {
			if trade.MaterialsEqual(m, u) {
				mapping[i] = uint32(ui)
				found = true
				break
			}
		}
		if !found {
			mapping[i] = uint32(len(unique))
			unique = append(unique, m)
		}
	}
	return unique, mapping
}
