package city

import "github.com/OCharnyshevich/citycraft/pkg/world/spatial"

// LotIndex maps every tile covered by a lot to that lot. When lots
// overlap the later one wins.
func (c *City) LotIndex() *spatial.Index2[*Lot] {
	ix := spatial.NewIndex2[*Lot]()
	for i := range c.Lots {
		l := &c.Lots[i]
		l.Tiles(func(tx, tz int) {
			ix.Put(tx, tz, l)
		})
	}
	return ix
}
