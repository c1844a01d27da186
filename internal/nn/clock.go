package nn

import "math"

// quadratureClock generates sine and cosine samples from a quarter-wave table.
// The cursor walks the table once per quadrant; odd quadrants read it
// reversed and quadrants 2 and 3 are negated.
type quadratureClock struct {
	table    []float64
	index    int
	quadrant int
}

func newQuadratureClock(frequency int) quadratureClock {
	points := frequency / 4
	if points < 0 {
		points = 0
	}
	table := make([]float64, points)
	for i := range table {
		table[i] = math.Sin(float64(i) / float64(points) * (math.Pi / 2))
	}
	return quadratureClock{table: table}
}

func (c *quadratureClock) advance() {
	if len(c.table) == 0 {
		return
	}
	c.index++
	if c.index == len(c.table) {
		c.index = 0
		c.quadrant = (c.quadrant + 1) % 4
	}
}

func (c *quadratureClock) sine() float64 {
	return c.value(c.quadrant)
}

// cosine leads the sine by one quadrant on the same cursor.
func (c *quadratureClock) cosine() float64 {
	return c.value((c.quadrant + 1) % 4)
}

func (c *quadratureClock) value(quadrant int) float64 {
	if len(c.table) == 0 {
		return 0
	}
	var p float64
	if quadrant%2 == 1 {
		// table[len] would be sin(pi/2); it is not stored.
		if c.index == 0 {
			p = 1
		} else {
			p = c.table[len(c.table)-c.index]
		}
	} else {
		p = c.table[c.index]
	}
	if quadrant >= 2 {
		p = -p
	}
	return p
}

func (c *quadratureClock) reset() {
	c.index = 0
	c.quadrant = 0
}
