package layout

// Fragment is one positioned text run from a PDF page. Coordinates are in PDF
// user-space units with the origin at the top-left of the page, so Y grows
// downward (readers working from raw PDF coordinates must flip the axis).
type Fragment struct {
	Text string
	X    float64
	Y    float64
	W    float64
	H    float64
}
