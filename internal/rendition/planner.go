package rendition

import (
	"fmt"
	"sort"
	"strconv"

	"dashpress/internal/services"
)

// Spec is an immutable description of one output variant. The ID is stable
// across re-runs of the same plan and is embedded in segment filenames.
type Spec struct {
	ID               string
	Width            int
	Height           int
	VideoBitrateKbps int
	AudioBitrateKbps int
}

// Label returns the conventional tier name, e.g. "720p".
func (s Spec) Label() string {
	return fmt.Sprintf("%dp", s.Height)
}

// maxRenditions caps a plan at four variants; the tallest eligible tier plus
// three progressively smaller ones.
const maxRenditions = 4

// defaultHeights is the fixed tier ladder, tallest first.
var defaultHeights = []int{1080, 720, 480, 360, 240}

// Plan computes the ordered rendition list for a source of the given native
// height. Tiers above the source height are dropped (no upscaling); at most
// maxRenditions of the tallest eligible tiers are kept. A nil or empty
// heights slice selects the default ladder. Order matters only for manifest
// listing.
func Plan(sourceHeight int, heights []int) ([]Spec, error) {
	if sourceHeight <= 0 {
		return nil, services.Wrap(services.ErrNoRenditions, "plan", "probe",
			fmt.Sprintf("source height %d", sourceHeight), nil)
	}

	ladder := defaultHeights
	if len(heights) > 0 {
		ladder = append([]int(nil), heights...)
		sort.Sort(sort.Reverse(sort.IntSlice(ladder)))
	}

	specs := make([]Spec, 0, maxRenditions)
	for _, height := range ladder {
		if height > sourceHeight {
			continue
		}
		specs = append(specs, Spec{
			Height:           height,
			Width:            widthFor(height),
			VideoBitrateKbps: videoBitrateKbps(height),
			AudioBitrateKbps: audioBitrateKbps(height),
		})
		if len(specs) == maxRenditions {
			break
		}
	}

	if len(specs) == 0 {
		return nil, services.Wrap(services.ErrNoRenditions, "plan", "ladder",
			fmt.Sprintf("source height %d below smallest tier %d", sourceHeight, ladder[len(ladder)-1]), nil)
	}

	for i := range specs {
		specs[i].ID = strconv.Itoa(i)
	}
	return specs, nil
}

// widthFor returns the 16:9 width for known tiers and derives an even width
// for custom ladder heights.
func widthFor(height int) int {
	switch height {
	case 1080:
		return 1920
	case 720:
		return 1280
	case 480:
		return 854
	case 360:
		return 640
	case 240:
		return 426
	default:
		width := height * 16 / 9
		if width%2 != 0 {
			width++
		}
		return width
	}
}

// videoBitrateKbps maps a tier height to its video bitrate. The table is
// monotonic: taller tiers always receive more bits.
func videoBitrateKbps(height int) int {
	switch {
	case height >= 1080:
		return 5000
	case height >= 720:
		return 2800
	case height >= 480:
		return 1400
	case height >= 360:
		return 800
	default:
		return 400
	}
}

// audioBitrateKbps maps a tier height to its audio bitrate. The audio table
// is coarser than the video one; adjacent tiers share a rate.
func audioBitrateKbps(height int) int {
	switch {
	case height >= 720:
		return 128
	case height >= 360:
		return 96
	default:
		return 64
	}
}
