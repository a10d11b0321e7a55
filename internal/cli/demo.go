package cli

import (
	"math"

	"github.com/aretw0/framegraph/pkg/adapters/memory"
	"github.com/aretw0/framegraph/pkg/domain"
)

// demoPeriod is the number of frames in one loop of the scripted motion.
const demoPeriod = 240

// faceScript drifts the face slowly around the frame centre and opens the jaw
// twice per loop.
func faceScript() []domain.LandmarkSetList {
	script := make([]domain.LandmarkSetList, demoPeriod)
	for i := range script {
		phase := 2 * math.Pi * float64(i) / demoPeriod
		x := 0.5 + 0.1*math.Cos(phase)
		y := 0.45 + 0.05*math.Sin(phase)
		jaw := 0.01 + 0.04*(0.5+0.5*math.Sin(2*phase))
		script[i] = domain.LandmarkSetList{memory.Face(x, y, jaw)}
	}
	return script
}

// handScript sweeps the index finger in a figure eight, pinching as it
// crosses the middle. The hand leaves the frame for the last eighth of
// the loop so the trail can be seen to decay.
func handScript() []domain.LandmarkSetList {
	script := make([]domain.LandmarkSetList, demoPeriod)
	for i := range script {
		if i >= demoPeriod*7/8 {
			script[i] = domain.LandmarkSetList{}
			continue
		}
		phase := 2 * math.Pi * float64(i) / demoPeriod
		x := 0.5 + 0.3*math.Sin(phase)
		y := 0.5 + 0.2*math.Sin(2*phase)
		pinch := 0.02 + 0.1*math.Abs(math.Sin(phase))
		script[i] = domain.LandmarkSetList{memory.Hand(x, y, pinch)}
	}
	return script
}
