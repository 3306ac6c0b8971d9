package availability

// Scorer annotates a day's slots in place with demand hints. Implementations
// must be pure over their inputs so annotated results stay cacheable.
type Scorer interface {
	Score(slots []TimeSlot, completedByHour [24]int)
}

// densityScorer marks hours with historically high completed-booking counts as
// popular and nudges clients toward the quietest hour of the day.
type densityScorer struct {
	// popularRatio is the fraction of the busiest hour's count an hour must
	// reach to be flagged popular.
	popularRatio float64
}

func NewDensityScorer() Scorer {
	return &densityScorer{popularRatio: 0.75}
}

func (d *densityScorer) Score(slots []TimeSlot, completedByHour [24]int) {
	max := 0
	for _, n := range completedByHour {
		if n > max {
			max = n
		}
	}
	if max == 0 {
		// No history yet; recommend the earliest open slot so the day still
		// renders a suggestion.
		for i := range slots {
			if slots[i].Available {
				slots[i].Recommended = true
				return
			}
		}
		return
	}

	quietest := -1
	for i := range slots {
		if !slots[i].Available {
			continue
		}
		hour := slots[i].Start.Hour()
		if completedByHour[hour] >= int(float64(max)*d.popularRatio) {
			slots[i].Popular = true
		}
		if quietest == -1 || completedByHour[hour] < completedByHour[slots[quietest].Start.Hour()] {
			quietest = i
		}
	}
	if quietest >= 0 {
		slots[quietest].Recommended = true
	}
}
