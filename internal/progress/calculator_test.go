package progress

import (
	"math/rand"
	"testing"

	"copilot_inside_backend/internal/catalog"
)

func TestComputeActivityPercent_BooleanTypes(t *testing.T) {
	booleans := []catalog.ActivityType{catalog.Video, catalog.Chat, catalog.Skill, catalog.Conclusion}

	for _, typ := range booleans {
		if got := ComputeActivityPercent(typ, ActivityState{}, 0); got != 0 {
			t.Errorf("%s not done: percent = %d, want 0", typ, got)
		}
		if got := ComputeActivityPercent(typ, ActivityState{Done: true}, 0); got != 100 {
			t.Errorf("%s done: percent = %d, want 100", typ, got)
		}
	}
}

func TestComputeActivityPercent_SteppedRounding(t *testing.T) {
	tests := []struct {
		name  string
		steps []int
		total int
		want  int
	}{
		{"no steps", nil, 3, 0},
		{"one of three", []int{0}, 3, 33},
		{"two of three", []int{0, 1}, 3, 67},
		{"all of three", []int{0, 1, 2}, 3, 100},
		{"one of six", []int{2}, 6, 17},
		{"five of six", []int{0, 1, 2, 3, 4}, 6, 83},
		{"over total clamps", []int{0, 1, 2, 3, 4}, 3, 100},
	}

	for _, tt := range tests {
		var st ActivityState
		for _, s := range tt.steps {
			st.AddStep(s)
		}
		if got := ComputeActivityPercent(catalog.Tutor, st, tt.total); got != tt.want {
			t.Errorf("%s: percent = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestComputeActivityPercent_DuplicateStepIsNoop(t *testing.T) {
	var st ActivityState
	st.AddStep(1)
	once := ComputeActivityPercent(catalog.Upload, st, 4)

	if changed := st.AddStep(1); changed {
		t.Error("AddStep(1) twice reported a change")
	}
	twice := ComputeActivityPercent(catalog.Upload, st, 4)

	if once != twice {
		t.Errorf("duplicate step changed percent: %d -> %d", once, twice)
	}
}

func TestComputeActivityPercent_Monotonic(t *testing.T) {
	const total = 7
	var st ActivityState
	prev := 0
	for i := 0; i < total+3; i++ {
		st.AddStep(i)
		got := ComputeActivityPercent(catalog.Tutor, st, total)
		if got < prev {
			t.Fatalf("percent decreased from %d to %d after step %d", prev, got, i)
		}
		if got > 100 {
			t.Fatalf("percent exceeded 100: %d", got)
		}
		prev = got
	}
	if prev != 100 {
		t.Errorf("percent after all steps = %d, want 100", prev)
	}
}

func TestComputeActivityPercent_UnknownTypeIsZero(t *testing.T) {
	if got := ComputeActivityPercent(catalog.ActivityType("hologram"), ActivityState{Done: true}, 5); got != 0 {
		t.Errorf("unknown type percent = %d, want 0", got)
	}
}

func TestComputeLessonPercent(t *testing.T) {
	lesson := &catalog.Lesson{
		ID: "l1",
		Activities: []catalog.Activity{
			{ID: "video", Type: catalog.Video},
			{ID: "tutor", Type: catalog.Tutor, TotalUnits: 3},
			{ID: "conclusion", Type: catalog.Conclusion},
		},
	}

	m := ActivityMap{}
	if got := ComputeLessonPercent(lesson, m); got != 0 {
		t.Errorf("empty map: percent = %d, want 0", got)
	}

	st := m["video"]
	st.MarkDone()
	m["video"] = st
	// video=100, tutor=0, conclusion=0 -> round(100/3) = 33
	if got := ComputeLessonPercent(lesson, m); got != 33 {
		t.Errorf("video only: percent = %d, want 33", got)
	}

	tut := m["tutor"]
	tut.AddStep(0)
	tut.AddStep(1)
	m["tutor"] = tut
	// video=100, tutor=67, conclusion=0 -> round(167/3) = 56
	if got := ComputeLessonPercent(lesson, m); got != 56 {
		t.Errorf("video+2 steps: percent = %d, want 56", got)
	}
}

func TestComputeModulePercent(t *testing.T) {
	tests := []struct {
		name     string
		percents []int
		want     int
	}{
		{"empty", nil, 0},
		{"both complete", []int{100, 100}, 100},
		{"half and full", []int{50, 100}, 75},
		{"rounds up", []int{33, 34}, 34},
		{"single lesson", []int{67}, 67},
	}

	for _, tt := range tests {
		if got := ComputeModulePercent(tt.percents); got != tt.want {
			t.Errorf("%s: module percent = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestComputeModulePercent_OrderIndependent(t *testing.T) {
	percents := []int{10, 40, 90, 100, 0, 67}
	want := ComputeModulePercent(percents)

	r := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := make([]int, len(percents))
		copy(shuffled, percents)
		r.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		if got := ComputeModulePercent(shuffled); got != want {
			t.Fatalf("permutation changed result: %d, want %d", got, want)
		}
	}
}
