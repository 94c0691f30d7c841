package core

import "testing"

func TestInputsPatchApply(t *testing.T) {
	base := ProjectionInputs{
		MonthlyIncome:   1000,
		MonthlyExpenses: 800,
		LumpSumEvents:   []LumpSumEvent{{Month: 3, Amount: 100, Description: "gift"}},
	}
	income := 1500.0
	events := []LumpSumEvent{{Month: 6, Amount: -50, Description: "repair"}}
	got := InputsPatch{MonthlyIncome: &income, LumpSumEvents: &events}.Apply(base)

	if got.MonthlyIncome != 1500 || got.MonthlyExpenses != 800 {
		t.Fatalf("unexpected merge: %+v", got)
	}
	if len(got.LumpSumEvents) != 1 || got.LumpSumEvents[0].Month != 6 {
		t.Fatalf("lump sums not replaced: %+v", got.LumpSumEvents)
	}
	events[0].Month = 9
	if got.LumpSumEvents[0].Month != 6 {
		t.Fatalf("patched lump sums alias the patch slice")
	}
	if base.MonthlyIncome != 1000 || base.LumpSumEvents[0].Month != 3 {
		t.Fatalf("base mutated: %+v", base)
	}
}

func TestInputsPatchIsEmpty(t *testing.T) {
	if !(InputsPatch{}).IsEmpty() {
		t.Fatalf("zero patch should be empty")
	}
	v := 0.0
	if (InputsPatch{SavingsGoal: &v}).IsEmpty() {
		t.Fatalf("patch with a zero value is not empty")
	}
}

func TestInputsCloneKeepsEmptyLumpSums(t *testing.T) {
	in := ProjectionInputs{LumpSumEvents: []LumpSumEvent{}}
	if got := in.Clone().LumpSumEvents; got == nil {
		t.Fatalf("Clone() turned empty lump sums into nil")
	}
	if got := (InputsPatch{}).Apply(in).LumpSumEvents; got == nil {
		t.Fatalf("Apply() turned empty lump sums into nil")
	}
	if got := (ProjectionInputs{}).Clone().LumpSumEvents; got != nil {
		t.Fatalf("Clone() of nil lump sums = %#v, want nil", got)
	}
}

func TestFinancialProjectionClone(t *testing.T) {
	amount := 50000.0
	orig := FinancialProjection{
		DataPoints: []ProjectionDataPoint{{Month: 0, NetWorth: 10}},
		Milestones: []ProjectionMilestone{{Month: 3, Title: "Net worth", Amount: &amount}},
	}
	cp := orig.Clone()
	cp.DataPoints[0].NetWorth = -1
	cp.Milestones[0].Title = "changed"
	*cp.Milestones[0].Amount = 1

	if orig.DataPoints[0].NetWorth != 10 {
		t.Errorf("data points shared with clone")
	}
	if orig.Milestones[0].Title != "Net worth" || *orig.Milestones[0].Amount != 50000 {
		t.Errorf("milestones shared with clone: %+v", orig.Milestones[0])
	}
}
