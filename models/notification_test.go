package models

import "testing"

func TestMilestoneFor(t *testing.T) {
	tests := []struct {
		offset   int
		expected string
	}{
		{7, "D-7"},
		{0, "D-0"},
		{14, "D-14"},
		{1, "D-1"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			m := MilestoneFor(tt.offset)
			if m.Name != tt.expected {
				t.Errorf("Expected name %q, got %q", tt.expected, m.Name)
			}
			if m.Offset != tt.offset {
				t.Errorf("Expected offset %d, got %d", tt.offset, m.Offset)
			}
		})
	}
}

func TestMilestones(t *testing.T) {
	milestones := Milestones([]int{7, 0})

	if len(milestones) != 2 {
		t.Fatalf("Expected 2 milestones, got %d", len(milestones))
	}

	if milestones[0].Name != "D-7" || milestones[1].Name != "D-0" {
		t.Errorf("Expected [D-7 D-0], got [%s %s]", milestones[0].Name, milestones[1].Name)
	}
}

func TestMilestones_Empty(t *testing.T) {
	milestones := Milestones(nil)
	if len(milestones) != 0 {
		t.Errorf("Expected no milestones, got %d", len(milestones))
	}
}
