package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/kursadbilgin/donor-dispatch/internal/domain"
)

func TestRootRegistersCommands(t *testing.T) {
	root := newRootCmd()
	want := []string{"migrate", "notify", "rank", "refresh-priority"}
	for _, name := range want {
		found := false
		for _, c := range root.Commands() {
			if c.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("command %q not registered", name)
		}
	}
}

func TestRankRequiresBloodGroup(t *testing.T) {
	t.Parallel()

	cmd := rankCmd()
	cmd.SetArgs([]string{})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "blood-group") {
		t.Fatalf("Execute() error = %v, want missing blood-group flag", err)
	}
}

func TestRankRejectsPartialCoordinates(t *testing.T) {
	t.Parallel()

	cmd := rankCmd()
	cmd.SetArgs([]string{"--blood-group", "O-", "--lat", "12.9"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	if err := cmd.Execute(); err == nil || !strings.Contains(err.Error(), "--lat and --lon") {
		t.Fatalf("Execute() error = %v, want coordinate validation error", err)
	}
}

func TestPrintCandidatesTable(t *testing.T) {
	t.Parallel()

	distance := 3.26
	candidates := []domain.MatchCandidate{
		{
			Donor:      domain.Donor{ID: 1, FullName: "Meera", BloodGroup: domain.BloodGroupONegative, PhoneNumber: "9876543210", PriorityScore: 90},
			DistanceKm: &distance,
			MatchScore: 93.2,
		},
		{
			Donor:      domain.Donor{ID: 2, FullName: "Arjun", BloodGroup: domain.BloodGroupOPositive, PhoneNumber: "9123456789", PriorityScore: 60},
			MatchScore: 36,
		},
	}

	var buf bytes.Buffer
	if err := printCandidatesTable(&buf, candidates); err != nil {
		t.Fatalf("printCandidatesTable() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want header + 2 rows:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "ID") || !strings.Contains(lines[1], "3.3km") || !strings.Contains(lines[1], "O-") {
		t.Fatalf("unexpected table:\n%s", buf.String())
	}
	if !strings.Contains(lines[2], " - ") || !strings.Contains(lines[2], "36.0") {
		t.Fatalf("row without location should show '-':\n%s", buf.String())
	}
}

func TestOutputJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := outputJSON(&buf, map[string]int{"updated": 3}); err != nil {
		t.Fatalf("outputJSON() error = %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "{\n  \"updated\": 3\n}" {
		t.Fatalf("outputJSON() = %q", got)
	}
}
