package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/example/feecc/internal/ports/primary"
)

// PassportAdapter translates passport commands into UnitService and RevisionService calls.
type PassportAdapter struct {
	units     primary.UnitService
	revisions primary.RevisionService
	out       io.Writer
}

// NewPassportAdapter creates a new PassportAdapter.
func NewPassportAdapter(units primary.UnitService, revisions primary.RevisionService, out io.Writer) *PassportAdapter {
	return &PassportAdapter{units: units, revisions: revisions, out: out}
}

// Show prints a unit with its biography.
func (a *PassportAdapter) Show(ctx context.Context, internalID string) (*primary.Passport, error) {
	p, err := a.units.GetPassport(ctx, internalID)
	if err != nil {
		return nil, fmt.Errorf("failed to get passport: %w", err)
	}

	fmt.Fprintf(a.out, "\nUnit:    %s (%s)\n", p.InternalID, p.UUID)
	fmt.Fprintf(a.out, "Status:  %s\n", colorStatus(p.Status))
	if p.Model != "" {
		fmt.Fprintf(a.out, "Model:   %s\n", p.Model)
	}
	if p.Type != "" {
		fmt.Fprintf(a.out, "Type:    %s\n", p.Type)
	}
	if p.SerialNumber != "" {
		fmt.Fprintf(a.out, "Serial:  %s\n", p.SerialNumber)
	}
	if p.ParentialUnit != "" {
		fmt.Fprintf(a.out, "Part of: %s\n", p.ParentialUnit)
	}
	created := p.CreationTime
	fmt.Fprintf(a.out, "Created: %s\n", formatTime(&created))

	if len(p.Biography) == 0 {
		fmt.Fprintln(a.out, "\nNo stages recorded")
		fmt.Fprintln(a.out)
		return p, nil
	}

	fmt.Fprintf(a.out, "\n   %-34s %-4s %-24s %-18s %s\n", "STAGE ID", "NO", "NAME", "ENDED", "EMPLOYEE")
	fmt.Fprintln(a.out, "────────────────────────────────────────────────────────────────────────────────────────────")
	for _, s := range p.Biography {
		number := stageNumber(s)
		name := s.Name
		if s.UnitName != "" {
			name = s.UnitName + "/" + s.Name
		}
		fmt.Fprintf(a.out, "%s  %-34s %-4s %-24s %-18s %s\n",
			completionMark(s.Completed), s.ID, number, name, formatTime(s.SessionEndTime), s.EmployeeName)
	}
	fmt.Fprintln(a.out)
	return p, nil
}

// History prints the status changes of a unit.
func (a *PassportAdapter) History(ctx context.Context, internalID string) error {
	history, err := a.units.GetHistory(ctx, internalID)
	if err != nil {
		return fmt.Errorf("failed to get history: %w", err)
	}
	if len(history) == 0 {
		fmt.Fprintln(a.out, "No status changes recorded")
		return nil
	}
	for _, h := range history {
		changed := h.ChangedAt
		fmt.Fprintf(a.out, "%s  %s → %s  %s\n", formatTime(&changed), h.OldStatus, colorStatus(h.NewStatus), h.Actor)
	}
	return nil
}

// Revise sends the given stages of a built unit back for rework.
func (a *PassportAdapter) Revise(ctx context.Context, internalID string, stageIDs []string) error {
	result, err := a.revisions.SendForRevision(ctx, primary.SendForRevisionRequest{
		InternalID: internalID,
		StageIDs:   stageIDs,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ Unit %s is now %s\n", result.InternalID, colorStatus(result.Status))
	for _, s := range result.NewStages {
		fmt.Fprintf(a.out, "  reopened %s as %s (#%s)\n", s.Name, s.ID, stageNumber(s))
	}
	return nil
}

// Cancel cancels a rework stage.
func (a *PassportAdapter) Cancel(ctx context.Context, stageID, employee string) error {
	result, err := a.revisions.CancelRevision(ctx, primary.CancelRevisionRequest{
		StageID:  stageID,
		Employee: employee,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ Stage %s cancelled\n", result.Stage.ID)
	fmt.Fprintf(a.out, "  unit %s is %s with %d incomplete stage(s)\n",
		result.UnitInternalID, colorStatus(result.UnitStatus), result.IncompleteStages)
	return nil
}

func stageNumber(s *primary.Stage) string {
	if s.Number == nil {
		return "-"
	}
	return fmt.Sprint(*s.Number)
}
