package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/example/feecc/internal/ports/primary"
)

// ProtocolAdapter translates protocol commands into ProtocolService calls.
type ProtocolAdapter struct {
	service primary.ProtocolService
	out     io.Writer
}

// NewProtocolAdapter creates a new ProtocolAdapter.
func NewProtocolAdapter(service primary.ProtocolService, out io.Writer) *ProtocolAdapter {
	return &ProtocolAdapter{service: service, out: out}
}

// Show prints the unit's protocol, or the prototype when none is saved yet.
func (a *ProtocolAdapter) Show(ctx context.Context, internalID string) error {
	view, err := a.service.GetProtocol(ctx, internalID, nil)
	if err != nil {
		return fmt.Errorf("failed to get protocol: %w", err)
	}
	p := view.Protocol

	status := "not started"
	if p.Status != "" {
		status = colorStatus(p.Status)
	}
	fmt.Fprintf(a.out, "\nProtocol: %s\n", p.ProtocolName)
	fmt.Fprintf(a.out, "Unit:     %s\n", p.AssociatedUnitID)
	fmt.Fprintf(a.out, "Serial:   %s\n", view.SerialNumber)
	fmt.Fprintf(a.out, "Status:   %s\n", status)

	fmt.Fprintf(a.out, "\n   %-30s %-16s %-12s %-12s %s\n", "NAME", "VALUE", "DEVIATION", "TEST 1", "TEST 2")
	fmt.Fprintln(a.out, "────────────────────────────────────────────────────────────────────────────────────")
	for _, row := range p.Rows {
		fmt.Fprintf(a.out, "%s  %-30s %-16s %-12s %-12s %s\n",
			completionMark(row.Checked), row.Name, row.Value, row.Deviation, row.Test1, row.Test2)
	}
	fmt.Fprintln(a.out)
	return nil
}

// List prints protocol instances, optionally filtered by status.
func (a *ProtocolAdapter) List(ctx context.Context, status string) error {
	protocols, err := a.service.ListProtocols(ctx, status)
	if err != nil {
		return fmt.Errorf("failed to list protocols: %w", err)
	}
	if len(protocols) == 0 {
		fmt.Fprintln(a.out, "No protocols found")
		return nil
	}

	fmt.Fprintf(a.out, "\n%-16s %-22s %s\n", "UNIT", "STATUS", "PROTOCOL")
	fmt.Fprintln(a.out, "────────────────────────────────────────────────────────────────")
	for _, p := range protocols {
		fmt.Fprintf(a.out, "%-16s %-22s %s\n", p.AssociatedUnitID, colorStatus(p.Status), p.ProtocolName)
	}
	fmt.Fprintln(a.out)
	return nil
}

// Approve freezes the protocol and finalizes the unit.
func (a *ProtocolAdapter) Approve(ctx context.Context, internalID string) error {
	if _, err := a.service.Approve(ctx, internalID); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Protocol for unit %s approved, unit %s\n", internalID, colorStatus("finalized"))
	return nil
}

// Remove deletes the unit's protocol instance.
func (a *ProtocolAdapter) Remove(ctx context.Context, internalID string) error {
	if err := a.service.Remove(ctx, internalID); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Protocol for unit %s removed\n", internalID)
	return nil
}
